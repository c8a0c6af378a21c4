// Package catalog holds the static content served by the dashboard: popular
// symbols, mock predictions and the team roster.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/stockdash/stockdash-backend/internal/models"
	"github.com/stockdash/stockdash-backend/internal/symbols"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

type Catalog struct {
	PopularSymbols []string            `yaml:"popular_symbols"`
	Predictions    []models.Prediction `yaml:"predictions"`
	Team           []models.TeamMember `yaml:"team"`
}

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}
	return c
}

// Load reads a catalog file. An empty path or a missing file yields the
// embedded default; sections left empty in the file are taken from it too.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Printf("[CATALOG] %s not found, using embedded default\n", path)
			return Default(), nil
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	def := Default()
	if len(c.PopularSymbols) == 0 {
		c.PopularSymbols = def.PopularSymbols
	}
	if len(c.Predictions) == 0 {
		c.Predictions = def.Predictions
	}
	if len(c.Team) == 0 {
		c.Team = def.Team
	}
	return c, nil
}

// Parse decodes and validates catalog YAML. Symbols are normalized.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	seen := make(map[string]bool)
	popular := c.PopularSymbols[:0]
	for _, s := range c.PopularSymbols {
		s = symbols.Canonical(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		popular = append(popular, s)
	}
	c.PopularSymbols = popular

	for i := range c.Predictions {
		p := &c.Predictions[i]
		p.Symbol = symbols.Canonical(p.Symbol)
		if p.Symbol == "" {
			return nil, fmt.Errorf("prediction %d: symbol is required", i)
		}
		if p.CurrentPrice <= 0 {
			return nil, fmt.Errorf("prediction %s: current_price must be positive", p.Symbol)
		}
		if p.Confidence < 0 || p.Confidence > 100 {
			return nil, fmt.Errorf("prediction %s: confidence must be 0-100", p.Symbol)
		}
		switch p.Recommendation {
		case models.RecommendBuy, models.RecommendSell, models.RecommendHold:
		default:
			return nil, fmt.Errorf("prediction %s: unknown recommendation %q", p.Symbol, p.Recommendation)
		}
	}
	return &c, nil
}
