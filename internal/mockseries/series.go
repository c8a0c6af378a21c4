// Package mockseries synthesizes reproducible daily price series for symbols
// whose live history is unavailable.
package mockseries

import (
	"unicode/utf16"

	"github.com/stockdash/stockdash-backend/internal/pricing"
)

// DefaultLength and MaxLength bound the lengths callers accept from users.
const (
	DefaultLength = 30
	MaxLength     = 365

	seedModulus = 100000
	lcgMul      = 1664525
	lcgInc      = 1013904223
	twoPow32    = 4294967296.0
)

// Generator is a 32-bit linear congruential generator.
type Generator struct {
	seed uint32
}

// NewGenerator returns a generator seeded from the symbol.
func NewGenerator(symbol string) *Generator {
	return &Generator{seed: Seed(symbol)}
}

// Seed folds the UTF-16 code units of symbol into a value below 100000.
func Seed(symbol string) uint32 {
	var seed uint32
	for _, c := range utf16.Encode([]rune(symbol)) {
		seed = (seed*31 + uint32(c)) % seedModulus
	}
	return seed
}

// Next advances the generator and returns a value in [0, max).
func (g *Generator) Next(max float64) float64 {
	g.seed = g.seed*lcgMul + lcgInc // wraps mod 2^32
	return float64(g.seed) / twoPow32 * max
}

// Series returns exactly n daily closes for symbol, oldest first, and an
// empty series when n <= 0.
func Series(symbol string, n int) []float64 {
	if n <= 0 {
		return []float64{}
	}

	g := NewGenerator(symbol)
	v := 50 + g.Next(50)

	out := make([]float64, n)
	for i := range out {
		v = pricing.Round2(v * (1 + (g.Next(0.02) - 0.01)))
		out[i] = v
	}
	return out
}
