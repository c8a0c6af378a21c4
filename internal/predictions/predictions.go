// Package predictions serves the mock price predictions shown on the
// predict page. Nothing here is a model; the figures come from the catalog.
package predictions

import (
	"github.com/stockdash/stockdash-backend/internal/models"
	"github.com/stockdash/stockdash-backend/internal/pricing"
	"github.com/stockdash/stockdash-backend/internal/symbols"
)

// View is a prediction plus the derived upside.
type View struct {
	models.Prediction
	UpsidePercent float64 `json:"upsidePercent"`
}

type Book struct {
	items []models.Prediction
	index map[string]int
}

func NewBook(items []models.Prediction) *Book {
	b := &Book{
		items: append([]models.Prediction(nil), items...),
		index: make(map[string]int, len(items)),
	}
	for i, p := range b.items {
		if _, dup := b.index[p.Symbol]; !dup {
			b.index[p.Symbol] = i
		}
	}
	return b
}

// Upside is the predicted move relative to the current price, in percent.
func Upside(p models.Prediction) float64 {
	if p.CurrentPrice == 0 {
		return 0
	}
	return pricing.Round2((p.PredictedPrice - p.CurrentPrice) / p.CurrentPrice * 100)
}

func (b *Book) All() []View {
	out := make([]View, len(b.items))
	for i, p := range b.items {
		out[i] = View{Prediction: p, UpsidePercent: Upside(p)}
	}
	return out
}

// Find looks up a prediction by symbol; the decoded query is trimmed and
// upper-cased first.
func (b *Book) Find(query string) (View, bool) {
	i, ok := b.index[symbols.Canonical(query)]
	if !ok {
		return View{}, false
	}
	p := b.items[i]
	return View{Prediction: p, UpsidePercent: Upside(p)}, true
}
