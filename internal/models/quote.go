package models

// QuoteRecord is the rendered state of one symbol: latest price, move versus
// the previous close, and up to 30 daily closes oldest first.
type QuoteRecord struct {
	Symbol  string    `json:"symbol"`
	Price   float64   `json:"price"`
	Change  float64   `json:"change"`
	Percent float64   `json:"percent"`
	Series  []float64 `json:"series"`
}

// Clone returns a copy that shares no memory with r.
func (r QuoteRecord) Clone() QuoteRecord {
	out := r
	if r.Series != nil {
		out.Series = make([]float64, len(r.Series))
		copy(out.Series, r.Series)
	}
	return out
}
