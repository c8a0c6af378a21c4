// Package quotes turns a list of symbols into renderable quote records, using
// the cached snapshot when it is fresh and the remote quote API otherwise.
package quotes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stockdash/stockdash-backend/internal/external"
	"github.com/stockdash/stockdash-backend/internal/mockseries"
	"github.com/stockdash/stockdash-backend/internal/models"
	"github.com/stockdash/stockdash-backend/internal/pricing"
	"github.com/stockdash/stockdash-backend/internal/quotecache"
)

const DefaultSeriesDays = 30

// Source is the remote quote API.
type Source interface {
	Quote(ctx context.Context, symbol string) (*external.Quote, error)
	Candles(ctx context.Context, symbol string, from, to time.Time) (*external.Candles, error)
}

type Resolver struct {
	source     Source
	cache      *quotecache.Cache
	seriesDays int
	now        func() time.Time

	// one resolution loop at a time keeps upstream calls strictly sequential
	runMu sync.Mutex
}

type Options struct {
	SeriesDays int
	Now        func() time.Time
}

func NewResolver(source Source, cache *quotecache.Cache, opts Options) *Resolver {
	days := opts.SeriesDays
	if days <= 0 {
		days = DefaultSeriesDays
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Resolver{source: source, cache: cache, seriesDays: days, now: now}
}

// Result holds one record per requested symbol.
type Result struct {
	Records   map[string]models.QuoteRecord `json:"records"`
	FromCache bool                          `json:"fromCache"`
	// Live lists symbols resolved from the quote API during this call.
	Live []string `json:"live"`
	// Mock lists symbols rendered from synthesized data that was not cached.
	Mock []string `json:"mock"`
}

// Ordered returns the records in the order of symbols.
func (r *Result) Ordered(symbols []string) []models.QuoteRecord {
	out := make([]models.QuoteRecord, 0, len(symbols))
	for _, s := range symbols {
		if rec, ok := r.Records[s]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Resolve never fails: a fresh snapshot is served as-is, otherwise symbols are
// fetched one after another and each success is persisted immediately.
// Symbols that cannot be fetched are filled with mock records that are not
// cached. Cancelling ctx stops the loop and any further cache writes.
func (r *Resolver) Resolve(ctx context.Context, symbols []string) *Result {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	res := &Result{Records: make(map[string]models.QuoteRecord, len(symbols))}

	if snap, ok := r.cache.Load(ctx, r.now()); ok {
		fmt.Printf("[QUOTES] Serving %d cached records\n", len(snap))
		res.FromCache = true
		for _, s := range symbols {
			if rec, ok := snap[s]; ok {
				res.Records[s] = rec
			}
		}
		r.fillMock(res, symbols)
		return res
	}

	for _, s := range symbols {
		rec, err := r.fetch(ctx, s)
		if ctx.Err() != nil {
			fmt.Printf("[QUOTES] Resolution cancelled after %s\n", s)
			break
		}
		if err != nil {
			fmt.Printf("[QUOTES] Skipping %s: %v\n", s, err)
			continue
		}

		if err := r.cache.Put(ctx, *rec, r.now()); err != nil {
			fmt.Printf("[QUOTES] Cache write for %s failed: %v\n", s, err)
		}
		res.Records[s] = *rec
		res.Live = append(res.Live, s)
	}

	r.fillMock(res, symbols)
	return res
}

// ResolveOne fetches a single symbol for the detail view without reading or
// writing the snapshot cache. A failed fetch falls back to an uncached mock
// record.
func (r *Resolver) ResolveOne(ctx context.Context, symbol string) *Result {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	res := &Result{Records: make(map[string]models.QuoteRecord, 1)}
	rec, err := r.fetch(ctx, symbol)
	switch {
	case ctx.Err() != nil:
		fmt.Printf("[QUOTES] Detail fetch for %s cancelled\n", symbol)
	case err != nil:
		fmt.Printf("[QUOTES] Detail fetch for %s failed: %v\n", symbol, err)
	default:
		res.Records[symbol] = *rec
		res.Live = []string{symbol}
	}

	r.fillMock(res, []string{symbol})
	return res
}

// fetch runs the two upstream calls for one symbol.
func (r *Resolver) fetch(ctx context.Context, symbol string) (*models.QuoteRecord, error) {
	q, err := r.source.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	to := r.now()
	from := to.AddDate(0, 0, -r.seriesDays)
	candles, err := r.source.Candles(ctx, symbol, from, to)
	if err != nil {
		return nil, err
	}

	var series []float64
	if candles.OK() {
		closes := candles.Close
		if len(closes) > r.seriesDays {
			closes = closes[len(closes)-r.seriesDays:]
		}
		series = make([]float64, len(closes))
		copy(series, closes)
	} else {
		series = mockseries.Series(symbol, r.seriesDays)
	}

	change, percent := pricing.Change(q.Current, q.PrevClose)
	return &models.QuoteRecord{
		Symbol:  symbol,
		Price:   q.Current,
		Change:  change,
		Percent: percent,
		Series:  series,
	}, nil
}

func (r *Resolver) fillMock(res *Result, symbols []string) {
	for _, s := range symbols {
		if _, ok := res.Records[s]; ok {
			continue
		}
		res.Records[s] = MockRecord(s, r.seriesDays)
		res.Mock = append(res.Mock, s)
	}
}

// MockRecord builds a record entirely from the synthesized series: price is
// the last point and the move is measured against the point before it.
func MockRecord(symbol string, days int) models.QuoteRecord {
	series := mockseries.Series(symbol, days)
	rec := models.QuoteRecord{Symbol: symbol, Series: series}
	if n := len(series); n > 0 {
		rec.Price = series[n-1]
		prev := rec.Price
		if n > 1 {
			prev = series[n-2]
		}
		rec.Change, rec.Percent = pricing.Change(rec.Price, prev)
	}
	return rec
}
