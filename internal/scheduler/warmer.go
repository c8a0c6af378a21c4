// Package scheduler keeps the quote cache warm on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stockdash/stockdash-backend/internal/quotes"
)

const DefaultSchedule = "0 */30 * * * *"

type QuoteResolver interface {
	Resolve(ctx context.Context, symbols []string) *quotes.Result
}

type Notifier interface {
	Send(ctx context.Context, msg string) error
}

type WarmerConfig struct {
	Schedule string
	Symbols  []string
	Timeout  time.Duration
	Notifier Notifier
}

// Warmer resolves a fixed symbol list so page loads hit a fresh cache.
type Warmer struct {
	resolver QuoteResolver
	cfg      WarmerConfig

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
	last    *quotes.Result
	lastAt  time.Time
}

func NewWarmer(resolver QuoteResolver, cfg WarmerConfig) *Warmer {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Warmer{resolver: resolver, cfg: cfg}
}

func (w *Warmer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		fmt.Println("[WARMER] Already running")
		return nil
	}

	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(w.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), w.cfg.Timeout)
		defer cancel()
		w.RunNow(ctx)
	})
	if err != nil {
		return fmt.Errorf("schedule %q: %w", w.cfg.Schedule, err)
	}
	c.Start()

	w.cron = c
	w.running = true
	fmt.Printf("[WARMER] Started (%s, %d symbols)\n", w.cfg.Schedule, len(w.cfg.Symbols))
	return nil
}

// Stop waits for an in-flight run to finish.
func (w *Warmer) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	c := w.cron
	w.running = false
	w.cron = nil
	w.mu.Unlock()

	<-c.Stop().Done()
	fmt.Println("[WARMER] Stopped")
}

func (w *Warmer) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunNow resolves the configured symbols once.
func (w *Warmer) RunNow(ctx context.Context) *quotes.Result {
	start := time.Now()
	res := w.resolver.Resolve(ctx, w.cfg.Symbols)

	w.mu.Lock()
	w.last = res
	w.lastAt = start
	w.mu.Unlock()

	switch {
	case res.FromCache:
		fmt.Printf("[WARMER] Cache still fresh (%d symbols)\n", len(w.cfg.Symbols))
	default:
		fmt.Printf("[WARMER] Refreshed %d/%d symbols in %s\n",
			len(res.Live), len(w.cfg.Symbols), time.Since(start).Round(time.Millisecond))
	}

	if len(res.Mock) > 0 && !res.FromCache && w.cfg.Notifier != nil {
		msg := fmt.Sprintf("Quote refresh fell back to mock data for %d symbol(s): %s",
			len(res.Mock), strings.Join(res.Mock, ", "))
		if err := w.cfg.Notifier.Send(ctx, msg); err != nil {
			fmt.Printf("[WARMER] Notification failed: %v\n", err)
		}
	}
	return res
}

// Last returns the most recent run result and when it started.
func (w *Warmer) Last() (*quotes.Result, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last, w.lastAt
}
