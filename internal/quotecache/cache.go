// Package quotecache keeps resolved quote records in a durable store as a
// single snapshot that expires a fixed duration after the last write.
package quotecache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/stockdash/stockdash-backend/internal/models"
)

const DefaultTTL = 24 * time.Hour

// Cache is the in-memory view of the persisted snapshot. Entries are replaced,
// never edited, and every Put rewrites the whole map.
type Cache struct {
	store Store
	ttl   time.Duration

	mu      sync.Mutex
	entries map[string]models.QuoteRecord
}

func New(store Store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		store:   store,
		ttl:     ttl,
		entries: map[string]models.QuoteRecord{},
	}
}

func (c *Cache) TTL() time.Duration { return c.ttl }

// Load reads the persisted snapshot. It returns ok=false, after clearing both
// keys, when the snapshot is absent, unreadable, corrupt or expired.
func (c *Cache) Load(ctx context.Context, now time.Time) (map[string]models.QuoteRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, reason := c.read(ctx, now)
	if snap == nil {
		if reason != "" {
			fmt.Printf("[CACHE] Discarding snapshot: %s\n", reason)
		}
		c.resetLocked(ctx)
		return nil, false
	}

	c.entries = snap
	return cloneMap(snap), true
}

func (c *Cache) read(ctx context.Context, now time.Time) (map[string]models.QuoteRecord, string) {
	raw, ok, err := c.store.Get(ctx, QuotesKey)
	if err != nil {
		fmt.Printf("[CACHE] Read %s failed: %v\n", QuotesKey, err)
		return nil, "read error"
	}
	expRaw, expOK, err := c.store.Get(ctx, ExpiryKey)
	if err != nil {
		fmt.Printf("[CACHE] Read %s failed: %v\n", ExpiryKey, err)
		return nil, "read error"
	}
	if !ok || !expOK {
		return nil, ""
	}

	expiry, err := strconv.ParseFloat(strings.TrimSpace(expRaw), 64)
	if err != nil {
		return nil, fmt.Sprintf("bad expiry %q", expRaw)
	}
	if float64(now.UnixMilli()) > expiry {
		return nil, "expired"
	}

	var snap map[string]models.QuoteRecord
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Sprintf("corrupt content: %v", err)
	}
	if snap == nil {
		return nil, "empty content"
	}
	return snap, ""
}

// Put replaces the entry for rec.Symbol and persists the accumulated map with
// a fresh expiry of now + TTL. A failed write keeps the in-memory entry.
func (c *Cache) Put(ctx context.Context, rec models.QuoteRecord, now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := make(map[string]models.QuoteRecord, len(c.entries)+1)
	for k, v := range c.entries {
		next[k] = v
	}
	next[rec.Symbol] = rec.Clone()
	c.entries = next

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	expiry := now.Add(c.ttl).UnixMilli()

	if err := c.store.Set(ctx, QuotesKey, string(data)); err != nil {
		fmt.Printf("[CACHE] Write %s failed: %v\n", QuotesKey, err)
		return fmt.Errorf("persist quotes: %w", err)
	}
	if err := c.store.Set(ctx, ExpiryKey, strconv.FormatInt(expiry, 10)); err != nil {
		fmt.Printf("[CACHE] Write %s failed: %v\n", ExpiryKey, err)
		return fmt.Errorf("persist expiry: %w", err)
	}
	return nil
}

// Clear drops the persisted snapshot and the in-memory entries.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]models.QuoteRecord{}
	if err := c.store.Delete(ctx, QuotesKey, ExpiryKey); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the in-memory entries.
func (c *Cache) Snapshot() map[string]models.QuoteRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneMap(c.entries)
}

// Expiry returns the persisted expiry, if any.
func (c *Cache) Expiry(ctx context.Context) (time.Time, bool) {
	raw, ok, err := c.store.Get(ctx, ExpiryKey)
	if err != nil || !ok {
		return time.Time{}, false
	}
	ms, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)), true
}

func (c *Cache) resetLocked(ctx context.Context) {
	c.entries = map[string]models.QuoteRecord{}
	if err := c.store.Delete(ctx, QuotesKey, ExpiryKey); err != nil {
		fmt.Printf("[CACHE] Clear failed: %v\n", err)
	}
}

func cloneMap(in map[string]models.QuoteRecord) map[string]models.QuoteRecord {
	out := make(map[string]models.QuoteRecord, len(in))
	for k, v := range in {
		out[k] = v.Clone()
	}
	return out
}
