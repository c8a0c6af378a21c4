package quotecache

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stockdash/stockdash-backend/internal/models"
)

var t0 = time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

func rec(sym string, price float64) models.QuoteRecord {
	return models.QuoteRecord{Symbol: sym, Price: price, Series: []float64{price - 1, price}}
}

func TestCache_EmptyStoreMisses(t *testing.T) {
	c := New(NewMemoryStore(), 0)
	if snap, ok := c.Load(context.Background(), t0); ok || snap != nil {
		t.Fatalf("expected miss on empty store, got %v", snap)
	}
	if c.TTL() != DefaultTTL {
		t.Fatalf("TTL = %v, want %v", c.TTL(), DefaultTTL)
	}
}

func TestCache_PutPersistsWholeMap(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := New(store, 24*time.Hour)
	c.Load(ctx, t0)

	if err := c.Put(ctx, rec("AAPL", 190), t0); err != nil {
		t.Fatalf("Put AAPL: %v", err)
	}
	later := t0.Add(time.Minute)
	if err := c.Put(ctx, rec("MSFT", 420), later); err != nil {
		t.Fatalf("Put MSFT: %v", err)
	}

	raw, ok, _ := store.Get(ctx, QuotesKey)
	if !ok {
		t.Fatal("quotes key not written")
	}
	var persisted map[string]models.QuoteRecord
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatalf("persisted content not JSON: %v", err)
	}
	if len(persisted) != 2 || persisted["AAPL"].Price != 190 || persisted["MSFT"].Price != 420 {
		t.Fatalf("unexpected persisted map: %+v", persisted)
	}

	expRaw, _, _ := store.Get(ctx, ExpiryKey)
	want := strconv.FormatInt(later.Add(24*time.Hour).UnixMilli(), 10)
	if expRaw != want {
		t.Fatalf("expiry = %s, want %s (refreshed on every Put)", expRaw, want)
	}
}

func TestCache_LoadValidSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	writer := New(store, time.Hour)
	writer.Put(ctx, rec("TSLA", 250), t0)

	reader := New(store, time.Hour)
	snap, ok := reader.Load(ctx, t0.Add(30*time.Minute))
	if !ok {
		t.Fatal("expected hit before expiry")
	}
	if snap["TSLA"].Price != 250 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if got := reader.Snapshot(); len(got) != 1 {
		t.Fatalf("in-memory map not seeded: %+v", got)
	}
}

func TestCache_LoadAtExactExpiryIsValid(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := New(store, time.Hour)
	c.Put(ctx, rec("TSLA", 250), t0)

	if _, ok := New(store, time.Hour).Load(ctx, t0.Add(time.Hour)); !ok {
		t.Fatal("expected hit when now == expiry")
	}
}

func TestCache_ExpiredClearsBothKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := New(store, time.Hour)
	c.Put(ctx, rec("AAPL", 190), t0)

	snap, ok := c.Load(ctx, t0.Add(time.Hour+time.Millisecond))
	if ok || snap != nil {
		t.Fatalf("expected miss after expiry, got %v", snap)
	}
	if _, ok, _ := store.Get(ctx, QuotesKey); ok {
		t.Fatal("quotes key should be cleared")
	}
	if _, ok, _ := store.Get(ctx, ExpiryKey); ok {
		t.Fatal("expiry key should be cleared")
	}
	if len(c.Snapshot()) != 0 {
		t.Fatal("in-memory entries should be reset")
	}
}

func TestCache_CorruptContentIsMiss(t *testing.T) {
	ctx := context.Background()
	cases := map[string][2]string{
		"bad json":   {"{not json", strconv.FormatInt(t0.Add(time.Hour).UnixMilli(), 10)},
		"null json":  {"null", strconv.FormatInt(t0.Add(time.Hour).UnixMilli(), 10)},
		"bad expiry": {`{"AAPL":{"symbol":"AAPL"}}`, "tomorrow"},
	}
	for name, kv := range cases {
		store := NewMemoryStore()
		store.Set(ctx, QuotesKey, kv[0])
		store.Set(ctx, ExpiryKey, kv[1])

		if _, ok := New(store, time.Hour).Load(ctx, t0); ok {
			t.Fatalf("%s: expected miss", name)
		}
		if _, ok, _ := store.Get(ctx, QuotesKey); ok {
			t.Fatalf("%s: quotes key should be cleared", name)
		}
	}
}

func TestCache_MissingExpiryIsMiss(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Set(ctx, QuotesKey, `{"AAPL":{"symbol":"AAPL","price":1}}`)

	if _, ok := New(store, time.Hour).Load(ctx, t0); ok {
		t.Fatal("expected miss without expiry key")
	}
	if _, ok, _ := store.Get(ctx, QuotesKey); ok {
		t.Fatal("orphan quotes key should be cleared")
	}
}

func TestCache_PutDoesNotAliasCallerSeries(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(), time.Hour)
	r := rec("AAPL", 10)
	c.Put(ctx, r, t0)

	r.Series[0] = -999
	if got := c.Snapshot()["AAPL"].Series[0]; got == -999 {
		t.Fatal("cached series shares memory with caller")
	}

	snap := c.Snapshot()
	snap["AAPL"].Series[1] = -1
	if got := c.Snapshot()["AAPL"].Series[1]; got == -1 {
		t.Fatal("snapshot shares memory with cache")
	}
}

func TestCache_PutReplacesEntry(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(), time.Hour)
	c.Put(ctx, rec("AAPL", 10), t0)
	c.Put(ctx, rec("AAPL", 11), t0)

	snap := c.Snapshot()
	if len(snap) != 1 || snap["AAPL"].Price != 11 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := New(store, time.Hour)
	c.Put(ctx, rec("AAPL", 10), t0)

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, ok, _ := store.Get(ctx, QuotesKey); ok {
		t.Fatal("quotes key should be gone")
	}
	if _, ok := c.Expiry(ctx); ok {
		t.Fatal("expiry should be gone")
	}
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(), 2*time.Hour)
	c.Put(ctx, rec("AAPL", 10), t0)

	exp, ok := c.Expiry(ctx)
	if !ok || !exp.Equal(t0.Add(2*time.Hour)) {
		t.Fatalf("Expiry = %v, %v; want %v", exp, ok, t0.Add(2*time.Hour))
	}
}

// failingStore fails every operation.
type failingStore struct{}

var errStorage = errors.New("quota exceeded")

func (failingStore) Get(context.Context, string) (string, bool, error) { return "", false, errStorage }
func (failingStore) Set(context.Context, string, string) error         { return errStorage }
func (failingStore) Delete(context.Context, ...string) error           { return errStorage }

func TestCache_StorageErrorsDegrade(t *testing.T) {
	ctx := context.Background()
	c := New(failingStore{}, time.Hour)

	if _, ok := c.Load(ctx, t0); ok {
		t.Fatal("expected miss on read error")
	}

	err := c.Put(ctx, rec("AAPL", 10), t0)
	if !errors.Is(err, errStorage) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
	if c.Snapshot()["AAPL"].Price != 10 {
		t.Fatal("in-memory entry should survive a failed write")
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.Get(ctx, "missing"); ok || err != nil {
		t.Fatalf("Get(missing) = %v, %v", ok, err)
	}

	if err := store.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := store.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || v != "v2" {
		t.Fatalf("Get(k) = %q, %v, %v", v, ok, err)
	}

	if err := store.Delete(ctx, "k", "missing"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Fatal("key should be deleted")
	}
}

func TestSQLiteStore_BacksCacheAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	first, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	New(first, time.Hour).Put(ctx, rec("NVDA", 900), t0)
	first.Close()

	second, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	snap, ok := New(second, time.Hour).Load(ctx, t0.Add(time.Minute))
	if !ok || snap["NVDA"].Price != 900 {
		t.Fatalf("expected persisted NVDA, got %v %+v", ok, snap)
	}
}

func TestOpenStore(t *testing.T) {
	s, closeFn, err := OpenStore(BackendMemory, "", nil)
	if err != nil || s == nil {
		t.Fatalf("memory: %v", err)
	}
	closeFn()

	path := filepath.Join(t.TempDir(), "nested", "cache.db")
	s, closeFn, err = OpenStore(BackendSQLite, path, nil)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if _, ok := s.(*SQLiteStore); !ok {
		t.Fatalf("expected *SQLiteStore, got %T", s)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, _, err := OpenStore(BackendPostgres, "", nil); err == nil {
		t.Fatal("postgres without a shared store should fail")
	}
	shared := NewMemoryStore()
	if s, _, err := OpenStore(BackendPostgres, "", shared); err != nil || s != Store(shared) {
		t.Fatalf("postgres should return the shared store, got %v %v", s, err)
	}

	if _, _, err := OpenStore("redis", "", nil); err == nil {
		t.Fatal("unknown backend should fail")
	}
}
