package external_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stockdash/stockdash-backend/internal/external"
)

func init() {
	_ = godotenv.Load("../../.env")
}

func newFinnhubStub(t *testing.T, handler http.HandlerFunc) *external.FinnhubClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return external.NewFinnhubClient("test-key", external.FinnhubOptions{BaseURL: srv.URL + "/"})
}

func TestFinnhubQuote(t *testing.T) {
	client := newFinnhubStub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("token"); got != "test-key" {
			t.Errorf("token = %q", got)
		}
		if got := r.URL.Query().Get("symbol"); got != "AAPL" {
			t.Errorf("symbol = %q", got)
		}
		w.Write([]byte(`{"c":191.2,"pc":189.95,"h":192,"l":188.1,"o":190,"t":1700000000}`))
	})

	q, err := client.Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Current != 191.2 || q.PrevClose != 189.95 {
		t.Fatalf("unexpected quote: %+v", q)
	}
}

func TestFinnhubCandles(t *testing.T) {
	from := time.Unix(1700000000, 0)
	to := from.Add(30 * 24 * time.Hour)

	client := newFinnhubStub(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/stock/candle" || q.Get("resolution") != "D" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if q.Get("from") != "1700000000" || q.Get("to") != "1702592000" {
			t.Errorf("from/to = %s/%s", q.Get("from"), q.Get("to"))
		}
		w.Write([]byte(`{"s":"ok","c":[1,2,3],"t":[1,2,3]}`))
	})

	c, err := client.Candles(context.Background(), "MSFT", from, to)
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	if !c.OK() || len(c.Close) != 3 {
		t.Fatalf("unexpected candles: %+v", c)
	}
}

func TestFinnhubCandles_NoData(t *testing.T) {
	client := newFinnhubStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"s":"no_data"}`))
	})

	c, err := client.Candles(context.Background(), "ZZZZ", time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	if c.OK() {
		t.Fatal("no_data should not be OK")
	}
}

func TestFinnhub_Errors(t *testing.T) {
	var calls atomic.Int32
	client := newFinnhubStub(t, func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusForbidden)
		case 2:
			w.Write([]byte(`{"c": "oops"`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	ctx := context.Background()

	if _, err := client.Quote(ctx, "AAPL"); err == nil {
		t.Fatal("expected error for 403")
	}
	if _, err := client.Quote(ctx, "AAPL"); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if _, err := client.Quote(ctx, "AAPL"); err == nil {
		t.Fatal("expected error for 500")
	}
	if calls.Load() != 3 {
		t.Fatalf("default client must not retry, got %d calls", calls.Load())
	}
}

func TestFinnhub_NoKey(t *testing.T) {
	client := external.NewFinnhubClient("", external.FinnhubOptions{BaseURL: "http://127.0.0.1:1"})
	if client.Configured() {
		t.Fatal("client without key should not be configured")
	}
	if _, err := client.Quote(context.Background(), "AAPL"); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestFinnhubLive(t *testing.T) {
	apiKey := os.Getenv("FINNHUB_API_KEY")
	if apiKey == "" {
		t.Skip("FINNHUB_API_KEY not set, skipping")
	}

	client := external.NewFinnhubClient(apiKey, external.FinnhubOptions{})
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	q, err := client.Quote(ctx, "AAPL")
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if q.Current <= 0 {
		t.Fatalf("expected positive price, got %f", q.Current)
	}
	t.Logf("AAPL: $%.2f (prev close $%.2f)", q.Current, q.PrevClose)
}
