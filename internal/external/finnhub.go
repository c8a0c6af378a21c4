package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stockdash/stockdash-backend/internal/httputil"
)

const DefaultFinnhubURL = "https://finnhub.io/api/v1"

type FinnhubClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      httputil.RetryConfig
}

type FinnhubOptions struct {
	BaseURL string
	// RetryAttempts <= 1 means a single attempt per request.
	RetryAttempts int
	Timeout       time.Duration
}

// Quote is the current-quote payload. Only c and pc drive the dashboard.
type Quote struct {
	Current   float64 `json:"c"`
	PrevClose float64 `json:"pc"`
	High      float64 `json:"h"`
	Low       float64 `json:"l"`
	Open      float64 `json:"o"`
	Timestamp int64   `json:"t"`
}

// Candles is the daily candle payload. Status is "ok" or "no_data".
type Candles struct {
	Status     string    `json:"s"`
	Close      []float64 `json:"c"`
	Timestamps []int64   `json:"t"`
}

func (c *Candles) OK() bool {
	return c != nil && c.Status == "ok" && len(c.Close) > 0
}

func NewFinnhubClient(apiKey string, opts FinnhubOptions) *FinnhubClient {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultFinnhubURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	retry := httputil.NoRetry
	if opts.RetryAttempts > 1 {
		retry = httputil.RetryConfig{
			MaxAttempts: opts.RetryAttempts,
			BaseDelay:   1 * time.Second,
			MaxDelay:    8 * time.Second,
		}
	}
	return &FinnhubClient{
		baseURL:    base,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry,
	}
}

func (c *FinnhubClient) Configured() bool { return c.apiKey != "" }

func (c *FinnhubClient) Quote(ctx context.Context, symbol string) (*Quote, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var out Quote
	if err := c.get(ctx, "/quote", q, &out); err != nil {
		return nil, fmt.Errorf("finnhub quote %s: %w", symbol, err)
	}
	return &out, nil
}

func (c *FinnhubClient) Candles(ctx context.Context, symbol string, from, to time.Time) (*Candles, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("resolution", "D")
	q.Set("from", strconv.FormatInt(from.Unix(), 10))
	q.Set("to", strconv.FormatInt(to.Unix(), 10))

	var out Candles
	if err := c.get(ctx, "/stock/candle", q, &out); err != nil {
		return nil, fmt.Errorf("finnhub candles %s: %w", symbol, err)
	}
	return &out, nil
}

func (c *FinnhubClient) get(ctx context.Context, path string, q url.Values, dst any) error {
	if c.apiKey == "" {
		return fmt.Errorf("no API key configured")
	}
	q.Set("token", c.apiKey)
	endpoint := c.baseURL + path + "?" + q.Encode()

	resp, err := httputil.Do(ctx, c.httpClient, c.retry, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
