// quotectl inspects the quote cache and the mock series generator from the
// command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/stockdash/stockdash-backend/internal/catalog"
	"github.com/stockdash/stockdash-backend/internal/config"
	"github.com/stockdash/stockdash-backend/internal/db"
	"github.com/stockdash/stockdash-backend/internal/external"
	"github.com/stockdash/stockdash-backend/internal/mockseries"
	"github.com/stockdash/stockdash-backend/internal/models"
	"github.com/stockdash/stockdash-backend/internal/quotecache"
	"github.com/stockdash/stockdash-backend/internal/quotes"
	"github.com/stockdash/stockdash-backend/internal/repository"
	"github.com/stockdash/stockdash-backend/internal/symbols"
)

var (
	backend    string
	sqlitePath string
	asJSON     bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quotectl",
		Short:         "Inspect the quote cache and mock series",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&backend, "backend", "", "Cache backend: sqlite, postgres or memory (defaults to CACHE_BACKEND)")
	root.PersistentFlags().StringVar(&sqlitePath, "sqlite-path", "", "SQLite cache file (defaults to CACHE_SQLITE_PATH)")
	root.PersistentFlags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	root.AddCommand(seriesCmd())
	root.AddCommand(resolveCmd())
	root.AddCommand(cacheCmd())
	return root
}

func seriesCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "series SYMBOL",
		Short: "Print the deterministic mock series for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if n < 1 || n > mockseries.MaxLength {
				return fmt.Errorf("--points must be between 1 and %d, got %d", mockseries.MaxLength, n)
			}
			symbol, _ := symbols.Resolve(args[0])
			series := mockseries.Series(symbol, n)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, map[string]any{"symbol": symbol, "series": series})
			}
			fmt.Fprintf(out, "%s seed=%d points=%d\n", symbol, mockseries.Seed(symbol), len(series))
			for i, v := range series {
				fmt.Fprintf(out, "%4d  %.2f\n", i, v)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "points", "n", mockseries.DefaultLength, "Number of points (1-365)")
	return cmd
}

func resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [SYMBOL...]",
		Short: "Resolve quotes through the cache and the quote API",
		Long: `Resolve runs the same resolution the dashboard uses: a fresh cache is
served as-is, otherwise each symbol is fetched in turn and cached.
Without arguments the popular symbols from the catalog are used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			list := symbols.ParseList(strings.Join(args, ","))
			if len(list) == 0 {
				cat, err := catalog.Load(cfg.CatalogPath)
				if err != nil {
					return err
				}
				list = cat.PopularSymbols
			}

			cache, closeFn, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			finnhub := external.NewFinnhubClient(cfg.FinnhubAPIKey, external.FinnhubOptions{
				BaseURL:       cfg.FinnhubBaseURL,
				RetryAttempts: cfg.QuoteRetryAttempts,
			})
			if !finnhub.Configured() {
				fmt.Fprintln(cmd.ErrOrStderr(), "FINNHUB_API_KEY not set, quotes will use mock data")
			}
			res := quotes.NewResolver(finnhub, cache, quotes.Options{SeriesDays: cfg.QuoteSeriesDays}).Resolve(ctx, list)

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			source := "live"
			if res.FromCache {
				source = "cache"
			}
			fmt.Fprintf(out, "source: %s, mock: %s\n", source, labelList(res.Mock))
			return writeRecords(out, res.Ordered(list))
		},
	}
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the quote cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the cached snapshot and its expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cache, closeFn, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx := context.Background()
			exp, hasExp := cache.Expiry(ctx)
			snap, fresh := cache.Load(ctx, time.Now())

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, map[string]any{"fresh": fresh, "records": snap})
			}
			switch {
			case fresh:
				fmt.Fprintf(out, "fresh until %s (%d records)\n", exp.Local().Format(time.RFC3339), len(snap))
			case hasExp:
				fmt.Fprintf(out, "expired at %s, cache cleared\n", exp.Local().Format(time.RFC3339))
				return nil
			default:
				fmt.Fprintln(out, "cache is empty")
				return nil
			}

			keys := make([]string, 0, len(snap))
			for k := range snap {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			recs := make([]models.QuoteRecord, len(keys))
			for i, k := range keys {
				recs[i] = snap[k]
			}
			return writeRecords(out, recs)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the cached snapshot and expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cache, closeFn, err := openCache(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := cache.Clear(context.Background()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return nil
		},
	})

	return cmd
}

// openCache applies flag overrides and connects to Postgres only when the
// postgres backend is selected.
func openCache(cfg *config.Config) (*quotecache.Cache, func(), error) {
	b := cfg.CacheBackend
	if backend != "" {
		b = strings.ToLower(backend)
	}
	path := cfg.CacheSQLitePath
	if sqlitePath != "" {
		path = sqlitePath
	}

	var shared quotecache.Store
	closePool := func() {}
	if b == quotecache.BackendPostgres {
		pool, err := db.Connect(cfg.DSN(), db.PoolOptions{MaxConns: 2})
		if err != nil {
			return nil, nil, fmt.Errorf("connect: %w", err)
		}
		if err := db.Migrate(pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		shared = repository.NewCacheRepo(pool)
		closePool = pool.Close
	}

	store, closeStore, err := quotecache.OpenStore(b, path, shared)
	if err != nil {
		closePool()
		return nil, nil, err
	}
	return quotecache.New(store, cfg.CacheTTL), func() {
		closeStore()
		closePool()
	}, nil
}

func writeRecords(w io.Writer, recs []models.QuoteRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tPRICE\tCHANGE\tPERCENT\tPOINTS")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%.2f\t%+.2f\t%+.2f%%\t%d\n", r.Symbol, r.Price, r.Change, r.Percent, len(r.Series))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func labelList(list []string) string {
	if len(list) == 0 {
		return "none"
	}
	return strings.Join(list, ", ")
}
