package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/nemweb/internal/config"
	"github.com/JonMunkholm/nemweb/internal/ingest"
	"github.com/JonMunkholm/nemweb/internal/ledger"
	"github.com/JonMunkholm/nemweb/internal/metrics"
	"github.com/JonMunkholm/nemweb/internal/mms"
	"github.com/JonMunkholm/nemweb/internal/mms/tables"
	"github.com/JonMunkholm/nemweb/internal/nemweb"
)

// newAggregator builds the parser stack from config.
func newAggregator(cfg *config.Config) (*mms.Aggregator, error) {
	tz, err := mms.NewNormalizer(cfg.Parse.Timezone)
	if err != nil {
		return nil, err
	}
	parser := mms.NewParser(tables.Registry(),
		mms.WithStrict(cfg.Parse.Strict),
		mms.WithNormalizer(tz),
	)
	return mms.NewAggregator(parser, mms.WithWorkers(cfg.Parse.Workers)), nil
}

// app is everything a command needs. close releases the database pool.
type app struct {
	service *ingest.Service
	metrics *metrics.Metrics
	close   func()
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	agg, err := newAggregator(cfg)
	if err != nil {
		return nil, err
	}

	store, closeStore, err := openLedger(ctx, cfg)
	if err != nil {
		return nil, err
	}

	client := nemweb.NewClient(nemweb.ClientConfig{
		BaseURL:    cfg.Nemweb.BaseURL,
		UserAgent:  cfg.Nemweb.UserAgent,
		Timeout:    cfg.Nemweb.Timeout,
		RequestGap: cfg.Nemweb.RequestGap,
	}, slog.Default())

	m := metrics.New()
	svc := ingest.NewService(client, agg, store,
		ingest.WithLimiter(ingest.NewLimiter(cfg.Server.MaxConcurrent, cfg.Server.MaxWait)),
		ingest.WithMetrics(m),
	)

	slog.Info("service ready",
		"schemas", agg.Parser().Registry().Len(),
		"strict", cfg.Parse.Strict,
		"nemweb", cfg.Nemweb.BaseURL,
	)
	return &app{service: svc, metrics: m, close: closeStore}, nil
}

// openLedger connects to Postgres when DATABASE_URL is set and falls back to
// an in-memory ledger otherwise.
func openLedger(ctx context.Context, cfg *config.Config) (ledger.Ledger, func(), error) {
	if !cfg.Database.HasDatabase() {
		slog.Info("no DATABASE_URL, using in-memory ledger")
		return ledger.NewMemory(), func() {}, nil
	}

	pool, err := ledger.Connect(ctx, ledger.PoolConfig{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
	})
	if err != nil {
		return nil, nil, err
	}
	logConnected(pool, cfg.Database.URL)

	store := ledger.NewPostgres(pool)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return store, pool.Close, nil
}

func logConnected(pool *pgxpool.Pool, rawURL string) {
	stat := pool.Stat()
	if u, err := url.Parse(rawURL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"), "max_conns", stat.MaxConns())
		return
	}
	slog.Info("connected to database", "max_conns", stat.MaxConns())
}
