package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/itbi-consulta/internal/audit"
	"github.com/itbi-consulta/internal/cache"
	"github.com/itbi-consulta/internal/config"
	"github.com/itbi-consulta/internal/db"
	"github.com/itbi-consulta/internal/logger"
	"github.com/itbi-consulta/internal/metrics"
	"github.com/itbi-consulta/internal/model"
	"github.com/itbi-consulta/internal/query"
	"github.com/itbi-consulta/internal/resolve"
	"github.com/itbi-consulta/internal/store"
	"github.com/itbi-consulta/internal/web"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	if err := config.LoadEnv(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	settings := config.FromEnv()
	lg := logger.NewLogger(settings.LogLevel)

	datasets, err := config.LoadDatasets(settings.DatasetsFile)
	if err != nil {
		return err
	}
	props, err := datasets.Dataset(config.DatasetProperties)
	if err != nil {
		return err
	}
	txs, err := datasets.Dataset(config.DatasetTransactions)
	if err != nil {
		return err
	}

	dsn := settings.StoreDSN
	if settings.StoreDriver == db.DriverPostgres && os.Getenv("ITBI_STORE_DSN") == "" {
		dsn = db.PostgresDSN()
	}
	conn, err := db.Open(ctx, settings.StoreDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	defer conn.Close()
	lg.Info("store connected", "driver", conn.Dialect.Name())

	st := store.New(conn)
	tracker := audit.NewTracker(conn.DB, conn.Dialect)
	if err := tracker.EnsureSchema(ctx); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var datasetCache cache.Cache[model.Transaction] = cache.NewMemory[model.Transaction]()
	redisClient, err := cache.NewRedisClient(ctx, settings.RedisURL)
	switch {
	case err != nil:
		lg.Warn("redis unavailable, using in-process cache", "error", err)
	case redisClient != nil:
		defer redisClient.Close()
		datasetCache = cache.NewRedis[model.Transaction](redisClient, settings.CacheTTL)
		lg.Info("using redis dataset cache", "ttl", settings.CacheTTL)
	}

	engine := query.NewEngine(st, txs.Table, lg, m).WithCache(datasetCache, tracker)

	server := web.NewServer(web.ConfigFromSettings(settings), web.Deps{
		Store:    st,
		Tracker:  tracker,
		Engine:   engine,
		Cache:    engine,
		Resolver: resolve.NewResolver(st, props.Table, lg, m),
		DB:       conn.DB,
		Tables: map[string]string{
			config.DatasetProperties:   props.Table,
			config.DatasetTransactions: txs.Table,
		},
		Metrics:  m,
		Gatherer: reg,
		Log:      lg,
	})

	lg.Info("features", "reports", settings.Reports, "api_key", settings.APIKey != "")
	return server.Start(ctx)
}
