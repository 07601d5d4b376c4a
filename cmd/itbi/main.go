package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/itbi-consulta/internal/audit"
	"github.com/itbi-consulta/internal/cache"
	"github.com/itbi-consulta/internal/config"
	"github.com/itbi-consulta/internal/db"
	"github.com/itbi-consulta/internal/logger"
	"github.com/itbi-consulta/internal/model"
	"github.com/itbi-consulta/internal/query"
	"github.com/itbi-consulta/internal/resolve"
	"github.com/itbi-consulta/internal/store"
)

// app holds what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	settings     config.Settings
	datasetsFile string
	logLevel     string

	log      *logger.Logger
	datasets *config.Datasets
	conn     *db.Connection
	store    *store.Store
	tracker  *audit.Tracker
	redis    *redis.Client
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	a := &app{}
	defer a.close()

	rootCmd := &cobra.Command{
		Use:           "itbi",
		Short:         "Consulta de transações ITBI e imóveis IPTU",
		Long:          `Loads the São Paulo IPTU roll and ITBI guides into a local store and answers searches, reports and comparative valuations`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.datasetsFile, "datasets", "", "dataset YAML file (default: ITBI_DATASETS or built-in layout)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (default: LOG_LEVEL or info)")

	rootCmd.AddCommand(createIngestCmd(a))
	rootCmd.AddCommand(createSearchCmd(a))
	rootCmd.AddCommand(createReportCmd(a))
	rootCmd.AddCommand(createResolveCmd(a))
	rootCmd.AddCommand(createValuateCmd(a))
	rootCmd.AddCommand(createPingCmd(a))

	return rootCmd.ExecuteContext(context.Background())
}

func (a *app) setup(ctx context.Context) error {
	if err := config.LoadEnv(); err != nil {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	a.settings = config.FromEnv()

	level := a.settings.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}
	a.log = logger.NewLogger(level)

	path := a.settings.DatasetsFile
	if a.datasetsFile != "" {
		path = a.datasetsFile
	}
	datasets, err := config.LoadDatasets(path)
	if err != nil {
		return err
	}
	a.datasets = datasets

	dsn := a.settings.StoreDSN
	if a.settings.StoreDriver == db.DriverPostgres && os.Getenv("ITBI_STORE_DSN") == "" {
		dsn = db.PostgresDSN()
	}
	conn, err := db.Open(ctx, a.settings.StoreDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to store: %w", err)
	}
	a.conn = conn
	a.store = store.New(conn)

	a.tracker = audit.NewTracker(conn.DB, conn.Dialect)
	return a.tracker.EnsureSchema(ctx)
}

func (a *app) close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil && a.log != nil {
			a.log.Warn("failed to close store", "error", err)
		}
	}
}

func (a *app) table(dataset string) string {
	cfg, err := a.datasets.Dataset(dataset)
	if err != nil {
		return ""
	}
	return cfg.Table
}

// engine searches transactions, through the shared Redis cache when one is
// configured.
func (a *app) engine(ctx context.Context) *query.Engine {
	e := query.NewEngine(a.store, a.table(config.DatasetTransactions), a.log, nil)

	client, err := cache.NewRedisClient(ctx, a.settings.RedisURL)
	if err != nil {
		a.log.Warn("redis unavailable, querying store directly", "error", err)
		return e
	}
	if client == nil {
		return e
	}
	a.redis = client
	return e.WithCache(cache.NewRedis[model.Transaction](client, a.settings.CacheTTL), a.tracker)
}

// searcher is engine with store failures reported as a notice.
func (a *app) searcher(ctx context.Context) query.Searcher {
	return query.Degraded(a.engine(ctx), a.log)
}

func (a *app) resolver() *resolve.Resolver {
	return resolve.NewResolver(a.store, a.table(config.DatasetProperties), a.log, nil)
}

func createPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test store connectivity and show loaded datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.conn.DB.PingContext(ctx); err != nil {
				return fmt.Errorf("store unreachable: %w", err)
			}
			fmt.Printf("Store connection successful (%s)\n", a.conn.Dialect.Name())

			for _, name := range []string{config.DatasetProperties, config.DatasetTransactions} {
				table := a.table(name)
				n, err := a.store.Count(ctx, table)
				if err != nil {
					fmt.Printf("%s (%s): not loaded\n", name, table)
					continue
				}
				fmt.Printf("%s (%s): %d rows", name, table, n)
				if run, err := a.tracker.LatestSucceeded(ctx, table); err == nil && run != nil {
					fmt.Printf(", last ingest %s", run.FinishedAt.Local().Format(time.DateTime))
				}
				fmt.Println()
			}
			return nil
		},
	}
}
