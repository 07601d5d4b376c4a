package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/itbi-consulta/internal/cache"
	"github.com/itbi-consulta/internal/config"
	"github.com/itbi-consulta/internal/etl"
	"github.com/itbi-consulta/internal/metrics"
	"github.com/itbi-consulta/internal/model"
)

// createIngestCmd creates the ingest subcommand
func createIngestCmd(a *app) *cobra.Command {
	var sources []string

	cmd := &cobra.Command{
		Use:       "ingest [iptu|itbi]",
		Short:     "Rebuild a dataset table from its source files",
		Long:      `Streams the configured source files in batches, normalises them and replaces the dataset's table. CSV sources that are not valid UTF-8 are re-read with the next configured encoding.`,
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{config.DatasetProperties, config.DatasetTransactions},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			dataset := args[0]

			cfg, err := a.datasets.Dataset(dataset)
			if err != nil {
				return err
			}
			if len(sources) > 0 {
				cfg.Sources = sources
			}

			reg := prometheus.NewRegistry()
			pipeline := etl.NewPipeline(a.store, a.tracker, a.log, metrics.New(reg))

			run, err := pipeline.Ingest(ctx, dataset, cfg)
			if url := a.settings.PushgatewayURL; url != "" {
				if perr := metrics.Push(ctx, url, "itbi_ingest", dataset, reg); perr != nil {
					a.log.Warn("failed to push ingest metrics", "error", perr)
				}
			}
			if err != nil {
				return fmt.Errorf("ingest %s failed: %w", dataset, err)
			}

			if dataset == config.DatasetTransactions {
				if client, err := cache.NewRedisClient(ctx, a.settings.RedisURL); err == nil && client != nil {
					a.redis = client
					if err := cache.NewRedis[model.Transaction](client, 0).Invalidate(ctx, dataset); err != nil {
						a.log.Warn("failed to invalidate shared cache", "error", err)
					}
				}
			}

			fmt.Printf("Ingested %s into %s\n", dataset, run.Table)
			fmt.Printf("  run:      %s\n", run.ID)
			fmt.Printf("  encoding: %s\n", run.Encoding)
			fmt.Printf("  batches:  %d\n", run.Batches)
			fmt.Printf("  rows:     %d\n", run.Rows)
			fmt.Printf("  dropped:  %d\n", run.Dropped)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sources, "source", nil, "source file(s), overriding the dataset configuration")
	return cmd
}
