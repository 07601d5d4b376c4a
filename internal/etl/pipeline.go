// Package etl streams municipal source files into the store in batches.
package etl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/itbi-consulta/internal/audit"
	"github.com/itbi-consulta/internal/config"
	"github.com/itbi-consulta/internal/logger"
	"github.com/itbi-consulta/internal/metrics"
	"github.com/itbi-consulta/internal/model"
	"github.com/itbi-consulta/internal/normalize"
	"github.com/itbi-consulta/internal/store"
)

var (
	// ErrEncodingMismatch means a source could not be decoded with the
	// encoding in use.
	ErrEncodingMismatch = errors.New("source encoding mismatch")
	// ErrSourceMissing means none of the configured source files exist.
	ErrSourceMissing = errors.New("source file not found")
	// ErrMissingColumns means a source lacks a mapped column.
	ErrMissingColumns = errors.New("source lacks required columns")
)

// Drop reasons reported to metrics.
const (
	dropNonNumeric   = "non_numeric_number"
	dropPartialShare = "partial_share"
)

// Pipeline rebuilds store tables from source files.
type Pipeline struct {
	store   *store.Store
	tracker *audit.Tracker
	log     *logger.Logger
	metrics *metrics.Metrics
}

// NewPipeline creates a new ETL pipeline. tracker and m may be nil.
func NewPipeline(s *store.Store, tracker *audit.Tracker, log *logger.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{store: s, tracker: tracker, log: log, metrics: m}
}

// Ingest rebuilds the table of the named dataset.
func (p *Pipeline) Ingest(ctx context.Context, dataset string, cfg config.DatasetConfig) (audit.Run, error) {
	switch dataset {
	case config.DatasetProperties:
		return p.IngestProperties(ctx, cfg)
	case config.DatasetTransactions:
		return p.IngestTransactions(ctx, cfg)
	default:
		return audit.Run{}, fmt.Errorf("unknown dataset %q", dataset)
	}
}

// IngestProperties rebuilds the property roll table.
func (p *Pipeline) IngestProperties(ctx context.Context, cfg config.DatasetConfig) (audit.Run, error) {
	nf := normalize.NumberFormat{DecimalComma: cfg.DecimalComma}
	cols := normalize.ColumnMap(cfg.Columns)

	return run(ctx, p, config.DatasetProperties, cfg, store.Properties,
		func(batch []normalize.RawRecord) ([]model.Property, map[string]int) {
			return normalize.Properties(batch, cols, nf), nil
		})
}

// IngestTransactions rebuilds the ITBI transaction table.
func (p *Pipeline) IngestTransactions(ctx context.Context, cfg config.DatasetConfig) (audit.Run, error) {
	nf := normalize.NumberFormat{DecimalComma: cfg.DecimalComma}
	cols := normalize.ColumnMap(cfg.Columns)

	return run(ctx, p, config.DatasetTransactions, cfg, store.Transactions,
		func(batch []normalize.RawRecord) ([]model.Transaction, map[string]int) {
			res := normalize.Transactions(batch, cols, nf)
			return res.Kept, map[string]int{
				dropNonNumeric:   res.NonNumeric,
				dropPartialShare: res.PartialShare,
			}
		})
}

type normalizer[T any] func(batch []normalize.RawRecord) (rows []T, dropped map[string]int)

type progress struct {
	batches int
	rows    int
	dropped int
}

func run[T any](ctx context.Context, p *Pipeline, dataset string, cfg config.DatasetConfig,
	codec store.Codec[T], norm normalizer[T]) (audit.Run, error) {

	log := p.log.With("dataset", dataset, "table", cfg.Table)
	done := log.Timing("ingest")
	defer done()

	paths := p.existingSources(log, cfg.Sources)
	if len(paths) == 0 {
		p.metrics.IngestFailed(cfg.Table)
		return audit.Run{}, fmt.Errorf("%w: %s", ErrSourceMissing, dataset)
	}

	sig, err := SourceSignature(paths)
	if err != nil {
		return audit.Run{}, err
	}

	release := p.store.Exclusive(cfg.Table)
	defer release()

	rec := audit.Run{Dataset: dataset, Table: cfg.Table, Signature: sig}
	if p.tracker != nil {
		if rec, err = p.tracker.Start(ctx, rec); err != nil {
			return rec, err
		}
	}

	encodings := cfg.Encodings
	if cfg.Format == config.FormatXLSX || len(encodings) == 0 {
		encodings = []string{""}
	}

	var prog progress
	var runErr error
	for i, enc := range encodings {
		rec.Encoding = enc
		prog, runErr = load(ctx, p, log.With("encoding", enc), cfg, paths, enc, codec, norm)
		if runErr == nil || !errors.Is(runErr, ErrEncodingMismatch) || i == len(encodings)-1 {
			break
		}
		next := encodings[i+1]
		log.Warn("decoding failed, restarting from the beginning", "error", runErr, "next_encoding", next)
		p.metrics.EncodingFallback(cfg.Table, next)
	}

	rec.Batches = prog.batches
	rec.Rows = prog.rows
	rec.Dropped = prog.dropped

	if runErr != nil {
		p.metrics.IngestFailed(cfg.Table)
		log.Error("ingest failed", "error", runErr, "batches_committed", prog.batches)
	} else {
		log.Info("ingest completed", "batches", prog.batches, "rows", prog.rows, "dropped", prog.dropped)
	}

	if p.tracker != nil {
		// Record the outcome even when the caller's context is done.
		if finished, err := p.tracker.Finish(context.WithoutCancel(ctx), rec, runErr); err != nil {
			log.Warn("failed to record ingest run", "error", err)
		} else {
			rec = finished
		}
	}

	if runErr != nil {
		return rec, fmt.Errorf("ingest %s: %w", dataset, runErr)
	}
	return rec, nil
}

func (p *Pipeline) existingSources(log *logger.Logger, sources []string) []string {
	var paths []string
	for _, path := range sources {
		if _, err := os.Stat(path); err != nil {
			log.Warn("source file not found, skipping", "path", path)
			continue
		}
		paths = append(paths, path)
	}
	return paths
}

func (p *Pipeline) open(log *logger.Logger, cfg config.DatasetConfig, path, enc string) (Source, error) {
	required := normalize.ColumnMap(cfg.Columns).SourceColumns()
	if cfg.Format == config.FormatXLSX {
		return OpenWorkbook(path, cfg.IgnoreSheets, required, log)
	}
	return OpenDelimited(path, cfg.SeparatorRune(), enc, required)
}

// load performs one full pass over every source under a single encoding.
// The first batch replaces the table and later ones append.
func load[T any](ctx context.Context, p *Pipeline, log *logger.Logger, cfg config.DatasetConfig,
	paths []string, enc string, codec store.Codec[T], norm normalizer[T]) (progress, error) {

	var prog progress
	for _, path := range paths {
		src, err := p.open(log, cfg, path, enc)
		if err != nil {
			return prog, err
		}

		err = loadSource(ctx, p, log.With("source", path), cfg, src, codec, norm, &prog)
		src.Close()
		if err != nil {
			return prog, err
		}
	}

	if prog.batches == 0 {
		if err := store.Replace(ctx, p.store, cfg.Table, codec, nil); err != nil {
			return prog, err
		}
		log.Info("no rows read, table replaced with an empty one")
	}
	return prog, nil
}

func loadSource[T any](ctx context.Context, p *Pipeline, log *logger.Logger, cfg config.DatasetConfig,
	src Source, codec store.Codec[T], norm normalizer[T], prog *progress) error {

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, readErr := readBatch(src, cfg.BatchSize)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return readErr
		}

		if len(raw) > 0 {
			rows, dropped := norm(raw)

			var err error
			if prog.batches == 0 {
				err = store.Replace(ctx, p.store, cfg.Table, codec, rows)
			} else {
				err = store.Append(ctx, p.store, cfg.Table, codec, rows)
			}
			if err != nil {
				return fmt.Errorf("failed to write batch %d: %w", prog.batches+1, err)
			}

			prog.batches++
			prog.rows += len(rows)
			for reason, n := range dropped {
				prog.dropped += n
				p.metrics.RowsDropped(cfg.Table, reason, n)
			}
			p.metrics.BatchWritten(cfg.Table, len(rows))
			log.Info("batch written", "batch", prog.batches, "source_rows", len(raw),
				"rows", len(rows), "total_rows", prog.rows)
		}

		if readErr != nil {
			return nil
		}
	}
}
