package query

import (
	"context"
	"errors"

	"github.com/itbi-consulta/internal/logger"
	"github.com/itbi-consulta/internal/model"
)

// NoticeUnavailable replaces a failed search at the HTTP and CLI boundaries.
const NoticeUnavailable = "transaction search unavailable"

// Searcher searches transactions.
type Searcher interface {
	Search(ctx context.Context, f Filter) (Result, error)
}

// Degrade turns a data access failure into an empty result carrying
// NoticeUnavailable. Filter errors stay errors.
func Degrade(log *logger.Logger, res Result, err error) (Result, error) {
	if err == nil || errors.Is(err, ErrInvalidFilter) {
		return res, err
	}
	log.Error("transaction search failed", "error", err)
	return Result{Rows: []model.Transaction{}, Notice: NoticeUnavailable}, nil
}

type degraded struct {
	s   Searcher
	log *logger.Logger
}

// Degraded wraps s so every search goes through Degrade.
func Degraded(s Searcher, log *logger.Logger) Searcher {
	return degraded{s: s, log: log}
}

func (d degraded) Search(ctx context.Context, f Filter) (Result, error) {
	res, err := d.s.Search(ctx, f)
	return Degrade(d.log, res, err)
}
