package audit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itbi-consulta/internal/db"
)

func newTracker(t *testing.T) *Tracker {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	tr := NewTracker(conn.DB, conn.Dialect)
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tr.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	require.NoError(t, tr.EnsureSchema(context.Background()))
	require.NoError(t, tr.EnsureSchema(context.Background()))
	return tr
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t)

	run, err := tr.Start(ctx, Run{Dataset: "itbi", Table: "itbi_data", Signature: "sig-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, StatusRunning, run.Status)

	latest, err := tr.LatestSucceeded(ctx, "itbi_data")
	require.NoError(t, err)
	assert.Nil(t, latest, "running runs are not reported as latest")

	run.Encoding = "utf-8"
	run.Batches = 2
	run.Rows = 150
	run.Dropped = 3
	_, err = tr.Finish(ctx, run, nil)
	require.NoError(t, err)

	latest, err = tr.LatestSucceeded(ctx, "itbi_data")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, run.ID, latest.ID)
	assert.Equal(t, "sig-1", latest.Signature)
	assert.Equal(t, 150, latest.Rows)
	assert.Equal(t, 3, latest.Dropped)
	assert.True(t, latest.FinishedAt.After(latest.StartedAt))
}

func TestFailedRunsAreSkipped(t *testing.T) {
	ctx := context.Background()
	tr := newTracker(t)

	ok, err := tr.Start(ctx, Run{Dataset: "iptu", Table: "imoveis_sp", Signature: "old"})
	require.NoError(t, err)
	_, err = tr.Finish(ctx, ok, nil)
	require.NoError(t, err)

	bad, err := tr.Start(ctx, Run{Dataset: "iptu", Table: "imoveis_sp", Signature: "new"})
	require.NoError(t, err)
	bad, err = tr.Finish(ctx, bad, errors.New("encoding mismatch"))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, bad.Status)

	latest, err := tr.LatestSucceeded(ctx, "imoveis_sp")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "old", latest.Signature)

	last, err := tr.Latest(ctx, "imoveis_sp")
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, bad.ID, last.ID)
	assert.Equal(t, StatusFailed, last.Status)

	none, err := tr.Latest(ctx, "itbi_data")
	require.NoError(t, err)
	assert.Nil(t, none)

	history, err := tr.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "new", history[0].Signature)
	assert.Equal(t, "encoding mismatch", history[0].Error)
}
