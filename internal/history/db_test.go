package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ospet/visual-compare-pdf/pkg/compare"
)

func openDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndList(t *testing.T) {
	db := openDB(t)
	started := time.Date(2026, 10, 14, 8, 0, 0, 123456789, time.UTC)

	result := &compare.ComparisonResult{Similarity: 0.5, DifferingPages: 1, PagesWithDifferences: []int{1}}
	run := NewRun("run-1", "a.pdf", "b.pdf", 0.999, "native", started, result, nil)
	run.Duration = 1500 * time.Millisecond
	id, err := db.RecordRun(run)
	require.NoError(t, err)
	assert.Positive(t, id)

	failed := NewRun("run-2", "a.pdf", "missing.pdf", 0.9, "fitz", started.Add(time.Minute), nil, errors.New("cannot load document missing.pdf"))
	_, err = db.RecordRun(failed)
	require.NoError(t, err)

	runs, err := db.Recent(10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "run-2", runs[0].RunID)
	assert.Equal(t, "cannot load document missing.pdf", runs[0].Error)
	assert.Equal(t, []int{}, runs[0].Pages)

	got := runs[1]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "b.pdf", got.FileB)
	assert.Equal(t, 0.999, got.Threshold)
	assert.Equal(t, "native", got.Renderer)
	assert.False(t, got.Identical)
	assert.Equal(t, 0.5, got.Similarity)
	assert.Equal(t, 1, got.DifferingPages)
	assert.Equal(t, []int{1}, got.Pages)
	assert.True(t, started.Equal(got.StartedAt))
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Empty(t, got.Error)
}

func TestRecentLimit(t *testing.T) {
	db := openDB(t)
	for _, id := range []string{"a", "b", "c"} {
		_, err := db.RecordRun(Run{RunID: id, StartedAt: time.Now()})
		require.NoError(t, err)
	}

	runs, err := db.Recent(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].RunID)
	assert.Equal(t, "b", runs[1].RunID)

	runs, err = db.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestDuplicateRunID(t *testing.T) {
	db := openDB(t)
	_, err := db.RecordRun(Run{RunID: "same", StartedAt: time.Now()})
	require.NoError(t, err)
	_, err = db.RecordRun(Run{RunID: "same", StartedAt: time.Now()})
	assert.Error(t, err)
}

func TestPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := Open(path, zerolog.Nop())
	require.NoError(t, err)
	_, err = db.RecordRun(Run{RunID: "kept", StartedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()
	runs, err := db.Recent(5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "kept", runs[0].RunID)
}

func TestMemoryDatabase(t *testing.T) {
	db, err := Open(MemoryPath, zerolog.Nop())
	require.NoError(t, err)
	defer db.Close()
	_, err = db.RecordRun(Run{RunID: "mem", StartedAt: time.Now()})
	require.NoError(t, err)
	runs, err := db.Recent(1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
