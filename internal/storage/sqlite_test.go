package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typeuml/internal/diag"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveAndLoadRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run := &Run{
		Roots:    []string{"src/main/java"},
		Revision: "3f2a9c1",
		Format:   "plantuml",
		Types:    2,
		Edges:    1,
		Diagnostics: []diag.Diagnostic{
			{Kind: diag.DuplicateKey, Subject: "p.A", Detail: "B.java"},
		},
		Lines: []string{
			"node p.A class",
			"end p.A",
			"node p.B class",
			"end p.B",
			"association p.A p.B b",
		},
	}
	require.NoError(t, store.SaveRun(ctx, run))
	require.NotEmpty(t, run.ID)
	require.False(t, run.CreatedAt.IsZero())

	loaded, err := store.LoadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, loaded.ID)
	assert.True(t, run.CreatedAt.Equal(loaded.CreatedAt))
	assert.Equal(t, run.Roots, loaded.Roots)
	assert.Equal(t, "3f2a9c1", loaded.Revision)
	assert.Equal(t, "plantuml", loaded.Format)
	assert.Equal(t, 2, loaded.Types)
	assert.Equal(t, 1, loaded.Edges)
	assert.Equal(t, run.Diagnostics, loaded.Diagnostics)
	assert.Equal(t, run.Lines, loaded.Lines)

	t.Run("Prefix lookup", func(t *testing.T) {
		byPrefix, err := store.LoadRun(ctx, run.ID[:8])
		require.NoError(t, err)
		assert.Equal(t, run.ID, byPrefix.ID)
	})

	t.Run("Unknown id", func(t *testing.T) {
		_, err := store.LoadRun(ctx, "does-not-exist")
		assert.ErrorIs(t, err, ErrRunNotFound)
		_, err = store.LoadRun(ctx, "")
		assert.ErrorIs(t, err, ErrRunNotFound)
	})
}

func TestSQLiteStore_LatestRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		require.NoError(t, store.SaveRun(ctx, &Run{
			ID:        id,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			Lines:     []string{"node p.A class"},
		}))
	}

	runs, err := store.LatestRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-c", runs[0].ID)
	assert.Equal(t, "run-b", runs[1].ID)
	assert.Empty(t, runs[0].Lines)

	_, err = store.LoadRun(ctx, "run-")
	assert.ErrorContains(t, err, "ambiguous")

	t.Run("Duplicate id rejected", func(t *testing.T) {
		err := store.SaveRun(ctx, &Run{ID: "run-a"})
		assert.Error(t, err)
		runs, err := store.LatestRuns(ctx, 10)
		require.NoError(t, err)
		assert.Len(t, runs, 3)
	})
}

func TestSQLiteStore_PrefixIsLiteral(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, id := range []string{"run_1", "runX1", "a%b"} {
		require.NoError(t, store.SaveRun(ctx, &Run{ID: id, Lines: []string{"node p.A class"}}))
	}

	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{"underscore matches itself", "run_", "run_1"},
		{"letter does not match underscore", "runX", "runX1"},
		{"percent matches itself", "a%", "a%b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := store.LoadRun(ctx, tt.prefix)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r.ID)
		})
	}

	t.Run("Wildcards alone match nothing", func(t *testing.T) {
		for _, prefix := range []string{"%", "_", "run%", "RUN_"} {
			_, err := store.LoadRun(ctx, prefix)
			assert.ErrorIs(t, err, ErrRunNotFound, prefix)
		}
	})
}

func TestSQLiteStore_ReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	run := &Run{Lines: []string{"node p.A class", "end p.A"}}
	require.NoError(t, store.SaveRun(context.Background(), run))
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer store.Close()
	loaded, err := store.LoadRun(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Lines, loaded.Lines)
}
