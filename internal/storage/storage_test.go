// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/goalbreak/internal/model"
)

func drafts(prefix string) []model.TaskDraft {
	out := make([]model.TaskDraft, model.TasksPerGoal)
	for i := range out {
		out[i] = model.TaskDraft{Text: fmt.Sprintf("%s step %d", prefix, i+1), Order: i + 1}
	}
	return out
}

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), Config{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "nested", "goals.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// stores returns every backend available to the test run. PostgreSQL is
// included only when GOALBREAK_TEST_POSTGRES_URL points at a database.
func stores(t *testing.T) map[string]*Store {
	t.Helper()
	out := map[string]*Store{DriverSQLite: newSQLiteStore(t)}

	if url := os.Getenv("GOALBREAK_TEST_POSTGRES_URL"); url != "" {
		st, err := Open(context.Background(), Config{Driver: DriverPostgres, DSN: url})
		require.NoError(t, err)
		_, err = st.db.Exec(`DELETE FROM goals`)
		require.NoError(t, err)
		t.Cleanup(func() { st.Close() })
		out[DriverPostgres] = st
	}
	return out
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)

	_, err = Open(context.Background(), Config{Driver: DriverSQLite})
	assert.Error(t, err)

	_, err = Open(context.Background(), Config{Driver: DriverPostgres})
	assert.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	st := newSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))

	var version string
	require.NoError(t, st.db.QueryRow(`SELECT value FROM metadata WHERE key = 'schema_version'`).Scan(&version))
	assert.Equal(t, "1", version)
}

func TestStore_SaveAndGet(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			saved, err := st.Save(ctx, "Learn to play guitar", 4.5, drafts("guitar"))
			require.NoError(t, err)
			assert.NotEmpty(t, saved.ID)
			require.Len(t, saved.Tasks, 5)

			got, err := st.Get(ctx, saved.ID)
			require.NoError(t, err)
			assert.Equal(t, "Learn to play guitar", got.Text)
			assert.Equal(t, 4.5, got.ComplexityScore)
			assert.True(t, saved.CreatedAt.Equal(got.CreatedAt))
			require.Len(t, got.Tasks, 5)
			for i, task := range got.Tasks {
				assert.Equal(t, i+1, task.Order)
				assert.Equal(t, saved.ID, task.GoalID)
				assert.Equal(t, fmt.Sprintf("guitar step %d", i+1), task.Text)
			}
		})
	}
}

func TestStore_GetNotFound(t *testing.T) {
	st := newSQLiteStore(t)
	_, err := st.Get(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SaveRejectsInvalidDecomposition(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	_, err := st.Save(ctx, "  ", 5, drafts("x"))
	assert.ErrorIs(t, err, model.ErrInvalidGoal)

	_, err = st.Save(ctx, "goal", 5, drafts("x")[:4])
	assert.ErrorIs(t, err, model.ErrInvalidGoal)

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_SaveClampsScore(t *testing.T) {
	st := newSQLiteStore(t)
	saved, err := st.Save(context.Background(), "goal", 42, drafts("x"))
	require.NoError(t, err)
	assert.Equal(t, 10.0, saved.ComplexityScore)
}

func TestStore_SaveRollsBackOnFailure(t *testing.T) {
	st := newSQLiteStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	st.afterGoalInsert = func() error { return boom }

	_, err := st.Save(ctx, "never stored", 5, drafts("x"))
	assert.ErrorIs(t, err, boom)

	n, err := st.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "goal row must not survive a failed save")

	var tasks int
	require.NoError(t, st.db.QueryRow(`SELECT COUNT(*) FROM tasks`).Scan(&tasks))
	assert.Zero(t, tasks)

	st.afterGoalInsert = nil
	_, err = st.Save(ctx, "stored", 5, drafts("x"))
	require.NoError(t, err)
}

func TestStore_ListPagination(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			var ids []string
			for i := range 3 {
				g, err := st.Save(ctx, fmt.Sprintf("goal %d", i), float64(i+1), drafts(fmt.Sprint(i)))
				require.NoError(t, err)
				ids = append(ids, g.ID)
			}

			all, err := st.List(ctx, 0, 100)
			require.NoError(t, err)
			require.Len(t, all, 3)
			for _, g := range all {
				assert.Len(t, g.Tasks, 5)
			}

			page, err := st.List(ctx, 1, 1)
			require.NoError(t, err)
			require.Len(t, page, 1)
			assert.Equal(t, all[1].ID, page[0].ID)

			empty, err := st.List(ctx, 10, 5)
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)

			none, err := st.List(ctx, 0, 0)
			require.NoError(t, err)
			assert.Empty(t, none)

			_, err = st.List(ctx, -1, 5)
			assert.Error(t, err)

			assert.ElementsMatch(t, ids, []string{all[0].ID, all[1].ID, all[2].ID})
		})
	}
}

func TestStore_ListHugeLimit(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := st.Save(ctx, "only", 3, drafts("only"))
			require.NoError(t, err)

			for _, limit := range []int{math.MaxInt, MaxListLimit + 1} {
				goals, err := st.List(ctx, 0, limit)
				require.NoError(t, err, limit)
				require.Len(t, goals, 1)
				assert.Len(t, goals[0].Tasks, model.TasksPerGoal)
			}
		})
	}
}

func TestStore_DeleteCascades(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			keep, err := st.Save(ctx, "keep", 3, drafts("keep"))
			require.NoError(t, err)
			drop, err := st.Save(ctx, "drop", 3, drafts("drop"))
			require.NoError(t, err)

			require.NoError(t, st.Delete(ctx, drop.ID))
			assert.ErrorIs(t, st.Delete(ctx, drop.ID), ErrNotFound)

			_, err = st.Get(ctx, drop.ID)
			assert.ErrorIs(t, err, ErrNotFound)

			var orphans int
			require.NoError(t, st.db.QueryRow(st.rebind(`SELECT COUNT(*) FROM tasks WHERE goal_id = ?`), drop.ID).Scan(&orphans))
			assert.Zero(t, orphans)

			kept, err := st.Get(ctx, keep.ID)
			require.NoError(t, err)
			assert.Len(t, kept.Tasks, 5)
		})
	}
}

func TestStore_Ping(t *testing.T) {
	st := newSQLiteStore(t)
	assert.NoError(t, st.Ping(context.Background()))
	assert.Equal(t, DriverSQLite, st.Driver())
}

func TestRebind(t *testing.T) {
	pg := &Store{driver: DriverPostgres}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b IN ($2, $3)",
		pg.rebind("SELECT * FROM t WHERE a = ? AND b IN (?, ?)"))

	lite := &Store{driver: DriverSQLite}
	assert.Equal(t, "a = ?", lite.rebind("a = ?"))
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(sqliteSchema)
	assert.Len(t, stmts, 5)
	for _, s := range stmts {
		assert.NotContains(t, s, "--")
	}
}
