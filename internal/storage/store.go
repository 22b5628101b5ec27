// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists goals and their tasks in SQLite or PostgreSQL.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/jeranaias/goalbreak/internal/model"
)

// =============================================================================
// ERRORS AND CONFIG
// =============================================================================

var (
	// ErrNotFound is returned when no goal has the requested ID.
	ErrNotFound = errors.New("goal not found")

	// ErrUnsupportedDriver is returned by Open for unknown drivers.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// MaxListLimit is the largest page List returns; bigger limits are clamped.
const MaxListLimit = 1000

// Config selects and locates the database.
type Config struct {
	// Driver is DriverSQLite (default) or DriverPostgres
	Driver string

	// DSN is a file path (or ":memory:") for SQLite, a connection URL for
	// PostgreSQL
	DSN string

	// MaxOpenConns applies to PostgreSQL only (default: 10)
	MaxOpenConns int
}

// =============================================================================
// STORE
// =============================================================================

// Store is the goal repository. It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	driver string

	// afterGoalInsert runs inside Save's transaction; tests use it to
	// force a failure between the goal and task inserts.
	afterGoalInsert func() error
}

// Open connects to the configured database and applies the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSQLite
	}

	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite:
		db, err = openSQLite(cfg.DSN)
	case DriverPostgres:
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	s := &Store{db: db, driver: cfg.Driver}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	log.Printf("STORE_OPEN | driver=%s schema_version=%d", cfg.Driver, SchemaVersion)
	return s, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite database path is required")
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, and pragmas are
	// per-connection, so keep exactly one
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON", // required for ON DELETE CASCADE
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	return db, nil
}

func openPostgres(cfg Config) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres connection URL is required")
	}
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// Migrate creates missing tables and records the schema version. It is
// idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if s.driver == DriverPostgres {
		schema = postgresSchema
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(schema) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, s.rebind(setVersionQuery), strconv.Itoa(SchemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// Driver returns the database driver in use.
func (s *Store) Driver() string { return s.driver }

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// GOAL OPERATIONS
// =============================================================================

// Save stores a goal and its tasks in a single transaction. Either the goal
// and all of its tasks become visible, or nothing does.
func (s *Store) Save(ctx context.Context, text string, score float64, drafts []model.TaskDraft) (*model.Goal, error) {
	if err := model.ValidateGoalText(text); err != nil {
		return nil, err
	}
	if err := model.ValidateDrafts(drafts); err != nil {
		return nil, err
	}

	goal := &model.Goal{
		ID:              uuid.NewString(),
		Text:            text,
		ComplexityScore: model.ClampComplexity(score),
		CreatedAt:       time.Now().UTC().Truncate(time.Microsecond),
		Tasks:           make([]model.Task, 0, len(drafts)),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		s.rebind(`INSERT INTO goals (id, goal_text, complexity_score, created_at) VALUES (?, ?, ?, ?)`),
		goal.ID, goal.Text, goal.ComplexityScore, goal.CreatedAt.UnixMicro())
	if err != nil {
		return nil, fmt.Errorf("failed to insert goal: %w", err)
	}

	if s.afterGoalInsert != nil {
		if err := s.afterGoalInsert(); err != nil {
			return nil, err
		}
	}

	insertTask := s.rebind(`INSERT INTO tasks (id, goal_id, task_text, task_order) VALUES (?, ?, ?, ?)`)
	for _, d := range drafts {
		task := model.Task{
			ID:     uuid.NewString(),
			GoalID: goal.ID,
			Text:   d.Text,
			Order:  d.Order,
		}
		if _, err := tx.ExecContext(ctx, insertTask, task.ID, task.GoalID, task.Text, task.Order); err != nil {
			return nil, fmt.Errorf("failed to insert task %d: %w", d.Order, err)
		}
		goal.Tasks = append(goal.Tasks, task)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit goal: %w", err)
	}
	return goal, nil
}

// Get returns a goal with its tasks in order, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*model.Goal, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT id, goal_text, complexity_score, created_at FROM goals WHERE id = ?`), id)

	goal, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	tasks, err := s.loadTasks(ctx, []string{goal.ID})
	if err != nil {
		return nil, err
	}
	goal.Tasks = tasks[goal.ID]
	return goal, nil
}

// List returns up to limit goals after skipping skip of them, oldest
// first, each with its tasks. A limit of zero returns an empty page and
// limits above MaxListLimit are clamped to it.
func (s *Store) List(ctx context.Context, skip, limit int) ([]model.Goal, error) {
	if skip < 0 || limit < 0 {
		return nil, fmt.Errorf("skip and limit must not be negative")
	}
	limit = min(limit, MaxListLimit)
	goals := make([]model.Goal, 0)
	if limit == 0 {
		return goals, nil
	}

	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, goal_text, complexity_score, created_at FROM goals
ORDER BY created_at, id LIMIT ? OFFSET ?`), limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
		ids = append(ids, g.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tasks, err := s.loadTasks(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range goals {
		goals[i].Tasks = tasks[goals[i].ID]
	}
	return goals, nil
}

// Count returns the number of stored goals.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM goals`).Scan(&n)
	return n, err
}

// Delete removes a goal; its tasks go with it. Returns ErrNotFound when no
// goal has the ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM goals WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

func scanGoal(row scanner) (*model.Goal, error) {
	var (
		g       model.Goal
		created int64
	)
	if err := row.Scan(&g.ID, &g.Text, &g.ComplexityScore, &created); err != nil {
		return nil, err
	}
	g.CreatedAt = time.UnixMicro(created).UTC()
	g.Tasks = []model.Task{}
	return &g, nil
}

// loadTasks fetches the tasks of all given goals in one query, keyed by
// goal ID and sorted by order.
func (s *Store) loadTasks(ctx context.Context, goalIDs []string) (map[string][]model.Task, error) {
	out := make(map[string][]model.Task, len(goalIDs))
	if len(goalIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(goalIDs)), ", ")
	args := make([]any, len(goalIDs))
	for i, id := range goalIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, goal_id, task_text, task_order FROM tasks
WHERE goal_id IN (`+placeholders+`) ORDER BY goal_id, task_order`), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.GoalID, &t.Text, &t.Order); err != nil {
			return nil, err
		}
		out[t.GoalID] = append(out[t.GoalID], t)
	}
	return out, rows.Err()
}

// rebind rewrites ? placeholders to $1, $2, ... for PostgreSQL. Queries in
// this package never contain a literal question mark.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// splitStatements breaks a schema into individual statements, dropping
// comment-only lines. pgx's extended protocol rejects multi-statement
// Exec calls.
func splitStatements(schema string) []string {
	var lines []string
	for _, line := range strings.Split(schema, "\n") {
		if i := strings.Index(line, "--"); i >= 0 {
			line = line[:i]
		}
		lines = append(lines, line)
	}

	var out []string
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
