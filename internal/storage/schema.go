// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists goals and their tasks in SQLite or PostgreSQL.
package storage

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema for SQLite. Timestamps are Unix microseconds so both dialects
// store and order them identically.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS goals (
    id TEXT PRIMARY KEY,
    goal_text TEXT NOT NULL,
    complexity_score REAL NOT NULL CHECK (complexity_score BETWEEN 1 AND 10),
    created_at INTEGER NOT NULL  -- Unix microseconds
);

CREATE INDEX IF NOT EXISTS idx_goals_created_at ON goals(created_at, id);

CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    goal_id TEXT NOT NULL,
    task_text TEXT NOT NULL,
    task_order INTEGER NOT NULL CHECK (task_order BETWEEN 1 AND 5),
    FOREIGN KEY(goal_id) REFERENCES goals(id) ON DELETE CASCADE,
    UNIQUE(goal_id, task_order)
);

CREATE INDEX IF NOT EXISTS idx_tasks_goal_id ON tasks(goal_id);
`

// Schema for PostgreSQL.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS goals (
    id TEXT PRIMARY KEY,
    goal_text TEXT NOT NULL,
    complexity_score DOUBLE PRECISION NOT NULL CHECK (complexity_score BETWEEN 1 AND 10),
    created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_goals_created_at ON goals(created_at, id);

CREATE TABLE IF NOT EXISTS tasks (
    id TEXT PRIMARY KEY,
    goal_id TEXT NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
    task_text TEXT NOT NULL,
    task_order INTEGER NOT NULL CHECK (task_order BETWEEN 1 AND 5),
    UNIQUE(goal_id, task_order)
);

CREATE INDEX IF NOT EXISTS idx_tasks_goal_id ON tasks(goal_id);
`

// Upsert of the schema version row. Both dialects accept ON CONFLICT.
const setVersionQuery = `INSERT INTO metadata (key, value) VALUES ('schema_version', ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`
