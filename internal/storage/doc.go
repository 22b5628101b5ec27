// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists goals and their tasks in SQLite or PostgreSQL.
//
// A goal and its five tasks are written in one transaction. Deleting a goal
// removes its tasks through ON DELETE CASCADE, which for SQLite requires
// foreign_keys to be enabled on the connection (Open does this).
//
// # Key Types
//
//   - Store: Goal repository over database/sql
//   - Config: Driver ("sqlite" via modernc.org/sqlite, "postgres" via pgx) and DSN
//
// # Usage
//
//	st, err := storage.Open(ctx, storage.Config{Driver: "sqlite", DSN: path})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer st.Close()
//
//	goal, err := st.Save(ctx, "Learn to play guitar", 4.5, drafts)
//	page, err := st.List(ctx, 0, 100)
package storage
