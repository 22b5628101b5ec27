// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides string and file helpers shared across goalbreak.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis, used for log lines
//   - NormalizeText: NFC normalisation and control-character stripping
//   - DisplayWidth, TruncateWidth, PadRight: Terminal column arithmetic
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// # Usage
//
//	goal := util.NormalizeText(req.GoalText)
//	log.Printf("GOAL | text=%q", util.TruncateRunes(goal, 60))
//	err := util.AtomicWriteFile(path, data, 0600)
package util
