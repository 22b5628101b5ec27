// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt renders the instruction sent to a model for goal
// decomposition.
//
// The built-in template asks for exactly five ordered tasks and a 1-10
// complexity score as a bare JSON object. Deployments can replace it with a
// text/template file that references {{.Goal}}; a Watcher keeps such a file
// live without restarting the server.
//
// # Usage
//
//	tmpl, err := prompt.Load("/etc/goalbreak/prompt.tmpl")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	w, _ := prompt.NewWatcher(tmpl, 0)
//	go w.Run(ctx)
//	text, err := tmpl.Render("Learn to play guitar")
package prompt
