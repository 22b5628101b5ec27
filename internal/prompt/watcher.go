// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt renders the instruction sent to a model for goal
// decomposition, optionally from a user-supplied template file.
package prompt

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a Template whenever its file changes on disk.
type Watcher struct {
	tmpl     *Template
	watcher  *fsnotify.Watcher
	debounce time.Duration

	// OnReload, if set, is called after every reload attempt.
	OnReload func(err error)
}

// NewWatcher watches the directory containing tmpl's file. Editors commonly
// replace files by rename, so the file itself is not watched directly.
func NewWatcher(tmpl *Template, debounce time.Duration) (*Watcher, error) {
	if tmpl.Path() == "" {
		return nil, errors.New("prompt template has no backing file")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(tmpl.Path())); err != nil {
		w.Close()
		return nil, err
	}

	return &Watcher{tmpl: tmpl, watcher: w, debounce: debounce}, nil
}

// Run processes file events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	target := filepath.Clean(w.tmpl.Path())
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("PROMPT_WATCH_ERROR | path=%s error=%v", target, err)

		case <-timer.C:
			err := w.tmpl.Reload()
			if err != nil {
				log.Printf("PROMPT_RELOAD_FAILED | path=%s error=%v", target, err)
			} else {
				log.Printf("PROMPT_RELOADED | path=%s", target)
			}
			if w.OnReload != nil {
				w.OnReload(err)
			}
		}
	}
}
