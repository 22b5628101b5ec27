// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package prompt

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_EmbedsGoalVerbatim(t *testing.T) {
	goal := `Run a "sub-4" marathon & <finish> {{strong}}`
	out, err := Default().Render(goal)
	require.NoError(t, err)

	assert.Contains(t, out, `Goal: "`+goal+`"`)
	assert.Contains(t, out, `"complexity_score"`)
	assert.Contains(t, out, "exactly 5")
	assert.True(t, strings.HasSuffix(out, "Return ONLY the JSON object, no additional text."))
}

func TestLoad_CustomTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("Plan: {{.Goal}}"), 0600))

	tmpl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, tmpl.Path())

	out, err := tmpl.Render("Learn to play guitar")
	require.NoError(t, err)
	assert.Equal(t, "Plan: Learn to play guitar", out)
}

func TestLoad_Rejects(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.tmpl"))
	assert.Error(t, err)

	noGoal := filepath.Join(dir, "nogoal.tmpl")
	require.NoError(t, os.WriteFile(noGoal, []byte("static prompt"), 0600))
	_, err = Load(noGoal)
	assert.ErrorContains(t, err, "does not reference")

	broken := filepath.Join(dir, "broken.tmpl")
	require.NoError(t, os.WriteFile(broken, []byte("{{.Goal"), 0600))
	_, err = Load(broken)
	assert.Error(t, err)
}

func TestReload_KeepsPreviousOnFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("v1 {{.Goal}}"), 0600))

	tmpl, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("v2 without placeholder"), 0600))
	assert.Error(t, tmpl.Reload())

	out, err := tmpl.Render("x")
	require.NoError(t, err)
	assert.Equal(t, "v1 x", out)
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompt.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("v1 {{.Goal}}"), 0600))

	tmpl, err := Load(path)
	require.NoError(t, err)

	w, err := NewWatcher(tmpl, 20*time.Millisecond)
	require.NoError(t, err)

	reloaded := make(chan error, 4)
	w.OnReload = func(err error) {
		select {
		case reloaded <- err:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(path, []byte("v2 {{.Goal}}"), 0600))

	deadline := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case err := <-reloaded:
			done = err == nil
		case <-deadline:
			t.Fatal("template was not reloaded")
		}
	}

	out, err := tmpl.Render("x")
	require.NoError(t, err)
	assert.Equal(t, "v2 x", out)
}

func TestNewWatcher_RequiresFile(t *testing.T) {
	_, err := NewWatcher(Default(), 0)
	assert.Error(t, err)
}
