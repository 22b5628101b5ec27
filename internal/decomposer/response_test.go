// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package decomposer

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// taskJSON builds a model reply with n tasks and the given raw score literal.
func taskJSON(n int, score string) string {
	tasks := make([]string, n)
	for i := range tasks {
		tasks[i] = fmt.Sprintf(`{"task_text": "Step %d", "order": %d}`, i+1, i+1)
	}
	return fmt.Sprintf(`{"tasks": [%s], "complexity_score": %s}`, strings.Join(tasks, ", "), score)
}

func TestParseResponse_Valid(t *testing.T) {
	res, err := ParseResponse(taskJSON(5, "6"))
	require.NoError(t, err)

	require.Len(t, res.Tasks, 5)
	for i, task := range res.Tasks {
		assert.Equal(t, i+1, task.Order)
		assert.Equal(t, fmt.Sprintf("Step %d", i+1), task.Text)
	}
	assert.Equal(t, 6.0, res.ComplexityScore)
}

func TestParseResponse_FencedMatchesUnfenced(t *testing.T) {
	body := taskJSON(5, "7.5")
	plain, err := ParseResponse(body)
	require.NoError(t, err)

	for _, raw := range []string{
		"```json\n" + body + "\n```",
		"```\n" + body + "\n```",
		"  \n```json" + body + "```\n\n",
	} {
		got, err := ParseResponse(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, plain, got)
	}
}

func TestParseResponse_ClampsScore(t *testing.T) {
	tests := []struct {
		score string
		want  float64
	}{
		{"0.3", 1.0},
		{"-3", 1.0},
		{"1", 1.0},
		{"5.5", 5.5},
		{"10", 10.0},
		{"12", 10.0},
		{`"7.5"`, 7.5},
		{`" 3 "`, 3.0},
		{`"Infinity"`, 10.0},
		{"1e400", 10.0},
		{"-1e400", 1.0},
		{`"1e400"`, 10.0},
		{"1e-400", 1.0},
		{"7.0", 7.0},
	}

	for _, tt := range tests {
		t.Run(tt.score, func(t *testing.T) {
			res, err := ParseResponse(taskJSON(5, tt.score))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.ComplexityScore)
		})
	}
}

func TestParseResponse_TaskCount(t *testing.T) {
	for _, n := range []int{0, 4, 6} {
		_, err := ParseResponse(taskJSON(n, "5"))
		require.Error(t, err)
		assert.Equal(t, KindUnexpectedTaskCount, KindOf(err))
		assert.True(t, errors.Is(err, ErrUnexpectedTaskCount))
		assert.Contains(t, err.Error(), fmt.Sprintf("got %d", n))
	}
}

func TestParseResponse_InvalidJSON(t *testing.T) {
	for _, raw := range []string{
		"",
		"Sure! Here is your plan.",
		`{"tasks": [`,
		taskJSON(5, "5") + " trailing",
		taskJSON(5, "5") + " {}",
	} {
		_, err := ParseResponse(raw)
		require.Error(t, err)
		assert.Equal(t, KindResponseParse, KindOf(err), raw)
		assert.True(t, strings.HasPrefix(err.Error(), "Failed to parse AI response as JSON"))
	}
}

func TestParseResponse_InvalidStructure(t *testing.T) {
	tests := map[string]string{
		"missing score":    `{"tasks": []}`,
		"missing tasks":    `{"complexity_score": 5}`,
		"top-level array":  `[1, 2, 3, 4, 5]`,
		"top-level string": `"tasks"`,
		"tasks not a list": `{"tasks": "abcde", "complexity_score": 5}`,
		"tasks null":       `{"tasks": null, "complexity_score": 5}`,
		"score null":       taskJSON(5, "null"),
		// Booleans are not scores, although Python's float(True) would
		// coerce to 1.0.
		"score bool":        taskJSON(5, "true"),
		"score text":        taskJSON(5, `"very hard"`),
		"score object":      taskJSON(5, `{"value": 3}`),
		"task not object":   `{"tasks": ["a", "b", "c", "d", "e"], "complexity_score": 5}`,
		"task missing text": strings.Replace(taskJSON(5, "5"), `"task_text": "Step 3"`, `"text": "Step 3"`, 1),
		"task blank text":   strings.Replace(taskJSON(5, "5"), `"Step 2"`, `"   "`, 1),
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseResponse(raw)
			require.Error(t, err)
			assert.Equal(t, KindInvalidResponseStructure, KindOf(err))
		})
	}
}

func TestParseResponse_CheckOrder(t *testing.T) {
	// Task count is checked before the score is coerced.
	_, err := ParseResponse(taskJSON(4, `"not a number"`))
	assert.Equal(t, KindUnexpectedTaskCount, KindOf(err))

	// Key presence is checked before task count.
	_, err = ParseResponse(`{"tasks": [1, 2]}`)
	assert.Equal(t, KindInvalidResponseStructure, KindOf(err))
}

func TestParseResponse_RenumbersOrder(t *testing.T) {
	raw := `{"tasks": [
		{"task_text": "b", "order": 2},
		{"task_text": "a", "order": 1},
		{"task_text": "c", "order": 3},
		{"task_text": "d"},
		{"task_text": "e", "order": "five"}
	], "complexity_score": 4}`

	res, err := ParseResponse(raw)
	require.NoError(t, err)

	texts := make([]string, 0, len(res.Tasks))
	for i, task := range res.Tasks {
		assert.Equal(t, i+1, task.Order)
		texts = append(texts, task.Text)
	}
	assert.Equal(t, []string{"b", "a", "c", "d", "e"}, texts)
}

func TestParseResponse_TrimsTaskText(t *testing.T) {
	raw := strings.Replace(taskJSON(5, "5"), `"Step 1"`, `"  Step 1\n"`, 1)
	res, err := ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Step 1", res.Tasks[0].Text)
}

func TestParseResponse_TooLarge(t *testing.T) {
	_, err := ParseResponse(strings.Repeat(" ", MaxResponseSize+1))
	assert.Equal(t, KindResponseParse, KindOf(err))
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{}", "{}"},
		{"  {}  ", "{}"},
		{"```json\n{}\n```", "{}"},
		{"```\n{}\n```", "{}"},
		{"```json{}", "{}"},
		{"{}```", "{}"},
	}

	for _, tt := range tests {
		if got := StripFences(tt.in); got != tt.want {
			t.Errorf("StripFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "NoModelAvailable", KindNoModelAvailable.String())
	assert.Equal(t, "ModelInitializationError", KindModelInitialization.String())
	assert.Equal(t, "ResponseParseError", KindResponseParse.String())
	assert.Equal(t, "InvalidResponseStructure", KindInvalidResponseStructure.String())
	assert.Equal(t, "UnexpectedTaskCount", KindUnexpectedTaskCount.String())
	assert.Equal(t, "ProviderCallError", KindProviderCall.String())
	assert.Equal(t, "Unknown", KindUnknown.String())
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}
