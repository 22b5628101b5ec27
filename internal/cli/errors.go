// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling for all goalbreak commands.
//
// Commands always return errors; Execute displays them once and maps them
// to an exit code.

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jeranaias/goalbreak/internal/config"
	"github.com/jeranaias/goalbreak/internal/decomposer"
	"github.com/jeranaias/goalbreak/internal/export"
	"github.com/jeranaias/goalbreak/internal/model"
	"github.com/jeranaias/goalbreak/internal/storage"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitProviderError indicates the model provider failed
	ExitProviderError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES FOR STRUCTURED ERROR HANDLING
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "decompose")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %s: %v", e.Command, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s failed: %s", e.Command, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError represents invalid arguments or flags.
type UsageError struct {
	Reason  string
	Example string // Example of valid usage (optional)
}

func (e *UsageError) Error() string {
	if e.Example != "" {
		return e.Reason + "\nExample: " + e.Example
	}
	return e.Reason
}

// =============================================================================
// ERROR DISPLAY HELPERS
// =============================================================================

// DisplayError writes err to the terminal's error stream. In JSON mode it
// writes a JSON object to stdout instead.
func DisplayError(t *Terminal, err error, jsonMode bool) {
	if err == nil {
		return
	}

	if jsonMode {
		output := map[string]any{
			"success":    false,
			"error":      err.Error(),
			"error_type": errorType(err),
		}
		if kind := decomposer.KindOf(err); kind != decomposer.KindUnknown {
			output["kind"] = kind.String()
		}
		enc := json.NewEncoder(t.Out)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
		return
	}

	fmt.Fprintf(t.Err, "%s %s\n", NewStyles(t).Error.Render("[ERROR]"), err.Error())
}

func errorType(err error) string {
	switch ExitCode(err) {
	case ExitUsageError:
		return "usage_error"
	case ExitConfigError:
		return "config_error"
	case ExitProviderError:
		return "provider_error"
	case ExitNotFoundError:
		return "not_found_error"
	case ExitTimeoutError:
		return "timeout_error"
	default:
		return "generic_error"
	}
}

// ExitCode determines the appropriate exit code for an error.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var cfgErr config.ValidateErrors
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}

	if errors.Is(err, model.ErrInvalidGoal) {
		return ExitUsageError
	}

	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, export.ErrNoGoals) {
		return ExitNotFoundError
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeoutError
	}

	switch decomposer.KindOf(err) {
	case decomposer.KindUnknown:
		return ExitGeneralError
	default:
		return ExitProviderError
	}
}
