// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package decomposer turns a free-text goal into five ordered tasks and a
// complexity score using a generative model.
package decomposer

import "errors"

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind categorizes decomposition failures.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindNoModelAvailable: the provider lists no text-generation model.
	KindNoModelAvailable
	// KindModelInitialization: every candidate model failed to instantiate.
	KindModelInitialization
	// KindResponseParse: the model output is not valid JSON.
	KindResponseParse
	// KindInvalidResponseStructure: the JSON lacks required keys or shapes.
	KindInvalidResponseStructure
	// KindUnexpectedTaskCount: the model returned other than five tasks.
	KindUnexpectedTaskCount
	// KindProviderCall: listing models or generating text failed upstream.
	KindProviderCall
)

// String returns the kind's name.
func (k ErrorKind) String() string {
	switch k {
	case KindNoModelAvailable:
		return "NoModelAvailable"
	case KindModelInitialization:
		return "ModelInitializationError"
	case KindResponseParse:
		return "ResponseParseError"
	case KindInvalidResponseStructure:
		return "InvalidResponseStructure"
	case KindUnexpectedTaskCount:
		return "UnexpectedTaskCount"
	case KindProviderCall:
		return "ProviderCallError"
	default:
		return "Unknown"
	}
}

// Error is the single error type returned by Decompose and SelectModel.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinel errors for easy checking.
var (
	ErrNoModelAvailable         = &Error{Kind: KindNoModelAvailable, Message: "no model with text generation support found"}
	ErrModelInitialization      = &Error{Kind: KindModelInitialization, Message: "could not initialize any model"}
	ErrResponseParse            = &Error{Kind: KindResponseParse, Message: "failed to parse AI response as JSON"}
	ErrInvalidResponseStructure = &Error{Kind: KindInvalidResponseStructure, Message: "invalid response structure from AI"}
	ErrUnexpectedTaskCount      = &Error{Kind: KindUnexpectedTaskCount, Message: "unexpected task count"}
	ErrProviderCall             = &Error{Kind: KindProviderCall, Message: "provider call failed"}
)

// KindOf returns the kind of a decomposition error, or KindUnknown.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
