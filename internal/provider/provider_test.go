// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import "testing"

func TestModelDescriptor_ShortName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"models/gemini-1.5-flash", "gemini-1.5-flash"},
		{"gemini-pro", "gemini-pro"},
		{"llama3:8b", "llama3:8b"},
	}

	for _, tt := range tests {
		d := ModelDescriptor{Name: tt.name}
		if got := d.ShortName(); got != tt.want {
			t.Errorf("ShortName(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestModelDescriptor_Supports(t *testing.T) {
	d := ModelDescriptor{
		Name:                       "models/embedding-001",
		SupportedGenerationMethods: []string{"embedContent"},
	}
	if d.Supports(MethodGenerateContent) {
		t.Error("embedding model should not support generateContent")
	}

	d.SupportedGenerationMethods = append(d.SupportedGenerationMethods, MethodGenerateContent)
	if !d.Supports(MethodGenerateContent) {
		t.Error("model should support generateContent")
	}
}
