// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"testing"

	"github.com/loomworks/loom-tui/internal/tools"
)

func TestResolveToolFormat_Chain(t *testing.T) {
	tests := []struct {
		name       string
		manual     tools.Format
		configured tools.Format
		model      string
		fallback   tools.Format
		want       tools.Format
	}{
		{
			name:     "manual override wins over everything",
			manual:   tools.FormatResponses,
			model:    "llama3.1:8b",
			fallback: tools.FormatChat,
			want:     tools.FormatResponses,
		},
		{
			name:       "config override beats family table",
			configured: tools.FormatResponses,
			model:      "qwen2.5-coder:7b",
			fallback:   tools.FormatChat,
			want:       tools.FormatResponses,
		},
		{
			name:     "family table matches by substring",
			model:    "hf.co/team/Mistral-7B-Instruct",
			fallback: tools.FormatResponses,
			want:     tools.FormatChat,
		},
		{
			name:     "gpt family resolves to responses",
			model:    "gpt-4o-mini",
			fallback: tools.FormatChat,
			want:     tools.FormatResponses,
		},
		{
			name:     "unknown family falls back to default",
			model:    "experimental-model-x",
			fallback: tools.FormatChat,
			want:     tools.FormatChat,
		},
		{
			name:   "manual beats config",
			manual: tools.FormatChat, configured: tools.FormatResponses,
			model: "gpt-4o", fallback: tools.FormatResponses,
			want: tools.FormatChat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveToolFormat(tt.manual, tt.configured, tt.model, tt.fallback)
			if got != tt.want {
				t.Errorf("resolveToolFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProviderDefaults(t *testing.T) {
	local := NewOllamaProvider("")
	if got := local.ResolveToolFormat(); got != tools.FormatChat {
		t.Errorf("ollama default format = %q", got)
	}

	cloud := NewResponsesProvider("", NewTokenSource("", "sk"))
	if got := cloud.ResolveToolFormat(); got != tools.FormatResponses {
		t.Errorf("responses default format = %q", got)
	}
}
