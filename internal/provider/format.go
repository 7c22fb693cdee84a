// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"strings"

	"github.com/loomworks/loom-tui/internal/tools"
)

// =============================================================================
// TOOL-FORMAT RESOLUTION
// =============================================================================

// familyFormat maps a model-family substring to the schema dialect that
// family expects. First match wins; order is therefore most-specific first.
type familyFormat struct {
	substring string
	format    tools.Format
}

// familyFormats is the known-family table consulted when neither a manual
// nor a configured override is present. Matching is a plain substring test
// against the model id; no scoring.
var familyFormats = []familyFormat{
	{"gpt-", tools.FormatResponses},
	{"o3", tools.FormatResponses},
	{"o4", tools.FormatResponses},
	{"codex", tools.FormatResponses},
	{"llama", tools.FormatChat},
	{"qwen", tools.FormatChat},
	{"mistral", tools.FormatChat},
	{"mixtral", tools.FormatChat},
	{"deepseek", tools.FormatChat},
	{"command-r", tools.FormatChat},
	{"firefunction", tools.FormatChat},
	{"hermes", tools.FormatChat},
	{"granite", tools.FormatChat},
	{"nemotron", tools.FormatChat},
	{"smollm", tools.FormatChat},
}

// resolveToolFormat applies the resolution chain: manual override, then the
// configured override, then the model-family table, then the adapter's
// default dialect. First hit wins.
func resolveToolFormat(manual, configured tools.Format, model string, fallback tools.Format) tools.Format {
	if manual != "" {
		return manual
	}
	if configured != "" {
		return configured
	}
	lower := strings.ToLower(model)
	for _, ff := range familyFormats {
		if strings.Contains(lower, ff.substring) {
			return ff.format
		}
	}
	return fallback
}
