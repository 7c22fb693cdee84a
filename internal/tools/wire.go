// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import "fmt"

// =============================================================================
// WIRE TRANSLATION
// =============================================================================

// Format selects the function-calling schema dialect.
type Format string

const (
	// FormatChat is the chat-completions shape: the function object is
	// nested under a "function" key.
	FormatChat Format = "chat"

	// FormatResponses is the Responses shape: name, description, and
	// parameters sit directly on the tool object.
	FormatResponses Format = "responses"
)

// Valid reports whether f is a known dialect.
func (f Format) Valid() bool {
	return f == FormatChat || f == FormatResponses
}

// chatTool is the nested chat-completions wire shape.
type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`
}

// responsesTool is the flattened Responses wire shape.
type responsesTool struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`
}

// Wire converts definitions to the given dialect's wire shape, ready for
// inclusion in a request body.
func Wire(defs []Definition, f Format) ([]any, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("unknown tool format %q", f)
	}
	out := make([]any, 0, len(defs))
	for _, d := range defs {
		switch f {
		case FormatChat:
			out = append(out, chatTool{
				Type: "function",
				Function: chatFunction{
					Name:        d.Name,
					Description: d.Description,
					Parameters:  d.Parameters,
				},
			})
		case FormatResponses:
			out = append(out, responsesTool{
				Type:        "function",
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			})
		}
	}
	return out, nil
}
