// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

// =============================================================================
// TOOL DEFINITIONS
// =============================================================================

// Property describes one parameter of a tool.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Items       *Property `json:"items,omitempty"`
}

// Schema is a JSON-schema object describing a tool's parameters.
type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Definition is one tool in neutral form, independent of any backend's
// schema dialect.
type Definition struct {
	Name        string
	Description string
	Parameters  Schema
}

// Default returns the built-in tool set offered to models.
func Default() []Definition {
	return []Definition{
		{
			Name:        "read_file",
			Description: "Read the contents of a file at the given path.",
			Parameters: Schema{
				Type: "object",
				Properties: map[string]Property{
					"path": {Type: "string", Description: "Path of the file to read"},
				},
				Required: []string{"path"},
			},
		},
		{
			Name:        "write_file",
			Description: "Write content to a file, creating it if it does not exist.",
			Parameters: Schema{
				Type: "object",
				Properties: map[string]Property{
					"path":    {Type: "string", Description: "Path of the file to write"},
					"content": {Type: "string", Description: "Full content to write"},
				},
				Required: []string{"path", "content"},
			},
		},
		{
			Name:        "edit_file",
			Description: "Replace an exact text snippet in a file with new text.",
			Parameters: Schema{
				Type: "object",
				Properties: map[string]Property{
					"path":     {Type: "string", Description: "Path of the file to edit"},
					"old_text": {Type: "string", Description: "Exact text to replace"},
					"new_text": {Type: "string", Description: "Replacement text"},
				},
				Required: []string{"path", "old_text", "new_text"},
			},
		},
		{
			Name:        "grep",
			Description: "Search files under a directory for a regular expression.",
			Parameters: Schema{
				Type: "object",
				Properties: map[string]Property{
					"pattern": {Type: "string", Description: "Regular expression to search for"},
					"path":    {Type: "string", Description: "Directory to search, defaults to the working directory"},
				},
				Required: []string{"pattern"},
			},
		},
		{
			Name:        "bash",
			Description: "Run a shell command and return its output.",
			Parameters: Schema{
				Type: "object",
				Properties: map[string]Property{
					"command": {Type: "string", Description: "Shell command to execute"},
				},
				Required: []string{"command"},
			},
		},
	}
}
