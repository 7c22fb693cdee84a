// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tools

import (
	"encoding/json"
	"testing"
)

func TestWire_ChatFormat(t *testing.T) {
	defs := []Definition{{
		Name:        "read_file",
		Description: "Read a file.",
		Parameters: Schema{
			Type: "object",
			Properties: map[string]Property{
				"path": {Type: "string", Description: "File path"},
			},
			Required: []string{"path"},
		},
	}}

	wired, err := Wire(defs, FormatChat)
	if err != nil {
		t.Fatalf("Wire: %v", err)
	}
	if len(wired) != 1 {
		t.Fatalf("got %d tools, want 1", len(wired))
	}

	raw, err := json.Marshal(wired[0])
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["type"] != "function" {
		t.Errorf("type = %v", got["type"])
	}
	fn, ok := got["function"].(map[string]any)
	if !ok {
		t.Fatalf("function key missing: %v", got)
	}
	if fn["name"] != "read_file" || fn["description"] != "Read a file." {
		t.Errorf("function = %v", fn)
	}
	if _, ok := fn["parameters"]; !ok {
		t.Error("parameters missing from nested function")
	}
}

func TestWire_ResponsesFormat(t *testing.T) {
	wired, err := Wire(Default(), FormatResponses)
	if err != nil {
		t.Fatalf("Wire: %v", err)
	}
	if len(wired) != len(Default()) {
		t.Fatalf("got %d tools, want %d", len(wired), len(Default()))
	}

	raw, err := json.Marshal(wired[0])
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got["type"] != "function" {
		t.Errorf("type = %v", got["type"])
	}
	if _, nested := got["function"]; nested {
		t.Error("responses format must not nest under a function key")
	}
	if got["name"] != "read_file" {
		t.Errorf("name = %v", got["name"])
	}
	if _, ok := got["parameters"]; !ok {
		t.Error("parameters missing")
	}
}

func TestWire_UnknownFormat(t *testing.T) {
	if _, err := Wire(Default(), Format("xml")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDefault_DefinitionsComplete(t *testing.T) {
	names := map[string]bool{}
	for _, d := range Default() {
		if d.Name == "" || d.Description == "" {
			t.Errorf("incomplete definition: %+v", d)
		}
		if d.Parameters.Type != "object" {
			t.Errorf("%s: parameters type = %q", d.Name, d.Parameters.Type)
		}
		for _, req := range d.Parameters.Required {
			if _, ok := d.Parameters.Properties[req]; !ok {
				t.Errorf("%s: required %q not in properties", d.Name, req)
			}
		}
		names[d.Name] = true
	}
	for _, want := range []string{"read_file", "write_file", "edit_file", "grep", "bash"} {
		if !names[want] {
			t.Errorf("missing tool %q", want)
		}
	}
}
