// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"encoding/json"

	"github.com/google/uuid"
)

// =============================================================================
// DECODED EVENTS
// =============================================================================

// EventKind classifies a decoded protocol event.
type EventKind int

const (
	// KindUnrecognized covers non-JSON payloads and unknown discriminators.
	// Unrecognized events have no outward effect; the stream continues.
	KindUnrecognized EventKind = iota

	// KindTextDelta is an incremental piece of assistant text.
	KindTextDelta

	// KindToolCallStarted opens a logical tool call identified by ItemID.
	KindToolCallStarted

	// KindToolCallArgsDelta appends argument text to an open tool call.
	KindToolCallArgsDelta

	// KindToolCallCompleted closes a tool call, optionally declaring the
	// authoritative final argument text.
	KindToolCallCompleted

	// KindUsageReported carries final token accounting for the stream.
	KindUsageReported
)

// Event is one decoded protocol event. Which fields are meaningful depends
// on Kind. ItemID correlates all events about the same logical output item.
type Event struct {
	Kind EventKind

	// KindTextDelta
	Text string

	// Tool-call events. CallID may be absent; identity then falls back to
	// ItemID. DeclaredArgs is only meaningful when ArgsDeclared is true.
	ItemID       string
	CallID       string
	Name         string
	ArgsDelta    string
	DeclaredArgs string
	ArgsDeclared bool

	// KindUsageReported
	Usage Usage

	// KindUnrecognized
	Raw string
}

// Decoder parses one frame's payload into zero or more events. A single
// NDJSON record can carry text, tool calls, and usage at once, so decoding
// returns a slice.
type Decoder interface {
	Decode(f Frame) []Event
}

// unrecognized wraps a raw payload that could not be classified.
func unrecognized(raw string) []Event {
	return []Event{{Kind: KindUnrecognized, Raw: raw}}
}

// =============================================================================
// RESPONSES (SSE) DIALECT
// =============================================================================

// Responses-dialect event discriminators.
const (
	evOutputItemAdded = "response.output_item.added"
	evFuncArgsDelta   = "response.function_call_arguments.delta"
	evFuncArgsDone    = "response.function_call_arguments.done"
	evOutputItemDone  = "response.output_item.done"
	evOutputTextDelta = "response.output_text.delta"
	evCompleted       = "response.completed"

	itemTypeFunctionCall = "function_call"
)

// responsesPayload is the superset wire shape of Responses-dialect events.
type responsesPayload struct {
	Type      string `json:"type"`
	ItemID    string `json:"item_id"`
	Delta     string `json:"delta"`
	Arguments string `json:"arguments"`
	Item      struct {
		ID        string `json:"id"`
		Type      string `json:"type"`
		CallID    string `json:"call_id"`
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"item"`
	Response struct {
		Usage *struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
			TotalTokens  int `json:"total_tokens"`
		} `json:"usage"`
	} `json:"response"`
}

// ResponsesDecoder decodes the SSE backend dialect: discriminated events for
// output item lifecycle, text deltas, fragmented function-call arguments,
// and a completion event carrying usage totals.
type ResponsesDecoder struct{}

// NewResponsesDecoder creates a decoder for the Responses SSE dialect.
func NewResponsesDecoder() *ResponsesDecoder {
	return &ResponsesDecoder{}
}

// Decode classifies one frame. The payload's own type discriminator wins
// over the frame's SSE event label when the two disagree.
func (d *ResponsesDecoder) Decode(f Frame) []Event {
	var p responsesPayload
	if err := json.Unmarshal([]byte(f.Data), &p); err != nil {
		return unrecognized(f.Data)
	}

	kind := p.Type
	if kind == "" {
		kind = f.Event
	}

	switch kind {
	case evOutputTextDelta:
		return []Event{{Kind: KindTextDelta, Text: p.Delta}}

	case evOutputItemAdded:
		if p.Item.Type != itemTypeFunctionCall {
			// Message item lifecycle; text arrives via its own deltas.
			return nil
		}
		return []Event{{
			Kind:   KindToolCallStarted,
			ItemID: p.Item.ID,
			CallID: p.Item.CallID,
			Name:   p.Item.Name,
		}}

	case evFuncArgsDelta:
		return []Event{{
			Kind:      KindToolCallArgsDelta,
			ItemID:    p.ItemID,
			ArgsDelta: p.Delta,
		}}

	case evFuncArgsDone:
		return []Event{{
			Kind:         KindToolCallCompleted,
			ItemID:       p.ItemID,
			DeclaredArgs: p.Arguments,
			ArgsDeclared: p.Arguments != "",
		}}

	case evOutputItemDone:
		if p.Item.Type != itemTypeFunctionCall {
			return nil
		}
		return []Event{{
			Kind:         KindToolCallCompleted,
			ItemID:       p.Item.ID,
			CallID:       p.Item.CallID,
			Name:         p.Item.Name,
			DeclaredArgs: p.Item.Arguments,
			ArgsDeclared: p.Item.Arguments != "",
		}}

	case evCompleted:
		if p.Response.Usage == nil {
			return nil
		}
		return []Event{{
			Kind: KindUsageReported,
			Usage: Usage{
				PromptTokens:     p.Response.Usage.InputTokens,
				CompletionTokens: p.Response.Usage.OutputTokens,
				TotalTokens:      p.Response.Usage.TotalTokens,
			},
		}}
	}

	return unrecognized(f.Data)
}

// =============================================================================
// CHAT (NDJSON) DIALECT
// =============================================================================

// chatRecord is one NDJSON line from the local chat backend. Tool calls
// arrive whole, not fragmented, and the done:true record is authoritative
// for usage totals.
type chatRecord struct {
	Model   string `json:"model"`
	Message struct {
		Role      string `json:"role"`
		Content   string `json:"content"`
		ToolCalls []struct {
			ID       string `json:"id"`
			Function struct {
				Name      string          `json:"name"`
				Arguments json.RawMessage `json:"arguments"`
			} `json:"function"`
		} `json:"tool_calls"`
	} `json:"message"`
	Done            bool `json:"done"`
	PromptEvalCount int  `json:"prompt_eval_count"`
	EvalCount       int  `json:"eval_count"`
}

// ChatDecoder decodes the NDJSON backend dialect. Because this dialect
// delivers each tool call atomically and without identifiers, the decoder
// synthesizes the start/completed lifecycle around each call and assigns a
// generated call id so downstream correlation invariants hold.
type ChatDecoder struct {
	newID func() string
}

// NewChatDecoder creates a decoder for the NDJSON chat dialect.
func NewChatDecoder() *ChatDecoder {
	return &ChatDecoder{newID: func() string { return "call_" + uuid.NewString() }}
}

// Decode classifies one frame. One record may yield several events: text,
// tool calls, and usage.
func (d *ChatDecoder) Decode(f Frame) []Event {
	var rec chatRecord
	if err := json.Unmarshal([]byte(f.Data), &rec); err != nil {
		return unrecognized(f.Data)
	}

	var events []Event

	if rec.Message.Content != "" {
		events = append(events, Event{Kind: KindTextDelta, Text: rec.Message.Content})
	}

	for _, tc := range rec.Message.ToolCalls {
		id := tc.ID
		if id == "" {
			id = d.newID()
		}
		args := string(tc.Function.Arguments)
		if args == "" {
			args = "{}"
		}
		events = append(events,
			Event{
				Kind:   KindToolCallStarted,
				ItemID: id,
				CallID: tc.ID,
				Name:   tc.Function.Name,
			},
			Event{
				Kind:         KindToolCallCompleted,
				ItemID:       id,
				CallID:       tc.ID,
				Name:         tc.Function.Name,
				DeclaredArgs: args,
				ArgsDeclared: true,
			},
		)
	}

	if rec.Done {
		events = append(events, Event{
			Kind: KindUsageReported,
			Usage: Usage{
				PromptTokens:     rec.PromptEvalCount,
				CompletionTokens: rec.EvalCount,
				TotalTokens:      rec.PromptEvalCount + rec.EvalCount,
			},
		})
	}

	if events == nil {
		// A record with no content, tool calls, or completion marker (for
		// example a bare role announcement) has no outward effect.
		return nil
	}
	return events
}
