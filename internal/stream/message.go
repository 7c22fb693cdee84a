// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

// =============================================================================
// OUTWARD MESSAGE TYPES
// =============================================================================

// Message is the normalized unit yielded to callers, uniform across backend
// dialects. Exactly one of Content, ToolCalls, or Usage is populated per
// message: a text delta, one completed tool call, or final usage accounting.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     *Usage     `json:"usage,omitempty"`
}

// ToolCall is one completed tool invocation requested by the model.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"` // always "function"
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the function name and its argument text. Arguments is
// the raw JSON text exactly as the backend produced it; this layer never
// validates or parses it, so malformed argument text passes through verbatim.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Usage holds token accounting reported at the end of a stream. Field names
// follow the completions convention; backends reporting input_tokens or
// output_tokens are renamed during normalization.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// textMessage builds an outward message for one text delta.
func textMessage(text string) Message {
	return Message{Role: "assistant", Content: text}
}

// toolCallMessage builds an outward message for one completed tool call.
// Completed calls are never batched; one message per call preserves
// arrival-order visibility for the caller.
func toolCallMessage(call ToolCall) Message {
	return Message{Role: "assistant", ToolCalls: []ToolCall{call}}
}

// usageMessage builds an outward message for final usage accounting.
func usageMessage(u Usage) Message {
	return Message{Role: "assistant", Usage: &u}
}
