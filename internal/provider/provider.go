// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/loomworks/loom-tui/internal/stream"
	"github.com/loomworks/loom-tui/internal/tools"
)

// Configuration constants shared by both adapters.
const (
	// DefaultTimeout is the timeout for non-streaming API requests.
	DefaultTimeout = 60 * time.Second

	// maxErrorBodySize caps how much of an error response body is read
	// into an error message.
	maxErrorBodySize = 64 * 1024

	// userAgent identifies the client to backends.
	userAgent = "loom/0.1.0"
)

var (
	// sharedHTTPClient serves non-streaming requests (model listing, token
	// fetch) with connection pooling.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient serves chat streams. No client timeout; stream
	// lifetime is controlled by the request context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
)

// =============================================================================
// PROVIDER CONTRACT
// =============================================================================

// ChatMessage is one turn of conversation sent to a backend. ToolCallID and
// Name are set only on role "tool" messages reporting a tool result.
type ChatMessage struct {
	Role       string `json:"role"` // "system", "user", "assistant", or "tool"
	Content    string `json:"content"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: "system", Content: content}
}

// NewToolResultMessage creates a tool-result message answering callID.
func NewToolResultMessage(callID, name, content string) ChatMessage {
	return ChatMessage{Role: "tool", Content: content, ToolCallID: callID, Name: name}
}

// ModelInfo describes one model a backend can serve.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContextSize int    `json:"context_length,omitempty"`
}

// Options are generation parameters forwarded to the backend. Zero values
// are omitted from the wire request.
type Options struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// Provider is the uniform backend contract. Each backend implements the same
// capability set and is selected once at session setup.
//
// ListModels never fails for transport reasons; it degrades to a static
// fallback catalog so a usable model list is always available. StreamChat is
// the opposite: any transport failure is fatal to that request and surfaces
// to the caller with full status detail.
type Provider interface {
	// Name identifies the adapter, e.g. "ollama" or "responses".
	Name() string

	// ListModels returns the models the backend offers, falling back to a
	// static catalog on transport failure.
	ListModels(ctx context.Context) []ModelInfo

	// SetModel selects the model for subsequent chat requests.
	SetModel(model string)

	// CurrentModel returns the selected model id.
	CurrentModel() string

	// ResolveToolFormat returns the function-calling schema dialect to use
	// for the current model.
	ResolveToolFormat() tools.Format

	// StreamChat issues a streaming chat completion. The returned stream
	// must be closed by the caller. defs may be nil for plain chat.
	StreamChat(ctx context.Context, messages []ChatMessage, defs []tools.Definition) (*stream.MessageStream, error)
}

// =============================================================================
// REQUEST/RESPONSE LOGGING
// =============================================================================

// logRequest logs an API request. Headers and bodies are never logged; they
// may carry credentials or user content.
func logRequest(req *http.Request) {
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs status and duration only.
func logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, duration)
}
