// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/loomworks/loom-tui/internal/stream"
	"github.com/loomworks/loom-tui/internal/tools"
)

// Responses adapter constants.
const (
	// DefaultResponsesURL is the base URL for the cloud backend.
	DefaultResponsesURL = "https://api.openai.com/v1"

	// defaultResponsesModel is used until the caller selects one.
	defaultResponsesModel = "gpt-4o-mini"
)

// responsesChatRequest is the SSE dialect request body.
type responsesChatRequest struct {
	Model      string        `json:"model"`
	Input      []ChatMessage `json:"input"`
	Stream     bool          `json:"stream"`
	Tools      []any         `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`

	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	MaxTokens   int     `json:"max_output_tokens,omitempty"`
}

// cloudModelsResponse is the /models listing shape.
type cloudModelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// =============================================================================
// RESPONSES ADAPTER
// =============================================================================

// ResponsesProvider speaks the SSE Responses dialect of the cloud backend.
// Credentials come from its TokenSource: a fetched bearer token when a token
// URL is configured, otherwise the static API key.
type ResponsesProvider struct {
	baseURL string
	tokens  *TokenSource
	options Options

	mu           sync.Mutex
	model        string
	manualFormat tools.Format
	configFormat tools.Format
	httpClient   *http.Client
	streamClient *http.Client
}

// NewResponsesProvider creates an adapter for the backend at baseURL using
// the given token source. An empty baseURL selects the default endpoint.
func NewResponsesProvider(baseURL string, tokens *TokenSource) *ResponsesProvider {
	if baseURL == "" {
		baseURL = DefaultResponsesURL
	}
	return &ResponsesProvider{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		tokens:       tokens,
		model:        defaultResponsesModel,
		httpClient:   sharedHTTPClient,
		streamClient: sharedStreamingClient,
	}
}

// WithOptions sets the generation parameters sent with each chat request.
func (p *ResponsesProvider) WithOptions(opts Options) *ResponsesProvider {
	p.options = opts
	return p
}

// WithToolFormat sets a manual tool-format override.
func (p *ResponsesProvider) WithToolFormat(f tools.Format) *ResponsesProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.manualFormat = f
	return p
}

// WithConfiguredToolFormat sets the configuration-supplied override.
func (p *ResponsesProvider) WithConfiguredToolFormat(f tools.Format) *ResponsesProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configFormat = f
	return p
}

// Name implements Provider.
func (p *ResponsesProvider) Name() string { return "responses" }

// SetModel implements Provider.
func (p *ResponsesProvider) SetModel(model string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = model
}

// CurrentModel implements Provider.
func (p *ResponsesProvider) CurrentModel() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.model
}

// ResolveToolFormat implements Provider. The SSE dialect defaults to the
// Responses schema.
func (p *ResponsesProvider) ResolveToolFormat() tools.Format {
	p.mu.Lock()
	defer p.mu.Unlock()
	return resolveToolFormat(p.manualFormat, p.configFormat, p.model, tools.FormatResponses)
}

// ListModels implements Provider. On any transport, auth, or decode failure
// the static cloud catalog is returned instead of an error.
func (p *ResponsesProvider) ListModels(ctx context.Context) []ModelInfo {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return FallbackCloudCatalog()
	}
	req.Header.Set("User-Agent", userAgent)
	if token, err := p.tokens.Token(ctx); err == nil {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	logRequest(req)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return FallbackCloudCatalog()
	}
	defer resp.Body.Close()
	logResponse(resp, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return FallbackCloudCatalog()
	}

	var listing cloudModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return FallbackCloudCatalog()
	}

	models := make([]ModelInfo, 0, len(listing.Data))
	for _, m := range listing.Data {
		models = append(models, ModelInfo{ID: m.ID, Name: m.ID})
	}
	if len(models) == 0 {
		return FallbackCloudCatalog()
	}
	return models
}

// StreamChat implements Provider. The response body is handed to the
// returned stream, which owns it until Close.
func (p *ResponsesProvider) StreamChat(ctx context.Context, messages []ChatMessage, defs []tools.Definition) (*stream.MessageStream, error) {
	p.mu.Lock()
	model := p.model
	p.mu.Unlock()

	token, err := p.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	body := responsesChatRequest{
		Model:       model,
		Input:       messages,
		Stream:      true,
		Temperature: p.options.Temperature,
		TopP:        p.options.TopP,
		MaxTokens:   p.options.NumPredict,
	}
	if len(defs) > 0 {
		wired, err := tools.Wire(defs, p.ResolveToolFormat())
		if err != nil {
			return nil, fmt.Errorf("failed to encode tools: %w", err)
		}
		body.Tools = wired
		body.ToolChoice = "auto"
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	logRequest(req)
	resp, err := p.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	logResponse(resp, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		resp.Body.Close()
		return nil, &TransportError{
			Status: resp.StatusCode,
			Reason: http.StatusText(resp.StatusCode),
			Body:   strings.TrimSpace(string(errBody)),
		}
	}

	return stream.NewMessageStream(
		stream.NewSSEFrameReader(resp.Body),
		stream.NewResponsesDecoder(),
		resp.Body,
	), nil
}
