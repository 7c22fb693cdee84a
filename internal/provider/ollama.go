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

// Ollama adapter constants.
const (
	// DefaultOllamaURL is the base URL for a locally hosted server.
	DefaultOllamaURL = "http://localhost:11434"

	// defaultOllamaModel is used until the caller selects one.
	defaultOllamaModel = "llama3.1:8b"
)

// ollamaChatRequest is the NDJSON dialect request body.
type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *Options      `json:"options,omitempty"`
	Tools    []any         `json:"tools,omitempty"`
}

// tagsResponse is the /api/tags model listing shape.
type tagsResponse struct {
	Models []struct {
		Name       string    `json:"name"`
		Size       int64     `json:"size"`
		ModifiedAt time.Time `json:"modified_at"`
	} `json:"models"`
}

// =============================================================================
// OLLAMA ADAPTER
// =============================================================================

// OllamaProvider speaks the NDJSON chat dialect of a locally hosted server.
type OllamaProvider struct {
	baseURL string
	options Options

	mu           sync.Mutex
	model        string
	manualFormat tools.Format
	configFormat tools.Format
	httpClient   *http.Client
	streamClient *http.Client
}

// NewOllamaProvider creates an adapter for the server at baseURL. An empty
// baseURL selects the default local address.
func NewOllamaProvider(baseURL string) *OllamaProvider {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	return &OllamaProvider{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		model:        defaultOllamaModel,
		httpClient:   sharedHTTPClient,
		streamClient: sharedStreamingClient,
	}
}

// WithOptions sets the generation parameters sent with each chat request.
func (p *OllamaProvider) WithOptions(opts Options) *OllamaProvider {
	p.options = opts
	return p
}

// WithToolFormat sets a manual tool-format override, first in the
// resolution chain.
func (p *OllamaProvider) WithToolFormat(f tools.Format) *OllamaProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.manualFormat = f
	return p
}

// WithConfiguredToolFormat sets the configuration-supplied override,
// consulted after the manual one.
func (p *OllamaProvider) WithConfiguredToolFormat(f tools.Format) *OllamaProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.configFormat = f
	return p
}

// Name implements Provider.
func (p *OllamaProvider) Name() string { return "ollama" }

// SetModel implements Provider.
func (p *OllamaProvider) SetModel(model string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = model
}

// CurrentModel implements Provider.
func (p *OllamaProvider) CurrentModel() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.model
}

// ResolveToolFormat implements Provider. The NDJSON dialect defaults to the
// chat-completions schema.
func (p *OllamaProvider) ResolveToolFormat() tools.Format {
	p.mu.Lock()
	defer p.mu.Unlock()
	return resolveToolFormat(p.manualFormat, p.configFormat, p.model, tools.FormatChat)
}

// ListModels implements Provider. On any transport or decode failure the
// static local catalog is returned instead of an error.
func (p *OllamaProvider) ListModels(ctx context.Context) []ModelInfo {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return FallbackLocalCatalog()
	}
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	logRequest(req)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return FallbackLocalCatalog()
	}
	defer resp.Body.Close()
	logResponse(resp, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return FallbackLocalCatalog()
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return FallbackLocalCatalog()
	}

	models := make([]ModelInfo, 0, len(tags.Models))
	for _, m := range tags.Models {
		models = append(models, ModelInfo{ID: m.Name, Name: m.Name})
	}
	if len(models) == 0 {
		return FallbackLocalCatalog()
	}
	return models
}

// StreamChat implements Provider. The response body is handed to the
// returned stream, which owns it until Close.
func (p *OllamaProvider) StreamChat(ctx context.Context, messages []ChatMessage, defs []tools.Definition) (*stream.MessageStream, error) {
	p.mu.Lock()
	model := p.model
	p.mu.Unlock()

	body := ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	}
	if p.options != (Options{}) {
		opts := p.options
		body.Options = &opts
	}
	if len(defs) > 0 {
		wired, err := tools.Wire(defs, p.ResolveToolFormat())
		if err != nil {
			return nil, fmt.Errorf("failed to encode tools: %w", err)
		}
		body.Tools = wired
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

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
		stream.NewNDJSONFrameReader(resp.Body),
		stream.NewChatDecoder(),
		resp.Body,
	), nil
}
