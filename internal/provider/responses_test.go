// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomworks/loom-tui/internal/tools"
)

func TestResponsesProvider_StreamChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/responses", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])
		assert.Contains(t, body, "input")

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("event: response.output_text.delta\n"))
		w.Write([]byte("data: {\"type\":\"response.output_text.delta\",\"delta\":\"Hello\"}\n"))
		w.Write([]byte("\n"))
		w.Write([]byte("data: {\"type\":\"response.completed\",\"response\":{\"usage\":{\"input_tokens\":10,\"output_tokens\":4,\"total_tokens\":14}}}\n"))
		w.Write([]byte("\n"))
		w.Write([]byte("data: [DONE]\n"))
	}))
	defer srv.Close()

	p := NewResponsesProvider(srv.URL, NewTokenSource("", "sk-test"))
	ms, err := p.StreamChat(context.Background(), []ChatMessage{NewUserMessage("hi")}, nil)
	require.NoError(t, err)
	defer ms.Close()

	msgs, err := ms.Drain(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hello", msgs[0].Content)
	require.NotNil(t, msgs[1].Usage)
	assert.Equal(t, 10, msgs[1].Usage.PromptTokens)
	assert.Equal(t, 4, msgs[1].Usage.CompletionTokens)
}

func TestResponsesProvider_StreamChatSendsFlatTools(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Tools      []map[string]any `json:"tools"`
			ToolChoice string           `json:"tool_choice"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotEmpty(t, body.Tools)
		assert.Equal(t, "auto", body.ToolChoice)
		// Responses dialect flattens the function fields.
		assert.Contains(t, body.Tools[0], "name")
		assert.NotContains(t, body.Tools[0], "function")

		w.Write([]byte("data: [DONE]\n"))
	}))
	defer srv.Close()

	p := NewResponsesProvider(srv.URL, NewTokenSource("", "sk-test"))
	ms, err := p.StreamChat(context.Background(), []ChatMessage{NewUserMessage("x")}, tools.Default())
	require.NoError(t, err)
	defer ms.Close()
	_, err = ms.Drain(context.Background())
	require.NoError(t, err)
}

func TestResponsesProvider_StreamChatUsesFetchedToken(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"tok-fetched","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-fetched", r.Header.Get("Authorization"))
		w.Write([]byte("data: [DONE]\n"))
	}))
	defer srv.Close()

	p := NewResponsesProvider(srv.URL, NewTokenSource(tokenSrv.URL, "sk-static"))
	ms, err := p.StreamChat(context.Background(), []ChatMessage{NewUserMessage("x")}, nil)
	require.NoError(t, err)
	ms.Close()
}

func TestResponsesProvider_StreamChatFailsFastOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewResponsesProvider(srv.URL, NewTokenSource("", "sk-bad"))
	_, err := p.StreamChat(context.Background(), []ChatMessage{NewUserMessage("x")}, nil)
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusUnauthorized, te.Status)
	assert.True(t, IsAuthFailure(err))
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestResponsesProvider_ListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"gpt-4o"},{"id":"o3-mini"}]}`))
	}))
	defer srv.Close()

	p := NewResponsesProvider(srv.URL, NewTokenSource("", "sk-test"))
	models := p.ListModels(context.Background())
	require.Len(t, models, 2)
	assert.Equal(t, "gpt-4o", models[0].ID)
}

func TestResponsesProvider_ListModelsFallback(t *testing.T) {
	p := NewResponsesProvider("http://127.0.0.1:1", NewTokenSource("", "sk-test"))
	assert.Equal(t, FallbackCloudCatalog(), p.ListModels(context.Background()))
}
