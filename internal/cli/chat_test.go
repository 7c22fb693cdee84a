// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomworks/loom-tui/internal/config"
	"github.com/loomworks/loom-tui/internal/provider"
	"github.com/loomworks/loom-tui/internal/telemetry"
)

func TestSession_TurnStreamsAndRecordsUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"role":"assistant","content":"Hello "},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"role":"assistant","content":"world"},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"content":""},"done":true,"prompt_eval_count":12,"eval_count":7}` + "\n"))
	}))
	defer srv.Close()

	ledger, err := telemetry.Open(filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	defer ledger.Close()

	var out bytes.Buffer
	prov := provider.NewOllamaProvider(srv.URL)
	prov.SetModel("llama3.1:8b")
	s := NewSession(config.Default(), prov, ledger, &out)

	require.NoError(t, s.turn(context.Background(), "hi"))

	assert.Contains(t, out.String(), "Hello world")
	assert.Equal(t, 19, s.totalTokens)

	// Assistant reply joined conversation history.
	require.Len(t, s.messages, 2)
	assert.Equal(t, "assistant", s.messages[1].Role)
	assert.Equal(t, "Hello world", s.messages[1].Content)

	n, err := ledger.StreamCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	totals, err := ledger.TotalsByModel(context.Background())
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, "llama3.1:8b", totals[0].Model)
	assert.Equal(t, 12, totals[0].PromptTokens)
	assert.Equal(t, 7, totals[0].CompletionTokens)
}

func TestSession_TurnSurfacesToolCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"role":"assistant","tool_calls":[{"function":{"name":"grep","arguments":{"pattern":"TODO"}}}]},"done":false}` + "\n"))
		w.Write([]byte(`{"message":{"content":""},"done":true}` + "\n"))
	}))
	defer srv.Close()

	var out bytes.Buffer
	s := NewSession(config.Default(), provider.NewOllamaProvider(srv.URL), nil, &out)

	require.NoError(t, s.turn(context.Background(), "find todos"))
	assert.Contains(t, out.String(), "grep")
	assert.Contains(t, out.String(), `{"pattern":"TODO"}`)
}

func TestSession_TurnFailsFastOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var out bytes.Buffer
	s := NewSession(config.Default(), provider.NewOllamaProvider(srv.URL), nil, &out)

	err := s.turn(context.Background(), "hi")
	require.Error(t, err)
	assert.True(t, provider.IsTransport(err))
}
