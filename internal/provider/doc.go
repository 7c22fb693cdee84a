// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the backend adapters for chat completion
// streaming.
//
// Two backends are supported: a locally hosted Ollama-style server speaking
// newline-delimited JSON, and a cloud backend speaking the Responses SSE
// dialect. Both implement the same Provider contract so callers select a
// backend at session setup and never inspect which one they hold.
//
// Model listing and bearer-token fetch degrade gracefully (fallback catalog,
// static key); chat streaming fails fast on transport errors.
package provider
