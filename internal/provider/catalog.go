// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

// =============================================================================
// FALLBACK MODEL CATALOGS
// =============================================================================
//
// When a backend cannot be reached, model listing returns one of these
// read-only tables instead of an error. Availability of a usable model list
// outranks surfacing the transport failure; the eventual chat request will
// report the real error if the backend is truly down.

// fallbackLocalCatalog lists commonly installed local models.
var fallbackLocalCatalog = []ModelInfo{
	{ID: "llama3.1:8b", Name: "Llama 3.1 8B", ContextSize: 131072},
	{ID: "llama3.2:3b", Name: "Llama 3.2 3B", ContextSize: 131072},
	{ID: "qwen2.5-coder:7b", Name: "Qwen 2.5 Coder 7B", ContextSize: 32768},
	{ID: "qwen2.5-coder:14b", Name: "Qwen 2.5 Coder 14B", ContextSize: 32768},
	{ID: "mistral:7b", Name: "Mistral 7B", ContextSize: 32768},
	{ID: "deepseek-coder-v2:16b", Name: "DeepSeek Coder V2 16B", ContextSize: 163840},
}

// fallbackCloudCatalog lists the cloud models the Responses dialect serves.
var fallbackCloudCatalog = []ModelInfo{
	{ID: "gpt-4o", Name: "GPT-4o", ContextSize: 128000},
	{ID: "gpt-4o-mini", Name: "GPT-4o mini", ContextSize: 128000},
	{ID: "gpt-4.1", Name: "GPT-4.1", ContextSize: 1047576},
	{ID: "gpt-4.1-mini", Name: "GPT-4.1 mini", ContextSize: 1047576},
	{ID: "o3-mini", Name: "o3-mini", ContextSize: 200000},
}

// FallbackLocalCatalog returns a copy of the local fallback catalog.
func FallbackLocalCatalog() []ModelInfo {
	out := make([]ModelInfo, len(fallbackLocalCatalog))
	copy(out, fallbackLocalCatalog)
	return out
}

// FallbackCloudCatalog returns a copy of the cloud fallback catalog.
func FallbackCloudCatalog() []ModelInfo {
	out := make([]ModelInfo, len(fallbackCloudCatalog))
	copy(out, fallbackCloudCatalog)
	return out
}
