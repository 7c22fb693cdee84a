// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry records token usage per chat stream in a local SQLite
// ledger. It stores accounting totals only, never conversation content.
package telemetry
