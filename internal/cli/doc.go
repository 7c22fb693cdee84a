// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the interactive chat driver: a readline-style REPL
// that streams model responses to the terminal, surfaces tool calls, and
// records usage totals in the telemetry ledger.
package cli
