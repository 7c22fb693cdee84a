// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tools holds the function-calling tool definitions and their
// translation into the schema dialect each backend expects.
//
// Definitions are declared once in a neutral form; Wire converts them to the
// chat-completions shape (nested function object) or the Responses shape
// (flattened) depending on the resolved format.
package tools
