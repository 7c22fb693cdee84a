// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream implements the streaming response protocol layer shared by
// all LLM backends.
//
// A live response body is consumed in four stages:
//
//  1. Frame extraction: the raw byte stream is split into logical protocol
//     frames. Two framing dialects are supported: Server-Sent Events
//     (event:/data: line pairs) and newline-delimited JSON objects. Partial
//     lines spanning network reads are buffered, never split.
//
//  2. Event decoding: each frame payload is parsed as JSON and classified
//     into a closed set of event kinds (text delta, tool-call lifecycle,
//     usage report). Malformed payloads become Unrecognized events and the
//     stream continues.
//
//  3. Tool-call assembly: argument fragments for concurrently open tool
//     calls are accumulated per item id and flushed as one completed call
//     each, with correlation ids resolved once at call start.
//
//  4. Normalization: decoded events become uniform outward Messages
//     (content, tool_calls, usage) regardless of which backend dialect
//     produced them.
//
// The pipeline is pull-based: callers drive consumption by repeatedly
// calling MessageStream.Next, which blocks until the next message is
// reconstructed from the wire or the stream ends.
package stream
