// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "strings"

// =============================================================================
// TOOL-CALL ASSEMBLER
// =============================================================================

// pendingCall accumulates argument fragments for one open tool call. The
// outward id is fixed when the call starts and never changes, even if a
// later event disagrees.
type pendingCall struct {
	id   string
	name string
	args strings.Builder
}

// Assembler reconstructs complete tool calls from fragmented lifecycle
// events. Multiple calls may be open at once; their argument buffers are
// fully independent and keyed by item id, so interleaved deltas for
// different items never cross-contaminate.
//
// An Assembler is owned by exactly one stream and must not be shared.
type Assembler struct {
	open  map[string]*pendingCall
	order []string // item ids in start arrival order, for end-of-stream flush
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{open: make(map[string]*pendingCall)}
}

// Start opens accumulation for itemID. The outward identity is the event's
// call id when present, falling back to the item id; this choice is
// permanent for the lifetime of the call. A duplicate start for an already
// open item only fills in a missing name.
func (a *Assembler) Start(itemID, callID, name string) {
	if itemID == "" {
		return
	}
	if existing, ok := a.open[itemID]; ok {
		if existing.name == "" {
			existing.name = name
		}
		return
	}
	id := callID
	if id == "" {
		id = itemID
	}
	a.open[itemID] = &pendingCall{id: id, name: name}
	a.order = append(a.order, itemID)
}

// AppendArgs appends delta to the argument buffer for itemID. Deltas for
// unknown items (never started, or already flushed) are dropped silently;
// buffering orphans would grow without bound since nothing guarantees a
// completion event for them.
func (a *Assembler) AppendArgs(itemID, delta string) {
	call, ok := a.open[itemID]
	if !ok {
		return
	}
	call.args.WriteString(delta)
}

// Complete flushes the call for itemID. When the completion event declares
// its own argument text, that value is authoritative and replaces the
// accumulated buffer. Completing an item that is not open is a no-op, which
// also makes redundant completion events (arguments done followed by item
// done) emit exactly one call. Returns false when nothing was flushed.
func (a *Assembler) Complete(itemID, callID, name, declaredArgs string, argsDeclared bool) (ToolCall, bool) {
	call, ok := a.open[itemID]
	if !ok {
		return ToolCall{}, false
	}

	args := call.args.String()
	if argsDeclared && declaredArgs != "" {
		args = declaredArgs
	}
	finalName := call.name
	if finalName == "" {
		finalName = name
	}

	a.remove(itemID)
	return ToolCall{
		ID:   call.id,
		Type: "function",
		Function: FunctionCall{
			Name:      finalName,
			Arguments: args,
		},
	}, true
}

// Flush closes every still-open call at end of stream, using the buffered
// text as a best-effort final argument value. Calls are returned in start
// arrival order and the assembler is left empty. Open calls are never
// silently dropped.
func (a *Assembler) Flush() []ToolCall {
	if len(a.order) == 0 {
		return nil
	}
	calls := make([]ToolCall, 0, len(a.order))
	for _, itemID := range a.order {
		call, ok := a.open[itemID]
		if !ok {
			continue
		}
		calls = append(calls, ToolCall{
			ID:   call.id,
			Type: "function",
			Function: FunctionCall{
				Name:      call.name,
				Arguments: call.args.String(),
			},
		})
	}
	a.open = make(map[string]*pendingCall)
	a.order = nil
	return calls
}

// OpenCalls reports how many calls are currently accumulating.
func (a *Assembler) OpenCalls() int {
	return len(a.open)
}

// remove deletes one entry from the map and the arrival-order slice.
func (a *Assembler) remove(itemID string) {
	delete(a.open, itemID)
	for i, id := range a.order {
		if id == itemID {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}
