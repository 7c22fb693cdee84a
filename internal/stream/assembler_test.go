// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import "testing"

func TestAssembler_BasicLifecycle(t *testing.T) {
	a := NewAssembler()
	a.Start("it_1", "call_1", "read_file")
	a.AppendArgs("it_1", `{"path":`)
	a.AppendArgs("it_1", `"main.go"}`)

	call, ok := a.Complete("it_1", "", "", "", false)
	if !ok {
		t.Fatal("Complete returned false")
	}
	if call.ID != "call_1" {
		t.Errorf("ID = %q, want call_1", call.ID)
	}
	if call.Type != "function" {
		t.Errorf("Type = %q", call.Type)
	}
	if call.Function.Name != "read_file" {
		t.Errorf("Name = %q", call.Function.Name)
	}
	if call.Function.Arguments != `{"path":"main.go"}` {
		t.Errorf("Arguments = %q", call.Function.Arguments)
	}
	if a.OpenCalls() != 0 {
		t.Errorf("OpenCalls = %d after completion", a.OpenCalls())
	}
}

func TestAssembler_ItemIDFallbackWhenCallIDAbsent(t *testing.T) {
	a := NewAssembler()
	a.Start("it_7", "", "grep")

	call, ok := a.Complete("it_7", "", "", "", false)
	if !ok {
		t.Fatal("Complete returned false")
	}
	if call.ID != "it_7" {
		t.Errorf("ID = %q, want it_7", call.ID)
	}
}

func TestAssembler_IdentityFixedAtStart(t *testing.T) {
	// A completion event carrying a different call id does not change the
	// identity chosen when the call started.
	a := NewAssembler()
	a.Start("it_1", "call_orig", "f")

	call, ok := a.Complete("it_1", "call_other", "", "", false)
	if !ok {
		t.Fatal("Complete returned false")
	}
	if call.ID != "call_orig" {
		t.Errorf("ID = %q, want call_orig", call.ID)
	}
}

func TestAssembler_InterleavedCallsStayIndependent(t *testing.T) {
	a := NewAssembler()
	a.Start("it_a", "call_a", "first")
	a.Start("it_b", "call_b", "second")
	a.AppendArgs("it_a", `{"a"`)
	a.AppendArgs("it_b", `{"b"`)
	a.AppendArgs("it_a", `:1}`)
	a.AppendArgs("it_b", `:2}`)

	callB, ok := a.Complete("it_b", "", "", "", false)
	if !ok || callB.Function.Arguments != `{"b":2}` {
		t.Errorf("callB = %+v, ok = %v", callB, ok)
	}
	callA, ok := a.Complete("it_a", "", "", "", false)
	if !ok || callA.Function.Arguments != `{"a":1}` {
		t.Errorf("callA = %+v, ok = %v", callA, ok)
	}
}

func TestAssembler_DeclaredArgsOverrideBuffer(t *testing.T) {
	a := NewAssembler()
	a.Start("it_1", "call_1", "f")
	a.AppendArgs("it_1", `{"partial`)

	call, ok := a.Complete("it_1", "", "", `{"full":true}`, true)
	if !ok {
		t.Fatal("Complete returned false")
	}
	if call.Function.Arguments != `{"full":true}` {
		t.Errorf("Arguments = %q", call.Function.Arguments)
	}
}

func TestAssembler_EmptyDeclaredArgsKeepBuffer(t *testing.T) {
	a := NewAssembler()
	a.Start("it_1", "call_1", "f")
	a.AppendArgs("it_1", `{"kept":1}`)

	call, ok := a.Complete("it_1", "", "", "", true)
	if !ok {
		t.Fatal("Complete returned false")
	}
	if call.Function.Arguments != `{"kept":1}` {
		t.Errorf("Arguments = %q", call.Function.Arguments)
	}
}

func TestAssembler_DoubleCompletionEmitsOnce(t *testing.T) {
	a := NewAssembler()
	a.Start("it_1", "call_1", "f")

	if _, ok := a.Complete("it_1", "", "", `{}`, true); !ok {
		t.Fatal("first Complete returned false")
	}
	if _, ok := a.Complete("it_1", "call_1", "f", `{}`, true); ok {
		t.Error("second Complete returned true, want no-op")
	}
}

func TestAssembler_OrphanDeltaDropped(t *testing.T) {
	a := NewAssembler()
	a.AppendArgs("never_started", `{"x":1}`)
	if a.OpenCalls() != 0 {
		t.Errorf("OpenCalls = %d, want 0", a.OpenCalls())
	}
	if _, ok := a.Complete("never_started", "", "", "", false); ok {
		t.Error("Complete for unknown item returned true")
	}
}

func TestAssembler_DuplicateStartFillsMissingName(t *testing.T) {
	a := NewAssembler()
	a.Start("it_1", "call_1", "")
	a.Start("it_1", "call_other", "late_name")

	call, ok := a.Complete("it_1", "", "", "", false)
	if !ok {
		t.Fatal("Complete returned false")
	}
	if call.ID != "call_1" {
		t.Errorf("ID = %q, duplicate start must not rekey", call.ID)
	}
	if call.Function.Name != "late_name" {
		t.Errorf("Name = %q", call.Function.Name)
	}
}

func TestAssembler_FlushArrivalOrder(t *testing.T) {
	a := NewAssembler()
	a.Start("it_1", "call_1", "first")
	a.Start("it_2", "call_2", "second")
	a.Start("it_3", "call_3", "third")
	a.AppendArgs("it_2", `{"n":2`)

	if _, ok := a.Complete("it_3", "", "", `{}`, true); !ok {
		t.Fatal("Complete it_3 failed")
	}

	calls := a.Flush()
	if len(calls) != 2 {
		t.Fatalf("Flush returned %d calls, want 2", len(calls))
	}
	if calls[0].ID != "call_1" || calls[1].ID != "call_2" {
		t.Errorf("flush order = %q, %q", calls[0].ID, calls[1].ID)
	}
	if calls[1].Function.Arguments != `{"n":2` {
		t.Errorf("truncated args = %q", calls[1].Function.Arguments)
	}
	if a.OpenCalls() != 0 {
		t.Errorf("OpenCalls = %d after flush", a.OpenCalls())
	}
}

func TestAssembler_FlushEmpty(t *testing.T) {
	a := NewAssembler()
	if calls := a.Flush(); calls != nil {
		t.Errorf("Flush = %+v, want nil", calls)
	}
}
