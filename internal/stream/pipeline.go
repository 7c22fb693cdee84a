// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"io"
)

// =============================================================================
// MESSAGE STREAM
// =============================================================================

// MessageStream is the pull-based pipeline tying frame extraction, event
// decoding, tool-call assembly, and normalization together. Callers drive
// consumption by repeatedly calling Next; the stream ends with io.EOF.
//
// A MessageStream owns its frame buffer and assembler state exclusively.
// Independent streams share nothing.
type MessageStream struct {
	frames  FrameReader
	decoder Decoder
	asm     *Assembler
	body    io.Closer

	queue []Message
	done  bool
}

// NewMessageStream builds a pipeline over the given framing dialect and
// decoder. body, when non-nil, is closed by Close so abandoning a stream
// releases the underlying network connection.
func NewMessageStream(frames FrameReader, decoder Decoder, body io.Closer) *MessageStream {
	return &MessageStream{
		frames:  frames,
		decoder: decoder,
		asm:     NewAssembler(),
		body:    body,
	}
}

// Next returns the next normalized message. It blocks while awaiting bytes
// from the underlying source, returns io.EOF at the natural end of the
// stream (after flushing any still-open tool calls), and returns any
// transport read error as-is. Frame-level anomalies never surface here;
// malformed or unrecognized frames are skipped.
func (s *MessageStream) Next(ctx context.Context) (Message, error) {
	for {
		if len(s.queue) > 0 {
			msg := s.queue[0]
			s.queue = s.queue[1:]
			return msg, nil
		}
		if s.done {
			return Message{}, io.EOF
		}

		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		default:
		}

		frame, err := s.frames.Next()
		if err != nil {
			if err == io.EOF {
				s.finish()
				continue
			}
			return Message{}, err
		}

		for _, ev := range s.decoder.Decode(frame) {
			s.normalize(ev)
		}
	}
}

// Drain consumes the remainder of the stream and returns all messages up to
// its end. Useful for callers that want the complete response rather than
// incremental delivery.
func (s *MessageStream) Drain(ctx context.Context) ([]Message, error) {
	var msgs []Message
	for {
		msg, err := s.Next(ctx)
		if err == io.EOF {
			return msgs, nil
		}
		if err != nil {
			return msgs, err
		}
		msgs = append(msgs, msg)
	}
}

// Close releases the underlying byte source. Safe to call more than once
// and safe on streams constructed without a body.
func (s *MessageStream) Close() error {
	if s.body == nil {
		return nil
	}
	err := s.body.Close()
	s.body = nil
	return err
}

// normalize converts one decoded event into zero or one queued outward
// messages, routing tool-call lifecycle events through the assembler.
func (s *MessageStream) normalize(ev Event) {
	switch ev.Kind {
	case KindTextDelta:
		s.queue = append(s.queue, textMessage(ev.Text))

	case KindToolCallStarted:
		s.asm.Start(ev.ItemID, ev.CallID, ev.Name)

	case KindToolCallArgsDelta:
		s.asm.AppendArgs(ev.ItemID, ev.ArgsDelta)

	case KindToolCallCompleted:
		if call, ok := s.asm.Complete(ev.ItemID, ev.CallID, ev.Name, ev.DeclaredArgs, ev.ArgsDeclared); ok {
			s.queue = append(s.queue, toolCallMessage(call))
		}

	case KindUsageReported:
		s.queue = append(s.queue, usageMessage(ev.Usage))

	case KindUnrecognized:
		// No outward effect.
	}
}

// finish flushes still-open tool calls at end of stream and marks the
// pipeline exhausted.
func (s *MessageStream) finish() {
	for _, call := range s.asm.Flush() {
		s.queue = append(s.queue, toolCallMessage(call))
	}
	s.done = true
}
