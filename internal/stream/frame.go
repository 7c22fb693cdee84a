// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"bufio"
	"bytes"
	"io"
)

// =============================================================================
// FRAMES
// =============================================================================

// doneSentinel is the payload value that terminates a stream without
// producing a frame.
const doneSentinel = "[DONE]"

// Frame is one logical unit of the wire protocol: a single SSE data: line,
// or a single NDJSON line. Event is the SSE event label in effect when the
// payload arrived; it is empty for NDJSON frames, whose classification comes
// from the payload itself.
type Frame struct {
	Event string
	Data  string
}

// FrameReader splits a raw byte stream into frames. Next returns io.EOF at
// the natural end of the stream, including when a [DONE] sentinel is seen.
type FrameReader interface {
	Next() (Frame, error)
}

// =============================================================================
// SSE FRAMING
// =============================================================================

// SSEFrameReader extracts frames from a Server-Sent Events stream.
//
// Lines beginning "event:" set the current event label, which persists until
// overwritten. Each "data:" line yields one frame carrying the current label.
// Blank lines are frame separators with no payload. Other fields (id:,
// retry:, comments) are ignored. A partial line buffered at end of stream
// with no terminating newline is discarded as unusable.
type SSEFrameReader struct {
	reader *bufio.Reader
	event  string
}

// NewSSEFrameReader creates an SSE frame reader over r.
func NewSSEFrameReader(r io.Reader) *SSEFrameReader {
	return &SSEFrameReader{reader: bufio.NewReader(r)}
}

// Next returns the next frame from the stream.
func (s *SSEFrameReader) Next() (Frame, error) {
	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// Trailing bytes with no newline are an incomplete frame.
				return Frame{}, io.EOF
			}
			return Frame{}, err
		}

		line = bytes.TrimRight(line, "\r\n")

		// Blank line: event separator, no payload. The label persists.
		if len(line) == 0 {
			continue
		}

		switch {
		case bytes.HasPrefix(line, []byte("event:")):
			s.event = string(bytes.TrimSpace(line[len("event:"):]))
		case bytes.HasPrefix(line, []byte("data:")):
			data := string(bytes.TrimSpace(line[len("data:"):]))
			if data == doneSentinel {
				return Frame{}, io.EOF
			}
			return Frame{Event: s.event, Data: data}, nil
		}
		// id:, retry:, and ":" comments are ignored.
	}
}

// =============================================================================
// NDJSON FRAMING
// =============================================================================

// NDJSONFrameReader extracts frames from a newline-delimited JSON stream.
// Every non-empty line is one frame; classification is derived from the
// payload after decode, so frames carry no event label.
type NDJSONFrameReader struct {
	reader *bufio.Reader
}

// NewNDJSONFrameReader creates an NDJSON frame reader over r.
func NewNDJSONFrameReader(r io.Reader) *NDJSONFrameReader {
	return &NDJSONFrameReader{reader: bufio.NewReader(r)}
}

// Next returns the next frame from the stream.
func (n *NDJSONFrameReader) Next() (Frame, error) {
	for {
		line, err := n.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				// Discard an unterminated trailing fragment.
				return Frame{}, io.EOF
			}
			return Frame{}, err
		}

		line = bytes.TrimRight(line, "\r\n")
		if len(line) == 0 {
			continue
		}
		if string(line) == doneSentinel {
			return Frame{}, io.EOF
		}
		return Frame{Data: string(line)}, nil
	}
}
