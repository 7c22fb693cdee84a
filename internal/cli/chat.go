// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/peterh/liner"

	"github.com/loomworks/loom-tui/internal/config"
	"github.com/loomworks/loom-tui/internal/provider"
	"github.com/loomworks/loom-tui/internal/stream"
	"github.com/loomworks/loom-tui/internal/telemetry"
	"github.com/loomworks/loom-tui/internal/tools"
)

// =============================================================================
// CHAT SESSION
// =============================================================================

// Session holds the state of one interactive chat.
type Session struct {
	cfg      *config.Config
	prov     provider.Provider
	ledger   *telemetry.Ledger // nil when telemetry is disabled
	toolDefs []tools.Definition

	messages    []provider.ChatMessage
	totalTokens int

	input *Input
	out   io.Writer
}

// NewSession creates a chat session over the given provider. ledger may be
// nil to disable usage recording.
func NewSession(cfg *config.Config, prov provider.Provider, ledger *telemetry.Ledger, out io.Writer) *Session {
	return &Session{
		cfg:      cfg,
		prov:     prov,
		ledger:   ledger,
		toolDefs: tools.Default(),
		out:      out,
	}
}

// Run drives the REPL until the user quits or input reaches EOF.
func (s *Session) Run(ctx context.Context) error {
	s.input = NewInput()
	defer s.input.Close()

	fmt.Fprintf(s.out, "loom chat (%s, model %s). /help for commands.\n", s.prov.Name(), s.prov.CurrentModel())

	for {
		line, err := s.input.ReadLine("> ")
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				fmt.Fprintln(s.out, "bye")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := s.handleCommand(ctx, line)
			if err != nil {
				fmt.Fprintf(s.out, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		if err := s.turn(ctx, line); err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(s.out, "\n[cancelled]")
				continue
			}
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// handleCommand dispatches a slash command. Returns true when the session
// should end.
func (s *Session) handleCommand(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/q", "/exit":
		fmt.Fprintln(s.out, "bye")
		return true, nil

	case "/help", "/h":
		fmt.Fprintln(s.out, "commands:")
		fmt.Fprintln(s.out, "  /model [name]   show or switch model")
		fmt.Fprintln(s.out, "  /models         list available models")
		fmt.Fprintln(s.out, "  /clear          clear conversation history")
		fmt.Fprintln(s.out, "  /usage          show recorded usage per model")
		fmt.Fprintln(s.out, "  /quit           exit")
		return false, nil

	case "/model":
		if len(fields) > 1 {
			s.prov.SetModel(fields[1])
			fmt.Fprintf(s.out, "model set to %s (tool format %s)\n", s.prov.CurrentModel(), s.prov.ResolveToolFormat())
		} else {
			fmt.Fprintf(s.out, "current model: %s\n", s.prov.CurrentModel())
		}
		return false, nil

	case "/models":
		for _, m := range s.prov.ListModels(ctx) {
			fmt.Fprintf(s.out, "  %s\n", m.ID)
		}
		return false, nil

	case "/clear", "/c":
		s.messages = nil
		fmt.Fprintln(s.out, "history cleared")
		return false, nil

	case "/usage":
		if s.ledger == nil {
			fmt.Fprintln(s.out, "telemetry disabled")
			return false, nil
		}
		totals, err := s.ledger.TotalsByModel(ctx)
		if err != nil {
			return false, err
		}
		if len(totals) == 0 {
			fmt.Fprintln(s.out, "no usage recorded")
			return false, nil
		}
		for _, t := range totals {
			fmt.Fprintf(s.out, "  %-28s %4d streams  %8d prompt  %8d completion  %8d total\n",
				t.Model, t.Streams, t.PromptTokens, t.CompletionTokens, t.TotalTokens)
		}
		return false, nil

	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
}

// turn sends one user message and streams the reply to the terminal.
func (s *Session) turn(ctx context.Context, text string) error {
	s.messages = append(s.messages, provider.NewUserMessage(text))

	ms, err := s.prov.StreamChat(ctx, s.messages, s.toolDefs)
	if err != nil {
		return err
	}
	defer ms.Close()

	streamID := uuid.NewString()
	var reply strings.Builder

	for {
		msg, err := ms.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		switch {
		case msg.Content != "":
			fmt.Fprint(s.out, msg.Content)
			reply.WriteString(msg.Content)

		case len(msg.ToolCalls) > 0:
			call := msg.ToolCalls[0]
			fmt.Fprintf(s.out, "\n[tool call %s: %s(%s)]\n", call.ID, call.Function.Name, call.Function.Arguments)

		case msg.Usage != nil:
			s.totalTokens += msg.Usage.TotalTokens
			s.recordUsage(ctx, streamID, *msg.Usage)
		}
	}
	fmt.Fprintln(s.out)

	if reply.Len() > 0 {
		s.messages = append(s.messages, provider.ChatMessage{Role: "assistant", Content: reply.String()})
	}
	return nil
}

// recordUsage writes one ledger row. Recording failures are reported but
// never fail the chat turn.
func (s *Session) recordUsage(ctx context.Context, streamID string, u stream.Usage) {
	if s.ledger == nil {
		return
	}
	err := s.ledger.Record(ctx, telemetry.UsageRecord{
		StreamID:         streamID,
		Provider:         s.prov.Name(),
		Model:            s.prov.CurrentModel(),
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.TotalTokens,
	})
	if err != nil {
		fmt.Fprintf(s.out, "[usage not recorded: %v]\n", err)
	}
}
