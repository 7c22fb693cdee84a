// loom - a terminal AI coding assistant with streaming chat.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/loomworks/loom-tui/internal/cli"
	"github.com/loomworks/loom-tui/internal/config"
	"github.com/loomworks/loom-tui/internal/provider"
	"github.com/loomworks/loom-tui/internal/telemetry"
	"github.com/loomworks/loom-tui/internal/tools"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		providerName = flag.String("provider", "", "backend to use: ollama or responses (default from config)")
		modelName    = flag.String("model", "", "model id (default from config)")
		toolFormat   = flag.String("tool-format", "", "manual tool-format override: chat or responses")
		showVersion  = flag.Bool("version", false, "print version and exit")
		verbose      = flag.Bool("verbose", false, "log API requests to stderr")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("loom %s (%s, %s)\n", Version, GitCommit, BuildDate)
		return
	}

	if !*verbose {
		log.SetOutput(noopWriter{})
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *providerName != "" {
		cfg.DefaultProvider = *providerName
	}

	prov, err := buildProvider(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *modelName != "" {
		prov.SetModel(*modelName)
	}
	if *toolFormat != "" {
		f := tools.Format(*toolFormat)
		if !f.Valid() {
			fmt.Fprintf(os.Stderr, "Error: unknown tool format %q\n", *toolFormat)
			os.Exit(1)
		}
		switch p := prov.(type) {
		case *provider.OllamaProvider:
			p.WithToolFormat(f)
		case *provider.ResponsesProvider:
			p.WithToolFormat(f)
		}
	}

	var ledger *telemetry.Ledger
	if cfg.Telemetry.Enabled {
		ledger, err = telemetry.Open(ledgerPath(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: usage ledger unavailable: %v\n", err)
		} else {
			defer ledger.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Live-reload provider overrides while the session runs.
	if path, err := config.ConfigPath(); err == nil {
		if w, err := config.NewWatcher(path, func(next *config.Config) {
			applyOverrides(prov, next)
		}); err == nil {
			if err := w.Watch(); err == nil {
				defer w.Close()
			}
		}
	}

	session := cli.NewSession(cfg, prov, ledger, os.Stdout)
	if err := session.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildProvider constructs the configured backend adapter.
func buildProvider(cfg *config.Config) (provider.Provider, error) {
	opts := provider.Options{
		Temperature: cfg.Options.Temperature,
		TopP:        cfg.Options.TopP,
		NumPredict:  cfg.Options.NumPredict,
	}

	switch cfg.DefaultProvider {
	case "ollama":
		p := provider.NewOllamaProvider(cfg.Local.BaseURL).
			WithOptions(opts).
			WithConfiguredToolFormat(tools.Format(cfg.Local.ToolFormat))
		p.SetModel(cfg.Local.Model)
		return p, nil

	case "responses":
		tokens := provider.NewTokenSource(cfg.Cloud.TokenURL, cfg.Cloud.APIKey)
		p := provider.NewResponsesProvider(cfg.Cloud.BaseURL, tokens).
			WithOptions(opts).
			WithConfiguredToolFormat(tools.Format(cfg.Cloud.ToolFormat))
		p.SetModel(cfg.Cloud.Model)
		return p, nil

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.DefaultProvider)
	}
}

// applyOverrides pushes reloaded config values onto the running provider.
// Only the per-provider overrides are live; base URL and credentials need a
// restart.
func applyOverrides(prov provider.Provider, cfg *config.Config) {
	switch p := prov.(type) {
	case *provider.OllamaProvider:
		p.WithConfiguredToolFormat(tools.Format(cfg.Local.ToolFormat))
	case *provider.ResponsesProvider:
		p.WithConfiguredToolFormat(tools.Format(cfg.Cloud.ToolFormat))
	}
}

// ledgerPath resolves the usage database location.
func ledgerPath(cfg *config.Config) string {
	if cfg.Telemetry.Path != "" {
		return cfg.Telemetry.Path
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return "usage.db"
	}
	return filepath.Join(dir, "usage.db")
}

// noopWriter discards adapter request logging unless -verbose is set.
type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) { return len(p), nil }
