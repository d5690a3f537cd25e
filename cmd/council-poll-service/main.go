// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/council-foundation/council/lib/config"
	"github.com/council-foundation/council/lib/council"
	"github.com/council-foundation/council/lib/pollstore"
	"github.com/council-foundation/council/lib/socketapi"
	"github.com/council-foundation/council/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "path to configuration file (default: $COUNCIL_CONFIG)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("council-poll-service %s\n", version.Info())
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return fmt.Errorf("preparing state directories: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clk := clockwork.NewRealClock()

	store, recovery, err := pollstore.Open(cfg.Paths.State, clk, logger)
	if err != nil {
		return fmt.Errorf("opening poll store: %w", err)
	}
	logger.Info("store recovered",
		"polls", len(recovery.Polls),
		"pending_announcements", len(recovery.PendingAnnouncements),
		"pending_transactions", len(recovery.Transactions),
	)

	roster := make([]council.RosterMember, len(cfg.Committee.Members))
	for i, member := range cfg.Committee.Members {
		roster[i] = council.RosterMember{ID: member.ID, Nick: member.Nick}
	}

	core := council.New(store, recovery, council.Options{
		Roster: roster,
		Clock:  clk,
		Logger: logger,
	})

	pollService := &PollService{
		core:        core,
		clock:       clk,
		environment: string(cfg.Environment),
		startedAt:   clk.Now(),
		logger:      logger,
	}

	// Start the socket server in a goroutine.
	server := socketapi.NewServer(cfg.Service.SocketPath, logger)
	pollService.registerActions(server)

	socketDone := make(chan error, 1)
	go func() {
		socketDone <- server.Serve(ctx)
	}()

	// Start the expiry sweep in a goroutine.
	go pollService.runSweeper(ctx, cfg.SweepEvery())

	logger.Info("poll service running",
		"environment", cfg.Environment,
		"socket", cfg.Service.SocketPath,
		"members", len(roster),
		"polls", len(core.ListOpen()),
	)

	// Wait for shutdown signal.
	<-ctx.Done()
	logger.Info("shutting down")

	// Wait for the socket server to drain active connections.
	if err := <-socketDone; err != nil {
		logger.Error("socket server error", "error", err)
	}

	return nil
}
