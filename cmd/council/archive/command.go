// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive implements the "council archive" command group:
// exporting settled polls to portable archive files, importing them
// into another store, and inspecting an archive file.
//
// Unlike the other command groups these commands do not talk to the
// poll service. They open the store directly, so they must run with
// the service stopped; the store has no cross-process locking.
package archive

import (
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/council-foundation/council/cmd/council/cli"
	"github.com/council-foundation/council/lib/config"
	"github.com/council-foundation/council/lib/pollstore"
)

// Command returns the "archive" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "archive",
		Summary: "Export, import, and inspect poll archives",
		Subcommands: []*cli.Command{
			exportCommand(),
			importCommand(),
			inspectCommand(),
		},
	}
}

// storeParams carries the configuration flag shared by the commands
// that open the poll store.
type storeParams struct {
	Config string `flag:"config" desc:"path to configuration file (default: $COUNCIL_CONFIG)"`
}

func (s *storeParams) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if s.Config != "" {
		cfg, err = config.LoadFile(s.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openStore loads the configuration and opens the poll store rooted
// at its state directory.
func (s *storeParams) openStore() (*pollstore.Store, *config.Config, error) {
	cfg, err := s.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return nil, nil, fmt.Errorf("preparing state directories: %w", err)
	}

	logger := cli.NewCommandLogger()
	store, recovery, err := pollstore.Open(cfg.Paths.State, clockwork.NewRealClock(), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("opening poll store: %w", err)
	}
	logger.Debug("store recovered",
		"polls", len(recovery.Polls),
		"pending_transactions", len(recovery.Transactions),
	)
	return store, cfg, nil
}
