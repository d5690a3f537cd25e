// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package vote implements the "council vote" command group: casting
// ballots and reading a member's vote history.
package vote

import (
	"github.com/council-foundation/council/cmd/council/cli"
)

// Command returns the "vote" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "vote",
		Summary: "Cast ballots and inspect vote ledgers",
		Subcommands: []*cli.Command{
			castCommand(),
			historyCommand(),
		},
	}
}
