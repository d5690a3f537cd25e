// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package correction implements the "council correction" command
// group. Every mutation leaves a single pending transaction per
// member; these commands inspect that transaction and revert it, the
// same path the chat transport takes when a member edits their
// message.
package correction

import (
	"github.com/council-foundation/council/cmd/council/cli"
)

// Command returns the "correction" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "correction",
		Summary: "Inspect and revert a member's last operation",
		Subcommands: []*cli.Command{
			showCommand(),
			revertCommand(),
		},
	}
}
