// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package poll implements the "council poll" command group: creating,
// listing, inspecting, and concluding committee polls over the poll
// service socket.
package poll

import (
	"github.com/council-foundation/council/cmd/council/cli"
)

// Command returns the "poll" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "poll",
		Summary: "Create, inspect, and manage committee polls",
		Description: `Operations on committee polls. Mutations record who acted and which
message triggered them, so a later correction can revert and replace
the action. Queries are read-only.`,
		Subcommands: []*cli.Command{
			listCommand(),
			showCommand(),
			resolveCommand(),
			createCommand(),
			renameCommand(),
			attachCommand(),
			concludeCommand(),
			deleteCommand(),
		},
	}
}
