// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete council CLI command tree.
package commands

import (
	"fmt"

	announcecmd "github.com/council-foundation/council/cmd/council/announce"
	archivecmd "github.com/council-foundation/council/cmd/council/archive"
	browsecmd "github.com/council-foundation/council/cmd/council/browse"
	"github.com/council-foundation/council/cmd/council/cli"
	correctioncmd "github.com/council-foundation/council/cmd/council/correction"
	pollcmd "github.com/council-foundation/council/cmd/council/poll"
	servicecmd "github.com/council-foundation/council/cmd/council/service"
	votecmd "github.com/council-foundation/council/cmd/council/vote"
	"github.com/council-foundation/council/lib/version"
)

// Root builds and returns the complete council CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "council",
		Description: `Council: committee voting assistant.

Transactional poll and vote bookkeeping for a chat-driven committee:
open polls, cast ballots, revert mistakes, and announce results. Most
commands talk to the poll service over its Unix socket; the archive
commands work on the store directly.`,
		Subcommands: []*cli.Command{
			servicecmd.StatusCommand(),
			servicecmd.InfoCommand(),
			pollcmd.Command(),
			votecmd.Command(),
			correctioncmd.Command(),
			announcecmd.Command(),
			archivecmd.Command(),
			browsecmd.Command(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("council %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Check the service is up",
				Command:     "council status",
			},
			{
				Description: "See every open poll",
				Command:     "council poll list --state open",
			},
			{
				Description: "Cast an approving ballot",
				Command:     "council vote cast 2026-03-09-tmfrggmjq-adopt-xep-0474 +1 --actor bob@example.org",
			},
			{
				Description: "Browse polls interactively",
				Command:     "council browse",
			},
			{
				Description: "Archive settled polls and clear them from the store",
				Command:     "council archive export --prune",
			},
		},
	}
}
