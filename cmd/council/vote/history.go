// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package vote

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/council-foundation/council/cmd/council/cli"
)

// ledgerEntry is one recorded ballot in a member's history.
type ledgerEntry struct {
	Value  string `json:"value"`
	Remark string `json:"remark,omitempty"`
}

// ledgerResponse is the "vote/ledger" wire payload. Entries are
// oldest first; the last entry is the member's current ballot.
type ledgerResponse struct {
	Slug    string        `json:"slug"`
	Member  string        `json:"member"`
	Entries []ledgerEntry `json:"entries"`
}

type historyParams struct {
	cli.ServiceConnection
	cli.JSONOutput
}

func historyCommand() *cli.Command {
	var params historyParams

	return &cli.Command{
		Name:    "history",
		Summary: "Show a member's full ballot history on a poll",
		Description: `Print every ballot the member cast on the poll, oldest first. The
last entry is the ballot that counts; earlier ones were replaced by
revotes.`,
		Usage: "council vote history <slug> <member> [flags]",
		Examples: []cli.Example{
			{
				Description: "See how a member's position evolved",
				Command:     "council vote history 2026-03-09-tmfrggmjq-adopt-xep-0474 bob@example.org",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("vote history", &params)
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected a poll slug and a member")
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var response ledgerResponse
			fields := map[string]any{"slug": args[0], "member": args[1]}
			if err := params.Connect().Call(ctx, "vote/ledger", fields, &response); err != nil {
				return err
			}

			if done, err := params.EmitJSON(response); done {
				return err
			}

			if len(response.Entries) == 0 {
				fmt.Printf("%s has not voted on %s.\n", response.Member, response.Slug)
				return nil
			}

			writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintf(writer, "#\tVOTE\tREMARK\n")
			for i, entry := range response.Entries {
				fmt.Fprintf(writer, "%d\t%s\t%s\n", i+1, entry.Value, entry.Remark)
			}
			if err := writer.Flush(); err != nil {
				return err
			}
			current := response.Entries[len(response.Entries)-1]
			fmt.Printf("\nCurrent ballot: %s\n", current.Value)
			return nil
		},
	}
}
