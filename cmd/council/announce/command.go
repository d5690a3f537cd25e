// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package announce implements the "council announce" command group.
// The service never posts result notices itself; this is the manual
// side of that contract, for operators announcing results when no
// chat transport is connected.
package announce

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/council-foundation/council/cmd/council/cli"
)

// Command returns the "announce" command group.
func Command() *cli.Command {
	return &cli.Command{
		Name:    "announce",
		Summary: "Work through pending result announcements",
		Subcommands: []*cli.Command{
			pendingCommand(),
			doneCommand(),
		},
	}
}

// tally is the wire shape of a vote count.
type tally struct {
	Acks       int    `json:"acks"`
	PlusZeros  int    `json:"plus_zeros"`
	MinusZeros int    `json:"minus_zeros"`
	Vetos      int    `json:"vetos"`
	Cast       int    `json:"cast"`
	RosterSize int    `json:"roster_size"`
	Result     string `json:"result"`
}

// announcement is one pending result notice.
type announcement struct {
	Slug   string `json:"slug"`
	Topic  string `json:"topic"`
	Reason string `json:"reason"`
	Result string `json:"result"`
	Tally  tally  `json:"tally"`
	Text   string `json:"text"`
}

// pendingResponse is the "announce/pending" wire payload.
type pendingResponse struct {
	Announcements []announcement `json:"announcements"`
}

// --- pending ---

type pendingParams struct {
	cli.ServiceConnection
	cli.JSONOutput
	Quiet bool `flag:"quiet,q" desc:"one summary line per poll instead of the notice text"`
}

func pendingCommand() *cli.Command {
	var params pendingParams

	return &cli.Command{
		Name:    "pending",
		Summary: "Show polls whose result has not been announced",
		Description: `Print the result notice for every poll past its voting period whose
conclusion has not been recorded. A poll keeps appearing here until
"council announce done" confirms its notice went out, so crashing
between posting and confirming repeats the notice rather than losing
it.`,
		Usage: "council announce pending [flags]",
		Examples: []cli.Example{
			{
				Description: "Print the notices ready to post",
				Command:     "council announce pending",
			},
			{
				Description: "Just the slugs and results",
				Command:     "council announce pending --quiet",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("announce pending", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("announce pending takes no arguments")
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var response pendingResponse
			if err := params.Connect().Call(ctx, "announce/pending", nil, &response); err != nil {
				return err
			}

			if done, err := params.EmitJSON(response); done {
				return err
			}

			if len(response.Announcements) == 0 {
				fmt.Println("Nothing to announce.")
				return nil
			}

			if params.Quiet {
				writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
				fmt.Fprintf(writer, "SLUG\tRESULT\tREASON\tVOTES\n")
				for _, a := range response.Announcements {
					fmt.Fprintf(writer, "%s\t%s\t%s\t%d/%d\n",
						a.Slug, a.Result, a.Reason, a.Tally.Cast, a.Tally.RosterSize)
				}
				return writer.Flush()
			}

			for i, a := range response.Announcements {
				if i > 0 {
					fmt.Println()
				}
				fmt.Printf("--- %s (%s by %s)\n\n%s\n", a.Slug, a.Result, a.Reason, a.Text)
			}
			return nil
		},
	}
}

// --- done ---

type doneParams struct {
	cli.ServiceConnection
}

func doneCommand() *cli.Command {
	var params doneParams

	return &cli.Command{
		Name:    "done",
		Summary: "Record that a poll's result notice was posted",
		Description: `Mark the poll's conclusion as announced. Safe to repeat; a second
call on the same poll is a no-op.`,
		Usage: "council announce done <slug> [flags]",
		Examples: []cli.Example{
			{
				Description: "Confirm a notice went out",
				Command:     "council announce done 2026-03-09-tmfrggmjq-adopt-xep-0474",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("announce done", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument: the poll slug")
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			fields := map[string]any{"slug": args[0]}
			if err := params.Connect().Call(ctx, "announce/done", fields, nil); err != nil {
				return err
			}
			fmt.Printf("Recorded %s as announced.\n", args[0])
			return nil
		},
	}
}
