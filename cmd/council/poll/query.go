// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package poll

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/council-foundation/council/cmd/council/cli"
)

// --- list ---

type listParams struct {
	cli.ServiceConnection
	cli.JSONOutput
	State string `flag:"state" desc:"filter by state (open, concluded, expired)"`
	Tag   string `flag:"tag,t" desc:"filter by tag"`
}

func listCommand() *cli.Command {
	var params listParams

	return &cli.Command{
		Name:    "list",
		Summary: "List tracked polls",
		Description: `List every poll the service tracks, deleted ones excluded, in
start-time order. State and tag filters are applied client-side.`,
		Usage: "council poll list [flags]",
		Examples: []cli.Example{
			{
				Description: "List all polls",
				Command:     "council poll list",
			},
			{
				Description: "Only polls still accepting votes",
				Command:     "council poll list --state open",
			},
			{
				Description: "JSON output for scripting",
				Command:     "council poll list --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("poll list", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("poll list takes no arguments")
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var response listResponse
			if err := params.Connect().Call(ctx, "poll/list", nil, &response); err != nil {
				return err
			}

			polls := response.Polls
			if params.State != "" || params.Tag != "" {
				filtered := make([]Poll, 0, len(polls))
				for _, p := range polls {
					if params.State != "" && p.State != params.State {
						continue
					}
					if params.Tag != "" && p.Tag != params.Tag {
						continue
					}
					filtered = append(filtered, p)
				}
				polls = filtered
			}

			if done, err := params.EmitJSON(listResponse{Polls: polls}); done {
				return err
			}

			if len(polls) == 0 {
				fmt.Println("No polls.")
				return nil
			}
			return writePollTable(polls)
		},
	}
}

// --- show ---

type showParams struct {
	cli.ServiceConnection
	cli.JSONOutput
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show one poll with its votes and tally",
		Description: `Show the full state of a poll: metadata, the current ballot of every
member who voted, and the running tally. Votes and tally are withheld
for deleted polls.

Show takes an exact slug. Use "council poll resolve" to find a slug
from a topic fragment or tag.`,
		Usage: "council poll show <slug> [flags]",
		Examples: []cli.Example{
			{
				Description: "Show a poll",
				Command:     "council poll show 2026-03-09-tmfrggmjq-adopt-xep-0474",
			},
			{
				Description: "Full poll state as JSON",
				Command:     "council poll show 2026-03-09-tmfrggmjq-adopt-xep-0474 --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("poll show", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument: the poll slug")
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var response getResponse
			fields := map[string]any{"slug": args[0]}
			if err := params.Connect().Call(ctx, "poll/get", fields, &response); err != nil {
				return err
			}

			if done, err := params.EmitJSON(response); done {
				return err
			}
			return writeShowDetail(response)
		},
	}
}

// --- resolve ---

type resolveParams struct {
	cli.ServiceConnection
	cli.JSONOutput
}

func resolveCommand() *cli.Command {
	var params resolveParams

	return &cli.Command{
		Name:    "resolve",
		Summary: "Resolve a free-form subject to a poll",
		Description: `Match a subject (a slug, a tag, or topic words) against the tracked
polls the way the chat transport does. Prints the single match, or the
scored candidates when the subject is ambiguous.

Exits 1 unless the subject resolves to exactly one poll, so scripts
can branch on the result.`,
		Usage: "council poll resolve <subject>... [flags]",
		Examples: []cli.Example{
			{
				Description: "Look up a poll by topic words",
				Command:     "council poll resolve compliance suite",
			},
			{
				Description: "Look up a poll by tag",
				Command:     "council poll resolve xep-0474",
			},
			{
				Description: "Machine-readable candidates",
				Command:     "council poll resolve compliance --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("poll resolve", &params)
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("expected a subject to resolve")
			}
			subject := strings.Join(args, " ")

			ctx, cancel := cli.CallContext()
			defer cancel()

			var response resolveResponse
			fields := map[string]any{"subject": subject}
			if err := params.Connect().Call(ctx, "poll/resolve", fields, &response); err != nil {
				return err
			}

			if done, err := params.EmitJSON(response); done {
				if err != nil {
					return err
				}
				return resolveExit(response.Kind)
			}

			switch response.Kind {
			case "match":
				if err := writePollTable(response.Polls); err != nil {
					return err
				}
			case "ambiguous":
				fmt.Printf("%q is ambiguous between %d polls:\n\n", subject, len(response.Polls))
				if err := writePollTable(response.Polls); err != nil {
					return err
				}
			default:
				if response.Suggestion != "" {
					fmt.Printf("no poll matches %q (did you mean %s?)\n", subject, response.Suggestion)
				} else {
					fmt.Printf("no poll matches %q\n", subject)
				}
			}
			return resolveExit(response.Kind)
		},
	}
}

// resolveExit maps a resolution kind to the command's exit status.
// Only an exact match exits 0.
func resolveExit(kind string) error {
	if kind == "match" {
		return nil
	}
	return &cli.ExitError{Code: 1}
}

// --- rendering ---

// writePollTable writes a one-line-per-poll summary table.
func writePollTable(polls []Poll) error {
	writer := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
	fmt.Fprintf(writer, "SLUG\tSTATE\tTAG\tEND\tTOPIC\n")
	for _, p := range polls {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%s\t%s\n",
			p.Slug,
			p.State,
			p.Tag,
			p.EndTime,
			truncate(p.Topic, 60),
		)
	}
	return writer.Flush()
}

// writeShowDetail writes a human-readable detail view of a poll.
func writeShowDetail(result getResponse) error {
	p := result.Poll
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	state := p.State
	if p.Deleted {
		state += " (deleted)"
	}

	fmt.Fprintf(writer, "Slug:\t%s\n", p.Slug)
	fmt.Fprintf(writer, "Topic:\t%s\n", p.Topic)
	if p.Tag != "" {
		fmt.Fprintf(writer, "Tag:\t%s\n", p.Tag)
	}
	fmt.Fprintf(writer, "State:\t%s\n", state)
	if p.ConcludedReason != "" {
		fmt.Fprintf(writer, "Concluded:\t%s\n", p.ConcludedReason)
	}
	fmt.Fprintf(writer, "Opened by:\t%s\n", p.Actor)
	fmt.Fprintf(writer, "Start:\t%s\n", p.StartTime)
	fmt.Fprintf(writer, "End:\t%s\n", p.EndTime)
	if len(p.URLs) > 0 {
		fmt.Fprintf(writer, "URLs:\t%s\n", strings.Join(p.URLs, ", "))
	}
	writer.Flush()

	if p.Description != "" {
		fmt.Printf("\n%s\n", p.Description)
	}

	if len(result.Votes) > 0 {
		fmt.Println()
		votes := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
		fmt.Fprintf(votes, "MEMBER\tVOTE\tREMARK\n")
		for _, member := range slices.Sorted(maps.Keys(result.Votes)) {
			vote := result.Votes[member]
			fmt.Fprintf(votes, "%s\t%s\t%s\n", member, vote.Value, truncate(vote.Remark, 60))
		}
		if err := votes.Flush(); err != nil {
			return err
		}
	}

	if result.TallyLine != "" {
		fmt.Printf("\n%s\n", result.TallyLine)
	}
	return nil
}

// truncate shortens a string to maxLength, appending "..." if truncated.
func truncate(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return s[:maxLength]
	}
	return s[:maxLength-3] + "..."
}
