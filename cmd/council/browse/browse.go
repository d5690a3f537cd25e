// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package browse implements the "council browse" subcommand, an
// interactive terminal browser for the tracked polls. It fetches the
// full poll set from the service once at startup and hands it to the
// pollui model; it never mutates service state.
package browse

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/council-foundation/council/cmd/council/cli"
	pollcmd "github.com/council-foundation/council/cmd/council/poll"
	"github.com/council-foundation/council/lib/pollui"
)

type browseParams struct {
	cli.ServiceConnection
}

// Command returns the "browse" subcommand.
func Command() *cli.Command {
	var params browseParams

	return &cli.Command{
		Name:    "browse",
		Summary: "Browse polls in an interactive terminal UI",
		Description: `Open a full-screen browser over the tracked polls: a list pane with
Open, Settled, and All tabs on the left, and a detail pane with the
poll's description, ballots, and running tally on the right.

The browser is read-only. It loads the poll set when it starts;
restart it to pick up newer votes.

Keys: j/k move, Tab switches panes, 1/2/3 switch tabs, / filters,
]/[ resize the split, q quits.`,
		Usage: "council browse [flags]",
		Examples: []cli.Example{
			{
				Description: "Browse the tracked polls",
				Command:     "council browse",
			},
			{
				Description: "Browse against a non-default socket",
				Command:     "council browse --socket /tmp/council-dev/poll.sock",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("browse", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("browse takes no arguments")
			}

			polls, err := fetchPolls(&params.ServiceConnection)
			if err != nil {
				return err
			}

			model := pollui.NewModel(polls)
			program := tea.NewProgram(model, tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
}

// Wire mirrors of the service responses browse consumes. The poll
// package exports the shared element types; only the envelope shapes
// are repeated here.

type listResponse struct {
	Polls []pollcmd.Poll `json:"polls"`
}

type getResponse struct {
	Poll      pollcmd.Poll            `json:"poll"`
	Votes     map[string]pollcmd.Vote `json:"votes,omitempty"`
	Tally     *pollcmd.Tally          `json:"tally,omitempty"`
	TallyLine string                  `json:"tally_line,omitempty"`
}

// fetchPolls loads every tracked poll with its votes and tally. The
// list call enumerates the slugs; a get per slug fills in the ballot
// detail the list view omits.
func fetchPolls(connection *cli.ServiceConnection) ([]pollui.Poll, error) {
	client := connection.Connect()

	ctx, cancel := cli.CallContext()
	var list listResponse
	err := client.Call(ctx, "poll/list", nil, &list)
	cancel()
	if err != nil {
		return nil, err
	}

	polls := make([]pollui.Poll, 0, len(list.Polls))
	for _, view := range list.Polls {
		ctx, cancel := cli.CallContext()
		var detail getResponse
		err := client.Call(ctx, "poll/get", map[string]any{"slug": view.Slug}, &detail)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("fetching poll %s: %w", view.Slug, err)
		}

		converted, err := browserPoll(detail)
		if err != nil {
			return nil, err
		}
		polls = append(polls, converted)
	}

	return polls, nil
}

// browserPoll converts one get response into the pollui representation,
// parsing the wire timestamps.
func browserPoll(detail getResponse) (pollui.Poll, error) {
	view := detail.Poll

	startTime, err := time.Parse(time.RFC3339, view.StartTime)
	if err != nil {
		return pollui.Poll{}, fmt.Errorf("poll %s: bad start_time %q: %w", view.Slug, view.StartTime, err)
	}
	endTime, err := time.Parse(time.RFC3339, view.EndTime)
	if err != nil {
		return pollui.Poll{}, fmt.Errorf("poll %s: bad end_time %q: %w", view.Slug, view.EndTime, err)
	}

	// The tally is omitted for deleted polls; the browser then shows
	// the poll without a result.
	result := ""
	if detail.Tally != nil {
		result = detail.Tally.Result
	}

	votes := make([]pollui.VoteRow, 0, len(detail.Votes))
	for member, vote := range detail.Votes {
		votes = append(votes, pollui.VoteRow{
			Member: member,
			Value:  vote.Value,
			Remark: vote.Remark,
		})
	}

	return pollui.Poll{
		Slug:            view.Slug,
		Topic:           view.Topic,
		Tag:             view.Tag,
		State:           view.State,
		ConcludedReason: view.ConcludedReason,
		Result:          result,
		Actor:           view.Actor,
		StartTime:       startTime,
		EndTime:         endTime,
		Deleted:         view.Deleted,
		URLs:            view.URLs,
		Description:     view.Description,
		Votes:           votes,
		TallyLine:       detail.TallyLine,
	}, nil
}
