// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package service implements the root-level "council status" and
// "council info" commands for checking on the poll service.
package service

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/council-foundation/council/cmd/council/cli"
)

// statusResponse is the "status" wire payload.
type statusResponse struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// infoResponse is the "info" wire payload.
type infoResponse struct {
	UptimeSeconds float64 `json:"uptime_seconds"`
	Environment   string  `json:"environment"`
	Polls         int     `json:"polls"`
	DuePolls      int     `json:"due_polls"`
	Members       int     `json:"members"`
}

type statusParams struct {
	cli.ServiceConnection
	cli.JSONOutput
}

// StatusCommand returns the root-level "status" command.
func StatusCommand() *cli.Command {
	var params statusParams

	return &cli.Command{
		Name:    "status",
		Summary: "Check that the poll service is alive",
		Usage:   "council status [flags]",
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("status", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("status takes no arguments")
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var response statusResponse
			if err := params.Connect().Call(ctx, "status", nil, &response); err != nil {
				return err
			}

			if done, err := params.EmitJSON(response); done {
				return err
			}
			fmt.Printf("up %s\n", formatUptime(response.UptimeSeconds))
			return nil
		},
	}
}

type infoParams struct {
	cli.ServiceConnection
	cli.JSONOutput
}

// InfoCommand returns the root-level "info" command.
func InfoCommand() *cli.Command {
	var params infoParams

	return &cli.Command{
		Name:    "info",
		Summary: "Show poll service deployment and workload details",
		Usage:   "council info [flags]",
		Examples: []cli.Example{
			{
				Description: "Service overview as JSON",
				Command:     "council info --json",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("info", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("info takes no arguments")
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var response infoResponse
			if err := params.Connect().Call(ctx, "info", nil, &response); err != nil {
				return err
			}

			if done, err := params.EmitJSON(response); done {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(writer, "Environment:\t%s\n", response.Environment)
			fmt.Fprintf(writer, "Uptime:\t%s\n", formatUptime(response.UptimeSeconds))
			fmt.Fprintf(writer, "Polls:\t%d\n", response.Polls)
			fmt.Fprintf(writer, "Due polls:\t%d\n", response.DuePolls)
			fmt.Fprintf(writer, "Roster size:\t%d\n", response.Members)
			return writer.Flush()
		},
	}
}

// formatUptime renders fractional seconds as a coarse duration. Sub-
// second precision is noise for a human reader.
func formatUptime(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).Truncate(time.Second).String()
}
