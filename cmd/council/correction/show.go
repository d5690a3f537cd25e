// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package correction

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/council-foundation/council/cmd/council/cli"
)

// transaction is the wire shape of a member's pending transaction.
type transaction struct {
	ID      string `json:"id"`
	ReplyID string `json:"reply_id,omitempty"`
	Actor   string `json:"actor"`
	Action  string `json:"action"`
	Target  string `json:"target,omitempty"`
}

// transactionGetResponse is the "transaction/get" wire payload.
// Transaction is null when the member has no pending transaction.
type transactionGetResponse struct {
	Transaction *transaction `json:"transaction,omitempty"`
}

type showParams struct {
	cli.ServiceConnection
	cli.JSONOutput
}

func showCommand() *cli.Command {
	var params showParams

	return &cli.Command{
		Name:    "show",
		Summary: "Show a member's pending transaction",
		Description: `Show the one operation of the member that is still correctable. A
member's transaction is replaced by their next operation, so at most
one is pending at a time.`,
		Usage: "council correction show <member> [flags]",
		Examples: []cli.Example{
			{
				Description: "What would a correction from bob revert?",
				Command:     "council correction show bob@example.org",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("correction show", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument: the member")
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var response transactionGetResponse
			fields := map[string]any{"member": args[0]}
			if err := params.Connect().Call(ctx, "transaction/get", fields, &response); err != nil {
				return err
			}

			if done, err := params.EmitJSON(response); done {
				return err
			}

			if response.Transaction == nil {
				fmt.Printf("%s has no pending transaction.\n", args[0])
				return nil
			}

			txn := response.Transaction
			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(writer, "Message:\t%s\n", txn.ID)
			if txn.ReplyID != "" {
				fmt.Fprintf(writer, "Reply:\t%s\n", txn.ReplyID)
			}
			fmt.Fprintf(writer, "Actor:\t%s\n", txn.Actor)
			fmt.Fprintf(writer, "Action:\t%s\n", txn.Action)
			if txn.Target != "" {
				fmt.Fprintf(writer, "Target:\t%s\n", txn.Target)
			}
			return writer.Flush()
		},
	}
}
