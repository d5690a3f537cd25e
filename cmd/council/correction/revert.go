// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package correction

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/council-foundation/council/cmd/council/cli"
)

// correctionResponse is the "correction/apply" wire payload for a
// silent revert: no replacement action, so the poll field stays null.
type correctionResponse struct {
	Reverted string `json:"reverted"`
	ReplyID  string `json:"reply_id,omitempty"`
}

type revertParams struct {
	cli.ServiceConnection
	cli.JSONOutput
	Member      string `flag:"member" desc:"member whose transaction to revert"`
	CorrectedID string `flag:"corrected-id" desc:"message id the pending transaction must match"`
	MessageID   string `flag:"message-id" desc:"transport id of the correction itself"`
}

func revertCommand() *cli.Command {
	var params revertParams

	return &cli.Command{
		Name:    "revert",
		Summary: "Revert a member's pending transaction",
		Description: `Undo the member's last operation without replacing it: a deleted
poll comes back, a created poll disappears, a revote falls back to
the previous ballot. The pending transaction's message id must match
--corrected-id, which guards against reverting a newer operation
than the one intended.`,
		Usage: "council correction revert [flags]",
		Examples: []cli.Example{
			{
				Description: "Undo the operation recorded for message msg-7f2a",
				Command:     "council correction revert --member bob@example.org --corrected-id msg-7f2a",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("correction revert", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("correction revert takes no arguments")
			}
			if params.Member == "" {
				return fmt.Errorf("--member is required")
			}
			if params.CorrectedID == "" {
				return fmt.Errorf("--corrected-id is required")
			}

			fields := map[string]any{
				"member":       params.Member,
				"corrected_id": params.CorrectedID,
			}
			if params.MessageID != "" {
				fields["message_id"] = params.MessageID
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var response correctionResponse
			if err := params.Connect().Call(ctx, "correction/apply", fields, &response); err != nil {
				return err
			}

			if done, err := params.EmitJSON(response); done {
				return err
			}
			fmt.Printf("Reverted %s\n", response.Reverted)
			if response.ReplyID != "" {
				fmt.Printf("The transport's reply %s refers to the undone operation.\n", response.ReplyID)
			}
			return nil
		},
	}
}
