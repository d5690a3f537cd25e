// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package vote

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/council-foundation/council/cmd/council/cli"
	"github.com/council-foundation/council/lib/poll"
)

// castResponse is the "vote/cast" wire payload. TallyLine is the
// updated one-line tally.
type castResponse struct {
	Slug      string `json:"slug"`
	TallyLine string `json:"tally_line"`
}

type castParams struct {
	cli.ServiceConnection
	cli.JSONOutput
	Actor     string `flag:"actor" desc:"voting committee member"`
	MessageID string `flag:"message-id" desc:"transport message id, enables later correction"`
	Remark    string `flag:"remark,m" desc:"remark recorded with the ballot"`
}

func castCommand() *cli.Command {
	var params castParams

	return &cli.Command{
		Name:    "cast",
		Summary: "Cast or change a ballot on a poll",
		Description: `Cast a ballot. Voting again on the same poll replaces the previous
ballot; the full history stays in the ledger.

The value is one of the four ballot literals +1, +0, -0, -1, or a
word alias: ack (+1), plus-zero (+0), minus-zero (-0), veto (-1).
The aliases exist because a leading dash reads as a flag; to use the
literals -0 and -1, put them after a "--" separator. A veto must
carry a remark explaining the objection.`,
		Usage: "council vote cast <slug> <value> [flags]",
		Examples: []cli.Example{
			{
				Description: "Approve a proposal",
				Command:     "council vote cast 2026-03-09-tmfrggmjq-adopt-xep-0474 +1 --actor bob@example.org",
			},
			{
				Description: "Veto with the required remark",
				Command:     "council vote cast 2026-03-09-tmfrggmjq-adopt-xep-0474 veto --remark 'Conflicts with XEP-0388' --actor bob@example.org",
			},
			{
				Description: "The literal -0 needs a separator",
				Command:     "council vote cast --actor bob@example.org -- 2026-03-09-tmfrggmjq-adopt-xep-0474 -0",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("vote cast", &params)
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected a poll slug and a ballot value")
			}
			if params.Actor == "" {
				return fmt.Errorf("--actor is required")
			}
			value, err := normalizeBallot(args[1])
			if err != nil {
				return err
			}
			if err := poll.ValidateEntry(value, params.Remark); err != nil {
				return err
			}

			fields := map[string]any{
				"actor": params.Actor,
				"slug":  args[0],
				"value": value.String(),
			}
			if params.MessageID != "" {
				fields["message_id"] = params.MessageID
			}
			if params.Remark != "" {
				fields["remark"] = params.Remark
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var response castResponse
			if err := params.Connect().Call(ctx, "vote/cast", fields, &response); err != nil {
				return err
			}

			if done, err := params.EmitJSON(response); done {
				return err
			}
			fmt.Println(response.TallyLine)
			return nil
		},
	}
}

// normalizeBallot maps word aliases to the canonical ballot literals
// and validates everything else against the four literals.
func normalizeBallot(s string) (poll.VoteValue, error) {
	switch strings.ToLower(s) {
	case "ack":
		return poll.Ack, nil
	case "plus-zero":
		return poll.PlusZero, nil
	case "minus-zero":
		return poll.MinusZero, nil
	case "veto":
		return poll.Veto, nil
	}
	return poll.ParseVoteValue(s)
}
