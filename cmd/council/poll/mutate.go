// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package poll

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/council-foundation/council/cmd/council/cli"
)

// actorParams carries the identity fields every mutation records.
// MessageID links the operation to a transport message; without it
// the operation cannot be corrected later.
type actorParams struct {
	Actor     string `flag:"actor" desc:"acting committee member"`
	MessageID string `flag:"message-id" desc:"transport message id, enables later correction"`
}

func (a *actorParams) validate() error {
	if a.Actor == "" {
		return fmt.Errorf("--actor is required")
	}
	return nil
}

// fields returns the request fields shared by all mutations.
func (a *actorParams) fields() map[string]any {
	fields := map[string]any{"actor": a.Actor}
	if a.MessageID != "" {
		fields["message_id"] = a.MessageID
	}
	return fields
}

// --- create ---

type createParams struct {
	cli.ServiceConnection
	cli.JSONOutput
	actorParams
	Tag         string        `flag:"tag,t" desc:"short tag for addressing the poll"`
	Description string        `flag:"description,d" desc:"longer description shown with the poll"`
	URLs        []string      `flag:"url" desc:"reference URL (repeatable)"`
	Lifetime    time.Duration `flag:"lifetime" desc:"voting period override (for example 336h)"`
}

func createCommand() *cli.Command {
	var params createParams

	return &cli.Command{
		Name:    "create",
		Summary: "Open a new poll",
		Description: `Open a poll on the given topic. The voting period starts at the top
of the next hour and runs for the service's configured lifetime
unless --lifetime overrides it.`,
		Usage: "council poll create <topic>... [flags]",
		Examples: []cli.Example{
			{
				Description: "Open a poll with a tag",
				Command:     "council poll create Adopt XEP-0474 --tag xep-0474 --actor alice@example.org",
			},
			{
				Description: "A two-week poll with references",
				Command:     "council poll create Renew the server budget --lifetime 336h --url https://example.org/budget --actor alice@example.org",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("poll create", &params)
		},
		Run: func(args []string) error {
			if len(args) == 0 {
				return fmt.Errorf("expected a poll topic")
			}
			if err := params.validate(); err != nil {
				return err
			}

			fields := params.fields()
			fields["topic"] = strings.Join(args, " ")
			if params.Tag != "" {
				fields["tag"] = params.Tag
			}
			if params.Description != "" {
				fields["description"] = params.Description
			}
			if len(params.URLs) > 0 {
				fields["urls"] = params.URLs
			}
			if params.Lifetime != 0 {
				fields["lifetime"] = params.Lifetime.String()
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var response pollResponse
			if err := params.Connect().Call(ctx, "poll/create", fields, &response); err != nil {
				return err
			}

			if done, err := params.EmitJSON(response); done {
				return err
			}
			fmt.Printf("Created %s (voting ends %s)\n", response.Poll.Slug, response.Poll.EndTime)
			return nil
		},
	}
}

// --- rename ---

type renameParams struct {
	cli.ServiceConnection
	cli.JSONOutput
	actorParams
	Tag string `flag:"tag,t" desc:"new tag"`
}

func renameCommand() *cli.Command {
	var params renameParams

	return &cli.Command{
		Name:    "rename",
		Summary: "Replace a poll's topic and tag",
		Description: `Replace the poll's topic and tag wholesale. Omitting --tag clears
the current tag. Votes, attachments, and the voting period are
unchanged.`,
		Usage: "council poll rename <slug> <new topic>... [flags]",
		Examples: []cli.Example{
			{
				Description: "Fix a topic typo, keeping the tag",
				Command:     "council poll rename 2026-03-09-tmfrggmjq-adopt-xep-0474 Adopt XEP-0474 as mandatory --tag xep-0474 --actor alice@example.org",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("poll rename", &params)
		},
		Run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("expected a poll slug and a new topic")
			}
			if err := params.validate(); err != nil {
				return err
			}

			fields := params.fields()
			fields["slug"] = args[0]
			fields["topic"] = strings.Join(args[1:], " ")
			if params.Tag != "" {
				fields["tag"] = params.Tag
			}

			ctx, cancel := cli.CallContext()
			defer cancel()

			var response pollResponse
			if err := params.Connect().Call(ctx, "poll/rename", fields, &response); err != nil {
				return err
			}

			if done, err := params.EmitJSON(response); done {
				return err
			}
			fmt.Printf("Renamed %s: %s\n", response.Poll.Slug, response.Poll.Topic)
			return nil
		},
	}
}

// --- attach ---

type attachParams struct {
	cli.ServiceConnection
	cli.JSONOutput
	actorParams
}

func attachCommand() *cli.Command {
	var params attachParams

	return &cli.Command{
		Name:    "attach",
		Summary: "Attach a reference URL to a poll",
		Usage:   "council poll attach <slug> <url> [flags]",
		Examples: []cli.Example{
			{
				Description: "Attach a discussion link",
				Command:     "council poll attach 2026-03-09-tmfrggmjq-adopt-xep-0474 https://example.org/thread/42 --actor alice@example.org",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("poll attach", &params)
		},
		Run: func(args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("expected a poll slug and a URL")
			}
			if err := params.validate(); err != nil {
				return err
			}

			fields := params.fields()
			fields["slug"] = args[0]
			fields["url"] = args[1]

			ctx, cancel := cli.CallContext()
			defer cancel()

			var response pollResponse
			if err := params.Connect().Call(ctx, "poll/attach", fields, &response); err != nil {
				return err
			}

			if done, err := params.EmitJSON(response); done {
				return err
			}
			fmt.Printf("Attached to %s (%d URLs)\n", response.Poll.Slug, len(response.Poll.URLs))
			return nil
		},
	}
}

// --- conclude ---

type concludeParams struct {
	cli.ServiceConnection
	cli.JSONOutput
	actorParams
}

func concludeCommand() *cli.Command {
	var params concludeParams

	return &cli.Command{
		Name:    "conclude",
		Summary: "End a poll's voting period now",
		Description: `Close the poll ahead of its scheduled end and compute the final
result. The result notice is printed; the service also queues it for
announcement on the chat transport.`,
		Usage: "council poll conclude <slug> [flags]",
		Examples: []cli.Example{
			{
				Description: "Conclude a poll early",
				Command:     "council poll conclude 2026-03-09-tmfrggmjq-adopt-xep-0474 --actor alice@example.org",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("poll conclude", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument: the poll slug")
			}
			if err := params.validate(); err != nil {
				return err
			}

			fields := params.fields()
			fields["slug"] = args[0]

			ctx, cancel := cli.CallContext()
			defer cancel()

			var response concludeResponse
			if err := params.Connect().Call(ctx, "poll/conclude", fields, &response); err != nil {
				return err
			}

			if done, err := params.EmitJSON(response); done {
				return err
			}
			fmt.Println(response.Text)
			return nil
		},
	}
}

// --- delete ---

type deleteParams struct {
	cli.ServiceConnection
	cli.JSONOutput
	actorParams
}

func deleteCommand() *cli.Command {
	var params deleteParams

	return &cli.Command{
		Name:    "delete",
		Summary: "Delete a poll",
		Description: `Mark the poll deleted. Deleted polls disappear from listings and
resolution but their ledgers are kept, so the deletion can be reverted
through the correction path while it is still the actor's most recent
operation.`,
		Usage: "council poll delete <slug> [flags]",
		Examples: []cli.Example{
			{
				Description: "Delete a mistakenly created poll",
				Command:     "council poll delete 2026-03-09-tmfrggmjq-adopt-xep-0474 --actor alice@example.org",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("poll delete", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument: the poll slug")
			}
			if err := params.validate(); err != nil {
				return err
			}

			fields := params.fields()
			fields["slug"] = args[0]

			ctx, cancel := cli.CallContext()
			defer cancel()

			var response deleteResponse
			if err := params.Connect().Call(ctx, "poll/delete", fields, &response); err != nil {
				return err
			}

			if done, err := params.EmitJSON(response); done {
				return err
			}
			fmt.Printf("Deleted %s\n", response.Slug)
			return nil
		},
	}
}
