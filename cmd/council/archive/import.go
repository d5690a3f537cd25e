// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/council-foundation/council/cmd/council/cli"
	"github.com/council-foundation/council/lib/pollarchive"
	"github.com/council-foundation/council/lib/secret"
)

type importParams struct {
	storeParams
	cli.JSONOutput
	IdentityFile   string `flag:"identity-file" desc:"age identity file for a recipient-encrypted archive, - for stdin"`
	PassphraseFile string `flag:"passphrase-file" desc:"read the archive passphrase from this file, - for stdin"`
	Force          bool   `flag:"force" desc:"replace polls that already exist in the store"`
}

// importResult is the --json output of the import command.
type importResult struct {
	Imported []string `json:"imported"`
	Replaced []string `json:"replaced,omitempty"`
}

func importCommand() *cli.Command {
	var params importParams

	return &cli.Command{
		Name:    "import",
		Summary: "Import polls from an archive file",
		Description: `Read an archive produced by "council archive export" and write its
polls into the store. The whole payload is verified against the
manifest digests before the first write; a corrupt archive changes
nothing.

The archive header says how it is encrypted. A recipient-encrypted
archive needs --identity-file; a passphrase-encrypted one reads
--passphrase-file or prompts. Polls already in the store abort the
import unless --force replaces them.`,
		Usage: "council archive import <file> [flags]",
		Examples: []cli.Example{
			{
				Description: "Import a plaintext archive",
				Command:     "council archive import settled.cpa",
			},
			{
				Description: "Import with an age identity",
				Command:     "council archive import settled.cpa --identity-file ~/.keys/council.txt",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("archive import", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument: the archive file")
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			_, encryption, err := pollarchive.Probe(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			options := pollarchive.ImportOptions{Force: params.Force}
			switch encryption {
			case pollarchive.EncryptionAge:
				if params.IdentityFile == "" {
					return fmt.Errorf("%s is encrypted to age recipients; pass --identity-file", args[0])
				}
				identity, err := secret.ReadFromPath(params.IdentityFile)
				if err != nil {
					return err
				}
				defer identity.Close()
				options.Identity = identity

			case pollarchive.EncryptionScrypt:
				var passphrase *secret.Buffer
				if params.PassphraseFile != "" {
					passphrase, err = secret.ReadFromPath(params.PassphraseFile)
				} else {
					passphrase, err = promptPassphrase(false)
				}
				if err != nil {
					return err
				}
				defer passphrase.Close()
				options.Passphrase = passphrase
			}

			store, _, err := params.openStore()
			if err != nil {
				return err
			}

			imported, err := pollarchive.Import(store, bytes.NewReader(raw), options)
			if err != nil {
				return err
			}

			result := importResult{
				Imported: imported.Imported,
				Replaced: imported.Replaced,
			}
			if done, err := params.EmitJSON(result); done {
				return err
			}
			fmt.Printf("Imported %d polls", len(result.Imported))
			if len(result.Replaced) > 0 {
				fmt.Printf(" (%d replaced)", len(result.Replaced))
			}
			fmt.Println()
			for _, slug := range result.Imported {
				fmt.Printf("  %s\n", slug)
			}
			return nil
		},
	}
}
