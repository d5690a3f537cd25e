// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/council-foundation/council/cmd/council/cli"
	"github.com/council-foundation/council/lib/pollarchive"
)

type inspectParams struct {
	cli.JSONOutput
}

// inspectResult is the --json output of the inspect command.
type inspectResult struct {
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	Compression string `json:"compression"`
	Encryption  string `json:"encryption"`
}

func inspectCommand() *cli.Command {
	var params inspectParams

	return &cli.Command{
		Name:    "inspect",
		Summary: "Describe an archive file without importing it",
		Description: `Read an archive's header and report how it is compressed and
encrypted. Works without any key material, so it tells you what to
collect before an import.`,
		Usage: "council archive inspect <file> [flags]",
		Examples: []cli.Example{
			{
				Description: "What does an import of this file need?",
				Command:     "council archive inspect settled.cpa",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("archive inspect", &params)
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument: the archive file")
			}

			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}

			compression, encryption, err := pollarchive.Probe(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			result := inspectResult{
				Path:        args[0],
				Size:        info.Size(),
				Compression: compression.String(),
				Encryption:  encryption.String(),
			}
			if done, err := params.EmitJSON(result); done {
				return err
			}

			writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(writer, "File:\t%s\n", result.Path)
			fmt.Fprintf(writer, "Size:\t%d bytes\n", result.Size)
			fmt.Fprintf(writer, "Compression:\t%s\n", result.Compression)
			fmt.Fprintf(writer, "Encryption:\t%s\n", result.Encryption)
			return writer.Flush()
		},
	}
}
