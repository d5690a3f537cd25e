// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/pflag"

	"github.com/council-foundation/council/cmd/council/cli"
	"github.com/council-foundation/council/lib/pollarchive"
	"github.com/council-foundation/council/lib/pollstore"
	"github.com/council-foundation/council/lib/secret"
)

type exportParams struct {
	storeParams
	cli.JSONOutput
	Out            string   `flag:"out,o" desc:"output file (default: timestamped file in the archives directory)"`
	Slugs          []string `flag:"slug" desc:"export only this settled poll (repeatable)"`
	Compression    string   `flag:"compression" desc:"payload codec: none, lz4, or zstd" default:"zstd"`
	Recipients     []string `flag:"recipient" desc:"age recipient public key (repeatable)"`
	Passphrase     bool     `flag:"passphrase" desc:"prompt for an archive passphrase"`
	PassphraseFile string   `flag:"passphrase-file" desc:"read the archive passphrase from this file, - for stdin"`
	Prune          bool     `flag:"prune" desc:"destroy the exported polls from the store after a successful write"`
}

// exportResult is the --json output of the export command.
type exportResult struct {
	Path      string   `json:"path"`
	Polls     []string `json:"polls"`
	Destroyed []string `json:"destroyed,omitempty"`
}

func exportCommand() *cli.Command {
	var params exportParams

	return &cli.Command{
		Name:    "export",
		Summary: "Export settled polls to an archive file",
		Description: `Write settled polls (concluded and announced, or deleted) to a
single archive file. Open polls never leave the store. The archive
embeds a manifest with a digest per file, so imports detect
corruption before writing anything.

Encryption is optional: --recipient encrypts to age public keys,
--passphrase and --passphrase-file derive a key from a passphrase.
The file is written next to its final name and renamed into place,
so a crash cannot leave a half-written archive behind.

With --prune, the exported polls are destroyed from the store after
the archive is safely on disk.`,
		Usage: "council archive export [flags]",
		Examples: []cli.Example{
			{
				Description: "Archive every settled poll, unencrypted",
				Command:     "council archive export --out settled.cpa",
			},
			{
				Description: "Encrypt to two age recipients",
				Command:     "council archive export --recipient age1ql3z... --recipient age1xmw4... --out settled.cpa",
			},
			{
				Description: "Move one poll out of the store",
				Command:     "council archive export --slug 2026-03-09-tmfrggmjq-adopt-xep-0474 --passphrase --prune",
			},
		},
		Flags: func() *pflag.FlagSet {
			return cli.FlagsFromParams("archive export", &params)
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("archive export takes no arguments")
			}
			if params.Passphrase && params.PassphraseFile != "" {
				return fmt.Errorf("--passphrase and --passphrase-file are mutually exclusive")
			}
			if (params.Passphrase || params.PassphraseFile != "") && len(params.Recipients) > 0 {
				return fmt.Errorf("--recipient and a passphrase are mutually exclusive")
			}

			compression, err := pollarchive.ParseCompressionTag(params.Compression)
			if err != nil {
				return err
			}

			var passphrase *secret.Buffer
			switch {
			case params.Passphrase:
				passphrase, err = promptPassphrase(true)
			case params.PassphraseFile != "":
				passphrase, err = secret.ReadFromPath(params.PassphraseFile)
			}
			if err != nil {
				return err
			}
			if passphrase != nil {
				defer passphrase.Close()
			}

			store, cfg, err := params.openStore()
			if err != nil {
				return err
			}

			clock := clockwork.NewRealClock()
			outPath := params.Out
			if outPath == "" {
				name := fmt.Sprintf("polls-%s.cpa", clock.Now().UTC().Format("2006-01-02-150405"))
				outPath = filepath.Join(cfg.Paths.Archives, name)
			}

			manifest, err := writeArchive(store, outPath, pollarchive.ExportOptions{
				Slugs:       params.Slugs,
				Compression: compression,
				Recipients:  params.Recipients,
				Passphrase:  passphrase,
				Clock:       clock,
			})
			if err != nil {
				return err
			}

			result := exportResult{Path: outPath, Polls: manifest.Slugs()}

			if params.Prune {
				destroyed, err := pollarchive.Prune(store, manifest)
				if err != nil {
					return fmt.Errorf("archive written to %s, but pruning failed: %w", outPath, err)
				}
				result.Destroyed = destroyed
			}

			if done, err := params.EmitJSON(result); done {
				return err
			}
			fmt.Printf("Exported %d polls to %s\n", len(result.Polls), result.Path)
			for _, slug := range result.Polls {
				fmt.Printf("  %s\n", slug)
			}
			if params.Prune {
				fmt.Printf("Destroyed %d polls from the store.\n", len(result.Destroyed))
			}
			return nil
		},
	}
}

// writeArchive exports to a temporary file in the target directory
// and renames it into place once the export has fully succeeded.
func writeArchive(store *pollstore.Store, outPath string, options pollarchive.ExportOptions) (*pollarchive.Manifest, error) {
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	manifest, err := pollarchive.Export(store, tmp, options)
	if err != nil {
		return nil, err
	}
	if err := tmp.Sync(); err != nil {
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp.Name(), outPath); err != nil {
		return nil, err
	}
	return manifest, nil
}
