// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/council-foundation/council/lib/secret"
)

// promptPassphrase reads a passphrase from the terminal with echo
// disabled. With confirm set it asks twice and requires both entries
// to match, for flows that create something the passphrase must later
// unlock.
func promptPassphrase(confirm bool) (*secret.Buffer, error) {
	stdinFd := int(os.Stdin.Fd())
	if !term.IsTerminal(stdinFd) {
		return nil, fmt.Errorf("no terminal for a passphrase prompt (use --passphrase-file)")
	}

	fmt.Fprint(os.Stderr, "Passphrase: ")
	first, err := term.ReadPassword(stdinFd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	if len(first) == 0 {
		return nil, fmt.Errorf("passphrase is empty")
	}

	if confirm {
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		second, err := term.ReadPassword(stdinFd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			secret.Zero(first)
			return nil, fmt.Errorf("reading passphrase confirmation: %w", err)
		}
		match := bytes.Equal(first, second)
		secret.Zero(second)
		if !match {
			secret.Zero(first)
			return nil, fmt.Errorf("passphrases do not match")
		}
	}

	// NewFromBytes copies into locked memory and zeroes first.
	buffer, err := secret.NewFromBytes(first)
	if err != nil {
		secret.Zero(first)
		return nil, err
	}
	return buffer, nil
}
