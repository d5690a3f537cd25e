// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package poll

import (
	"errors"
	"testing"

	"github.com/council-foundation/council/cmd/council/cli"
)

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 60, "short"},
		{"exactly-ten", 11, "exactly-ten"},
		{"a long topic that overflows the column", 20, "a long topic that..."},
		{"abc", 3, "abc"},
		{"abcd", 3, "abc"},
	}
	for _, test := range tests {
		if got := truncate(test.in, test.max); got != test.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", test.in, test.max, got, test.want)
		}
	}
}

func TestResolveExit(t *testing.T) {
	t.Parallel()

	if err := resolveExit("match"); err != nil {
		t.Errorf("resolveExit(match) = %v, want nil", err)
	}

	for _, kind := range []string{"not found", "ambiguous"} {
		err := resolveExit(kind)
		if err == nil {
			t.Fatalf("resolveExit(%q) = nil, want exit error", kind)
		}
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("resolveExit(%q) = %T, want *cli.ExitError", kind, err)
		}
		if exitErr.Code != 1 {
			t.Errorf("exit code = %d, want 1", exitErr.Code)
		}
	}
}
