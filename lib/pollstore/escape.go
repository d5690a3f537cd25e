// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollstore

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Member identifiers are chat addresses and appear verbatim in
// filenames (vote-{member}.toml, members/{member}.toml). The escaping
// below keeps the common address characters readable so the tree
// stays browsable, while making the result safe on any filesystem.

// isSafeMemberByte reports whether b may appear unescaped in a member
// filename. Letters, digits, and the punctuation that occurs in
// ordinary chat addresses pass through; everything else (including
// '/', '%' itself, and bytes outside printable ASCII) is encoded.
func isSafeMemberByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '.' || b == '-' || b == '_' || b == '@' || b == '+':
		return true
	}
	return false
}

// EscapeMember encodes a member identifier for use as a filename
// component. The encoding is percent-style: unsafe bytes become %XX.
// "alice@example.org" survives unchanged.
func EscapeMember(member string) string {
	var b strings.Builder
	b.Grow(len(member))
	for i := 0; i < len(member); i++ {
		c := member[i]
		if isSafeMemberByte(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// UnescapeMember reverses EscapeMember.
func UnescapeMember(escaped string) (string, error) {
	var b strings.Builder
	b.Grow(len(escaped))
	for i := 0; i < len(escaped); i++ {
		c := escaped[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(escaped) {
			return "", fmt.Errorf("truncated escape in %q", escaped)
		}
		decoded, err := hex.DecodeString(escaped[i+1 : i+3])
		if err != nil {
			return "", fmt.Errorf("invalid escape %q in %q", escaped[i:i+3], escaped)
		}
		b.WriteByte(decoded[0])
		i += 2
	}
	return b.String(), nil
}
