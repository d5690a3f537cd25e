// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package poll

import (
	"errors"
	"fmt"
	"strings"
)

// VoteValue is one of the four ballot values a member can cast.
// The string forms are the wire and on-disk representation.
type VoteValue string

const (
	// Ack approves the proposal.
	Ack VoteValue = "+1"

	// PlusZero abstains, leaning in favor.
	PlusZero VoteValue = "+0"

	// MinusZero abstains, leaning against.
	MinusZero VoteValue = "-0"

	// Veto rejects the proposal outright. A veto must carry a
	// substantive remark; see MinVetoRemarkLength.
	Veto VoteValue = "-1"
)

// MinVetoRemarkLength is the minimum length, in bytes after trimming
// surrounding whitespace, of the remark that must accompany a veto.
// A bare "-1" with no explanation is not actionable by the proposer,
// so the committee requires at least a short sentence.
const MinVetoRemarkLength = 10

// ParseVoteValue parses the canonical string form of a vote value.
// Only the four exact literals are accepted.
func ParseVoteValue(s string) (VoteValue, error) {
	switch VoteValue(s) {
	case Ack, PlusZero, MinusZero, Veto:
		return VoteValue(s), nil
	}
	return "", fmt.Errorf("invalid vote value %q (want +1, +0, -0, or -1)", s)
}

// Valid reports whether v is one of the four defined values.
func (v VoteValue) Valid() bool {
	switch v {
	case Ack, PlusZero, MinusZero, Veto:
		return true
	}
	return false
}

// String returns the canonical string form.
func (v VoteValue) String() string { return string(v) }

// VoteEntry is a single cast vote: the value and its optional remark.
// Entries for a given (poll, member) pair form an append-only ordered
// history; the member's current vote is the last entry.
type VoteEntry struct {
	Value  VoteValue
	Remark string
}

// ValidateEntry checks a value/remark pair before it is allowed to
// touch any state. A veto requires a remark of at least
// MinVetoRemarkLength bytes after trimming; other values accept any
// remark including none.
func ValidateEntry(value VoteValue, remark string) error {
	if !value.Valid() {
		return fmt.Errorf("invalid vote value %q", string(value))
	}
	if value == Veto {
		if got := len(strings.TrimSpace(remark)); got < MinVetoRemarkLength {
			return &InvalidRemarkError{Length: got, Min: MinVetoRemarkLength}
		}
	}
	return nil
}

// InvalidRemarkError reports a veto whose remark is missing or too
// short. The vote is rejected before any mutation; the member can
// simply retry with a fuller remark.
type InvalidRemarkError struct {
	// Length is the trimmed remark length that was offered.
	Length int

	// Min is the required minimum.
	Min int
}

func (e *InvalidRemarkError) Error() string {
	return fmt.Sprintf("veto remark too short: %d bytes, need at least %d", e.Length, e.Min)
}

// IsInvalidRemark reports whether err is an InvalidRemarkError.
func IsInvalidRemark(err error) bool {
	var invalidRemark *InvalidRemarkError
	return errors.As(err, &invalidRemark)
}
