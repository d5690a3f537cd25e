// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package poll

import (
	"fmt"
	"strings"
)

// Result is the outcome of a poll under the committee's voting rules.
type Result int

const (
	// ResultFail: the proposal did not gather enough support, either
	// because quorum was missed or because acks fell short of a
	// majority of the votes cast.
	ResultFail Result = iota

	// ResultVeto: at least one member vetoed. A single veto defeats
	// the proposal regardless of every other vote.
	ResultVeto

	// ResultPass: quorum reached, no veto, and acks form a strict
	// majority of the votes cast.
	ResultPass
)

// String returns the lowercase result name.
func (r Result) String() string {
	switch r {
	case ResultFail:
		return "fail"
	case ResultVeto:
		return "veto"
	case ResultPass:
		return "pass"
	}
	return "unknown"
}

// Count summarizes the current votes on a poll.
type Count struct {
	// Acks, PlusZeros, MinusZeros, Vetos count the current vote of
	// each member who has voted. Abstentions count toward quorum but
	// not toward passage.
	Acks       int
	PlusZeros  int
	MinusZeros int
	Vetos      int

	// RosterSize is the number of voting members, the quorum basis.
	RosterSize int
}

// Cast returns the number of members who have voted.
func (c Count) Cast() int {
	return c.Acks + c.PlusZeros + c.MinusZeros + c.Vetos
}

// String renders the nonzero buckets, e.g. "2 +1, 1 -0". With no
// votes cast it returns "no votes".
func (c Count) String() string {
	var parts []string
	for _, bucket := range []struct {
		n     int
		value VoteValue
	}{
		{c.Acks, Ack},
		{c.PlusZeros, PlusZero},
		{c.MinusZeros, MinusZero},
		{c.Vetos, Veto},
	} {
		if bucket.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", bucket.n, bucket.value))
		}
	}
	if len(parts) == 0 {
		return "no votes"
	}
	return strings.Join(parts, ", ")
}

// Tally counts the given current votes (one per member) against a
// roster of the given size.
func Tally(votes []VoteValue, rosterSize int) Count {
	count := Count{RosterSize: rosterSize}
	for _, v := range votes {
		switch v {
		case Ack:
			count.Acks++
		case PlusZero:
			count.PlusZeros++
		case MinusZero:
			count.MinusZeros++
		case Veto:
			count.Vetos++
		}
	}
	return count
}

// Result applies the committee's rules to the count:
//
//  1. any veto defeats the proposal;
//  2. more than half the roster must have voted (quorum), otherwise
//     the proposal fails;
//  3. with quorum and no veto, the proposal passes when acks are a
//     strict majority of the votes cast.
func (c Count) Result() Result {
	if c.Vetos > 0 {
		return ResultVeto
	}
	cast := c.Cast()
	if cast*2 <= c.RosterSize {
		return ResultFail
	}
	if c.Acks*2 > cast {
		return ResultPass
	}
	return ResultFail
}
