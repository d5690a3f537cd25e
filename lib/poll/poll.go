// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package poll

import (
	"slices"
	"time"
)

// DefaultLifetime is how long a poll stays open when the creator does
// not specify an end time: two weeks, matching the committee's usual
// voting period.
const DefaultLifetime = 14 * 24 * time.Hour

// Conclusion reasons recorded when a poll is settled.
const (
	// ReasonVotesCast: the whole roster voted before the deadline.
	ReasonVotesCast = "votes cast"

	// ReasonExpiration: the voting period ended with votes missing.
	ReasonExpiration = "expiration"
)

// Poll is the metadata for a single poll. The vote ledgers (one per
// member) are stored separately; see the pollstore package.
type Poll struct {
	// Slug is the poll's stable identity: filesystem-safe, generated
	// at creation, never reused and never changed afterwards. Renames
	// touch Topic and Tag only.
	Slug string

	// Topic is the free-text subject the committee is voting on.
	Topic string

	// Tag is an optional short label, unique among active polls, used
	// as the high-confidence key for fuzzy command targeting.
	Tag string

	// Description is optional longer prose (markdown) describing the
	// proposal under vote.
	Description string

	// URLs are reference links attached to the poll (the proposal
	// document, related discussion, and so on).
	URLs []string

	// Actor is the identity of the member who created the poll.
	Actor string

	// StartTime and EndTime bound the voting period.
	StartTime time.Time
	EndTime   time.Time

	// Concluded is set when the result has been announced. Once
	// concluded a poll is fully settled and ignores further expiry
	// processing. ConcludedReason records why ("votes cast" or
	// "expiration").
	Concluded       bool
	ConcludedReason string

	// Deleted marks the poll as logically removed. Deleted polls are
	// retained on disk so a delete can be corrected, but they are
	// excluded from listings and fuzzy resolution.
	Deleted bool
}

// State is a poll's lifecycle position at a particular instant.
type State int

const (
	// StateOpen: voting period running, result not announced.
	StateOpen State = iota

	// StateComplete: every roster member has a current vote but the
	// result has not been announced yet. Only derivable with the
	// roster in hand; see [Complete].
	StateComplete

	// StateConcluded: result announced; the poll is settled.
	StateConcluded

	// StateExpired: voting period over without an announcement. The
	// poll is waiting for its conclusion to be published.
	StateExpired
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateComplete:
		return "complete"
	case StateConcluded:
		return "concluded"
	case StateExpired:
		return "expired"
	}
	return "unknown"
}

// State reports the poll's lifecycle state at the given instant.
// Deletion is orthogonal: callers exclude deleted polls before asking.
// StateComplete is never returned here because it needs the roster;
// use [Complete] to upgrade an open poll.
func (p *Poll) State(now time.Time) State {
	if p.Concluded {
		return StateConcluded
	}
	if !now.Before(p.EndTime) {
		return StateExpired
	}
	return StateOpen
}

// Complete reports whether every member of the roster has a current
// vote on the poll. voted holds the members with at least one ledger
// entry.
func Complete(roster []string, voted []string) bool {
	for _, member := range roster {
		if !slices.Contains(voted, member) {
			return false
		}
	}
	return len(roster) > 0
}

// Clone returns a deep copy. Registries hand out clones so callers
// can't mutate indexed state behind the registry's back.
func (p *Poll) Clone() *Poll {
	clone := *p
	clone.URLs = slices.Clone(p.URLs)
	return &clone
}

// Cutoff rounds an instant down to the whole hour, in UTC. All
// deadline comparisons use rounded time so that a poll's expiry is
// judged the same way throughout the hour it falls in.
func Cutoff(now time.Time) time.Time {
	return now.UTC().Truncate(time.Hour)
}

// StartOfPeriod computes the poll's start time from the moment of
// creation: the top of the current hour plus one hour. Aligning starts
// to whole hours keeps announced deadlines tidy.
func StartOfPeriod(now time.Time) time.Time {
	return Cutoff(now).Add(time.Hour)
}
