// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollui

import (
	"slices"
	"strings"
	"time"
)

// VoteRow is one member's current ballot on a poll.
type VoteRow struct {
	// Member is the chat address of the voter.
	Member string

	// Value is the vote literal: +1, +0, -0, or -1.
	Value string

	// Remark is the free-text annotation, mandatory for vetos.
	Remark string
}

// Poll is the display form of a single poll. Callers (the browse
// command) build it from service responses; the browser itself never
// talks to the service.
type Poll struct {
	// Slug is the full poll identifier.
	Slug string

	// Topic is the question under vote.
	Topic string

	// Tag is the short subject handle, empty when the poll has none.
	Tag string

	// State is the lifecycle state: open, concluded, or expired.
	State string

	// ConcludedReason is the operator-supplied reason for an early
	// conclusion, empty otherwise.
	ConcludedReason string

	// Result is the outcome under the committee rules: pass, veto,
	// or fail. For open polls it is the provisional outcome of the
	// votes cast so far.
	Result string

	// Actor is the member who opened the poll.
	Actor string

	// StartTime and EndTime bound the voting period.
	StartTime time.Time
	EndTime   time.Time

	// Deleted marks a soft-deleted poll. Deleted polls appear only
	// on the All tab, dimmed.
	Deleted bool

	// URLs are the reference links attached to the poll.
	URLs []string

	// Description is the long-form context, rendered as markdown in
	// the detail pane.
	Description string

	// Votes holds the current ballot of each member who has voted.
	Votes []VoteRow

	// TallyLine is the one-line vote summary as the service renders
	// it for chat.
	TallyLine string
}

// Settled reports whether the poll has left the open state.
func (p Poll) Settled() bool {
	return p.State != "open"
}

// sortForDisplay orders polls for the list pane: open polls first,
// closest deadline on top, then settled polls with the most recently
// ended on top. Slug breaks ties so the order is stable across
// refreshes.
func sortForDisplay(polls []Poll) {
	slices.SortFunc(polls, func(a, b Poll) int {
		if a.Settled() != b.Settled() {
			if a.Settled() {
				return 1
			}
			return -1
		}
		c := a.EndTime.Compare(b.EndTime)
		if a.Settled() {
			c = -c
		}
		if c != 0 {
			return c
		}
		return strings.Compare(a.Slug, b.Slug)
	})
}
