// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package council

import "github.com/council-foundation/council/lib/poll"

// Announcement is a settled poll awaiting its public result notice.
type Announcement struct {
	Poll   *poll.Poll
	Reason string
	Count  poll.Count
	Result poll.Result
}

// DuePolls returns the non-deleted polls whose voting period has
// ended without a recorded conclusion, in listing order. Deadlines
// are judged against the hour-rounded current time.
func (c *Core) DuePolls() []*poll.Poll {
	cutoff := poll.Cutoff(c.clock.Now())
	var due []*poll.Poll
	for _, p := range c.index.ListOpen() {
		if p.Concluded || cutoff.Before(p.EndTime) {
			continue
		}
		due = append(due, p)
	}
	return due
}

// PendingAnnouncements builds the result notice for every due poll.
// The set is computed from current state, so a poll that was due at
// startup and one that expired a minute ago come out the same way.
// Each announcement stays pending until [Core.MarkAnnounced] records
// the conclusion; a crash in between means the notice is repeated at
// the next opportunity rather than lost.
func (c *Core) PendingAnnouncements() ([]Announcement, error) {
	var pending []Announcement
	for _, p := range c.DuePolls() {
		count, err := c.Tally(p.Slug)
		if err != nil {
			return nil, err
		}
		reason, err := c.conclusionReason(p)
		if err != nil {
			return nil, err
		}
		pending = append(pending, Announcement{
			Poll:   p,
			Reason: reason,
			Count:  count,
			Result: count.Result(),
		})
	}
	return pending, nil
}

// MarkAnnounced records a due poll's conclusion, removing it from the
// pending set. Safe to repeat; announcing a poll that was already
// marked is a no-op.
func (c *Core) MarkAnnounced(slug string) error {
	unlock := c.store.LockSlug(slug)
	defer unlock()

	p, err := c.loadActive(slug)
	if err != nil {
		return err
	}
	if p.Concluded {
		return nil
	}

	reason, err := c.conclusionReason(p)
	if err != nil {
		return err
	}
	if err := c.store.Conclude(slug, reason); err != nil {
		return err
	}

	p.Concluded = true
	p.ConcludedReason = reason
	c.index.Put(p)
	c.logger.Info("conclusion announced", "slug", slug, "reason", reason)
	return nil
}
