// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package council

import (
	"fmt"
	"slices"
	"time"

	"github.com/council-foundation/council/lib/poll"
	"github.com/council-foundation/council/lib/pollstore"
)

// CreateOptions are the optional attributes of a new poll.
type CreateOptions struct {
	Tag         string
	Description string
	URLs        []string

	// Lifetime overrides the default voting period. Zero means
	// [poll.DefaultLifetime].
	Lifetime time.Duration
}

// CreatePoll opens a new poll. The voting period starts at the top of
// the next hour and runs for the configured lifetime. messageID is
// the transport id of the member's request and becomes the key a
// later correction matches against; empty means the operation is not
// correctable.
func (c *Core) CreatePoll(actor, messageID, topic string, opts CreateOptions) (*poll.Poll, error) {
	now := c.clock.Now()
	start := poll.StartOfPeriod(now)
	lifetime := opts.Lifetime
	if lifetime == 0 {
		lifetime = poll.DefaultLifetime
	}

	p := &poll.Poll{
		Slug:        poll.NewSlug(now, topic),
		Topic:       topic,
		Tag:         opts.Tag,
		Description: opts.Description,
		URLs:        slices.Clone(opts.URLs),
		Actor:       actor,
		StartTime:   start,
		EndTime:     start.Add(lifetime),
	}

	unlock := c.store.LockSlug(p.Slug)
	defer unlock()

	if err := c.store.CreatePoll(p); err != nil {
		return nil, err
	}
	if err := c.record(actor, messageID, poll.ActionCreate, p.Slug, poll.UndoPayload{}); err != nil {
		// The poll exists but the transaction does not; remove the
		// poll again so the two never disagree.
		if destroyErr := c.store.Destroy(p.Slug); destroyErr != nil {
			c.logger.Error("rolling back poll creation", "slug", p.Slug, "error", destroyErr)
		}
		return nil, fmt.Errorf("recording create: %w", err)
	}

	c.index.Put(p)
	c.logger.Info("poll created", "slug", p.Slug, "actor", actor, "topic", topic)
	return p, nil
}

// RenamePoll replaces a poll's topic and tag. The slug never changes.
func (c *Core) RenamePoll(actor, messageID, slug, newTopic, newTag string) (*poll.Poll, error) {
	unlock := c.store.LockSlug(slug)
	defer unlock()

	p, err := c.loadActive(slug)
	if err != nil {
		return nil, err
	}
	undo := poll.UndoPayload{PrevTopic: p.Topic, PrevTag: p.Tag}

	if err := c.store.Rename(slug, newTopic, newTag); err != nil {
		return nil, err
	}
	if err := c.record(actor, messageID, poll.ActionRename, slug, undo); err != nil {
		if revertErr := c.store.Rename(slug, undo.PrevTopic, undo.PrevTag); revertErr != nil {
			c.logger.Error("rolling back rename", "slug", slug, "error", revertErr)
		}
		return nil, fmt.Errorf("recording rename: %w", err)
	}

	p.Topic = newTopic
	p.Tag = newTag
	c.index.Put(p)
	c.logger.Info("poll renamed", "slug", slug, "actor", actor, "topic", newTopic)
	return p, nil
}

// DeletePoll logically deletes a poll. The record stays on disk, with
// a full snapshot in the member's transaction, so a correction can
// restore it exactly; it just disappears from listings and resolution.
func (c *Core) DeletePoll(actor, messageID, slug string) error {
	unlock := c.store.LockSlug(slug)
	defer unlock()

	p, err := c.loadActive(slug)
	if err != nil {
		return err
	}
	snapshot, err := c.store.Snapshot(slug)
	if err != nil {
		return err
	}

	if err := c.store.MarkDeleted(slug); err != nil {
		return err
	}
	if err := c.record(actor, messageID, poll.ActionDelete, slug, poll.UndoPayload{Snapshot: snapshot}); err != nil {
		if restoreErr := c.store.Restore(snapshot); restoreErr != nil {
			c.logger.Error("rolling back deletion", "slug", slug, "error", restoreErr)
		}
		return fmt.Errorf("recording delete: %w", err)
	}

	p.Deleted = true
	c.index.Put(p)
	c.logger.Info("poll deleted", "slug", slug, "actor", actor)
	return nil
}

// CastVote appends a vote to the member's ledger on the poll. The
// previous current vote, if any, goes into the transaction's undo
// payload so a correction can restore it. A veto without a long
// enough remark is rejected before anything is written.
func (c *Core) CastVote(actor, messageID, slug string, value poll.VoteValue, remark string) error {
	unlock := c.store.LockSlug(slug)
	defer unlock()

	if _, err := c.loadActive(slug); err != nil {
		return err
	}
	prior, hadPrior, err := c.store.AppendVote(slug, actor, value, remark)
	if err != nil {
		return err
	}

	undo := poll.UndoPayload{HadPrevVote: hadPrior, PrevVote: prior}
	if err := c.record(actor, messageID, poll.ActionCast, slug, undo); err != nil {
		if _, popErr := c.store.PopLastVote(slug, actor); popErr != nil {
			c.logger.Error("rolling back vote", "slug", slug, "member", actor, "error", popErr)
		}
		return fmt.Errorf("recording cast: %w", err)
	}

	c.logger.Info("vote cast", "slug", slug, "member", actor, "value", string(value))
	return nil
}

// AttachURL adds a reference link to the poll.
func (c *Core) AttachURL(actor, messageID, slug, url string) error {
	unlock := c.store.LockSlug(slug)
	defer unlock()

	p, err := c.loadActive(slug)
	if err != nil {
		return err
	}
	p.URLs = append(p.URLs, url)

	if err := c.store.SavePoll(p); err != nil {
		return err
	}
	if err := c.record(actor, messageID, poll.ActionAttach, slug, poll.UndoPayload{URL: url}); err != nil {
		p.URLs = p.URLs[:len(p.URLs)-1]
		if revertErr := c.store.SavePoll(p); revertErr != nil {
			c.logger.Error("rolling back attach", "slug", slug, "error", revertErr)
		}
		return fmt.Errorf("recording attach: %w", err)
	}

	c.index.Put(p)
	c.logger.Info("url attached", "slug", slug, "actor", actor, "url", url)
	return nil
}

// Conclude settles a poll ahead of the expiry sweep and records the
// conclusion as the member's transaction. It is allowed once the
// whole roster has voted or the voting period has ended; concluding
// an open poll with missing votes fails with NotConcludableError.
// The recorded transaction cannot be reversed by a correction.
func (c *Core) Conclude(actor, messageID, slug string) (string, error) {
	unlock := c.store.LockSlug(slug)
	defer unlock()

	p, err := c.loadActive(slug)
	if err != nil {
		return "", err
	}
	if p.Concluded {
		return "", &pollstore.ConflictError{Kind: "conclusion", Key: slug}
	}

	reason, err := c.conclusionReason(p)
	if err != nil {
		return "", err
	}
	if err := c.store.Conclude(slug, reason); err != nil {
		return "", err
	}
	if err := c.record(actor, messageID, poll.ActionConclude, slug, poll.UndoPayload{}); err != nil {
		return "", fmt.Errorf("recording conclude: %w", err)
	}

	p.Concluded = true
	p.ConcludedReason = reason
	c.index.Put(p)
	c.logger.Info("poll concluded", "slug", slug, "actor", actor, "reason", reason)
	return reason, nil
}

// conclusionReason decides why a poll is being settled: "votes cast"
// when the whole roster has a current vote, "expiration" when the
// period has ended with votes missing. A poll that is neither is not
// concludable.
func (c *Core) conclusionReason(p *poll.Poll) (string, error) {
	complete, err := c.rosterComplete(p.Slug)
	if err != nil {
		return "", err
	}
	if complete {
		return poll.ReasonVotesCast, nil
	}
	cutoff := poll.Cutoff(c.clock.Now())
	if !cutoff.Before(p.EndTime) {
		return poll.ReasonExpiration, nil
	}
	return "", &NotConcludableError{Slug: p.Slug}
}

// rosterComplete reports whether every roster member has a current
// vote on the poll.
func (c *Core) rosterComplete(slug string) (bool, error) {
	current, err := c.store.CurrentVotes(slug)
	if err != nil {
		return false, err
	}
	voted := make([]string, 0, len(current))
	for member := range current {
		voted = append(voted, member)
	}
	roster := make([]string, len(c.roster))
	for i, member := range c.roster {
		roster[i] = member.ID
	}
	return poll.Complete(roster, voted), nil
}
