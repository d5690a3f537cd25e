// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package council

import (
	"fmt"
	"slices"

	"github.com/council-foundation/council/lib/poll"
)

// NextAction describes what a corrected message asks for, parsed and
// resolved by the transport layer. Target is always a slug, never a
// free-form subject. Only the fields for Action are read.
type NextAction struct {
	Action poll.Action

	// Topic, Tag, Description, URLs: create and rename.
	Topic       string
	Tag         string
	Description string
	URLs        []string

	// Target: every action except create.
	Target string

	// Value, Remark: cast.
	Value  poll.VoteValue
	Remark string

	// URL: attach.
	URL string
}

// CorrectionResult reports what a correction did.
type CorrectionResult struct {
	// Reverted is the action of the transaction that was reversed.
	Reverted poll.Action

	// ReplyID is the id of the assistant's reply to the original
	// message, carried over so the transport can edit that reply
	// instead of sending a new one. Empty if no reply was recorded.
	ReplyID string

	// Poll is the poll the new action produced or affected, nil after
	// a silent revert.
	Poll *poll.Poll
}

// ApplyCorrection reverses the member's pending transaction and, when
// the corrected message still asks for an action, executes that
// action in its place. correctedID is the id of the message the
// member edited; it must match the pending transaction, otherwise
// nothing is mutated and CorrectionMismatchError is returned.
// newMessageID identifies the edit itself and keys the replacement
// transaction. A nil next is the silent revert: the edit no longer
// requests anything (or the member may no longer act), so the
// reversal happens and no new transaction is recorded.
//
// Two combinations are handled in place rather than as revert plus
// redo: correcting a create into another create renames the existing
// poll (its ledger survives untouched), and correcting a cast into a
// cast on the same poll overwrites the ledger's last entry (history
// length unchanged).
func (c *Core) ApplyCorrection(member, correctedID, newMessageID string, next *NextAction) (*CorrectionResult, error) {
	pending := c.Record(member)
	if pending == nil {
		return nil, &CorrectionMismatchError{Member: member, CorrectedID: correctedID}
	}
	if pending.ID != correctedID {
		return nil, &CorrectionMismatchError{Member: member, CorrectedID: correctedID, PendingID: pending.ID}
	}

	result := &CorrectionResult{Reverted: pending.Action, ReplyID: pending.ReplyID}

	if pending.Action == poll.ActionCreate && next != nil && next.Action == poll.ActionCreate {
		p, err := c.renameInPlace(member, newMessageID, pending, next)
		if err != nil {
			return nil, err
		}
		result.Poll = p
		return result, nil
	}
	if pending.Action == poll.ActionCast && next != nil && next.Action == poll.ActionCast && next.Target == pending.Target {
		p, err := c.replaceVote(member, newMessageID, pending, next)
		if err != nil {
			return nil, err
		}
		result.Poll = p
		return result, nil
	}

	if err := c.revert(pending); err != nil {
		return nil, err
	}
	// The reversal changed the state the pending transaction's undo
	// payload described; it must not stay correctable.
	if err := c.clearRecord(member); err != nil {
		return nil, err
	}

	if next == nil {
		c.logger.Info("correction reverted without replacement", "member", member, "action", string(pending.Action), "target", pending.Target)
		return result, nil
	}

	p, err := c.executeNext(member, newMessageID, next)
	if err != nil {
		return nil, err
	}
	if err := c.carryReplyID(member, pending.ReplyID); err != nil {
		return nil, err
	}
	result.Poll = p
	return result, nil
}

// renameInPlace handles create corrected into create: the poll keeps
// its slug and ledgers, and takes the corrected topic, tag,
// description, and links.
func (c *Core) renameInPlace(member, newMessageID string, pending *poll.Transaction, next *NextAction) (*poll.Poll, error) {
	unlock := c.store.LockSlug(pending.Target)
	defer unlock()

	p, err := c.loadActive(pending.Target)
	if err != nil {
		return nil, err
	}
	p.Topic = next.Topic
	p.Tag = next.Tag
	p.Description = next.Description
	p.URLs = slices.Clone(next.URLs)

	if err := c.store.SavePoll(p); err != nil {
		return nil, err
	}
	if err := c.record(member, newMessageID, poll.ActionCreate, p.Slug, poll.UndoPayload{}); err != nil {
		return nil, fmt.Errorf("recording corrected create: %w", err)
	}
	if err := c.carryReplyID(member, pending.ReplyID); err != nil {
		return nil, err
	}

	c.index.Put(p)
	c.logger.Info("create corrected in place", "slug", p.Slug, "member", member, "topic", next.Topic)
	return p, nil
}

// replaceVote handles cast corrected into cast on the same poll: the
// ledger's last entry is overwritten, so history length is unchanged
// and the undo payload of the original cast still applies.
func (c *Core) replaceVote(member, newMessageID string, pending *poll.Transaction, next *NextAction) (*poll.Poll, error) {
	unlock := c.store.LockSlug(pending.Target)
	defer unlock()

	p, err := c.loadActive(pending.Target)
	if err != nil {
		return nil, err
	}
	if err := c.store.ReplaceLastVote(pending.Target, member, next.Value, next.Remark); err != nil {
		return nil, err
	}
	if err := c.record(member, newMessageID, poll.ActionCast, pending.Target, pending.Undo); err != nil {
		return nil, fmt.Errorf("recording corrected cast: %w", err)
	}
	if err := c.carryReplyID(member, pending.ReplyID); err != nil {
		return nil, err
	}

	c.logger.Info("cast corrected in place", "slug", pending.Target, "member", member, "value", string(next.Value))
	return p, nil
}

// revert undoes a single transaction according to its action.
func (c *Core) revert(txn *poll.Transaction) error {
	switch txn.Action {
	case poll.ActionCreate:
		// The poll was created by the message being corrected; it has
		// no business surviving. Votes cast on it by others are lost,
		// which is accepted: nothing the correction becomes could
		// carry them over.
		unlock := c.store.LockSlug(txn.Target)
		defer unlock()
		if err := c.store.Destroy(txn.Target); err != nil {
			return fmt.Errorf("reverting create: %w", err)
		}
		c.index.Remove(txn.Target)

	case poll.ActionDelete:
		if txn.Undo.Snapshot == nil {
			return fmt.Errorf("reverting delete of %s: transaction carries no snapshot", txn.Target)
		}
		unlock := c.store.LockSlug(txn.Target)
		defer unlock()
		if err := c.store.Restore(txn.Undo.Snapshot); err != nil {
			return fmt.Errorf("reverting delete: %w", err)
		}
		restored := txn.Undo.Snapshot.Poll.Clone()
		restored.Deleted = false
		c.index.Put(restored)

	case poll.ActionRename:
		unlock := c.store.LockSlug(txn.Target)
		defer unlock()
		if err := c.store.Rename(txn.Target, txn.Undo.PrevTopic, txn.Undo.PrevTag); err != nil {
			return fmt.Errorf("reverting rename: %w", err)
		}
		if p, err := c.store.LoadPoll(txn.Target); err == nil {
			c.index.Put(p)
		}

	case poll.ActionCast:
		unlock := c.store.LockSlug(txn.Target)
		defer unlock()
		// An empty ledger here means a cast transaction without its
		// ledger entry; that pairing is maintained by every write
		// path, so let the invariant violation surface.
		if _, err := c.store.PopLastVote(txn.Target, txn.Actor); err != nil {
			return fmt.Errorf("reverting cast: %w", err)
		}

	case poll.ActionAttach:
		unlock := c.store.LockSlug(txn.Target)
		defer unlock()
		p, err := c.store.LoadPoll(txn.Target)
		if err != nil {
			return fmt.Errorf("reverting attach: %w", err)
		}
		if i := lastIndex(p.URLs, txn.Undo.URL); i >= 0 {
			p.URLs = slices.Delete(p.URLs, i, i+1)
			if err := c.store.SavePoll(p); err != nil {
				return fmt.Errorf("reverting attach: %w", err)
			}
			c.index.Put(p)
		} else {
			c.logger.Warn("reverting attach: url no longer present", "slug", txn.Target, "url", txn.Undo.URL)
		}

	case poll.ActionConclude:
		// Announced results stay announced. The transaction exists so
		// a correction of the concluding message doesn't reach back to
		// an older action; the reversal itself does nothing.
		c.logger.Info("conclusion is not reversible", "slug", txn.Target, "member", txn.Actor)

	default:
		return fmt.Errorf("reverting transaction: unknown action %q", txn.Action)
	}
	return nil
}

// executeNext runs the corrected message's action as a fresh
// operation; it records the member's new transaction itself.
func (c *Core) executeNext(member, newMessageID string, next *NextAction) (*poll.Poll, error) {
	switch next.Action {
	case poll.ActionCreate:
		return c.CreatePoll(member, newMessageID, next.Topic, CreateOptions{
			Tag:         next.Tag,
			Description: next.Description,
			URLs:        next.URLs,
		})
	case poll.ActionRename:
		return c.RenamePoll(member, newMessageID, next.Target, next.Topic, next.Tag)
	case poll.ActionDelete:
		if err := c.DeletePoll(member, newMessageID, next.Target); err != nil {
			return nil, err
		}
	case poll.ActionCast:
		if err := c.CastVote(member, newMessageID, next.Target, next.Value, next.Remark); err != nil {
			return nil, err
		}
	case poll.ActionAttach:
		if err := c.AttachURL(member, newMessageID, next.Target, next.URL); err != nil {
			return nil, err
		}
	case poll.ActionConclude:
		if _, err := c.Conclude(member, newMessageID, next.Target); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("executing correction: unknown action %q", next.Action)
	}

	p, _ := c.index.Get(next.Target)
	return p, nil
}

// carryReplyID copies the original reply id onto the member's new
// transaction. A no-op when no reply was recorded or when the
// replacement action recorded no transaction.
func (c *Core) carryReplyID(member, replyID string) error {
	if replyID == "" || c.Record(member) == nil {
		return nil
	}
	if err := c.SetReplyID(member, replyID); err != nil {
		return fmt.Errorf("carrying reply id over: %w", err)
	}
	return nil
}

func lastIndex(s []string, v string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == v {
			return i
		}
	}
	return -1
}
