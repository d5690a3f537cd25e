// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package poll

import "fmt"

// Action identifies the kind of top-level operation a member
// performed. Stored with the member's last transaction so a later
// correction knows what it has to reverse.
type Action string

const (
	// ActionCreate created a poll.
	ActionCreate Action = "create"

	// ActionRename changed a poll's topic and/or tag.
	ActionRename Action = "rename"

	// ActionDelete logically deleted a poll.
	ActionDelete Action = "delete"

	// ActionCast cast a vote.
	ActionCast Action = "cast"

	// ActionAttach attached a reference URL to a poll.
	ActionAttach Action = "attach"

	// ActionConclude announced a poll's result. Recorded so that a
	// correction of the concluding message doesn't reach back and
	// reverse an older action, but the conclusion itself is not
	// reversible.
	ActionConclude Action = "conclude"
)

// ParseAction parses the stored string form of an action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionCreate, ActionRename, ActionDelete, ActionCast, ActionAttach, ActionConclude:
		return Action(s), nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// Reversible reports whether the correction matrix can reverse this
// action. Conclusions cannot be taken back once announced.
func (a Action) Reversible() bool {
	return a != ActionConclude
}

// Transaction is a member's single pending (most recent) action. At
// most one exists per member; every new top-level action overwrites
// it. It is consumed exactly once, when the member's next message
// arrives as a correction of the message that produced it.
type Transaction struct {
	// ID is the transport identifier of the member's message that
	// triggered the action. A correction carries this id, which is
	// how it is matched to the transaction it reverses.
	ID string

	// ReplyID is the identifier of the assistant's own reply, kept so
	// the transport can edit that reply in place after a correction
	// instead of sending a fresh message.
	ReplyID string

	// Actor is the member who performed the action.
	Actor string

	// Action is what was done.
	Action Action

	// Target is the slug of the affected poll.
	Target string

	// Undo carries the action-specific data needed to reverse the
	// action exactly.
	Undo UndoPayload
}

// UndoPayload is the action-specific snapshot stored with a
// transaction. Only the fields relevant to the transaction's action
// are populated:
//
//   - create, conclude: nothing (reversing a create deletes the poll;
//     a conclude is not reversed)
//   - rename: PrevTopic and PrevTag
//   - delete: Snapshot of the whole poll including ledgers
//   - cast: PrevVote, or HadPrevVote=false for a first vote
//   - attach: URL that was added
type UndoPayload struct {
	// PrevTopic and PrevTag are the values a rename replaced.
	PrevTopic string
	PrevTag   string

	// Snapshot is the full record of a deleted poll.
	Snapshot *Snapshot

	// HadPrevVote distinguishes "previous vote was X" from "this was
	// the member's first vote on the poll".
	HadPrevVote bool
	PrevVote    VoteEntry

	// URL is the link an attach added.
	URL string
}

// Clone returns a deep copy, including the undo payload's snapshot.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Undo.Snapshot = CloneSnapshot(t.Undo.Snapshot)
	return &clone
}

// Member is a committee member's persisted state: a stable identity
// (chat address) plus the single pending transaction, if any. There
// is never more than one transaction per member; each new top-level
// action overwrites the previous one.
type Member struct {
	ID              string
	LastTransaction *Transaction
}

// Snapshot is a complete copy of one poll: its metadata and every
// member's vote ledger. Taken at the moment of deletion so that a
// corrected delete can restore the poll exactly.
type Snapshot struct {
	Poll    Poll
	Ledgers map[string][]VoteEntry
}

// CloneSnapshot returns a deep copy of s.
func CloneSnapshot(s *Snapshot) *Snapshot {
	if s == nil {
		return nil
	}
	clone := &Snapshot{
		Poll:    *s.Poll.Clone(),
		Ledgers: make(map[string][]VoteEntry, len(s.Ledgers)),
	}
	for member, entries := range s.Ledgers {
		copied := make([]VoteEntry, len(entries))
		copy(copied, entries)
		clone.Ledgers[member] = copied
	}
	return clone
}
