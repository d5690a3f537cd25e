// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package council

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/council-foundation/council/lib/poll"
	"github.com/council-foundation/council/lib/pollindex"
	"github.com/council-foundation/council/lib/pollstore"
)

// RosterMember is one voting member of the committee.
type RosterMember struct {
	// ID is the member's chat address, the identity votes and
	// transactions are keyed by.
	ID string

	// Nick is the display name used in summaries. Empty falls back to
	// the id's local part.
	Nick string
}

// DisplayNick returns the nick, or the id up to the first '@' when no
// nick is configured.
func (m RosterMember) DisplayNick() string {
	if m.Nick != "" {
		return m.Nick
	}
	if i := strings.IndexByte(m.ID, '@'); i > 0 {
		return m.ID[:i]
	}
	return m.ID
}

// Options configures a Core.
type Options struct {
	// Roster is the committee's voting membership, in announcement
	// order. Tallies, completeness checks, and summaries consider
	// exactly these members.
	Roster []RosterMember

	// Clock drives start times and expiry checks. Nil means the real
	// clock.
	Clock clockwork.Clock

	// Logger receives structured operational logs. Nil discards.
	Logger *slog.Logger

	// Pick chooses among ambiguous resolution candidates. Nil means
	// uniform random.
	Pick pollindex.PickFunc
}

// Core is the voting assistant's state machine. All methods are safe
// for concurrent use.
type Core struct {
	store  *pollstore.Store
	index  *pollindex.Index
	roster []RosterMember
	clock  clockwork.Clock
	logger *slog.Logger

	// pending mirrors the on-disk member transaction records. Guarded
	// by pendingMu; disk writes happen under the store's member lock
	// before the map is updated.
	pendingMu sync.RWMutex
	pending   map[string]*poll.Transaction
}

// New builds a Core over an opened store, seeding the in-memory index
// and pending-transaction map from the store's recovery results.
func New(store *pollstore.Store, recovery *pollstore.Recovery, opts Options) *Core {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	core := &Core{
		store:   store,
		index:   pollindex.NewIndex(opts.Pick),
		roster:  opts.Roster,
		clock:   clock,
		logger:  logger,
		pending: make(map[string]*poll.Transaction),
	}
	for _, p := range recovery.Polls {
		core.index.Put(p)
	}
	for member, txn := range recovery.Transactions {
		core.pending[member] = txn.Clone()
	}
	return core
}

// Roster returns the voting membership in configured order.
func (c *Core) Roster() []RosterMember {
	roster := make([]RosterMember, len(c.roster))
	copy(roster, c.roster)
	return roster
}

// ListOpen returns the non-deleted polls in stable order.
func (c *Core) ListOpen() []*poll.Poll {
	return c.index.ListOpen()
}

// Poll returns the poll with the given slug, deleted or not.
func (c *Core) Poll(slug string) (*poll.Poll, bool) {
	return c.index.Get(slug)
}

// Resolve maps a free-form subject to a poll; see [pollindex.Index.Resolve].
func (c *Core) Resolve(subject string) pollindex.Resolution {
	return c.index.Resolve(subject)
}

// Suggest picks one candidate from an ambiguous resolution.
func (c *Core) Suggest(r pollindex.Resolution) *poll.Poll {
	return c.index.Suggest(r)
}

// CurrentVotes returns each member's current vote on the poll, keyed
// by member id. Members without a ledger are absent.
func (c *Core) CurrentVotes(slug string) (map[string]poll.VoteEntry, error) {
	return c.store.CurrentVotes(slug)
}

// VoteHistory returns a member's full ledger on the poll, oldest
// first. A member who never voted gets an empty history.
func (c *Core) VoteHistory(slug, member string) ([]poll.VoteEntry, error) {
	return c.store.ListVotes(slug, member)
}

// Tally counts the roster's current votes on the poll. Votes from
// identities outside the roster are ignored.
func (c *Core) Tally(slug string) (poll.Count, error) {
	current, err := c.store.CurrentVotes(slug)
	if err != nil {
		return poll.Count{}, err
	}
	var votes []poll.VoteValue
	for _, member := range c.roster {
		if entry, ok := current[member.ID]; ok {
			votes = append(votes, entry.Value)
		}
	}
	return poll.Tally(votes, len(c.roster)), nil
}

// Record returns the member's pending transaction, or nil.
func (c *Core) Record(member string) *poll.Transaction {
	c.pendingMu.RLock()
	defer c.pendingMu.RUnlock()
	return c.pending[member].Clone()
}

// SetReplyID stores the id of the assistant's reply on the member's
// pending transaction, so a later correction can edit that reply in
// place. Recording happens after the reply is sent; a crash in
// between merely costs the edit, the correction itself still works.
func (c *Core) SetReplyID(member, replyID string) error {
	unlock := c.store.LockMember(member)
	defer unlock()

	c.pendingMu.RLock()
	txn := c.pending[member].Clone()
	c.pendingMu.RUnlock()
	if txn == nil {
		return &pollstore.NotFoundError{Kind: "transaction", Key: member}
	}

	txn.ReplyID = replyID
	if err := c.store.SaveTransaction(txn); err != nil {
		return err
	}
	c.setPending(member, txn)
	return nil
}

// loadActive loads a poll treating logically deleted ones as absent.
// Deleted polls are reachable only through the correction path.
func (c *Core) loadActive(slug string) (*poll.Poll, error) {
	p, err := c.store.LoadPoll(slug)
	if err != nil {
		return nil, err
	}
	if p.Deleted {
		return nil, &pollstore.NotFoundError{Kind: "poll", Key: slug}
	}
	return p, nil
}

// record overwrites the member's pending transaction with a new one,
// or clears it when the triggering message id is empty (an operation
// arriving outside chat is not correctable, and the member's previous
// transaction no longer matches the state it would undo). Callers
// hold the relevant slug lock.
func (c *Core) record(actor, messageID string, action poll.Action, target string, undo poll.UndoPayload) error {
	unlock := c.store.LockMember(actor)
	defer unlock()

	if messageID == "" {
		if err := c.store.ClearTransaction(actor); err != nil {
			return err
		}
		c.setPending(actor, nil)
		return nil
	}

	txn := &poll.Transaction{
		ID:     messageID,
		Actor:  actor,
		Action: action,
		Target: target,
		Undo:   undo,
	}
	if err := c.store.SaveTransaction(txn); err != nil {
		return err
	}
	c.setPending(actor, txn)
	return nil
}

// clearRecord drops the member's pending transaction.
func (c *Core) clearRecord(member string) error {
	unlock := c.store.LockMember(member)
	defer unlock()
	if err := c.store.ClearTransaction(member); err != nil {
		return err
	}
	c.setPending(member, nil)
	return nil
}

func (c *Core) setPending(member string, txn *poll.Transaction) {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	if txn == nil {
		delete(c.pending, member)
		return
	}
	c.pending[member] = txn.Clone()
}
