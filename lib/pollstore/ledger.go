// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollstore

import (
	"fmt"
	"os"

	"github.com/council-foundation/council/lib/poll"
)

// Ledger operations. Each one is a full read-modify-rewrite of the
// member's ledger file through the atomic commit path; committed
// history is never mutated in place at the byte level.

// AppendVote appends an entry to the member's ledger for the poll and
// returns the entry that was previously current, or hadPrev=false for
// the member's first vote. The returned prior entry is what a cast
// transaction stores as its undo payload.
//
// The value/remark pair is validated before anything is read or
// written: a veto with a missing or short remark is rejected with
// poll.InvalidRemarkError and leaves no trace.
func (s *Store) AppendVote(slug, member string, value poll.VoteValue, remark string) (prior poll.VoteEntry, hadPrior bool, err error) {
	if err := poll.ValidateEntry(value, remark); err != nil {
		return poll.VoteEntry{}, false, err
	}
	if _, err := os.Stat(s.pollDir(slug)); err != nil {
		return poll.VoteEntry{}, false, &NotFoundError{Kind: "poll", Key: slug}
	}

	entries, err := s.ListVotes(slug, member)
	if err != nil {
		return poll.VoteEntry{}, false, err
	}
	if len(entries) > 0 {
		prior = entries[len(entries)-1]
		hadPrior = true
	}

	entries = append(entries, poll.VoteEntry{Value: value, Remark: remark})
	if err := s.writeTOML(s.ledgerPath(slug, member), recordFromLedger(entries)); err != nil {
		return poll.VoteEntry{}, false, err
	}
	return prior, hadPrior, nil
}

// PopLastVote removes exactly the most recently appended entry and
// returns it, restoring the member's previous vote (if any) as
// current. An empty ledger is an EmptyLedgerError: transaction
// bookkeeping should make that impossible, so the caller must treat
// it as a bug, not a user error.
func (s *Store) PopLastVote(slug, member string) (poll.VoteEntry, error) {
	entries, err := s.ListVotes(slug, member)
	if err != nil {
		return poll.VoteEntry{}, err
	}
	if len(entries) == 0 {
		return poll.VoteEntry{}, &EmptyLedgerError{Slug: slug, Member: member}
	}

	popped := entries[len(entries)-1]
	entries = entries[:len(entries)-1]
	if len(entries) == 0 {
		// Removing the only entry removes the ledger file: a member
		// with no votes has no ledger, exactly as before their first
		// cast.
		if err := os.Remove(s.ledgerPath(slug, member)); err != nil {
			return poll.VoteEntry{}, fmt.Errorf("removing emptied ledger: %w", err)
		}
		return popped, nil
	}
	if err := s.writeTOML(s.ledgerPath(slug, member), recordFromLedger(entries)); err != nil {
		return poll.VoteEntry{}, err
	}
	return popped, nil
}

// ReplaceLastVote overwrites the current (last) entry in place,
// leaving the history length unchanged. Used when a member corrects a
// cast on the same poll: the correction replaces the vote rather than
// stacking a new one.
func (s *Store) ReplaceLastVote(slug, member string, value poll.VoteValue, remark string) error {
	if err := poll.ValidateEntry(value, remark); err != nil {
		return err
	}

	entries, err := s.ListVotes(slug, member)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return &EmptyLedgerError{Slug: slug, Member: member}
	}

	entries[len(entries)-1] = poll.VoteEntry{Value: value, Remark: remark}
	return s.writeTOML(s.ledgerPath(slug, member), recordFromLedger(entries))
}

// ListVotes returns the member's full ordered vote history for the
// poll. A member who never voted has an empty history, not an error.
func (s *Store) ListVotes(slug, member string) ([]poll.VoteEntry, error) {
	data, err := os.ReadFile(s.ledgerPath(slug, member))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading ledger for %s on %s: %w", member, slug, err)
	}

	var record ledgerRecord
	if err := unmarshalTOML(data, &record); err != nil {
		return nil, fmt.Errorf("decoding ledger for %s on %s: %w", member, slug, err)
	}
	entries, err := ledgerFromRecord(record)
	if err != nil {
		return nil, fmt.Errorf("ledger for %s on %s: %w", member, slug, err)
	}
	return entries, nil
}

// CurrentVote returns the member's current vote on the poll: the last
// ledger entry, or hasVote=false if the member has not voted.
func (s *Store) CurrentVote(slug, member string) (entry poll.VoteEntry, hasVote bool, err error) {
	entries, err := s.ListVotes(slug, member)
	if err != nil {
		return poll.VoteEntry{}, false, err
	}
	if len(entries) == 0 {
		return poll.VoteEntry{}, false, nil
	}
	return entries[len(entries)-1], true, nil
}

// CurrentVotes returns every member's current vote on the poll.
func (s *Store) CurrentVotes(slug string) (map[string]poll.VoteEntry, error) {
	members, err := s.ledgerMembers(slug)
	if err != nil {
		return nil, err
	}

	votes := make(map[string]poll.VoteEntry, len(members))
	for _, member := range members {
		entry, hasVote, err := s.CurrentVote(slug, member)
		if err != nil {
			return nil, err
		}
		if hasVote {
			votes[member] = entry
		}
	}
	return votes, nil
}
