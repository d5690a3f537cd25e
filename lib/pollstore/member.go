// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/council-foundation/council/lib/poll"
)

// LoadMember reads a member's persisted state. A member with no
// record on disk is a NotFoundError; a member whose record exists but
// holds no transaction comes back with LastTransaction nil.
func (s *Store) LoadMember(id string) (*poll.Member, error) {
	data, err := os.ReadFile(s.memberPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "member", Key: id}
		}
		return nil, fmt.Errorf("reading member %s: %w", id, err)
	}

	var record memberRecord
	if err := unmarshalTOML(data, &record); err != nil {
		return nil, fmt.Errorf("decoding member %s: %w", id, err)
	}

	member := &poll.Member{ID: id}
	if record.LastTransaction != nil {
		txn, err := transactionFromRecord(id, record.LastTransaction)
		if err != nil {
			return nil, fmt.Errorf("member %s last transaction: %w", id, err)
		}
		member.LastTransaction = txn
	}
	return member, nil
}

// SaveMember rewrites a member's record. Saving a member whose
// LastTransaction is nil persists the empty record, which is how a
// consumed transaction is cleared while keeping the member file
// around for inspection.
func (s *Store) SaveMember(member *poll.Member) error {
	record := memberRecord{}
	if member.LastTransaction != nil {
		record.LastTransaction = recordFromTransaction(member.LastTransaction)
	}
	return s.writeTOML(s.memberPath(member.ID), record)
}

// SaveTransaction overwrites the member's pending transaction in one
// step. The transaction's Actor names the member.
func (s *Store) SaveTransaction(txn *poll.Transaction) error {
	return s.SaveMember(&poll.Member{ID: txn.Actor, LastTransaction: txn})
}

// ClearTransaction drops the member's pending transaction, leaving an
// empty member record behind.
func (s *Store) ClearTransaction(member string) error {
	return s.SaveMember(&poll.Member{ID: member})
}

// ListMembers enumerates every member with a record on disk.
func (s *Store) ListMembers() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, membersDir))
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}

	var members []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".toml") {
			continue
		}
		id, err := UnescapeMember(strings.TrimSuffix(name, ".toml"))
		if err != nil {
			s.logger.Warn("skipping member file with undecodable name",
				"file", name, "error", err)
			continue
		}
		members = append(members, id)
	}
	return members, nil
}
