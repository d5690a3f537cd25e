// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollstore

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/council-foundation/council/lib/poll"
)

// Recovery is the result of the startup scan: everything the
// in-memory layers need, rebuilt purely from the record tree.
type Recovery struct {
	// Polls holds every readable poll, deleted ones included, sorted
	// by start time then slug.
	Polls []*poll.Poll

	// PendingAnnouncements lists polls whose voting period had ended
	// at scan time without a concluded flag: their conclusion still
	// needs to be announced exactly once.
	PendingAnnouncements []string

	// Transactions maps member identity to the pending transaction
	// loaded verbatim from the member's record. Transactions whose
	// target poll no longer exists are dropped (logged, not fatal).
	Transactions map[string]*poll.Transaction
}

// recover scans the whole tree. Inconsistencies (malformed records,
// dangling transactions) are logged and skipped so one bad file
// cannot block recovery of the rest of the state.
func (s *Store) recover() (*Recovery, error) {
	recovery := &Recovery{Transactions: make(map[string]*poll.Transaction)}

	if err := s.sweepTrash(); err != nil {
		return nil, err
	}
	if err := s.sweepStaged(); err != nil {
		return nil, err
	}

	slugs, err := s.ListPollSlugs()
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	for _, slug := range slugs {
		p, err := s.LoadPoll(slug)
		if err != nil {
			s.logger.Warn("recovery: skipping unreadable poll",
				"slug", slug, "error", err)
			continue
		}
		recovery.Polls = append(recovery.Polls, p)

		if !p.Deleted && !p.Concluded && !now.Before(p.EndTime) {
			recovery.PendingAnnouncements = append(recovery.PendingAnnouncements, slug)
		}
	}
	slices.SortFunc(recovery.Polls, func(a, b *poll.Poll) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return strings.Compare(a.Slug, b.Slug)
	})

	members, err := s.ListMembers()
	if err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(recovery.Polls))
	for _, p := range recovery.Polls {
		known[p.Slug] = true
	}
	for _, id := range members {
		member, err := s.LoadMember(id)
		if err != nil {
			s.logger.Warn("recovery: skipping unreadable member record",
				"member", id, "error", err)
			continue
		}
		txn := member.LastTransaction
		if txn == nil {
			continue
		}
		if txn.Target != "" && !known[txn.Target] {
			s.logger.Warn("recovery: dropping transaction with vanished target",
				"member", id, "action", txn.Action, "target", txn.Target)
			continue
		}
		recovery.Transactions[id] = txn
	}

	s.logger.Info("record store recovered",
		"polls", len(recovery.Polls),
		"pending_announcements", len(recovery.PendingAnnouncements),
		"transactions", len(recovery.Transactions),
	)
	return recovery, nil
}

// sweepStaged removes temp files a crash left between stage and
// commit. They were never visible as records; clearing them keeps the
// tree clean for human browsing.
func (s *Store) sweepStaged() error {
	matches, err := filepath.Glob(filepath.Join(s.root, "*", "*", ".staged-*"))
	if err != nil {
		return fmt.Errorf("globbing staged files: %w", err)
	}
	flat, err := filepath.Glob(filepath.Join(s.root, "*", ".staged-*"))
	if err != nil {
		return fmt.Errorf("globbing staged files: %w", err)
	}
	for _, path := range append(matches, flat...) {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("sweeping staged file %s: %w", path, err)
		}
		s.logger.Info("recovery: swept abandoned staged file", "path", path)
	}
	return nil
}

// sweepTrash removes anything a crashed Destroy left behind.
func (s *Store) sweepTrash() error {
	trash := filepath.Join(s.root, trashDir)
	entries, err := os.ReadDir(trash)
	if err != nil {
		return fmt.Errorf("reading trash: %w", err)
	}
	for _, entry := range entries {
		path := filepath.Join(trash, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("sweeping %s: %w", path, err)
		}
		s.logger.Info("recovery: swept leftover trash", "name", entry.Name())
	}
	return nil
}
