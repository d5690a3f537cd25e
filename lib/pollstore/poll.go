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

// CreatePoll writes the metadata record for a brand-new poll. The
// slug must not already exist.
func (s *Store) CreatePoll(p *poll.Poll) error {
	dir := s.pollDir(p.Slug)
	if _, err := os.Stat(dir); err == nil {
		return &ConflictError{Kind: "poll", Key: p.Slug}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating poll directory %s: %w", dir, err)
	}
	return s.writePoll(p)
}

// SavePoll rewrites an existing poll's metadata record and
// reconciles the flag files with the poll's booleans.
func (s *Store) SavePoll(p *poll.Poll) error {
	if _, err := os.Stat(s.pollDir(p.Slug)); err != nil {
		return &NotFoundError{Kind: "poll", Key: p.Slug}
	}
	return s.writePoll(p)
}

func (s *Store) writePoll(p *poll.Poll) error {
	if err := s.writeTOML(s.metadataPath(p.Slug), recordFromPoll(p)); err != nil {
		return err
	}
	if err := s.applyFlag(p.Slug, concludedFlag, p.Concluded); err != nil {
		return err
	}
	return s.applyFlag(p.Slug, deletedFlag, p.Deleted)
}

func (s *Store) applyFlag(slug, flag string, want bool) error {
	if want {
		return s.setFlag(slug, flag)
	}
	return s.clearFlag(slug, flag)
}

// LoadPoll reads one poll record, flags included.
func (s *Store) LoadPoll(slug string) (*poll.Poll, error) {
	data, err := os.ReadFile(s.metadataPath(slug))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "poll", Key: slug}
		}
		return nil, fmt.Errorf("reading poll %s: %w", slug, err)
	}

	var record metadataRecord
	if err := unmarshalTOML(data, &record); err != nil {
		return nil, fmt.Errorf("decoding poll %s: %w", slug, err)
	}

	return pollFromRecord(slug, record, s.hasFlag(slug, concludedFlag), s.hasFlag(slug, deletedFlag)), nil
}

// ListPollSlugs enumerates every poll directory, deleted ones
// included, in lexical order.
func (s *Store) ListPollSlugs() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, votesDir))
	if err != nil {
		return nil, fmt.Errorf("listing polls: %w", err)
	}
	slugs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			slugs = append(slugs, entry.Name())
		}
	}
	return slugs, nil
}

// MarkDeleted sets the deleted flag. The record and its ledgers stay
// on disk so a corrected delete can restore them.
func (s *Store) MarkDeleted(slug string) error {
	if _, err := os.Stat(s.pollDir(slug)); err != nil {
		return &NotFoundError{Kind: "poll", Key: slug}
	}
	return s.setFlag(slug, deletedFlag)
}

// Conclude sets the concluded flag and records the reason in the
// metadata.
func (s *Store) Conclude(slug, reason string) error {
	p, err := s.LoadPoll(slug)
	if err != nil {
		return err
	}
	p.Concluded = true
	p.ConcludedReason = reason
	return s.writePoll(p)
}

// Snapshot captures a poll's complete state: metadata plus every
// member's ledger. Taken before a delete so the delete's undo payload
// can restore the poll exactly.
func (s *Store) Snapshot(slug string) (*poll.Snapshot, error) {
	p, err := s.LoadPoll(slug)
	if err != nil {
		return nil, err
	}

	snapshot := &poll.Snapshot{Poll: *p, Ledgers: make(map[string][]poll.VoteEntry)}

	members, err := s.ledgerMembers(slug)
	if err != nil {
		return nil, err
	}
	for _, member := range members {
		entries, err := s.ListVotes(slug, member)
		if err != nil {
			return nil, err
		}
		snapshot.Ledgers[member] = entries
	}
	return snapshot, nil
}

// Restore rewrites a poll from a snapshot: metadata, flags, and every
// ledger. Used to reverse a corrected delete. Ledger files that exist
// on disk but not in the snapshot are removed so the restored state
// is exact.
func (s *Store) Restore(snapshot *poll.Snapshot) error {
	p := snapshot.Poll
	p.Deleted = false

	dir := s.pollDir(p.Slug)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("recreating poll directory %s: %w", dir, err)
	}
	if err := s.writePoll(&p); err != nil {
		return err
	}

	existing, err := s.ledgerMembers(p.Slug)
	if err != nil {
		return err
	}
	for _, member := range existing {
		if _, ok := snapshot.Ledgers[member]; !ok {
			if err := os.Remove(s.ledgerPath(p.Slug, member)); err != nil {
				return fmt.Errorf("removing stray ledger for %s: %w", member, err)
			}
		}
	}
	for member, entries := range snapshot.Ledgers {
		if err := s.writeTOML(s.ledgerPath(p.Slug, member), recordFromLedger(entries)); err != nil {
			return err
		}
	}
	return nil
}

// Destroy permanently removes a poll: the directory is renamed into
// trash/ (a single atomic step, so a crash can't leave a half-deleted
// poll visible) and then deleted. Used when a correction erases a
// create; ordinary deletes only set the flag.
func (s *Store) Destroy(slug string) error {
	dir := s.pollDir(slug)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Kind: "poll", Key: slug}
		}
		return fmt.Errorf("checking poll %s: %w", slug, err)
	}

	trashPath := filepath.Join(s.root, trashDir, slug)
	if err := os.Rename(dir, trashPath); err != nil {
		return fmt.Errorf("moving poll %s to trash: %w", slug, err)
	}
	if err := os.RemoveAll(trashPath); err != nil {
		// The poll is already invisible; the leftover is swept on the
		// next recovery.
		s.logger.Warn("removing trashed poll failed, recovery will sweep it",
			"slug", slug, "error", err)
	}
	return nil
}

// Rename updates a poll's topic and tag in place. The slug (and so
// the directory) never changes.
func (s *Store) Rename(slug, newTopic, newTag string) error {
	p, err := s.LoadPoll(slug)
	if err != nil {
		return err
	}
	p.Topic = newTopic
	p.Tag = newTag
	return s.writePoll(p)
}

// ledgerMembers lists the members with a ledger file for the poll.
func (s *Store) ledgerMembers(slug string) ([]string, error) {
	entries, err := os.ReadDir(s.pollDir(slug))
	if err != nil {
		return nil, fmt.Errorf("listing ledgers for %s: %w", slug, err)
	}

	var members []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "vote-") || !strings.HasSuffix(name, ".toml") {
			continue
		}
		member, err := UnescapeMember(strings.TrimSuffix(strings.TrimPrefix(name, "vote-"), ".toml"))
		if err != nil {
			s.logger.Warn("skipping ledger with undecodable member name",
				"slug", slug, "file", name, "error", err)
			continue
		}
		members = append(members, member)
	}
	return members, nil
}
