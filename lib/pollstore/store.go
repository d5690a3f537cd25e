// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollstore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/pelletier/go-toml/v2"
)

const (
	votesDir   = "votes"
	membersDir = "members"
	trashDir   = "trash"

	metadataFile  = "metadata.toml"
	concludedFlag = "concluded.flag"
	deletedFlag   = "deleted.flag"
)

// Store is the durable record store. All methods are safe for
// concurrent use; mutations that must be serialized per poll (a
// command plus its transaction bookkeeping) additionally take the
// per-slug lock via [Store.LockSlug] for the whole compound
// operation.
type Store struct {
	root   string
	clock  clockwork.Clock
	logger *slog.Logger

	// mu guards the lock maps. The per-slug and per-member mutexes
	// themselves are held across whole compound operations.
	mu          sync.Mutex
	slugLocks   map[string]*sync.Mutex
	memberLocks map[string]*sync.Mutex
}

// Open opens (creating if needed) the record tree rooted at root and
// runs the recovery scan. The returned Recovery carries everything a
// registry and transaction manager need to rebuild their in-memory
// state; no separate write-ahead log exists or is needed.
func Open(root string, clock clockwork.Clock, logger *slog.Logger) (*Store, *Recovery, error) {
	for _, dir := range []string{root, filepath.Join(root, votesDir), filepath.Join(root, membersDir), filepath.Join(root, trashDir)} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating store directory %s: %w", dir, err)
		}
	}

	store := &Store{
		root:        root,
		clock:       clock,
		logger:      logger,
		slugLocks:   make(map[string]*sync.Mutex),
		memberLocks: make(map[string]*sync.Mutex),
	}

	recovery, err := store.recover()
	if err != nil {
		return nil, nil, err
	}
	return store, recovery, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// LockSlug acquires the in-process mutation lock for a poll slug and
// returns the release function. Hold it for the full duration of a
// command against that poll plus its transaction bookkeeping.
// Compound operations touching two polls must acquire the locks in
// sorted slug order to stay deadlock-free.
func (s *Store) LockSlug(slug string) func() {
	s.mu.Lock()
	lock, ok := s.slugLocks[slug]
	if !ok {
		lock = &sync.Mutex{}
		s.slugLocks[slug] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// LockMember acquires the mutation lock for a member's record.
// Acquire after any slug locks, never before.
func (s *Store) LockMember(member string) func() {
	s.mu.Lock()
	lock, ok := s.memberLocks[member]
	if !ok {
		lock = &sync.Mutex{}
		s.memberLocks[member] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Path helpers. Member identifiers are filename-escaped; slugs are
// generated filesystem-safe and used verbatim.

func (s *Store) pollDir(slug string) string {
	return filepath.Join(s.root, votesDir, slug)
}

func (s *Store) metadataPath(slug string) string {
	return filepath.Join(s.pollDir(slug), metadataFile)
}

func (s *Store) ledgerPath(slug, member string) string {
	return filepath.Join(s.pollDir(slug), "vote-"+EscapeMember(member)+".toml")
}

func (s *Store) memberPath(member string) string {
	return filepath.Join(s.root, membersDir, EscapeMember(member)+".toml")
}

// writeFile writes data to path through the atomic stage-and-rename
// discipline: stage into a temp file in the destination directory,
// then commit with a single rename. Any failure before the rename
// leaves the previous content untouched.
func (s *Store) writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmpFile, err := os.CreateTemp(dir, ".staged-*")
	if err != nil {
		return fmt.Errorf("staging file in %s: %w", dir, err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing staged content: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing staged file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("committing %s: %w", path, err)
	}

	success = true
	return nil
}

// writeTOML marshals v and commits it to path atomically.
func (s *Store) writeTOML(path string, v any) error {
	data, err := toml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return s.writeFile(path, data)
}

func unmarshalTOML(data []byte, v any) error {
	return toml.Unmarshal(data, v)
}

// setFlag creates a zero-byte flag file through the same staged
// commit as content files, so a crash can never leave a flag in a
// half-created state.
func (s *Store) setFlag(slug, name string) error {
	return s.writeFile(filepath.Join(s.pollDir(slug), name), nil)
}

// clearFlag removes a flag file. Removing a missing flag is not an
// error: the flag's absence is the desired state.
func (s *Store) clearFlag(slug, name string) error {
	err := os.Remove(filepath.Join(s.pollDir(slug), name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing %s on %s: %w", name, slug, err)
	}
	return nil
}

func (s *Store) hasFlag(slug, name string) bool {
	_, err := os.Stat(filepath.Join(s.pollDir(slug), name))
	return err == nil
}
