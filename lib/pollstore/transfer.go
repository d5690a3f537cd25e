// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PollFiles reads every record file in a poll's directory and returns
// the raw contents keyed by file name. Flag files come back as empty
// slices. The result is a byte-exact capture of the poll's records,
// suitable for archival.
func (s *Store) PollFiles(slug string) (map[string][]byte, error) {
	dir := s.pollDir(slug)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "poll", Key: slug}
		}
		return nil, fmt.Errorf("reading poll directory %s: %w", dir, err)
	}

	files := make(map[string][]byte, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			// Abandoned staged files are not part of the record.
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading %s of poll %s: %w", name, slug, err)
		}
		files[name] = data
	}
	return files, nil
}

// WritePollFiles materializes a complete poll directory from raw file
// contents. The directory is staged under trash/ and moved into place
// with a single rename, so a crash mid-write leaves either no poll or
// the complete poll, and recovery sweeps the abandoned stage.
//
// An existing poll is a ConflictError unless replace is set. With
// replace, the old directory is moved to trash before the staged one
// takes its place. A crash between those two renames loses the old
// copy; the caller's archive still holds the new one.
func (s *Store) WritePollFiles(slug string, files map[string][]byte, replace bool) error {
	if err := ValidateRecordName(slug); err != nil {
		return fmt.Errorf("poll slug %q: %w", slug, err)
	}
	for name := range files {
		if err := ValidateRecordName(name); err != nil {
			return fmt.Errorf("poll file %q: %w", name, err)
		}
	}

	dir := s.pollDir(slug)
	_, statErr := os.Stat(dir)
	exists := statErr == nil
	if exists && !replace {
		return &ConflictError{Kind: "poll", Key: slug}
	}

	staged, err := os.MkdirTemp(filepath.Join(s.root, trashDir), ".import-*")
	if err != nil {
		return fmt.Errorf("staging import of poll %s: %w", slug, err)
	}
	success := false
	defer func() {
		if !success {
			os.RemoveAll(staged)
		}
	}()

	for name, data := range files {
		if err := os.WriteFile(filepath.Join(staged, name), data, 0o644); err != nil {
			return fmt.Errorf("staging %s of poll %s: %w", name, slug, err)
		}
	}
	// MkdirTemp creates 0o700; poll directories are 0o755.
	if err := os.Chmod(staged, 0o755); err != nil {
		return fmt.Errorf("staging import of poll %s: %w", slug, err)
	}

	if !exists {
		if err := os.Rename(staged, dir); err != nil {
			return fmt.Errorf("committing poll %s: %w", slug, err)
		}
		success = true
		return nil
	}

	displaced := filepath.Join(s.root, trashDir, slug)
	if err := os.Rename(dir, displaced); err != nil {
		return fmt.Errorf("displacing poll %s: %w", slug, err)
	}
	if err := os.Rename(staged, dir); err != nil {
		if restoreErr := os.Rename(displaced, dir); restoreErr != nil {
			s.logger.Warn("restoring displaced poll failed, recovery will sweep it",
				"slug", slug, "error", restoreErr)
		}
		return fmt.Errorf("committing poll %s: %w", slug, err)
	}
	success = true
	if err := os.RemoveAll(displaced); err != nil {
		s.logger.Warn("removing displaced poll failed, recovery will sweep it",
			"slug", slug, "error", err)
	}
	return nil
}

// ValidateRecordName rejects names that cannot be a poll slug or a
// file name inside a poll directory: anything empty, reserved, hidden
// (the staged-file prefix), or containing a path separator.
func ValidateRecordName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty name")
	case name == "." || name == "..":
		return fmt.Errorf("reserved name")
	case strings.HasPrefix(name, "."):
		return fmt.Errorf("hidden names are reserved for staging")
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("name contains a path separator")
	}
	return nil
}
