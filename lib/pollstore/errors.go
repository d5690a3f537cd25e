// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollstore

import (
	"errors"
	"fmt"
)

// NotFoundError reports a lookup that resolved nothing: a poll slug,
// a member record, or a ledger that does not exist. No mutation has
// happened when this is returned.
type NotFoundError struct {
	// Kind is what was looked up: "poll", "member", or "ledger".
	Kind string

	// Key is the identifier that missed.
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Key)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError
	return errors.As(err, &notFound)
}

// EmptyLedgerError reports a PopLastVote against a ledger with no
// entries. Transaction bookkeeping guarantees a pop is only requested
// when a matching append happened, so this is an internal invariant
// violation, not a user mistake: callers must surface it loudly
// rather than swallow it.
type EmptyLedgerError struct {
	Slug   string
	Member string
}

func (e *EmptyLedgerError) Error() string {
	return fmt.Sprintf("vote ledger for %s on poll %s is empty", e.Member, e.Slug)
}

// IsEmptyLedger reports whether err is an EmptyLedgerError.
func IsEmptyLedger(err error) bool {
	var emptyLedger *EmptyLedgerError
	return errors.As(err, &emptyLedger)
}

// ConflictError reports an attempt to create a record that already
// exists, such as saving a new poll over an existing slug.
type ConflictError struct {
	Kind string
	Key  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Key)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var conflict *ConflictError
	return errors.As(err, &conflict)
}
