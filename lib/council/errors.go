// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package council

import (
	"errors"
	"fmt"
)

// CorrectionMismatchError reports a correction that does not line up
// with the member's pending transaction: either there is none, or the
// corrected message is not the one that produced it. Nothing has been
// mutated when this is returned.
type CorrectionMismatchError struct {
	Member      string
	CorrectedID string

	// PendingID is the id of the message that produced the pending
	// transaction, empty when the member has none.
	PendingID string
}

func (e *CorrectionMismatchError) Error() string {
	if e.PendingID == "" {
		return fmt.Sprintf("correction of %s by %s: no pending transaction", e.CorrectedID, e.Member)
	}
	return fmt.Sprintf("correction of %s by %s: pending transaction is for %s", e.CorrectedID, e.Member, e.PendingID)
}

// IsCorrectionMismatch reports whether err is a CorrectionMismatchError.
func IsCorrectionMismatch(err error) bool {
	var mismatch *CorrectionMismatchError
	return errors.As(err, &mismatch)
}

// NotConcludableError reports an attempt to conclude a poll that is
// still open: the voting period has time left and not every roster
// member has voted.
type NotConcludableError struct {
	Slug string
}

func (e *NotConcludableError) Error() string {
	return fmt.Sprintf("poll %s cannot be concluded: voting still open", e.Slug)
}

// IsNotConcludable reports whether err is a NotConcludableError.
func IsNotConcludable(err error) bool {
	var notConcludable *NotConcludableError
	return errors.As(err, &notConcludable)
}
