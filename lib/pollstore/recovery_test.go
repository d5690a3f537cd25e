// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/council-foundation/council/lib/poll"
)

func TestRecoveryOrdersPollsByStartTime(t *testing.T) {
	dir := t.TempDir()
	store, _ := openTestStore(t, dir)

	later := testPoll("2026-03-09-tAAAA-later")
	later.StartTime = time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
	later.EndTime = later.StartTime.Add(poll.DefaultLifetime)
	earlier := testPoll("2026-03-09-tBBBB-earlier")

	if err := store.CreatePoll(later); err != nil {
		t.Fatal(err)
	}
	if err := store.CreatePoll(earlier); err != nil {
		t.Fatal(err)
	}

	_, recovery := openTestStore(t, dir)
	if len(recovery.Polls) != 2 {
		t.Fatalf("recovered %d polls, want 2", len(recovery.Polls))
	}
	if recovery.Polls[0].Slug != earlier.Slug || recovery.Polls[1].Slug != later.Slug {
		t.Errorf("polls out of order: %s, %s", recovery.Polls[0].Slug, recovery.Polls[1].Slug)
	}
}

func TestRecoveryPendingAnnouncements(t *testing.T) {
	dir := t.TempDir()
	store, _ := openTestStore(t, dir)

	expired := testPoll("2026-03-09-tAAAA-expired")
	expired.StartTime = time.Date(2026, 2, 1, 13, 0, 0, 0, time.UTC)
	expired.EndTime = expired.StartTime.Add(poll.DefaultLifetime)
	open := testPoll("2026-03-09-tBBBB-open")
	concluded := testPoll("2026-03-09-tCCCC-concluded")
	concluded.StartTime = expired.StartTime
	concluded.EndTime = expired.EndTime

	for _, p := range []*poll.Poll{expired, open, concluded} {
		if err := store.CreatePoll(p); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Conclude(concluded.Slug, "expiration"); err != nil {
		t.Fatal(err)
	}

	// Reopen with a clock past the expired poll's end but before the open one's.
	reopened, recovery, err := Open(dir, clockwork.NewFakeClockAt(testTime), testLogger())
	if err != nil {
		t.Fatal(err)
	}
	_ = reopened

	if len(recovery.PendingAnnouncements) != 1 {
		t.Fatalf("pending announcements = %v, want just the expired poll", recovery.PendingAnnouncements)
	}
	if recovery.PendingAnnouncements[0] != expired.Slug {
		t.Errorf("pending = %s, want %s", recovery.PendingAnnouncements[0], expired.Slug)
	}
}

func TestRecoveryIgnoresDeleted(t *testing.T) {
	dir := t.TempDir()
	store, _ := openTestStore(t, dir)

	expired := testPoll("2026-03-09-tAAAA-expired")
	expired.StartTime = time.Date(2026, 2, 1, 13, 0, 0, 0, time.UTC)
	expired.EndTime = expired.StartTime.Add(poll.DefaultLifetime)
	if err := store.CreatePoll(expired); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkDeleted(expired.Slug); err != nil {
		t.Fatal(err)
	}

	_, recovery := openTestStore(t, dir)
	if len(recovery.PendingAnnouncements) != 0 {
		t.Errorf("deleted poll queued for announcement: %v", recovery.PendingAnnouncements)
	}
	// Deleted polls are still recovered; exclusion is the caller's concern.
	if len(recovery.Polls) != 1 || !recovery.Polls[0].Deleted {
		t.Errorf("deleted poll not recovered: %+v", recovery.Polls)
	}
}

func TestRecoverySkipsMalformedPoll(t *testing.T) {
	dir := t.TempDir()
	store, _ := openTestStore(t, dir)

	good := testPoll("2026-03-09-tAAAA-good")
	if err := store.CreatePoll(good); err != nil {
		t.Fatal(err)
	}

	// A directory with garbage metadata must not poison the scan.
	bad := filepath.Join(dir, "votes", "2026-03-09-tBBBB-bad")
	if err := os.MkdirAll(bad, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bad, "metadata.toml"), []byte("{{not toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, recovery := openTestStore(t, dir)
	if len(recovery.Polls) != 1 || recovery.Polls[0].Slug != good.Slug {
		t.Errorf("recovered polls = %+v, want just the good one", recovery.Polls)
	}
}

func TestRecoveryLoadsTransactions(t *testing.T) {
	dir := t.TempDir()
	store, _ := openTestStore(t, dir)

	p := testPoll("2026-03-09-tAAAA-compliance")
	if err := store.CreatePoll(p); err != nil {
		t.Fatal(err)
	}
	txn := &poll.Transaction{
		ID:     "$event123",
		Actor:  "alice@example.org",
		Action: poll.ActionRename,
		Target: p.Slug,
		Undo:   poll.UndoPayload{PrevTopic: "Old topic"},
	}
	if err := store.SaveTransaction(txn); err != nil {
		t.Fatal(err)
	}

	_, recovery := openTestStore(t, dir)
	got, ok := recovery.Transactions["alice@example.org"]
	if !ok {
		t.Fatal("transaction not recovered")
	}
	if got.Action != poll.ActionRename || got.Target != p.Slug {
		t.Errorf("recovered transaction = %+v", got)
	}
}

func TestRecoveryDropsDanglingTransaction(t *testing.T) {
	dir := t.TempDir()
	store, _ := openTestStore(t, dir)

	p := testPoll("2026-03-09-tAAAA-compliance")
	if err := store.CreatePoll(p); err != nil {
		t.Fatal(err)
	}
	txn := &poll.Transaction{
		ID:     "$event123",
		Actor:  "alice@example.org",
		Action: poll.ActionRename,
		Target: p.Slug,
	}
	if err := store.SaveTransaction(txn); err != nil {
		t.Fatal(err)
	}

	// Simulate a crash that destroyed the poll but left the transaction.
	if err := os.RemoveAll(filepath.Join(dir, "votes", p.Slug)); err != nil {
		t.Fatal(err)
	}

	_, recovery := openTestStore(t, dir)
	if _, ok := recovery.Transactions["alice@example.org"]; ok {
		t.Error("transaction with a vanished target survived recovery")
	}
}

func TestRecoveryKeepsCreateTransaction(t *testing.T) {
	dir := t.TempDir()
	store, _ := openTestStore(t, dir)

	p := testPoll("2026-03-09-tAAAA-compliance")
	if err := store.CreatePoll(p); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveTransaction(&poll.Transaction{
		ID:     "$event123",
		Actor:  "alice@example.org",
		Action: poll.ActionCreate,
		Target: p.Slug,
	}); err != nil {
		t.Fatal(err)
	}

	_, recovery := openTestStore(t, dir)
	if _, ok := recovery.Transactions["alice@example.org"]; !ok {
		t.Error("create transaction with an existing target dropped")
	}
}

func TestRecoverySweepsStagedFiles(t *testing.T) {
	dir := t.TempDir()
	store, _ := openTestStore(t, dir)

	p := testPoll("2026-03-09-tAAAA-compliance")
	if err := store.CreatePoll(p); err != nil {
		t.Fatal(err)
	}

	// A crash between staging and rename leaves a temp file behind.
	stray := filepath.Join(dir, "votes", p.Slug, ".staged-123456")
	if err := os.WriteFile(stray, []byte("partial"), 0o644); err != nil {
		t.Fatal(err)
	}

	openTestStore(t, dir)
	if _, err := os.Stat(stray); !os.IsNotExist(err) {
		t.Error("staged file survived recovery")
	}
}

func TestRecoverySweepsTrash(t *testing.T) {
	dir := t.TempDir()
	store, _ := openTestStore(t, dir)

	p := testPoll("2026-03-09-tAAAA-compliance")
	if err := store.CreatePoll(p); err != nil {
		t.Fatal(err)
	}

	// A crash during Destroy leaves the renamed directory in the trash.
	trashed := filepath.Join(dir, "trash", p.Slug)
	if err := os.Rename(filepath.Join(dir, "votes", p.Slug), trashed); err != nil {
		t.Fatal(err)
	}

	openTestStore(t, dir)
	if _, err := os.Stat(trashed); !os.IsNotExist(err) {
		t.Error("trashed directory survived recovery")
	}
}

func TestRecoveryEmptyStore(t *testing.T) {
	_, recovery := openTestStore(t, t.TempDir())

	if len(recovery.Polls) != 0 || len(recovery.PendingAnnouncements) != 0 || len(recovery.Transactions) != 0 {
		t.Errorf("fresh store recovered state: %+v", recovery)
	}
}
