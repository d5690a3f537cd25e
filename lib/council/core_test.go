// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package council

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/council-foundation/council/lib/poll"
	"github.com/council-foundation/council/lib/pollindex"
	"github.com/council-foundation/council/lib/pollstore"
)

// testTime is noon UTC; polls created at it start at 13:00.
var testTime = time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)

var testRoster = []RosterMember{
	{ID: "alice@example.org", Nick: "alice"},
	{ID: "bob@example.org", Nick: "bob"},
	{ID: "carol@example.org", Nick: "carol"},
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openCore builds a Core over the given directory so tests can reopen
// the same state to check persistence.
func openCore(t *testing.T, dir string, clock clockwork.Clock) *Core {
	t.Helper()
	store, recovery, err := pollstore.Open(dir, clock, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return New(store, recovery, Options{
		Roster: testRoster,
		Clock:  clock,
		Logger: testLogger(),
		Pick:   func(int) int { return 0 },
	})
}

func newTestCore(t *testing.T) (*Core, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testTime)
	return openCore(t, t.TempDir(), clock), clock
}

// --- CreatePoll ---

func TestCreatePoll(t *testing.T) {
	core, _ := newTestCore(t)

	p, err := core.CreatePoll("alice@example.org", "$msg1", "Adopt the new compliance suite", CreateOptions{Tag: "compliance"})
	if err != nil {
		t.Fatal(err)
	}

	if p.Topic != "Adopt the new compliance suite" || p.Tag != "compliance" {
		t.Errorf("poll = %+v", p)
	}
	wantStart := time.Date(2026, 3, 9, 13, 0, 0, 0, time.UTC)
	if !p.StartTime.Equal(wantStart) {
		t.Errorf("StartTime = %v, want top of next hour %v", p.StartTime, wantStart)
	}
	if !p.EndTime.Equal(wantStart.Add(poll.DefaultLifetime)) {
		t.Errorf("EndTime = %v, want start plus two weeks", p.EndTime)
	}

	open := core.ListOpen()
	if len(open) != 1 || open[0].Slug != p.Slug {
		t.Errorf("ListOpen = %+v", open)
	}

	txn := core.Record("alice@example.org")
	if txn == nil {
		t.Fatal("create recorded no transaction")
	}
	if txn.ID != "$msg1" || txn.Action != poll.ActionCreate || txn.Target != p.Slug {
		t.Errorf("transaction = %+v", txn)
	}
}

func TestCreatePollWithoutMessageID(t *testing.T) {
	core, _ := newTestCore(t)

	// A prior correctable action exists.
	if _, err := core.CreatePoll("alice@example.org", "$msg1", "First", CreateOptions{}); err != nil {
		t.Fatal(err)
	}
	// An op arriving outside chat clears it: its undo data no longer
	// matches the state it would revert.
	if _, err := core.CreatePoll("alice@example.org", "", "Second", CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	if txn := core.Record("alice@example.org"); txn != nil {
		t.Errorf("transaction survived an uncorrectable operation: %+v", txn)
	}
	if len(core.ListOpen()) != 2 {
		t.Error("both polls should exist")
	}
}

// --- RenamePoll / DeletePoll / AttachURL ---

func TestRenamePoll(t *testing.T) {
	core, _ := newTestCore(t)

	p, err := core.CreatePoll("alice@example.org", "$msg1", "Old topic", CreateOptions{Tag: "old-tag"})
	if err != nil {
		t.Fatal(err)
	}
	renamed, err := core.RenamePoll("bob@example.org", "$msg2", p.Slug, "New topic", "new-tag")
	if err != nil {
		t.Fatal(err)
	}

	if renamed.Topic != "New topic" || renamed.Tag != "new-tag" || renamed.Slug != p.Slug {
		t.Errorf("renamed = %+v", renamed)
	}
	txn := core.Record("bob@example.org")
	if txn == nil || txn.Action != poll.ActionRename {
		t.Fatalf("transaction = %+v", txn)
	}
	if txn.Undo.PrevTopic != "Old topic" || txn.Undo.PrevTag != "old-tag" {
		t.Errorf("undo = %+v", txn.Undo)
	}
}

func TestDeletePoll(t *testing.T) {
	core, _ := newTestCore(t)

	p, err := core.CreatePoll("alice@example.org", "$msg1", "Doomed", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := core.CastVote("bob@example.org", "$msg2", p.Slug, poll.Ack, ""); err != nil {
		t.Fatal(err)
	}
	if err := core.DeletePoll("alice@example.org", "$msg3", p.Slug); err != nil {
		t.Fatal(err)
	}

	if open := core.ListOpen(); len(open) != 0 {
		t.Errorf("deleted poll still listed: %+v", open)
	}
	if r := core.Resolve("Doomed"); r.Kind != pollindex.ResolutionNotFound {
		t.Errorf("deleted poll still resolves: %v", r.Slugs())
	}

	// The snapshot in the transaction carries the ledger.
	txn := core.Record("alice@example.org")
	if txn == nil || txn.Undo.Snapshot == nil {
		t.Fatalf("transaction = %+v", txn)
	}
	if len(txn.Undo.Snapshot.Ledgers["bob@example.org"]) != 1 {
		t.Errorf("snapshot ledgers = %+v", txn.Undo.Snapshot.Ledgers)
	}

	// Double delete: the poll is gone as far as operations care.
	if err := core.DeletePoll("alice@example.org", "$msg4", p.Slug); !pollstore.IsNotFound(err) {
		t.Errorf("second delete: err=%v, want NotFound", err)
	}
}

func TestAttachURL(t *testing.T) {
	core, _ := newTestCore(t)

	p, err := core.CreatePoll("alice@example.org", "$msg1", "Topic", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := core.AttachURL("alice@example.org", "$msg2", p.Slug, "https://xmpp.org/extensions/xep-0474.html"); err != nil {
		t.Fatal(err)
	}

	got, _ := core.Poll(p.Slug)
	if len(got.URLs) != 1 || got.URLs[0] != "https://xmpp.org/extensions/xep-0474.html" {
		t.Errorf("URLs = %v", got.URLs)
	}
	txn := core.Record("alice@example.org")
	if txn == nil || txn.Action != poll.ActionAttach || txn.Undo.URL != "https://xmpp.org/extensions/xep-0474.html" {
		t.Errorf("transaction = %+v", txn)
	}
}

// --- CastVote ---

func TestCastVote(t *testing.T) {
	core, _ := newTestCore(t)

	p, err := core.CreatePoll("alice@example.org", "$msg1", "Topic", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := core.CastVote("bob@example.org", "$msg2", p.Slug, poll.Ack, "fine"); err != nil {
		t.Fatal(err)
	}

	current, err := core.CurrentVotes(p.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if current["bob@example.org"].Value != poll.Ack {
		t.Errorf("current = %+v", current)
	}

	txn := core.Record("bob@example.org")
	if txn == nil || txn.Action != poll.ActionCast {
		t.Fatalf("transaction = %+v", txn)
	}
	if txn.Undo.HadPrevVote {
		t.Error("first vote recorded a previous vote")
	}
}

func TestCastVoteShortVetoRemark(t *testing.T) {
	core, _ := newTestCore(t)

	p, err := core.CreatePoll("alice@example.org", "$msg1", "Topic", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	err = core.CastVote("bob@example.org", "$msg2", p.Slug, poll.Veto, "too short")
	if !poll.IsInvalidRemark(err) {
		t.Fatalf("err = %v, want InvalidRemarkError", err)
	}

	// No ledger entry and no transaction.
	history, err := core.VoteHistory(p.Slug, "bob@example.org")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 0 {
		t.Errorf("rejected veto left a ledger entry: %+v", history)
	}
	if txn := core.Record("bob@example.org"); txn != nil {
		t.Errorf("rejected veto recorded a transaction: %+v", txn)
	}
}

func TestCastVoteOnDeletedPoll(t *testing.T) {
	core, _ := newTestCore(t)

	p, err := core.CreatePoll("alice@example.org", "$msg1", "Topic", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := core.DeletePoll("alice@example.org", "$msg2", p.Slug); err != nil {
		t.Fatal(err)
	}

	err = core.CastVote("bob@example.org", "$msg3", p.Slug, poll.Ack, "")
	if !pollstore.IsNotFound(err) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

// --- SetReplyID ---

func TestSetReplyID(t *testing.T) {
	core, _ := newTestCore(t)

	if _, err := core.CreatePoll("alice@example.org", "$msg1", "Topic", CreateOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := core.SetReplyID("alice@example.org", "$reply1"); err != nil {
		t.Fatal(err)
	}

	if txn := core.Record("alice@example.org"); txn.ReplyID != "$reply1" {
		t.Errorf("ReplyID = %q", txn.ReplyID)
	}
}

func TestSetReplyIDWithoutTransaction(t *testing.T) {
	core, _ := newTestCore(t)

	err := core.SetReplyID("alice@example.org", "$reply1")
	if !pollstore.IsNotFound(err) {
		t.Errorf("err = %v, want NotFound", err)
	}
}

// --- Conclude ---

func TestConcludeComplete(t *testing.T) {
	core, _ := newTestCore(t)

	p, err := core.CreatePoll("alice@example.org", "$msg1", "Topic", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	for i, member := range testRoster {
		if err := core.CastVote(member.ID, "$vote"+string(rune('a'+i)), p.Slug, poll.Ack, ""); err != nil {
			t.Fatal(err)
		}
	}

	reason, err := core.Conclude("alice@example.org", "$msg2", p.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if reason != poll.ReasonVotesCast {
		t.Errorf("reason = %q, want votes cast", reason)
	}

	got, _ := core.Poll(p.Slug)
	if !got.Concluded || got.ConcludedReason != poll.ReasonVotesCast {
		t.Errorf("poll = %+v", got)
	}

	// Concluding again conflicts.
	if _, err := core.Conclude("alice@example.org", "$msg3", p.Slug); !pollstore.IsConflict(err) {
		t.Errorf("second conclude: err=%v, want Conflict", err)
	}
}

func TestConcludeOpenPoll(t *testing.T) {
	core, _ := newTestCore(t)

	p, err := core.CreatePoll("alice@example.org", "$msg1", "Topic", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := core.CastVote("bob@example.org", "$msg2", p.Slug, poll.Ack, ""); err != nil {
		t.Fatal(err)
	}

	_, err = core.Conclude("alice@example.org", "$msg3", p.Slug)
	if !IsNotConcludable(err) {
		t.Errorf("err = %v, want NotConcludableError", err)
	}
}

func TestConcludeExpired(t *testing.T) {
	core, clock := newTestCore(t)

	p, err := core.CreatePoll("alice@example.org", "$msg1", "Topic", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	clock.Advance(15 * 24 * time.Hour)

	reason, err := core.Conclude("alice@example.org", "$msg2", p.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if reason != poll.ReasonExpiration {
		t.Errorf("reason = %q, want expiration", reason)
	}
}

// --- Expiry and announcements ---

func TestDuePolls(t *testing.T) {
	core, clock := newTestCore(t)

	first, err := core.CreatePoll("alice@example.org", "$msg1", "First", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	clock.Advance(24 * time.Hour)
	if _, err := core.CreatePoll("alice@example.org", "$msg2", "Second", CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	if due := core.DuePolls(); len(due) != 0 {
		t.Errorf("nothing should be due yet: %+v", due)
	}

	// Move past the first poll's deadline but not the second's.
	clock.Advance(13*24*time.Hour + time.Hour)
	due := core.DuePolls()
	if len(due) != 1 || due[0].Slug != first.Slug {
		t.Errorf("due = %+v, want just the first poll", due)
	}
}

func TestPendingAnnouncementsAndMark(t *testing.T) {
	core, clock := newTestCore(t)

	p, err := core.CreatePoll("alice@example.org", "$msg1", "Topic", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := core.CastVote("alice@example.org", "$v1", p.Slug, poll.Ack, ""); err != nil {
		t.Fatal(err)
	}
	if err := core.CastVote("bob@example.org", "$v2", p.Slug, poll.Ack, ""); err != nil {
		t.Fatal(err)
	}
	clock.Advance(15 * 24 * time.Hour)

	pending, err := core.PendingAnnouncements()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %+v", pending)
	}
	a := pending[0]
	if a.Reason != poll.ReasonExpiration {
		t.Errorf("reason = %q (carol never voted)", a.Reason)
	}
	if a.Result != poll.ResultPass {
		t.Errorf("result = %v, want pass (2 of 3 acked)", a.Result)
	}

	if err := core.MarkAnnounced(p.Slug); err != nil {
		t.Fatal(err)
	}
	if pending, err := core.PendingAnnouncements(); err != nil || len(pending) != 0 {
		t.Errorf("announcement still pending after mark: %+v (err=%v)", pending, err)
	}
	// Marking again is a no-op.
	if err := core.MarkAnnounced(p.Slug); err != nil {
		t.Fatal(err)
	}
}

func TestPendingAnnouncementsAfterRestart(t *testing.T) {
	dir := t.TempDir()
	clock := clockwork.NewFakeClockAt(testTime)
	core := openCore(t, dir, clock)

	p, err := core.CreatePoll("alice@example.org", "$msg1", "Topic", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	// Reopen well past the deadline, as after a long outage.
	late := clockwork.NewFakeClockAt(testTime.Add(20 * 24 * time.Hour))
	reopened := openCore(t, dir, late)

	pending, err := reopened.PendingAnnouncements()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].Poll.Slug != p.Slug {
		t.Errorf("pending after restart = %+v", pending)
	}
}

// --- Summaries ---

func TestPollSummary(t *testing.T) {
	core, _ := newTestCore(t)

	p, err := core.CreatePoll("alice@example.org", "$msg1", "Topic", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := core.CastVote("alice@example.org", "$v1", p.Slug, poll.Ack, "looks good"); err != nil {
		t.Fatal(err)
	}
	if err := core.CastVote("bob@example.org", "$v2", p.Slug, poll.MinusZero, ""); err != nil {
		t.Fatal(err)
	}

	summary, err := core.PollSummary(p.Slug)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(summary, "\n")
	if len(lines) != 3 {
		t.Fatalf("summary has %d lines, want one per roster member:\n%s", len(lines), summary)
	}
	if lines[0] != "a⋅lice has voted +1: looks good" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "b⋅ob has voted -0 without further comment" {
		t.Errorf("line 1 = %q", lines[1])
	}
	if lines[2] != "c⋅arol has not voted (yet)" {
		t.Errorf("line 2 = %q", lines[2])
	}
}

func TestTallyLine(t *testing.T) {
	core, _ := newTestCore(t)

	p, err := core.CreatePoll("alice@example.org", "$msg1", "Topic", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := core.CastVote("alice@example.org", "$v1", p.Slug, poll.Ack, ""); err != nil {
		t.Fatal(err)
	}
	if err := core.CastVote("bob@example.org", "$v2", p.Slug, poll.Ack, ""); err != nil {
		t.Fatal(err)
	}

	line, err := core.TallyLine(p.Slug)
	if err != nil {
		t.Fatal(err)
	}
	want := "2/3 votes cast (2 +1), result: pass"
	if line != want {
		t.Errorf("TallyLine = %q, want %q", line, want)
	}
}

func TestMaskNick(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alice", "a⋅lice"},
		{"bo", "b⋅o"},
		{"x", "x"},
		{"", ""},
		{"Ωμέγα", "Ω⋅μέγα"},
	}
	for _, test := range tests {
		if got := MaskNick(test.in); got != test.want {
			t.Errorf("MaskNick(%q) = %q, want %q", test.in, got, test.want)
		}
	}
}

// --- Tally over non-roster votes ---

func TestTallyIgnoresNonRosterVotes(t *testing.T) {
	core, _ := newTestCore(t)

	p, err := core.CreatePoll("alice@example.org", "$msg1", "Topic", CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if err := core.CastVote("alice@example.org", "$v1", p.Slug, poll.Ack, ""); err != nil {
		t.Fatal(err)
	}
	// A ledger from an identity outside the roster must not count.
	if err := core.CastVote("stranger@example.org", "$v2", p.Slug, poll.Veto, "strong objections here"); err != nil {
		t.Fatal(err)
	}

	count, err := core.Tally(p.Slug)
	if err != nil {
		t.Fatal(err)
	}
	if count.Vetos != 0 || count.Cast() != 1 {
		t.Errorf("count = %+v, want just alice's ack", count)
	}
}

// --- Persistence across restart ---

func TestStateSurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	clock := clockwork.NewFakeClockAt(testTime)
	core := openCore(t, dir, clock)

	p, err := core.CreatePoll("alice@example.org", "$msg1", "Adopt the new compliance suite", CreateOptions{Tag: "compliance"})
	if err != nil {
		t.Fatal(err)
	}
	if err := core.CastVote("bob@example.org", "$msg2", p.Slug, poll.Ack, "fine"); err != nil {
		t.Fatal(err)
	}

	reopened := openCore(t, dir, clock)

	open := reopened.ListOpen()
	if len(open) != 1 || open[0].Tag != "compliance" {
		t.Fatalf("reopened ListOpen = %+v", open)
	}
	if r := reopened.Resolve("compliance"); r.Kind != pollindex.ResolutionMatch || r.Poll() == nil {
		t.Errorf("resolution lost after restart")
	}
	txn := reopened.Record("bob@example.org")
	if txn == nil || txn.ID != "$msg2" || txn.Action != poll.ActionCast {
		t.Errorf("transaction after restart = %+v", txn)
	}
}
