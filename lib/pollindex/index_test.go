// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollindex

import (
	"testing"
	"time"

	"github.com/council-foundation/council/lib/poll"
)

// --- Test helpers ---

// makePoll returns a poll with sensible defaults. Override fields
// after construction as needed.
func makePoll(slug, topic, tag string) *poll.Poll {
	start := time.Date(2026, 3, 9, 13, 0, 0, 0, time.UTC)
	return &poll.Poll{
		Slug:      slug,
		Topic:     topic,
		Tag:       tag,
		Actor:     "alice@example.org",
		StartTime: start,
		EndTime:   start.Add(poll.DefaultLifetime),
	}
}

// firstPick always selects candidate zero.
func firstPick(int) int { return 0 }

// --- Put / Get / Remove / Len ---

func TestPutAndGet(t *testing.T) {
	idx := NewIndex(firstPick)
	idx.Put(makePoll("2026-03-09-tAAAA-hashes", "Hash recommendations", "hashes"))

	if idx.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", idx.Len())
	}
	got, ok := idx.Get("2026-03-09-tAAAA-hashes")
	if !ok {
		t.Fatal("Get returned ok=false for a poll that was Put")
	}
	if got.Topic != "Hash recommendations" {
		t.Errorf("Topic = %q", got.Topic)
	}
}

func TestGetNonexistent(t *testing.T) {
	idx := NewIndex(firstPick)
	if _, ok := idx.Get("nope"); ok {
		t.Fatal("Get returned ok=true for a slug never Put")
	}
}

func TestPutClones(t *testing.T) {
	idx := NewIndex(firstPick)
	p := makePoll("2026-03-09-tAAAA-hashes", "Hash recommendations", "hashes")
	idx.Put(p)

	// Mutating the caller's poll must not reach the index.
	p.Topic = "Mutated"
	got, _ := idx.Get(p.Slug)
	if got.Topic != "Hash recommendations" {
		t.Errorf("index entry mutated through caller pointer: %q", got.Topic)
	}

	// Mutating a returned poll must not reach the index either.
	got.Topic = "Also mutated"
	again, _ := idx.Get(p.Slug)
	if again.Topic != "Hash recommendations" {
		t.Errorf("index entry mutated through returned pointer: %q", again.Topic)
	}
}

func TestRemove(t *testing.T) {
	idx := NewIndex(firstPick)
	idx.Put(makePoll("2026-03-09-tAAAA-hashes", "Hash recommendations", "hashes"))
	idx.Remove("2026-03-09-tAAAA-hashes")

	if idx.Len() != 0 {
		t.Fatalf("Len() = %d after Remove, want 0", idx.Len())
	}
	idx.Remove("2026-03-09-tAAAA-hashes") // absent: no-op
}

// --- ListOpen ---

func TestListOpenExcludesDeleted(t *testing.T) {
	idx := NewIndex(firstPick)
	idx.Put(makePoll("2026-03-09-tAAAA-hashes", "Hash recommendations", "hashes"))
	deleted := makePoll("2026-03-09-tBBBB-gone", "Withdrawn proposal", "")
	deleted.Deleted = true
	idx.Put(deleted)

	open := idx.ListOpen()
	if len(open) != 1 || open[0].Slug != "2026-03-09-tAAAA-hashes" {
		t.Errorf("ListOpen = %+v, want just the live poll", open)
	}
}

func TestListOpenIncludesConcluded(t *testing.T) {
	idx := NewIndex(firstPick)
	concluded := makePoll("2026-03-09-tAAAA-hashes", "Hash recommendations", "hashes")
	concluded.Concluded = true
	concluded.ConcludedReason = "votes cast"
	idx.Put(concluded)

	if open := idx.ListOpen(); len(open) != 1 {
		t.Errorf("concluded poll missing from listing: %+v", open)
	}
}

func TestListOpenOrder(t *testing.T) {
	idx := NewIndex(firstPick)

	second := makePoll("2026-03-09-tAAAA-second", "Second by time", "")
	second.StartTime = time.Date(2026, 3, 10, 13, 0, 0, 0, time.UTC)
	first := makePoll("2026-03-09-tZZZZ-first", "First by time", "")
	tied := makePoll("2026-03-09-tBBBB-tied", "Tied with first", "")

	idx.Put(second)
	idx.Put(first)
	idx.Put(tied)

	open := idx.ListOpen()
	if len(open) != 3 {
		t.Fatalf("ListOpen returned %d polls, want 3", len(open))
	}
	// Start time first, slug breaks the tie.
	want := []string{"2026-03-09-tBBBB-tied", "2026-03-09-tZZZZ-first", "2026-03-09-tAAAA-second"}
	for i, slug := range want {
		if open[i].Slug != slug {
			t.Errorf("open[%d] = %s, want %s", i, open[i].Slug, slug)
		}
	}
}
