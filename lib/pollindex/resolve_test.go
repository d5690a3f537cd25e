// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollindex

import (
	"testing"
	"time"
)

// --- Tag stage ---

func TestResolveExactTag(t *testing.T) {
	idx := NewIndex(firstPick)
	idx.Put(makePoll("2026-03-09-tAAAA-hashes", "Recommendations for password hashing", "hash-recommendations"))

	r := idx.Resolve("hash-recommendations")
	if r.Kind != ResolutionMatch {
		t.Fatalf("Kind = %v, want match", r.Kind)
	}
	if r.Poll().Slug != "2026-03-09-tAAAA-hashes" {
		t.Errorf("matched %s", r.Poll().Slug)
	}
}

func TestResolveTagTypo(t *testing.T) {
	idx := NewIndex(firstPick)
	idx.Put(makePoll("2026-03-09-tAAAA-hashes", "Recommendations for password hashing", "hash-recommendations"))

	// One dropped letter stays above the strict threshold.
	r := idx.Resolve("hash-recomendations")
	if r.Kind != ResolutionMatch {
		t.Errorf("Kind = %v, want match", r.Kind)
	}
}

func TestResolveTagCaseInsensitive(t *testing.T) {
	idx := NewIndex(firstPick)
	idx.Put(makePoll("2026-03-09-tAAAA-hashes", "Recommendations for password hashing", "hash-recommendations"))

	r := idx.Resolve("  Hash-Recommendations ")
	if r.Kind != ResolutionMatch {
		t.Errorf("Kind = %v, want match", r.Kind)
	}
}

func TestTagStagePreemptsSubjectStage(t *testing.T) {
	idx := NewIndex(firstPick)
	tagged := makePoll("2026-03-09-tAAAA-tagged", "Deprecate SHA-1 in signatures", "hash-recommendations")
	similar := makePoll("2026-03-09-tBBBB-similar", "Hash recommendations for new deployments", "")
	idx.Put(tagged)
	idx.Put(similar)

	// The untagged poll's topic also matches the words, but the tag
	// hit wins outright and the subject stage never runs.
	r := idx.Resolve("hash-recommendations")
	if r.Kind != ResolutionMatch {
		t.Fatalf("Kind = %v, want match (candidates %v)", r.Kind, r.Slugs())
	}
	if r.Poll().Slug != tagged.Slug {
		t.Errorf("matched %s, want the tagged poll", r.Poll().Slug)
	}
}

func TestResolveAmbiguousTags(t *testing.T) {
	idx := NewIndex(firstPick)
	idx.Put(makePoll("2026-03-09-tAAAA-one", "First", "budget-2026"))
	idx.Put(makePoll("2026-03-09-tBBBB-two", "Second", "budget-2027"))

	// Both tags are one edit from the query and clear the strict bar.
	r := idx.Resolve("budget-2026")
	if r.Kind != ResolutionAmbiguous {
		t.Fatalf("Kind = %v, want ambiguous (candidates %v)", r.Kind, r.Slugs())
	}
	// The exact tag scores higher and sorts first.
	if r.Candidates[0].Poll.Slug != "2026-03-09-tAAAA-one" {
		t.Errorf("candidate order: %v", r.Slugs())
	}
}

// --- Subject stage ---

func TestResolveBySubject(t *testing.T) {
	idx := NewIndex(firstPick)
	idx.Put(makePoll("2026-03-09-tAAAA-compliance", "Adopt the new compliance suite", ""))

	// Partial phrasing without filler words still resolves.
	r := idx.Resolve("adopt compliance suite")
	if r.Kind != ResolutionMatch {
		t.Fatalf("Kind = %v, want match", r.Kind)
	}
	if r.Poll().Slug != "2026-03-09-tAAAA-compliance" {
		t.Errorf("matched %s", r.Poll().Slug)
	}
}

func TestResolveNotFound(t *testing.T) {
	idx := NewIndex(firstPick)
	idx.Put(makePoll("2026-03-09-tAAAA-compliance", "Adopt the new compliance suite", "compliance"))

	r := idx.Resolve("banana bread recipes")
	if r.Kind != ResolutionNotFound {
		t.Errorf("Kind = %v, want not found (candidates %v)", r.Kind, r.Slugs())
	}
	if len(r.Candidates) != 0 {
		t.Errorf("NotFound carries candidates: %v", r.Slugs())
	}
}

func TestResolveExcludesDeleted(t *testing.T) {
	idx := NewIndex(firstPick)
	deleted := makePoll("2026-03-09-tAAAA-compliance", "Adopt the new compliance suite", "compliance")
	deleted.Deleted = true
	idx.Put(deleted)

	if r := idx.Resolve("compliance"); r.Kind != ResolutionNotFound {
		t.Errorf("deleted poll resolved: %v", r.Slugs())
	}
}

func TestResolveEmptySubject(t *testing.T) {
	idx := NewIndex(firstPick)
	idx.Put(makePoll("2026-03-09-tAAAA-compliance", "Adopt the new compliance suite", "compliance"))

	if r := idx.Resolve(""); r.Kind != ResolutionNotFound {
		t.Errorf("empty subject resolved: %v", r.Slugs())
	}
}

func TestResolveEmptyIndex(t *testing.T) {
	idx := NewIndex(firstPick)
	if r := idx.Resolve("anything"); r.Kind != ResolutionNotFound {
		t.Errorf("empty index resolved: %v", r.Slugs())
	}
}

// --- Ambiguity and Suggest ---

func TestResolveAmbiguousSubjects(t *testing.T) {
	idx := NewIndex(firstPick)
	a := makePoll("2026-03-09-tAAAA-q1", "Budget review for Q1 infrastructure", "")
	b := makePoll("2026-03-09-tBBBB-q2", "Budget review for Q2 infrastructure", "")
	b.StartTime = a.StartTime.Add(time.Hour)
	b.EndTime = b.StartTime.Add(14 * 24 * time.Hour)
	idx.Put(a)
	idx.Put(b)

	r := idx.Resolve("budget review infrastructure")
	if r.Kind != ResolutionAmbiguous {
		t.Fatalf("Kind = %v, want ambiguous (candidates %v)", r.Kind, r.Slugs())
	}
	if len(r.Candidates) != 2 {
		t.Fatalf("candidates = %v", r.Slugs())
	}
	// Equal scores: start time breaks the tie, deterministically.
	if r.Candidates[0].Poll.Slug != a.Slug {
		t.Errorf("candidate order: %v", r.Slugs())
	}
}

func TestSuggestUsesPick(t *testing.T) {
	lastPick := func(n int) int { return n - 1 }
	idx := NewIndex(lastPick)
	idx.Put(makePoll("2026-03-09-tAAAA-q1", "Budget review for Q1 infrastructure", ""))
	idx.Put(makePoll("2026-03-09-tBBBB-q2", "Budget review for Q2 infrastructure", ""))

	r := idx.Resolve("budget review infrastructure")
	if r.Kind != ResolutionAmbiguous {
		t.Fatalf("Kind = %v, want ambiguous", r.Kind)
	}
	suggested := idx.Suggest(r)
	if suggested == nil {
		t.Fatal("Suggest returned nil for an ambiguous resolution")
	}
	if suggested.Slug != r.Candidates[len(r.Candidates)-1].Poll.Slug {
		t.Errorf("Suggest ignored the injected pick: %s", suggested.Slug)
	}
}

func TestSuggestNonAmbiguous(t *testing.T) {
	idx := NewIndex(firstPick)
	idx.Put(makePoll("2026-03-09-tAAAA-compliance", "Adopt the new compliance suite", "compliance"))

	if got := idx.Suggest(idx.Resolve("compliance")); got != nil {
		t.Errorf("Suggest on a match returned %v", got)
	}
	if got := idx.Suggest(idx.Resolve("banana bread")); got != nil {
		t.Errorf("Suggest on not-found returned %v", got)
	}
}

func TestResolutionKindString(t *testing.T) {
	tests := []struct {
		kind ResolutionKind
		want string
	}{
		{ResolutionNotFound, "not found"},
		{ResolutionMatch, "match"},
		{ResolutionAmbiguous, "ambiguous"},
		{ResolutionKind(42), "unknown"},
	}
	for _, test := range tests {
		if got := test.kind.String(); got != test.want {
			t.Errorf("String(%d) = %q, want %q", int(test.kind), got, test.want)
		}
	}
}
