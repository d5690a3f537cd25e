// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package match

import (
	"slices"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Adopt the new compliance suite", []string{"adopt", "the", "new", "compliance", "suite"}},
		{"XEP-0474: SCE", []string{"xep", "0474", "sce"}},
		{"a b c", nil},
		{"", nil},
		{"  hyphen-ated  ", []string{"hyphen", "ated"}},
	}

	for _, test := range tests {
		got := Tokenize(test.in)
		if !slices.Equal(got, test.want) {
			t.Errorf("Tokenize(%q) = %v, want %v", test.in, got, test.want)
		}
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio("hash-recommendations", "hash-recommendations"); got != 1 {
		t.Errorf("identical strings: ratio = %v, want 1", got)
	}
	if got := Ratio("", ""); got != 1 {
		t.Errorf("empty strings: ratio = %v, want 1", got)
	}
	if got := Ratio("anything", ""); got != 0 {
		t.Errorf("against empty: ratio = %v, want 0", got)
	}

	// A single dropped letter stays close to 1.
	typo := Ratio("hash-recomendations", "hash-recommendations")
	if typo < 0.9 {
		t.Errorf("one-letter typo: ratio = %v, want >= 0.9", typo)
	}

	// A bare prefix is nowhere near a strict threshold.
	prefix := Ratio("hash", "hash-recommendations")
	if prefix > 0.5 {
		t.Errorf("short prefix: ratio = %v, want well below strict range", prefix)
	}
}

func TestSubjectScoreContainment(t *testing.T) {
	topic := "Adopt the new compliance suite for 2026"

	// Every query token appears in the topic: full score regardless
	// of everything the topic says beyond the query.
	if got := SubjectScore("compliance suite", topic); got != 1 {
		t.Errorf("fully contained query: score = %v, want 1", got)
	}

	// Word order does not matter for containment.
	if got := SubjectScore("suite compliance adopt", topic); got != 1 {
		t.Errorf("reordered contained query: score = %v, want 1", got)
	}
}

func TestSubjectScorePartial(t *testing.T) {
	topic := "Adopt the new compliance suite for 2026"

	// Two of three tokens contained, third close: comfortably above a
	// permissive threshold.
	partial := SubjectScore("adopt compliance suit", topic)
	if partial < 0.6 {
		t.Errorf("partial match: score = %v, want >= 0.6", partial)
	}

	unrelated := SubjectScore("banana bread recipes", topic)
	if unrelated >= 0.4 {
		t.Errorf("unrelated query: score = %v, want < 0.4", unrelated)
	}

	if partial <= unrelated {
		t.Errorf("partial (%v) should outscore unrelated (%v)", partial, unrelated)
	}
}

func TestSubjectScoreBounds(t *testing.T) {
	pairs := [][2]string{
		{"", ""},
		{"", "topic"},
		{"query", ""},
		{"??", "!!"},
		{"identical words here", "identical words here"},
		{"completely different", "nothing shared at all"},
	}

	for _, pair := range pairs {
		got := SubjectScore(pair[0], pair[1])
		if got < 0 || got > 1 {
			t.Errorf("SubjectScore(%q, %q) = %v, out of [0, 1]", pair[0], pair[1], got)
		}
	}
}
