// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollui

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
)

func filterPolls() []Poll {
	return []Poll{
		{
			Slug:    "2026-03-09-tmfrggmjq-adopt-xep-0474",
			Topic:   "Adopt XEP-0474 as the SCRAM downgrade protection",
			Tag:     "xep-0474",
			State:   "open",
			Actor:   "alice@example.org",
			EndTime: time.Date(2026, 3, 16, 18, 0, 0, 0, time.UTC),
		},
		{
			Slug:    "2026-03-11-t5kwppbha-budget-2026",
			Topic:   "Accept the 2026 budget amendment",
			State:   "open",
			Actor:   "carol@example.org",
			EndTime: time.Date(2026, 3, 18, 9, 0, 0, 0, time.UTC),
		},
		{
			Slug:    "2026-01-12-tb4dmcnwe-retire-xep-0071",
			Topic:   "Retire XEP-0071 from the compliance suite",
			State:   "expired",
			Actor:   "dave@example.org",
			EndTime: time.Date(2026, 1, 19, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestFuzzyMatchBasic(t *testing.T) {
	result := fuzzyMatch("Adopt XEP-0474 as the SCRAM downgrade protection", []rune("scram"), nil)
	if result.Score <= 0 {
		t.Fatal("expected positive score for substring match")
	}
	if len(result.Positions) == 0 {
		t.Fatal("expected non-empty match positions")
	}
}

func TestFuzzyMatchNonContiguous(t *testing.T) {
	// "dgp" should match "downgrade protection": d from downgrade,
	// g from downgrade, p from protection.
	result := fuzzyMatch("downgrade protection", []rune("dgp"), nil)
	if result.Score <= 0 {
		t.Fatal("expected positive score for non-contiguous fuzzy match")
	}
}

func TestFuzzyMatchNoMatch(t *testing.T) {
	result := fuzzyMatch("Adopt XEP-0474 as the SCRAM downgrade protection", []rune("zzz"), nil)
	if result.Score != 0 {
		t.Errorf("expected zero score for no match, got %d", result.Score)
	}
	if len(result.Positions) != 0 {
		t.Errorf("expected empty positions for no match, got %v", result.Positions)
	}
}

func TestFuzzyMatchCaseInsensitive(t *testing.T) {
	// Pattern is lowercase, text has the all-caps "SCRAM".
	result := fuzzyMatch("the SCRAM downgrade", []rune("scram"), nil)
	if result.Score <= 0 {
		t.Fatalf("expected case-insensitive match, got score=%d", result.Score)
	}
}

func TestFuzzyMatchEmptyPattern(t *testing.T) {
	result := fuzzyMatch("anything", []rune{}, nil)
	if result.Score != 0 {
		t.Errorf("expected zero score for empty pattern, got %d", result.Score)
	}
}

func TestApplyFuzzyEmptyFilter(t *testing.T) {
	polls := filterPolls()

	filter := FilterModel{Input: ""}
	results := filter.ApplyFuzzy(polls)

	if len(results) != len(polls) {
		t.Fatalf("empty filter should return all %d polls, got %d", len(polls), len(results))
	}
	for index, result := range results {
		if result.Poll.Slug != polls[index].Slug {
			t.Errorf("empty filter should keep input order, position %d is %s", index, result.Poll.Slug)
		}
		if result.Score != 0 {
			t.Errorf("poll %s should have zero score with empty filter, got %d", result.Poll.Slug, result.Score)
		}
		if len(result.TopicPositions) != 0 {
			t.Errorf("poll %s should have no topic positions with empty filter", result.Poll.Slug)
		}
	}
}

func TestApplyFuzzyMatches(t *testing.T) {
	filter := FilterModel{Input: "xep"}
	results := filter.ApplyFuzzy(filterPolls())

	if len(results) != 2 {
		t.Fatalf("expected 2 polls matching 'xep', got %d", len(results))
	}
	for _, result := range results {
		if result.Score <= 0 {
			t.Errorf("poll %s matched with non-positive score %d", result.Poll.Slug, result.Score)
		}
	}
}

func TestApplyFuzzyMatchesOpener(t *testing.T) {
	// "carol" appears only in the budget poll's opener. The topic has
	// no match, so no topic positions should be recorded.
	filter := FilterModel{Input: "carol"}
	results := filter.ApplyFuzzy(filterPolls())

	if len(results) != 1 {
		t.Fatalf("expected 1 poll matching 'carol', got %d", len(results))
	}
	if results[0].Poll.Slug != "2026-03-11-t5kwppbha-budget-2026" {
		t.Errorf("unexpected match: %s", results[0].Poll.Slug)
	}
	if len(results[0].TopicPositions) != 0 {
		t.Errorf("opener match should not set topic positions, got %v", results[0].TopicPositions)
	}
}

func TestApplyFuzzySortedByScore(t *testing.T) {
	polls := []Poll{
		{
			Slug:  "2026-03-20-tscatter-ops",
			Topic: "bring up data, give early test coverage",
			State: "open",
			Actor: "dave@example.org",
		},
		{
			Slug:  "2026-03-11-t5kwppbha-budget-2026",
			Topic: "Accept the 2026 budget amendment",
			State: "open",
			Actor: "carol@example.org",
		},
	}

	// Both topics contain "budget" as a subsequence, but only the
	// second has it contiguous; that one must score higher.
	filter := FilterModel{Input: "budget"}
	results := filter.ApplyFuzzy(polls)

	if len(results) < 1 {
		t.Fatal("expected at least one result")
	}
	if results[0].Poll.Slug != "2026-03-11-t5kwppbha-budget-2026" {
		t.Errorf("expected the contiguous match first, got %s", results[0].Poll.Slug)
	}
}

func TestApplyFuzzyTopicPositions(t *testing.T) {
	polls := []Poll{{
		Slug:  "2026-02-02-tr8yfmqpj-meeting-time",
		Topic: "Move the weekly meeting time",
		State: "open",
		Actor: "erin@example.org",
	}}

	filter := FilterModel{Input: "meeting"}
	results := filter.ApplyFuzzy(polls)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	positions := results[0].TopicPositions
	if len(positions) == 0 {
		t.Fatal("expected topic match positions")
	}
	topicRunes := []rune(polls[0].Topic)
	for _, position := range positions {
		if position < 0 || position >= len(topicRunes) {
			t.Errorf("position %d out of bounds for topic %q", position, polls[0].Topic)
		}
	}
}

func TestFilterHandleBackspace(t *testing.T) {
	filter := FilterModel{Input: "xep"}

	if !filter.HandleBackspace() {
		t.Error("backspace on non-empty input should report a change")
	}
	if filter.Input != "xe" {
		t.Errorf("input after backspace = %q, want %q", filter.Input, "xe")
	}

	filter.Input = ""
	if filter.HandleBackspace() {
		t.Error("backspace on empty input should report no change")
	}
}

func TestFilterClear(t *testing.T) {
	filter := FilterModel{Input: "xep", Active: true}
	filter.Clear()

	if filter.Input != "" {
		t.Errorf("input after clear = %q, want empty", filter.Input)
	}
	if filter.Active {
		t.Error("filter should be inactive after clear")
	}
}

func TestFilterView(t *testing.T) {
	theme := DefaultTheme

	filter := FilterModel{Input: "xep", Active: true}
	active := filter.View(theme, 80)
	if !strings.Contains(ansi.Strip(active), "/ xep") {
		t.Errorf("active filter view should show the query, got %q", active)
	}

	filter.Active = false
	inactive := filter.View(theme, 80)
	if !strings.Contains(ansi.Strip(inactive), "filter: xep") {
		t.Errorf("inactive filter view should show the indicator, got %q", inactive)
	}

	filter.Input = ""
	if view := filter.View(theme, 80); view != "" {
		t.Errorf("empty inactive filter should render nothing, got %q", view)
	}
}
