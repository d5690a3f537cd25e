// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollui

import (
	"slices"

	"github.com/charmbracelet/lipgloss"
	"github.com/junegunn/fzf/src/util"
)

// FilterModel narrows the poll list by fzf-style fuzzy matching
// across topic, slug, tag, and opener. The filter composes with tabs:
// the tab chooses the base set (Open/Settled/All), and the filter
// narrows and reorders it without touching the underlying data.
type FilterModel struct {
	// Input is the current filter query text.
	Input string

	// Active is true when the filter input has keyboard focus
	// (the user pressed / to start typing).
	Active bool
}

// ScoredPoll is one fuzzy filter result: the poll, its best match
// score across the searchable fields, and the matched rune positions
// in the topic when the topic itself matched.
type ScoredPoll struct {
	Poll           Poll
	Score          int
	TopicPositions []int
}

// ApplyFuzzy scores every poll against the current filter text and
// returns the matches sorted best-first. An empty filter returns all
// polls, unscored, in their input order. A poll matches when any
// searchable field matches; the best field score wins, and topic
// match positions are kept for highlighting.
func (filter *FilterModel) ApplyFuzzy(polls []Poll) []ScoredPoll {
	if filter.Input == "" {
		results := make([]ScoredPoll, len(polls))
		for index, p := range polls {
			results[index] = ScoredPoll{Poll: p}
		}
		return results
	}

	pattern := []rune(filter.Input)
	slab := util.MakeSlab(slabSize16, slabSize32)

	var results []ScoredPoll
	for _, p := range polls {
		topicResult := fuzzyMatch(p.Topic, pattern, slab)

		best := topicResult.Score
		for _, field := range []string{p.Slug, p.Tag, p.Actor} {
			if field == "" {
				continue
			}
			if fieldResult := fuzzyMatch(field, pattern, slab); fieldResult.Score > best {
				best = fieldResult.Score
			}
		}
		if best <= 0 {
			continue
		}

		results = append(results, ScoredPoll{
			Poll:           p,
			Score:          best,
			TopicPositions: topicResult.Positions,
		})
	}

	slices.SortStableFunc(results, func(a, b ScoredPoll) int {
		return b.Score - a.Score
	})
	return results
}

// HandleRune processes a character typed while the filter is active.
// Returns true if the input changed.
func (filter *FilterModel) HandleRune(character rune) bool {
	filter.Input += string(character)
	return true
}

// HandleBackspace removes the last character from the filter input.
// Returns true if the input changed.
func (filter *FilterModel) HandleBackspace() bool {
	if len(filter.Input) == 0 {
		return false
	}
	runes := []rune(filter.Input)
	filter.Input = string(runes[:len(runes)-1])
	return true
}

// Clear resets the filter input and deactivates it.
func (filter *FilterModel) Clear() {
	filter.Input = ""
	filter.Active = false
}

// View renders the filter bar. When active, shows the input with a
// cursor. When inactive with text, shows the filter text dimmed.
// When inactive with no text, returns empty string (hidden).
func (filter *FilterModel) View(theme Theme, width int) string {
	if !filter.Active && filter.Input == "" {
		return ""
	}

	style := lipgloss.NewStyle().
		Foreground(theme.NormalText).
		Width(width)

	if filter.Active {
		cursor := lipgloss.NewStyle().
			Foreground(theme.HeaderForeground).
			Bold(true).
			Render("▎")
		return style.Render(" / " + filter.Input + cursor)
	}

	dimStyle := lipgloss.NewStyle().
		Foreground(theme.FaintText).
		Width(width)
	return dimStyle.Render(" filter: " + filter.Input)
}
