// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column widths for the list table. The topic column fills remaining
// space; all others are fixed.
const (
	// columnWidthDate holds the poll end date ("2006-01-02").
	columnWidthDate = 10

	// leftWidth is the width of the portion before the topic:
	// 1 (indent) + 1 (state glyph) + 1 (space) + 10 (date) + 2 (gap).
	leftWidth = 15
)

// stateGlyph returns the single-character state indicator for a poll
// row. Deleted polls override the state with a cross.
func stateGlyph(p Poll) string {
	if p.Deleted {
		return "✗"
	}
	switch p.State {
	case "open":
		return "●"
	case "concluded":
		return "✓"
	case "expired":
		return "○"
	default:
		return " "
	}
}

// ListRenderer handles the table-style rendering of poll rows within
// a given width.
type ListRenderer struct {
	theme Theme
	width int
}

// NewListRenderer creates a ListRenderer for the given width.
func NewListRenderer(theme Theme, width int) ListRenderer {
	return ListRenderer{theme: theme, width: width}
}

// RenderRow renders a single poll as a formatted table row. The
// selected flag controls whether the row gets highlight styling.
// matchPositions contains rune indices in the topic whose characters
// matched the active filter; they render with the search highlight.
//
// Row layout: indent + glyph + date + topic [tag]
//
//	● 2026-03-16  Adopt XEP-0474 as the SCRAM downgrade protection [xep-0474]
//	✓ 2026-03-02  Accept the 2026 budget amendment
func (renderer ListRenderer) RenderRow(p Poll, selected bool, matchPositions []int) string {
	topicWidth := renderer.width - leftWidth
	if topicWidth < 10 {
		topicWidth = 10
	}

	topicText := p.Topic
	tagText := ""
	if p.Tag != "" {
		tagText = " [" + p.Tag + "]"
	}

	// Truncate topic+tag to fit, preferring to show the topic over
	// the tag.
	combined := topicText + tagText
	if lipgloss.Width(combined) > topicWidth {
		if lipgloss.Width(topicText) >= topicWidth-1 {
			combined = truncateString(topicText, topicWidth-1) + "…"
		} else {
			combined = topicText + truncateString(tagText, topicWidth-lipgloss.Width(topicText)-1) + "…"
		}
	}

	if selected {
		return renderer.renderSelectedRow(p, combined, matchPositions)
	}
	return renderer.renderNormalRow(p, combined, matchPositions)
}

// renderNormalRow renders a row with per-component foreground colors
// on the default terminal background. Deleted polls dim uniformly.
func (renderer ListRenderer) renderNormalRow(p Poll, topicTag string, matchPositions []int) string {
	stateColor := renderer.theme.StateColor(p.State)
	topicColor := renderer.theme.NormalText
	if p.Deleted {
		stateColor = renderer.theme.FaintText
		topicColor = renderer.theme.FaintText
	}

	glyphStyle := lipgloss.NewStyle().Foreground(stateColor)
	dateStyle := lipgloss.NewStyle().
		Width(columnWidthDate).
		Foreground(stateColor)
	topicStyle := lipgloss.NewStyle().Foreground(topicColor)

	var topicRendered string
	if len(matchPositions) > 0 {
		highlightStyle := lipgloss.NewStyle().
			Foreground(topicColor).
			Background(renderer.theme.SearchHighlightBackground)
		topicRendered = highlightTopic(topicTag, p.Topic, matchPositions, topicStyle, highlightStyle)
	} else {
		topicRendered = topicStyle.Render(topicTag)
	}

	row := " " +
		glyphStyle.Render(stateGlyph(p)) +
		" " +
		dateStyle.Render(p.EndTime.Format("2006-01-02")) +
		"  " +
		topicRendered

	return lipgloss.NewStyle().Width(renderer.width).MaxWidth(renderer.width).Render(row)
}

// renderSelectedRow renders the selected row with a highlight
// background. All text uses the selected foreground color. Filter
// matches use bold+underline so they stay visible on the selection
// background.
func (renderer ListRenderer) renderSelectedRow(p Poll, topicTag string, matchPositions []int) string {
	baseStyle := lipgloss.NewStyle().
		Background(renderer.theme.SelectedBackground).
		Foreground(renderer.theme.SelectedForeground)

	var topicRendered string
	if len(matchPositions) > 0 {
		highlightStyle := baseStyle.Bold(true).Underline(true)
		topicRendered = highlightTopic(topicTag, p.Topic, matchPositions, baseStyle, highlightStyle)
	} else {
		topicRendered = baseStyle.Render(topicTag)
	}

	row := " " +
		baseStyle.Bold(true).Render(stateGlyph(p)) +
		" " +
		baseStyle.Width(columnWidthDate).Render(p.EndTime.Format("2006-01-02")) +
		"  " +
		topicRendered

	return baseStyle.Width(renderer.width).MaxWidth(renderer.width).Render(row)
}

// highlightTopic renders a topic+tag string with character-level
// highlighting at the given rune positions. Positions index into the
// original topic text (before the tag suffix was appended), so the
// tag suffix is never highlighted. Consecutive runs of same-style
// characters are batched into a single Render call to keep ANSI
// output compact.
func highlightTopic(topicTag string, originalTopic string, positions []int, baseStyle, highlightStyle lipgloss.Style) string {
	if len(positions) == 0 {
		return baseStyle.Render(topicTag)
	}

	positionSet := make(map[int]bool, len(positions))
	for _, position := range positions {
		positionSet[position] = true
	}

	topicLength := len([]rune(originalTopic))
	topicTagRunes := []rune(topicTag)

	var result strings.Builder
	runStart := 0
	isHighlighted := runStart < topicLength && positionSet[0]

	for index := 1; index <= len(topicTagRunes); index++ {
		currentHighlighted := index < topicLength && positionSet[index]
		if currentHighlighted != isHighlighted || index == len(topicTagRunes) {
			chunk := string(topicTagRunes[runStart:index])
			if isHighlighted {
				result.WriteString(highlightStyle.Render(chunk))
			} else {
				result.WriteString(baseStyle.Render(chunk))
			}
			runStart = index
			isHighlighted = currentHighlighted
		}
	}

	return result.String()
}

// truncateString truncates a string to maxWidth visual characters.
// Handles multi-byte characters correctly via lipgloss width
// measurement.
func truncateString(text string, maxWidth int) string {
	if lipgloss.Width(text) <= maxWidth {
		return text
	}
	runes := []rune(text)
	for length := len(runes) - 1; length >= 0; length-- {
		candidate := string(runes[:length])
		if lipgloss.Width(candidate) <= maxWidth {
			return candidate
		}
	}
	return ""
}
