// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// detailHeaderLines is the fixed number of lines consumed by the
// detail pane header. Constant so the scrollable body never shifts
// vertically when switching polls.
//
// Layout:
//
//	Line 1: STATE  result  [tag]
//	Line 2: start → end · opened by actor (condensed, dim)
//	Line 3: topic line 1
//	Line 4: topic line 2 (or blank)
//	Line 5: separator
const detailHeaderLines = 5

// headerTimeLayout renders poll boundaries in the detail header. All
// poll times are UTC.
const headerTimeLayout = "2006-01-02 15:04"

// DetailRenderer produces the header and body text for a single poll
// at a given content width.
type DetailRenderer struct {
	theme Theme
	width int
}

// NewDetailRenderer creates a DetailRenderer for the given width.
func NewDetailRenderer(theme Theme, width int) DetailRenderer {
	return DetailRenderer{theme: theme, width: width}
}

// RenderHeader renders the fixed detail header, always exactly
// [detailHeaderLines] lines tall regardless of content.
func (renderer DetailRenderer) RenderHeader(p Poll) string {
	metaLine := renderer.renderMetaLine(p)
	timeLine := renderer.renderTimeLine(p)
	titleOne, titleTwo := renderer.renderTitleLines(p.Topic)

	separator := lipgloss.NewStyle().
		Foreground(renderer.theme.BorderColor).
		Render(strings.Repeat("─", renderer.width))

	return metaLine + "\n" + timeLine + "\n" + titleOne + "\n" + titleTwo + "\n" + separator
}

// renderMetaLine renders the state badge, result, tag, and deleted
// marker.
func (renderer DetailRenderer) renderMetaLine(p Poll) string {
	var parts []string

	stateStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(renderer.theme.StateColor(p.State))
	parts = append(parts, stateStyle.Render(strings.ToUpper(p.State)))

	if p.Result != "" {
		resultStyle := lipgloss.NewStyle().
			Foreground(renderer.theme.ResultColor(p.Result))
		label := p.Result
		if p.State == "open" {
			// An open poll's result is provisional until the period
			// ends.
			label = "→ " + label
		}
		parts = append(parts, resultStyle.Render(label))
	}

	if p.Tag != "" {
		tagStyle := lipgloss.NewStyle().Foreground(renderer.theme.FaintText)
		parts = append(parts, tagStyle.Render("["+p.Tag+"]"))
	}

	if p.Deleted {
		deletedStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(renderer.theme.VoteVeto)
		parts = append(parts, deletedStyle.Render("deleted"))
	}

	return truncateStyled(strings.Join(parts, "  "), renderer.width)
}

// renderTimeLine renders the voting period and opener, dimmed.
func (renderer DetailRenderer) renderTimeLine(p Poll) string {
	line := p.StartTime.UTC().Format(headerTimeLayout) +
		" → " + p.EndTime.UTC().Format(headerTimeLayout)
	if p.Actor != "" {
		line += " · opened by " + p.Actor
	}

	style := lipgloss.NewStyle().Foreground(renderer.theme.FaintText)
	return style.Render(truncateString(line, renderer.width))
}

// renderTitleLines renders the topic as up to two bold lines, broken
// at a word boundary. Overflow past the second line truncates with an
// ellipsis.
func (renderer DetailRenderer) renderTitleLines(topic string) (string, string) {
	style := lipgloss.NewStyle().
		Bold(true).
		Foreground(renderer.theme.HeaderForeground)

	runes := []rune(topic)
	if lipgloss.Width(topic) <= renderer.width {
		return style.Render(topic), ""
	}

	breakAt := findLineBreak(runes, renderer.width)
	first := strings.TrimRight(string(runes[:breakAt]), " ")
	rest := strings.TrimLeft(string(runes[breakAt:]), " ")
	if lipgloss.Width(rest) > renderer.width {
		rest = truncateString(rest, renderer.width-1) + "…"
	}
	return style.Render(first), style.Render(rest)
}

// findLineBreak returns the rune index to break a line at: the last
// space within maxWidth, or maxWidth itself when the text has no
// space to break on.
func findLineBreak(runes []rune, maxWidth int) int {
	if len(runes) <= maxWidth {
		return len(runes)
	}
	for index := maxWidth; index > 0; index-- {
		if runes[index] == ' ' {
			return index
		}
	}
	return maxWidth
}

// RenderBody renders the scrollable body: slug, reference URLs, the
// description as markdown, the ballot table, and the tally line.
func (renderer DetailRenderer) RenderBody(p Poll) string {
	var sections []string

	slugStyle := lipgloss.NewStyle().Foreground(renderer.theme.FaintText)
	sections = append(sections, slugStyle.Render(p.Slug))

	if p.ConcludedReason != "" {
		reasonStyle := lipgloss.NewStyle().Foreground(renderer.theme.StateExpired)
		sections = append(sections, reasonStyle.Render("Concluded early: "+p.ConcludedReason))
	}

	if len(p.URLs) > 0 {
		sections = append(sections, renderer.renderURLs(p.URLs))
	}

	if p.Description != "" {
		rendered := renderMarkdown(p.Description, renderer.theme, renderer.width)
		sections = append(sections, renderer.renderSection("Description", rendered))
	}

	sections = append(sections, renderer.renderSection("Ballots", renderer.renderVotes(p.Votes)))

	if p.TallyLine != "" {
		tallyStyle := lipgloss.NewStyle().Foreground(renderer.theme.FaintText)
		sections = append(sections, tallyStyle.Render(p.TallyLine))
	}

	return strings.Join(sections, "\n\n")
}

// renderSection renders a bold section title above its body.
func (renderer DetailRenderer) renderSection(title, body string) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(renderer.theme.HeaderForeground)
	return titleStyle.Render(title) + "\n" + body
}

// renderURLs renders the reference links, one per line.
func (renderer DetailRenderer) renderURLs(urls []string) string {
	linkStyle := lipgloss.NewStyle().Foreground(renderer.theme.LinkForeground)
	lines := make([]string, len(urls))
	for index, url := range urls {
		lines[index] = linkStyle.Render(truncateString(url, renderer.width))
	}
	return strings.Join(lines, "\n")
}

// renderVotes renders the ballot table sorted by member, one row per
// voter: the colored vote value, the member, and the remark.
func (renderer DetailRenderer) renderVotes(votes []VoteRow) string {
	if len(votes) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(renderer.theme.FaintText)
		return emptyStyle.Render("No votes cast yet.")
	}

	rows := slices.Clone(votes)
	slices.SortFunc(rows, func(a, b VoteRow) int {
		return strings.Compare(a.Member, b.Member)
	})

	memberWidth := 0
	for _, row := range rows {
		if width := lipgloss.Width(row.Member); width > memberWidth {
			memberWidth = width
		}
	}

	memberStyle := lipgloss.NewStyle().Foreground(renderer.theme.NormalText)
	remarkStyle := lipgloss.NewStyle().Foreground(renderer.theme.FaintText)

	var lines []string
	for _, row := range rows {
		valueStyle := lipgloss.NewStyle().
			Bold(row.Value == "-1").
			Foreground(renderer.theme.VoteColor(row.Value))

		line := valueStyle.Render(row.Value) +
			"  " +
			memberStyle.Render(row.Member) +
			strings.Repeat(" ", memberWidth-lipgloss.Width(row.Member))
		if row.Remark != "" {
			remarkWidth := renderer.width - 4 - memberWidth - 2
			if remarkWidth < 10 {
				remarkWidth = 10
			}
			line += "  " + remarkStyle.Render(truncateString(row.Remark, remarkWidth))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// truncateStyled constrains a styled string to a width without
// re-measuring its escape sequences.
func truncateStyled(text string, maxWidth int) string {
	return lipgloss.NewStyle().MaxWidth(maxWidth).Render(text)
}

// DetailPane wraps a bubbles viewport for scrollable poll detail. The
// pane has a fixed header ([detailHeaderLines] tall) rendered above
// the viewport and a scrollable body below.
type DetailPane struct {
	viewport viewport.Model
	theme    Theme
	width    int
	height   int

	// Retained for re-rendering on resize, so markdown word wrap
	// adapts to splitter changes.
	hasPoll bool
	poll    Poll

	// Pre-rendered header string, set by SetContent and rerender.
	header string
}

// NewDetailPane creates an empty detail pane.
func NewDetailPane(theme Theme) DetailPane {
	return DetailPane{theme: theme}
}

// bodyHeight returns the lines available for the scrollable body.
func (pane DetailPane) bodyHeight() int {
	result := pane.height - detailHeaderLines
	if result < 1 {
		result = 1
	}
	return result
}

// contentWidth returns the usable width for text content (total width
// minus the left padding column and right scrollbar column).
func (pane DetailPane) contentWidth() int {
	return pane.width - 2
}

// SetSize updates the pane dimensions. If the width changed and a
// poll is displayed, the content re-renders at the new width so the
// markdown wrapping stays correct.
func (pane *DetailPane) SetSize(width, height int) {
	previousWidth := pane.width
	pane.width = width
	pane.height = height
	pane.viewport.Width = pane.contentWidth()
	pane.viewport.Height = pane.bodyHeight()

	if pane.hasPoll && width != previousWidth {
		pane.rerender()
	}
}

// SetContent renders the given poll into the pane and scrolls to the
// top.
func (pane *DetailPane) SetContent(p Poll) {
	pane.hasPoll = true
	pane.poll = p

	contentWidth := pane.contentWidth()
	renderer := NewDetailRenderer(pane.theme, contentWidth)
	pane.header = renderer.RenderHeader(p)

	body := renderer.RenderBody(p)
	// Constrain long lines (URLs, tally) to the viewport width.
	body = lipgloss.NewStyle().Width(contentWidth).Render(body)
	pane.viewport.SetContent(body)
	pane.viewport.GotoTop()
}

// Clear removes the pane content.
func (pane *DetailPane) Clear() {
	pane.hasPoll = false
	pane.poll = Poll{}
	pane.header = ""
	pane.viewport.SetContent("")
}

// rerender regenerates the content at the current width, preserving
// the scroll position as closely as possible.
func (pane *DetailPane) rerender() {
	previousOffset := pane.viewport.YOffset

	contentWidth := pane.contentWidth()
	renderer := NewDetailRenderer(pane.theme, contentWidth)
	pane.header = renderer.RenderHeader(pane.poll)

	body := renderer.RenderBody(pane.poll)
	body = lipgloss.NewStyle().Width(contentWidth).Render(body)
	pane.viewport.SetContent(body)

	maxOffset := pane.viewport.TotalLineCount() - pane.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if previousOffset > maxOffset {
		previousOffset = maxOffset
	}
	pane.viewport.SetYOffset(previousOffset)
}

// ScrollUp scrolls the detail pane up by half a page.
func (pane *DetailPane) ScrollUp() {
	pane.viewport.HalfViewUp()
}

// ScrollDown scrolls the detail pane down by half a page.
func (pane *DetailPane) ScrollDown() {
	pane.viewport.HalfViewDown()
}

// View renders the detail pane as a docked panel: fixed header,
// scrollable body, left padding, and a right scrollbar that covers
// only the body rows it scrolls.
func (pane DetailPane) View(focused bool) string {
	contentWidth := pane.contentWidth()

	if !pane.hasPoll {
		emptyStyle := lipgloss.NewStyle().
			Foreground(pane.theme.FaintText)

		contentStyle := lipgloss.NewStyle().
			PaddingLeft(1).
			Width(pane.width - 1).
			Height(pane.height)

		content := contentStyle.Render(
			lipgloss.Place(
				contentWidth, pane.height,
				lipgloss.Center, lipgloss.Center,
				emptyStyle.Render("Select a poll to view details"),
			),
		)

		scrollbar := renderScrollbar(
			pane.theme, pane.height,
			0, pane.height, 0,
			focused,
		)
		return lipgloss.JoinHorizontal(lipgloss.Top, content, scrollbar)
	}

	paddingStyle := lipgloss.NewStyle().
		PaddingLeft(1).
		Width(pane.width - 1)

	headerView := paddingStyle.Height(detailHeaderLines).Render(pane.header)
	bodyView := paddingStyle.Height(pane.bodyHeight()).Render(pane.viewport.View())
	content := headerView + "\n" + bodyView

	headerColumn := lipgloss.NewStyle().
		Width(1).
		Height(detailHeaderLines).
		Render("")
	bodyScrollbar := renderScrollbar(
		pane.theme, pane.bodyHeight(),
		pane.viewport.TotalLineCount(), pane.viewport.Height, pane.viewport.YOffset,
		focused,
	)
	scrollColumn := headerColumn + "\n" + bodyScrollbar

	return lipgloss.JoinHorizontal(lipgloss.Top, content, scrollColumn)
}
