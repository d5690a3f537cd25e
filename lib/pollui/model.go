// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab identifies which poll subset is listed.
type Tab int

const (
	// TabOpen shows polls whose voting period is running.
	TabOpen Tab = iota
	// TabSettled shows concluded and expired polls.
	TabSettled
	// TabAll shows every poll, including deleted ones.
	TabAll
)

// tabDefs drives the header tab bar, in display order.
var tabDefs = []struct {
	tab   Tab
	label string
}{
	{TabOpen, "1:Open"},
	{TabSettled, "2:Settled"},
	{TabAll, "3:All"},
}

// FocusRegion identifies which pane has keyboard focus.
type FocusRegion int

const (
	// FocusList means navigation keys move the list cursor.
	FocusList FocusRegion = iota
	// FocusDetail means navigation keys scroll the detail viewport.
	FocusDetail
	// FocusFilter means keystrokes go to the filter input.
	FocusFilter
)

// Split ratio bounds and step size.
const (
	splitRatioMin  = 0.20
	splitRatioMax  = 0.80
	splitRatioStep = 0.05
)

// Model is the top-level bubbletea model for the poll browser.
type Model struct {
	// polls is the full display-sorted data set; entries is the
	// subset for the active tab after filtering.
	polls   []Poll
	entries []Poll

	theme Theme
	keys  KeyMap

	// Terminal dimensions (set by WindowSizeMsg).
	width  int
	height int
	ready  bool

	activeTab Tab
	filter    FilterModel

	// filterHighlights maps poll slugs to the topic rune positions
	// matched by the active filter. Nil when no filter text is set.
	filterHighlights map[string][]int

	// List state. selectedSlug tracks the selection across tab and
	// filter changes so the cursor follows the poll, not the row.
	cursor       int
	scrollOffset int
	selectedSlug string

	// Two-pane layout.
	focusRegion FocusRegion
	priorFocus  FocusRegion // Saved focus when entering filter mode.
	splitRatio  float64     // Fraction of width for the list pane.
	detailPane  DetailPane
}

// NewModel creates a Model over the given polls. The Open tab loads
// first, with the poll closest to its deadline selected.
func NewModel(polls []Poll) Model {
	sorted := slices.Clone(polls)
	sortForDisplay(sorted)

	model := Model{
		polls:      sorted,
		theme:      DefaultTheme,
		keys:       DefaultKeyMap,
		activeTab:  TabOpen,
		splitRatio: 0.50,
		detailPane: NewDetailPane(DefaultTheme),
	}

	model.rebuildEntries()
	if len(model.entries) > 0 {
		model.selectedSlug = model.entries[0].Slug
	}

	return model
}

// Init implements tea.Model. The browser has no background work.
func (model Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model. Routes keyboard events based on the
// current focus region and handles layout changes.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		// When the filter is active, route all input to it first.
		if model.focusRegion == FocusFilter {
			return model.handleFilterKeys(message)
		}

		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit

		case key.Matches(message, model.keys.FocusToggle):
			if model.focusRegion == FocusList {
				model.focusRegion = FocusDetail
			} else {
				model.focusRegion = FocusList
			}

		case key.Matches(message, model.keys.SplitGrow):
			model.splitRatio += splitRatioStep
			if model.splitRatio > splitRatioMax {
				model.splitRatio = splitRatioMax
			}
			model.updatePaneSizes()

		case key.Matches(message, model.keys.SplitShrink):
			model.splitRatio -= splitRatioStep
			if model.splitRatio < splitRatioMin {
				model.splitRatio = splitRatioMin
			}
			model.updatePaneSizes()

		case key.Matches(message, model.keys.TabOpen):
			model.switchTab(TabOpen)

		case key.Matches(message, model.keys.TabSettled):
			model.switchTab(TabSettled)

		case key.Matches(message, model.keys.TabAll):
			model.switchTab(TabAll)

		case key.Matches(message, model.keys.FilterActivate):
			model.priorFocus = model.focusRegion
			model.focusRegion = FocusFilter
			model.filter.Active = true
			// Start at the top so results appear from the beginning
			// as the user types.
			model.cursor = 0
			model.scrollOffset = 0
			model.updatePaneSizes()

		case key.Matches(message, model.keys.FilterClear):
			if model.filter.Input != "" {
				model.filter.Clear()
				model.rebuildEntries()
				model.syncDetailPane()
			}

		default:
			if model.focusRegion == FocusList {
				model.handleListKeys(message)
			} else {
				model.handleDetailKeys(message)
			}
		}

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.updatePaneSizes()
		model.syncDetailPane()
	}
	return model, nil
}

// handleFilterKeys processes keystrokes while the filter input has
// focus. Regular characters go to the input, Esc clears or exits,
// Enter confirms and returns focus to the list.
func (model Model) handleFilterKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		// ctrl+c always quits, even in filter mode.
		if message.Type == tea.KeyCtrlC {
			return model, tea.Quit
		}
		// 'q' is a regular character in filter mode.
		model.filter.HandleRune('q')
		model.applyFilter()
		return model, nil

	case key.Matches(message, model.keys.FilterClear):
		// Esc: clear typed text first; a second Esc exits the filter.
		if model.filter.Input != "" {
			model.filter.Clear()
			model.updatePaneSizes()
			model.rebuildEntries()
			model.syncDetailPane()
		} else {
			model.filter.Active = false
			model.updatePaneSizes()
			model.focusRegion = model.priorFocus
		}
		return model, nil

	case message.Type == tea.KeyEnter:
		// Confirm the filter and return focus to the list.
		model.filter.Active = false
		model.focusRegion = FocusList
		return model, nil

	case message.Type == tea.KeyBackspace:
		if model.filter.HandleBackspace() {
			model.applyFilter()
		}
		return model, nil

	case message.Type == tea.KeyRunes || message.Type == tea.KeySpace:
		for _, r := range message.Runes {
			model.filter.HandleRune(r)
		}
		model.applyFilter()
		return model, nil
	}

	return model, nil
}

// applyFilter re-derives the entry list for the current filter text.
// While the user is typing, the cursor snaps to the top so the
// highest-scored matches are visible immediately.
func (model *Model) applyFilter() {
	model.rebuildEntries()
	if model.filter.Input != "" {
		model.cursor = 0
		model.scrollOffset = 0
		if len(model.entries) > 0 {
			model.selectedSlug = model.entries[0].Slug
		}
	}
	model.syncDetailPane()
}

// switchTab changes the active tab, drops any filter, and rebuilds
// the entry list. The selection carries over when the poll exists on
// the new tab.
func (model *Model) switchTab(tab Tab) {
	if model.activeTab == tab {
		return
	}
	model.activeTab = tab
	model.filter.Clear()
	model.rebuildEntries()
	model.syncDetailPane()
}

// rebuildEntries derives the visible entries from the active tab and
// filter, then restores the selection. With filter text set the
// entries come back in match-score order with topic highlights.
func (model *Model) rebuildEntries() {
	var base []Poll
	for _, p := range model.polls {
		switch model.activeTab {
		case TabOpen:
			if p.State == "open" && !p.Deleted {
				base = append(base, p)
			}
		case TabSettled:
			if p.Settled() && !p.Deleted {
				base = append(base, p)
			}
		case TabAll:
			base = append(base, p)
		}
	}

	if model.filter.Input != "" {
		results := model.filter.ApplyFuzzy(base)
		model.entries = make([]Poll, len(results))
		model.filterHighlights = make(map[string][]int, len(results))
		for index, result := range results {
			model.entries[index] = result.Poll
			if len(result.TopicPositions) > 0 {
				model.filterHighlights[result.Poll.Slug] = result.TopicPositions
			}
		}
	} else {
		model.entries = base
		model.filterHighlights = nil
	}

	model.restoreSelection()
	model.ensureCursorVisible()
}

// restoreSelection moves the cursor to the previously selected poll
// if it is still listed, and clamps it otherwise.
func (model *Model) restoreSelection() {
	if model.selectedSlug != "" {
		for index, p := range model.entries {
			if p.Slug == model.selectedSlug {
				model.cursor = index
				return
			}
		}
	}
	if model.cursor >= len(model.entries) {
		model.cursor = len(model.entries) - 1
	}
	if model.cursor < 0 {
		model.cursor = 0
	}
	if model.cursor < len(model.entries) {
		model.selectedSlug = model.entries[model.cursor].Slug
	} else {
		model.selectedSlug = ""
	}
}

// syncDetailPane pushes the selected poll into the detail pane, or
// clears it when nothing is selected.
func (model *Model) syncDetailPane() {
	if model.cursor >= 0 && model.cursor < len(model.entries) {
		model.selectedSlug = model.entries[model.cursor].Slug
		model.detailPane.SetContent(model.entries[model.cursor])
	} else {
		model.selectedSlug = ""
		model.detailPane.Clear()
	}
}

// handleListKeys processes navigation keys while the list has focus.
func (model *Model) handleListKeys(message tea.KeyMsg) {
	prevCursor := model.cursor

	switch {
	case key.Matches(message, model.keys.Up):
		if model.cursor > 0 {
			model.cursor--
		}

	case key.Matches(message, model.keys.Down):
		if model.cursor < len(model.entries)-1 {
			model.cursor++
		}

	case key.Matches(message, model.keys.PageUp):
		target := model.cursor - model.visibleHeight()
		if target < 0 {
			target = 0
		}
		model.cursor = target

	case key.Matches(message, model.keys.PageDown):
		target := model.cursor + model.visibleHeight()
		if len(model.entries) > 0 && target >= len(model.entries) {
			target = len(model.entries) - 1
		}
		model.cursor = target

	case key.Matches(message, model.keys.Home):
		model.cursor = 0

	case key.Matches(message, model.keys.End):
		if len(model.entries) > 0 {
			model.cursor = len(model.entries) - 1
		}
	}

	model.ensureCursorVisible()

	if model.cursor != prevCursor {
		model.syncDetailPane()
	}
}

// handleDetailKeys processes navigation keys while the detail pane
// has focus.
func (model *Model) handleDetailKeys(message tea.KeyMsg) {
	switch {
	case key.Matches(message, model.keys.Up):
		model.detailPane.viewport.LineUp(1)
	case key.Matches(message, model.keys.Down):
		model.detailPane.viewport.LineDown(1)
	case key.Matches(message, model.keys.PageUp):
		model.detailPane.ScrollUp()
	case key.Matches(message, model.keys.PageDown):
		model.detailPane.ScrollDown()
	case key.Matches(message, model.keys.Home):
		model.detailPane.viewport.GotoTop()
	case key.Matches(message, model.keys.End):
		model.detailPane.viewport.GotoBottom()
	}
}

// contentStartY returns the Y coordinate where the content area
// begins. The top chrome line is always exactly 1 row: either the
// tab bar or, while filtering, the filter bar in its place.
func (model Model) contentStartY() int {
	return 1
}

// visibleHeight returns the number of list rows that fit between the
// chrome elements (top chrome, bottom separator, help bar).
func (model Model) visibleHeight() int {
	return model.height - model.contentStartY() - 2
}

// ensureCursorVisible adjusts scrollOffset so the cursor stays within
// the visible window.
func (model *Model) ensureCursorVisible() {
	visible := model.visibleHeight()
	if visible <= 0 {
		return
	}

	maxOffset := len(model.entries) - visible
	if maxOffset < 0 {
		maxOffset = 0
	}
	if model.scrollOffset > maxOffset {
		model.scrollOffset = maxOffset
	}

	if model.cursor < model.scrollOffset {
		model.scrollOffset = model.cursor
	}
	if model.cursor >= model.scrollOffset+visible {
		model.scrollOffset = model.cursor - visible + 1
	}
}

// updatePaneSizes recomputes the detail pane dimensions from the
// split ratio.
func (model *Model) updatePaneSizes() {
	// 1 column for the vertical divider between panes.
	detailWidth := model.width - model.listWidth() - 1
	if detailWidth < 10 {
		detailWidth = 10
	}
	model.detailPane.SetSize(detailWidth, model.visibleHeight())
}

// listWidth returns the width of the list pane in columns.
func (model Model) listWidth() int {
	return int(float64(model.width) * model.splitRatio)
}

// View implements tea.Model. Renders the full frame with two panes.
func (model Model) View() string {
	if !model.ready {
		return "Loading..."
	}

	if len(model.entries) == 0 && model.filter.Input == "" {
		return model.renderEmpty()
	}

	var sections []string

	// Top chrome line: the filter bar replaces the tab bar while
	// filtering so the layout does not shift.
	filterView := model.filter.View(model.theme, model.width)
	if filterView != "" {
		sections = append(sections, filterView)
	} else {
		sections = append(sections, model.renderHeader())
	}

	listView := model.renderListPane()
	divider := model.renderDivider()
	detailView := model.detailPane.View(model.focusRegion == FocusDetail)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, listView, divider, detailView))

	separator := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor).
		Render(strings.Repeat("─", model.width))
	sections = append(sections, separator)

	sections = append(sections, model.renderHelp())

	return strings.Join(sections, "\n")
}

// renderListPane renders the poll rows with a right scrollbar.
func (model Model) renderListPane() string {
	// Reserve 1 column for the scrollbar so content stays at a fixed
	// position regardless of focus state.
	rowWidth := model.listWidth() - 1
	renderer := NewListRenderer(model.theme, rowWidth)

	visible := model.visibleHeight()
	if visible < 0 {
		visible = 0
	}

	var rows []string
	for index := model.scrollOffset; index < model.scrollOffset+visible && index < len(model.entries); index++ {
		entry := model.entries[index]
		rows = append(rows, renderer.RenderRow(entry, index == model.cursor, model.filterHighlights[entry.Slug]))
	}

	// Pad empty rows.
	rendered := len(rows)
	if rendered < visible {
		emptyStyle := lipgloss.NewStyle().Width(rowWidth)
		for padding := rendered; padding < visible; padding++ {
			rows = append(rows, emptyStyle.Render(""))
		}
	}

	scrollbar := renderScrollbar(
		model.theme, visible,
		len(model.entries), visible, model.scrollOffset,
		model.focusRegion == FocusList,
	)

	contentStyle := lipgloss.NewStyle().
		Width(rowWidth).
		Height(visible)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		contentStyle.Render(strings.Join(rows, "\n")),
		scrollbar,
	)
}

// renderDivider renders the single-column vertical divider between
// the panes.
func (model Model) renderDivider() string {
	visible := model.visibleHeight()
	if visible < 0 {
		visible = 0
	}

	dividerStyle := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor)

	lines := make([]string, visible)
	for index := range lines {
		lines[index] = "│"
	}

	return dividerStyle.Width(1).Height(visible).Render(strings.Join(lines, "\n"))
}

// renderEmpty renders the full-frame empty state for the active tab.
func (model Model) renderEmpty() string {
	text := "No polls."
	switch model.activeTab {
	case TabOpen:
		text = "No open polls."
	case TabSettled:
		text = "No settled polls."
	}

	messageStyle := lipgloss.NewStyle().
		Foreground(model.theme.FaintText)

	return lipgloss.Place(
		model.width, model.height,
		lipgloss.Center, lipgloss.Center,
		messageStyle.Render(text),
	)
}

// renderHeader renders the tab bar with poll counts on the right.
func (model Model) renderHeader() string {
	separatorStyle := lipgloss.NewStyle().
		Foreground(model.theme.BorderColor)
	activeStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(model.theme.HeaderForeground)
	inactiveStyle := lipgloss.NewStyle().
		Foreground(model.theme.FaintText)
	statsStyle := lipgloss.NewStyle().
		Foreground(model.theme.FaintText)

	sep := separatorStyle.Render("─")

	// Left portion: ─── Label ─── Label ─── Label ─
	leftParts := sep + sep + sep
	cursor := 3

	for index, tabDef := range tabDefs {
		leftParts += " "
		cursor++

		if model.activeTab == tabDef.tab {
			leftParts += activeStyle.Render(tabDef.label)
		} else {
			leftParts += inactiveStyle.Render(tabDef.label)
		}
		cursor += lipgloss.Width(tabDef.label)

		leftParts += " "
		cursor++

		sepCount := 3
		if index == len(tabDefs)-1 {
			sepCount = 1
		}
		for range sepCount {
			leftParts += sep
			cursor++
		}
	}

	// Counts on the right.
	openCount, settledCount := 0, 0
	for _, p := range model.polls {
		if p.Deleted {
			continue
		}
		if p.Settled() {
			settledCount++
		} else {
			openCount++
		}
	}
	statsText := fmt.Sprintf(
		"%d shown  %d open  %d settled",
		len(model.entries), openCount, settledCount)
	statsRendered := statsStyle.Render(statsText)
	statsWidth := lipgloss.Width(statsText)

	rightPortion := " " + statsRendered + " " + sep
	rightWidth := 1 + statsWidth + 1 + 1

	fillCount := model.width - cursor - rightWidth
	if fillCount < 1 {
		fillCount = 1
	}
	fill := ""
	for range fillCount {
		fill += sep
	}

	return leftParts + fill + rightPortion
}

// renderHelp renders the bottom help bar with key hints and the list
// position.
func (model Model) renderHelp() string {
	style := lipgloss.NewStyle().Foreground(model.theme.HelpText)

	focusIndicator := "LIST"
	switch model.focusRegion {
	case FocusDetail:
		focusIndicator = "DETAIL"
	case FocusFilter:
		focusIndicator = "FILTER"
	}

	help := fmt.Sprintf(" [%s] q quit  ↑↓ navigate  Tab focus  ]/[ resize  1/2/3 tabs  / filter",
		focusIndicator)

	if len(model.entries) > model.visibleHeight() {
		position := ""
		if model.scrollOffset == 0 {
			position = "top"
		} else if model.scrollOffset+model.visibleHeight() >= len(model.entries) {
			position = "bottom"
		} else {
			percent := float64(model.scrollOffset) / float64(len(model.entries)-model.visibleHeight()) * 100
			position = fmt.Sprintf("%d%%", int(percent))
		}
		help += fmt.Sprintf("  [%s] %d/%d", position, model.cursor+1, len(model.entries))
	} else if len(model.entries) > 0 {
		help += fmt.Sprintf("  %d/%d", model.cursor+1, len(model.entries))
	}

	return style.Render(help)
}
