// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package pollui implements the interactive terminal browser for
// council polls, built on bubbletea.
//
// The browser is read-only: it renders poll state for inspection but
// never mutates it. Casting votes and concluding polls stay with the
// chat transport and the council CLI.
//
// Layout is a two-pane split. The left pane lists polls for the
// active tab (Open, Settled, All) with vim-style navigation; the
// right pane shows the selected poll in full, with the description
// rendered as markdown and the current ballots in a vote table. The
// divider between the panes is adjustable with [ and ].
//
// Pressing / activates a fuzzy filter (fzf's matcher) over topic,
// slug, tag, and opener. Matches come back best-first with the
// matched topic characters highlighted. Esc clears the filter.
package pollui
