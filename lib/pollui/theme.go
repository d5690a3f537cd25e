// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the poll browser. All colors
// use lipgloss ANSI 256-color codes for broad terminal compatibility.
//
// The fields cover universal chrome (text, selection, borders) and
// the two semantic axes of a poll: its lifecycle state (open,
// concluded, expired) and the vote values on its ledger.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Background tint for characters matched by the filter.
	SearchHighlightBackground lipgloss.Color

	// Poll lifecycle states.
	StateOpen      lipgloss.Color
	StateConcluded lipgloss.Color
	StateExpired   lipgloss.Color

	// Vote values.
	VoteAck       lipgloss.Color
	VotePlusZero  lipgloss.Color
	VoteMinusZero lipgloss.Color
	VoteVeto      lipgloss.Color

	// Poll results.
	ResultPass lipgloss.Color
	ResultVeto lipgloss.Color
	ResultFail lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Inline URLs in the detail pane.
	LinkForeground lipgloss.Color
}

// StateColor returns the color for a poll state string. Unknown
// states (and deleted polls, which callers dim separately) return
// FaintText.
func (theme Theme) StateColor(state string) lipgloss.Color {
	switch state {
	case "open":
		return theme.StateOpen
	case "concluded":
		return theme.StateConcluded
	case "expired":
		return theme.StateExpired
	default:
		return theme.FaintText
	}
}

// VoteColor returns the color for a vote value literal (+1, +0, -0,
// -1). Unknown values return NormalText.
func (theme Theme) VoteColor(value string) lipgloss.Color {
	switch value {
	case "+1":
		return theme.VoteAck
	case "+0":
		return theme.VotePlusZero
	case "-0":
		return theme.VoteMinusZero
	case "-1":
		return theme.VoteVeto
	default:
		return theme.NormalText
	}
}

// ResultColor returns the color for a result string (pass, veto,
// fail). Unknown results return FaintText.
func (theme Theme) ResultColor(result string) lipgloss.Color {
	switch result {
	case "pass":
		return theme.ResultPass
	case "veto":
		return theme.ResultVeto
	case "fail":
		return theme.ResultFail
	default:
		return theme.FaintText
	}
}

// DefaultTheme is the built-in dark-terminal color scheme. Designed
// for 256-color terminals with a dark background.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	SearchHighlightBackground: lipgloss.Color("58"), // dark amber

	StateOpen:      lipgloss.Color("114"), // green
	StateConcluded: lipgloss.Color("245"), // gray
	StateExpired:   lipgloss.Color("208"), // orange

	VoteAck:       lipgloss.Color("114"), // green
	VotePlusZero:  lipgloss.Color("75"),  // blue
	VoteMinusZero: lipgloss.Color("220"), // amber
	VoteVeto:      lipgloss.Color("196"), // red

	ResultPass: lipgloss.Color("114"), // green
	ResultVeto: lipgloss.Color("196"), // red
	ResultFail: lipgloss.Color("245"), // gray

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	LinkForeground: lipgloss.Color("75"), // blue
}
