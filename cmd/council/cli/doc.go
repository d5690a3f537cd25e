// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the council CLI.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a [pflag.FlagSet] factory, and a
// Run function. Commands are assembled into a tree in
// cmd/council/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help output
// with examples.
//
// When a user types an unknown subcommand or flag, the framework
// computes Levenshtein edit distance against all known names and
// suggests the closest match (threshold: distance <= 3). This is
// implemented in suggest.go.
//
// Commands declare their flags in a parameter struct and bind them with
// [FlagsFromParams]; see [BindFlags] for the struct tag conventions.
// [ServiceConnection] carries the poll service socket flag shared by
// every command that talks to the service; embedding it in a parameter
// struct registers --socket through the [FlagBinder] hook.
package cli
