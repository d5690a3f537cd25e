// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package pollstore is the durable record store for polls, vote
// ledgers, and member transaction state.
//
// Everything lives in a human-browsable file tree of TOML records:
//
//	votes/{slug}/metadata.toml        poll metadata
//	votes/{slug}/concluded.flag       zero-byte marker
//	votes/{slug}/deleted.flag         zero-byte marker
//	votes/{slug}/vote-{member}.toml   per-member vote ledger
//	members/{member}.toml             last transaction per member
//	trash/                            staging area for permanent removal
//
// Readability of the tree is a hard requirement: an operator with a
// text editor must be able to audit any poll without tooling.
//
// Every write is crash-safe: content is staged to a temp file in the
// target directory and committed with a single atomic rename. A
// reader (or a restart) sees either the old or the new record, never
// a partial one. Flag files follow the same discipline, so after a
// crash an absent flag is indistinguishable from one never set.
//
// [Open] runs the recovery scan before returning: it loads every poll
// and member record, sweeps leftover trash, detects polls whose
// voting period ended without an announced conclusion, and drops
// (with a log line) member transactions whose target poll no longer
// exists. Recovery never replays or re-validates undo payloads.
package pollstore
