// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package poll defines the domain schema for committee polls: vote
// values and their validation rules, poll metadata and lifecycle
// state, result tallying under the committee's voting rules, and the
// transaction records that make every member action reversible.
//
// The types here are pure data. Persistence lives in
// [github.com/council-foundation/council/lib/pollstore], which maps
// these types onto a human-browsable file tree; in-memory lookup
// lives in [github.com/council-foundation/council/lib/pollindex].
package poll
