// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package council implements the committee voting core: poll lifecycle
// operations, the append-only vote ledgers, per-member transaction
// records, and the correction matrix that reverses a member's most
// recent action when they edit the message that triggered it.
//
// [Core] is the single entry point. It owns a [pollstore.Store] for
// durable records and a [pollindex.Index] kept in sync after every
// mutation. Each top-level operation takes the acting member and the
// transport identifier of the message that requested it; the pair is
// recorded as the member's pending transaction so that a later edit of
// that exact message can be applied as a correction.
//
// The core does not parse text and does not decide who is allowed to
// act: command parsing, alias handling, correction detection, and
// authorization all live in the transport layer. The roster given at
// construction is used for tallies and summaries only.
//
// Mutations targeting the same poll are serialized on a per-slug lock;
// operations on different polls proceed concurrently. A member's
// correction is never concurrent with that member's own commands, a
// property the transport's per-sender message ordering provides.
package council
