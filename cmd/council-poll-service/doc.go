// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Council-poll-service owns the committee's poll and vote state. It
// recovers the record tree at startup, keeps an in-memory registry of
// every poll, and serves queries and mutations over a Unix socket
// using the CBOR protocol. Chat transports, the council CLI, and
// operator tooling are all clients of the same socket.
//
// # Startup
//
// The service loads its configuration from --config (or the file
// named by COUNCIL_CONFIG), validates it, ensures the state
// directories exist, and opens the poll store. Opening runs the
// recovery scan: staged files and trash from interrupted writes are
// swept, every poll record is loaded, and pending member transactions
// whose target vanished are dropped. The socket server starts only
// after recovery completes, so clients never observe a half-recovered
// store.
//
// # Socket API
//
// Clients connect to the service's Unix socket and send one CBOR
// request per connection. The "action" field determines the
// operation: poll/list, poll/get, poll/create, vote/cast,
// correction/apply, announce/pending, and so on. Responses carry an
// {ok, error, data} envelope.
//
// # Expiry
//
// A sweep goroutine wakes on a configurable interval and logs polls
// whose voting period has ended. The sweep never records conclusions
// itself: a result is only marked announced by the announce/done
// action, after the transport confirms the notice went out. This
// keeps result announcements at-least-once across crashes.
package main
