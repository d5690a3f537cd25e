// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// The council command is the operator CLI for the Council poll
// service. It covers the full poll lifecycle (create, vote, conclude,
// announce), the correction path that reverts a member's last
// operation, archive export and import for settled polls, and an
// interactive poll browser.
//
// Run "council --help" for the command tree. Commands that talk to
// the service find its Unix socket via --socket or COUNCIL_POLL_SOCKET.
package main
