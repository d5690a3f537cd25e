// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package socketapi implements the CBOR request-response protocol the
// poll service speaks on its Unix socket.
//
// Each connection carries exactly one request-response cycle: the
// client writes a single CBOR map, the server routes it on its
// "action" field to a registered handler, writes a single [Response],
// and closes. CBOR is self-delimiting, so there is no framing layer.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2): the same
// logical value always produces identical bytes. Decoding ignores
// unknown fields for forward compatibility.
//
// [Server] serves registered [ActionFunc] handlers; [Client.Call]
// sends a request and decodes the response data into a caller-typed
// value. The socket is an operator and collaborator surface on a
// local machine; connections are unauthenticated and access control
// is the socket file's permission bits.
package socketapi
