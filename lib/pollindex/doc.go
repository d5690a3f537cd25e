// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

// Package pollindex maintains the in-memory registry of polls.
//
// The index is rebuilt from [pollstore] contents at startup and kept
// in sync by the caller after every mutation. It answers the two
// read-side questions the assistant needs: which polls are open
// ([Index.ListOpen]), and which poll a free-form subject string refers
// to ([Index.Resolve]).
//
// Resolution runs in two stages. The tag stage compares the subject
// against each active poll's tag with a strict similarity threshold;
// a single qualifying poll wins outright and the second stage never
// runs. Only when no tag qualifies does the subject stage compare
// against poll topics with a permissive threshold that tolerates
// dropped filler words. Either stage can yield several candidates;
// the caller then picks one via [Index.Suggest], whose randomness is
// injectable so tests see a fixed choice.
package pollindex
