// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package poll

// Wire mirrors of the poll service's response shapes. The service
// encodes responses with CBOR, which falls back to json tags when no
// cbor tag is present, so the json tag names below are the wire
// contract. Fields the commands never render are left out; the codec
// ignores unknown keys.

// Poll is one tracked poll as the service reports it.
type Poll struct {
	Slug        string   `json:"slug"`
	Topic       string   `json:"topic"`
	Tag         string   `json:"tag,omitempty"`
	Description string   `json:"description,omitempty"`
	URLs        []string `json:"urls,omitempty"`
	Actor       string   `json:"actor"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`

	// State is open, concluded, or expired, judged against the
	// hour-rounded current time.
	State string `json:"state"`

	ConcludedReason string `json:"concluded_reason,omitempty"`
	Deleted         bool   `json:"deleted,omitempty"`
}

// Vote is a member's current ballot on a poll.
type Vote struct {
	Value  string `json:"value"`
	Remark string `json:"remark,omitempty"`
}

// Tally is the vote count and outcome for a poll.
type Tally struct {
	Acks       int    `json:"acks"`
	PlusZeros  int    `json:"plus_zeros"`
	MinusZeros int    `json:"minus_zeros"`
	Vetos      int    `json:"vetos"`
	Cast       int    `json:"cast"`
	RosterSize int    `json:"roster_size"`
	Result     string `json:"result"`
}

// listResponse is the "poll/list" payload.
type listResponse struct {
	Polls []Poll `json:"polls"`
}

// getResponse is the "poll/get" payload. Votes and tally are omitted
// for deleted polls.
type getResponse struct {
	Poll      Poll            `json:"poll"`
	Votes     map[string]Vote `json:"votes,omitempty"`
	Tally     *Tally          `json:"tally,omitempty"`
	TallyLine string          `json:"tally_line,omitempty"`
}

// resolveResponse is the "poll/resolve" payload. Polls holds the
// candidates in descending score order: empty for "not found",
// exactly one for "match", two or more for "ambiguous".
type resolveResponse struct {
	Kind       string `json:"kind"`
	Polls      []Poll `json:"polls,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// pollResponse is the payload of the mutating poll actions that
// return the affected poll.
type pollResponse struct {
	Poll Poll `json:"poll"`
}

// deleteResponse is the "poll/delete" payload.
type deleteResponse struct {
	Slug string `json:"slug"`
}

// concludeResponse is the "poll/conclude" payload. Text is the full
// result notice the transport would post.
type concludeResponse struct {
	Slug   string `json:"slug"`
	Reason string `json:"reason"`
	Text   string `json:"text"`
}
