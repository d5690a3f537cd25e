// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/council-foundation/council/lib/poll"
	"github.com/council-foundation/council/lib/socketapi"
)

// --- Wire views ---
//
// Response types use json struct tags. The CBOR encoder falls back to
// json tags, so the same structs serve the socket protocol and the
// CLI's JSON output without maintaining shadow schemas.

// pollView is the wire representation of one poll.
type pollView struct {
	Slug        string   `json:"slug"`
	Topic       string   `json:"topic"`
	Tag         string   `json:"tag,omitempty"`
	Description string   `json:"description,omitempty"`
	URLs        []string `json:"urls,omitempty"`
	Actor       string   `json:"actor"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time"`

	// State is the lifecycle state judged against the hour-rounded
	// current time: open, concluded, or expired.
	State string `json:"state"`

	ConcludedReason string `json:"concluded_reason,omitempty"`
	Deleted         bool   `json:"deleted,omitempty"`
}

func (ps *PollService) pollView(p *poll.Poll) pollView {
	return pollView{
		Slug:            p.Slug,
		Topic:           p.Topic,
		Tag:             p.Tag,
		Description:     p.Description,
		URLs:            p.URLs,
		Actor:           p.Actor,
		StartTime:       p.StartTime.UTC().Format(time.RFC3339),
		EndTime:         p.EndTime.UTC().Format(time.RFC3339),
		State:           p.State(poll.Cutoff(ps.clock.Now())).String(),
		ConcludedReason: p.ConcludedReason,
		Deleted:         p.Deleted,
	}
}

// voteView is the wire representation of one ledger entry.
type voteView struct {
	Value  string `json:"value"`
	Remark string `json:"remark,omitempty"`
}

func toVoteView(entry poll.VoteEntry) voteView {
	return voteView{Value: string(entry.Value), Remark: entry.Remark}
}

// tallyView is the wire representation of a vote count.
type tallyView struct {
	Acks       int    `json:"acks"`
	PlusZeros  int    `json:"plus_zeros"`
	MinusZeros int    `json:"minus_zeros"`
	Vetos      int    `json:"vetos"`
	Cast       int    `json:"cast"`
	RosterSize int    `json:"roster_size"`
	Result     string `json:"result"`
}

func toTallyView(count poll.Count) tallyView {
	return tallyView{
		Acks:       count.Acks,
		PlusZeros:  count.PlusZeros,
		MinusZeros: count.MinusZeros,
		Vetos:      count.Vetos,
		Cast:       count.Cast(),
		RosterSize: count.RosterSize,
		Result:     count.Result().String(),
	}
}

// transactionView is the wire representation of a pending member
// transaction. The undo payload stays service-internal.
type transactionView struct {
	ID      string `json:"id"`
	ReplyID string `json:"reply_id,omitempty"`
	Actor   string `json:"actor"`
	Action  string `json:"action"`
	Target  string `json:"target,omitempty"`
}

func toTransactionView(txn *poll.Transaction) *transactionView {
	if txn == nil {
		return nil
	}
	return &transactionView{
		ID:      txn.ID,
		ReplyID: txn.ReplyID,
		Actor:   txn.Actor,
		Action:  string(txn.Action),
		Target:  txn.Target,
	}
}

// --- Query request types ---

// getRequest is the input for the "poll/get" action.
type getRequest struct {
	Slug string `cbor:"slug"`
}

// resolveRequest is the input for the "poll/resolve" action.
type resolveRequest struct {
	Subject string `cbor:"subject"`
}

// ledgerRequest is the input for the "vote/ledger" action.
type ledgerRequest struct {
	Slug   string `cbor:"slug"`
	Member string `cbor:"member"`
}

// transactionGetRequest is the input for the "transaction/get" action.
type transactionGetRequest struct {
	Member string `cbor:"member"`
}

// --- Query response types ---

// listResponse is returned by the "poll/list" action.
type listResponse struct {
	Polls []pollView `json:"polls"`
}

// getResponse is returned by the "poll/get" action. Votes, tally, and
// rendered text are omitted for deleted polls, whose ledgers are
// reachable only through the correction path.
type getResponse struct {
	Poll      pollView            `json:"poll"`
	Votes     map[string]voteView `json:"votes,omitempty"`
	Tally     *tallyView          `json:"tally,omitempty"`
	Summary   string              `json:"summary,omitempty"`
	TallyLine string              `json:"tally_line,omitempty"`
}

// resolveResponse is returned by the "poll/resolve" action. Polls
// holds the candidates in descending score order: empty for "not
// found", exactly one for "match", two or more for "ambiguous".
type resolveResponse struct {
	Kind       string     `json:"kind"`
	Polls      []pollView `json:"polls,omitempty"`
	Suggestion string     `json:"suggestion,omitempty"`
}

// ledgerResponse is returned by the "vote/ledger" action. Entries are
// the member's full vote history on the poll, oldest first.
type ledgerResponse struct {
	Slug    string     `json:"slug"`
	Member  string     `json:"member"`
	Entries []voteView `json:"entries"`
}

// transactionGetResponse is returned by the "transaction/get" action.
// Transaction is null when the member has no pending transaction.
type transactionGetResponse struct {
	Transaction *transactionView `json:"transaction,omitempty"`
}

// announcementView is one pending result notice.
type announcementView struct {
	Slug   string    `json:"slug"`
	Topic  string    `json:"topic"`
	Reason string    `json:"reason"`
	Result string    `json:"result"`
	Tally  tallyView `json:"tally"`
	Text   string    `json:"text"`
}

// announcePendingResponse is returned by the "announce/pending"
// action.
type announcePendingResponse struct {
	Announcements []announcementView `json:"announcements"`
}

// --- Query handlers ---

// handleList returns every tracked poll, deleted ones excluded, in
// start-time order.
func (ps *PollService) handleList(ctx context.Context, raw []byte) (any, error) {
	polls := ps.core.ListOpen()
	views := make([]pollView, len(polls))
	for i, p := range polls {
		views[i] = ps.pollView(p)
	}
	return listResponse{Polls: views}, nil
}

// handleGet returns one poll with its current votes, tally, and
// rendered summary text.
func (ps *PollService) handleGet(ctx context.Context, raw []byte) (any, error) {
	var request getRequest
	if err := socketapi.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Slug == "" {
		return nil, errors.New("slug is required")
	}

	p, ok := ps.core.Poll(request.Slug)
	if !ok {
		return nil, fmt.Errorf("poll %q not found", request.Slug)
	}

	response := getResponse{Poll: ps.pollView(p)}
	if p.Deleted {
		return response, nil
	}

	current, err := ps.core.CurrentVotes(request.Slug)
	if err != nil {
		return nil, err
	}
	votes := make(map[string]voteView, len(current))
	for member, entry := range current {
		votes[member] = toVoteView(entry)
	}
	response.Votes = votes

	count, err := ps.core.Tally(request.Slug)
	if err != nil {
		return nil, err
	}
	tally := toTallyView(count)
	response.Tally = &tally

	summary, err := ps.core.PollSummary(request.Slug)
	if err != nil {
		return nil, err
	}
	response.Summary = summary

	tallyLine, err := ps.core.TallyLine(request.Slug)
	if err != nil {
		return nil, err
	}
	response.TallyLine = tallyLine

	return response, nil
}

// handleResolve maps a free-form subject to a poll via fuzzy
// matching. For ambiguous subjects the response carries all
// candidates plus a suggested slug.
func (ps *PollService) handleResolve(ctx context.Context, raw []byte) (any, error) {
	var request resolveRequest
	if err := socketapi.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Subject == "" {
		return nil, errors.New("subject is required")
	}

	resolution := ps.core.Resolve(request.Subject)

	response := resolveResponse{Kind: resolution.Kind.String()}
	for _, candidate := range resolution.Candidates {
		response.Polls = append(response.Polls, ps.pollView(candidate.Poll))
	}
	if suggested := ps.core.Suggest(resolution); suggested != nil {
		response.Suggestion = suggested.Slug
	}
	return response, nil
}

// handleLedger returns a member's full vote history on a poll.
func (ps *PollService) handleLedger(ctx context.Context, raw []byte) (any, error) {
	var request ledgerRequest
	if err := socketapi.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Slug == "" {
		return nil, errors.New("slug is required")
	}
	if request.Member == "" {
		return nil, errors.New("member is required")
	}

	history, err := ps.core.VoteHistory(request.Slug, request.Member)
	if err != nil {
		return nil, err
	}
	entries := make([]voteView, len(history))
	for i, entry := range history {
		entries[i] = toVoteView(entry)
	}
	return ledgerResponse{
		Slug:    request.Slug,
		Member:  request.Member,
		Entries: entries,
	}, nil
}

// handleTransactionGet returns a member's pending transaction, if
// any. Transports use this to decide whether an edited message can
// still be corrected.
func (ps *PollService) handleTransactionGet(ctx context.Context, raw []byte) (any, error) {
	var request transactionGetRequest
	if err := socketapi.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Member == "" {
		return nil, errors.New("member is required")
	}

	return transactionGetResponse{
		Transaction: toTransactionView(ps.core.Record(request.Member)),
	}, nil
}

// handleAnnouncePending returns the result notice for every poll
// whose voting period has ended without a recorded conclusion. The
// same poll keeps appearing here until announce/done records it.
func (ps *PollService) handleAnnouncePending(ctx context.Context, raw []byte) (any, error) {
	pending, err := ps.core.PendingAnnouncements()
	if err != nil {
		return nil, err
	}

	views := make([]announcementView, 0, len(pending))
	for _, announcement := range pending {
		text, err := ps.core.AnnouncementText(announcement)
		if err != nil {
			return nil, err
		}
		views = append(views, announcementView{
			Slug:   announcement.Poll.Slug,
			Topic:  announcement.Poll.Topic,
			Reason: announcement.Reason,
			Result: announcement.Result.String(),
			Tally:  toTallyView(announcement.Count),
			Text:   text,
		})
	}
	return announcePendingResponse{Announcements: views}, nil
}
