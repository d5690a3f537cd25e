// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/council-foundation/council/lib/council"
	"github.com/council-foundation/council/lib/poll"
	"github.com/council-foundation/council/lib/socketapi"
)

// --- Mutation request types ---

// createRequest is the input for the "poll/create" action. MessageID
// is the transport id of the member's message; leaving it empty makes
// the operation uncorrectable.
type createRequest struct {
	Actor       string   `cbor:"actor"`
	MessageID   string   `cbor:"message_id,omitempty"`
	Topic       string   `cbor:"topic"`
	Tag         string   `cbor:"tag,omitempty"`
	Description string   `cbor:"description,omitempty"`
	URLs        []string `cbor:"urls,omitempty"`

	// Lifetime overrides the default voting period, as a Go duration
	// string ("72h").
	Lifetime string `cbor:"lifetime,omitempty"`
}

// renameRequest is the input for the "poll/rename" action. Topic and
// Tag replace the poll's current values wholesale.
type renameRequest struct {
	Actor     string `cbor:"actor"`
	MessageID string `cbor:"message_id,omitempty"`
	Slug      string `cbor:"slug"`
	Topic     string `cbor:"topic"`
	Tag       string `cbor:"tag,omitempty"`
}

// deleteRequest is the input for the "poll/delete" action.
type deleteRequest struct {
	Actor     string `cbor:"actor"`
	MessageID string `cbor:"message_id,omitempty"`
	Slug      string `cbor:"slug"`
}

// castRequest is the input for the "vote/cast" action. Value is one
// of the four ballot literals: +1, +0, -0, -1.
type castRequest struct {
	Actor     string `cbor:"actor"`
	MessageID string `cbor:"message_id,omitempty"`
	Slug      string `cbor:"slug"`
	Value     string `cbor:"value"`
	Remark    string `cbor:"remark,omitempty"`
}

// attachRequest is the input for the "poll/attach" action.
type attachRequest struct {
	Actor     string `cbor:"actor"`
	MessageID string `cbor:"message_id,omitempty"`
	Slug      string `cbor:"slug"`
	URL       string `cbor:"url"`
}

// concludeRequest is the input for the "poll/conclude" action.
type concludeRequest struct {
	Actor     string `cbor:"actor"`
	MessageID string `cbor:"message_id,omitempty"`
	Slug      string `cbor:"slug"`
}

// nextActionRequest describes the replacement action of a correction,
// already parsed and resolved by the transport: Target is a slug,
// never a free-form subject. Only the fields for Action are read.
type nextActionRequest struct {
	Action      string   `cbor:"action"`
	Topic       string   `cbor:"topic,omitempty"`
	Tag         string   `cbor:"tag,omitempty"`
	Description string   `cbor:"description,omitempty"`
	URLs        []string `cbor:"urls,omitempty"`
	Target      string   `cbor:"target,omitempty"`
	Value       string   `cbor:"value,omitempty"`
	Remark      string   `cbor:"remark,omitempty"`
	URL         string   `cbor:"url,omitempty"`
}

// correctionRequest is the input for the "correction/apply" action.
// CorrectedID must match the member's pending transaction. A null
// Next is the silent revert: the edit no longer asks for anything.
type correctionRequest struct {
	Member      string             `cbor:"member"`
	CorrectedID string             `cbor:"corrected_id"`
	MessageID   string             `cbor:"message_id,omitempty"`
	Next        *nextActionRequest `cbor:"next,omitempty"`
}

// replySetRequest is the input for the "reply/set" action. Stores the
// id of the transport's reply on the member's pending transaction so
// a later correction can edit that reply in place.
type replySetRequest struct {
	Member  string `cbor:"member"`
	ReplyID string `cbor:"reply_id"`
}

// announceDoneRequest is the input for the "announce/done" action.
type announceDoneRequest struct {
	Slug string `cbor:"slug"`
}

// --- Mutation response types ---

// pollResponse is the common response for mutations that produce or
// modify a poll. Returns the full poll view so the caller does not
// need a separate poll/get call.
type pollResponse struct {
	Poll pollView `json:"poll"`
}

// deleteResponse is returned by the "poll/delete" action.
type deleteResponse struct {
	Slug string `json:"slug"`
}

// castResponse is returned by the "vote/cast" action. TallyLine is
// the updated one-line tally, ready for the transport's reply.
type castResponse struct {
	Slug      string `json:"slug"`
	TallyLine string `json:"tally_line"`
}

// concludeResponse is returned by the "poll/conclude" action. Text is
// the full result notice.
type concludeResponse struct {
	Slug   string `json:"slug"`
	Reason string `json:"reason"`
	Text   string `json:"text"`
}

// correctionResponse is returned by the "correction/apply" action.
type correctionResponse struct {
	// Reverted is the action of the transaction that was reversed.
	Reverted string `json:"reverted"`

	// ReplyID is the id of the transport's reply to the original
	// message, carried over so the transport can edit it. Empty if no
	// reply was recorded.
	ReplyID string `json:"reply_id,omitempty"`

	// Poll is the poll the replacement action produced or affected,
	// null after a silent revert.
	Poll *pollView `json:"poll,omitempty"`
}

// --- Mutation handlers ---

// handleCreate opens a new poll. The voting period starts at the top
// of the next hour.
func (ps *PollService) handleCreate(ctx context.Context, raw []byte) (any, error) {
	var request createRequest
	if err := socketapi.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Actor == "" {
		return nil, errors.New("actor is required")
	}
	if request.Topic == "" {
		return nil, errors.New("topic is required")
	}

	options := council.CreateOptions{
		Tag:         request.Tag,
		Description: request.Description,
		URLs:        request.URLs,
	}
	if request.Lifetime != "" {
		lifetime, err := time.ParseDuration(request.Lifetime)
		if err != nil {
			return nil, fmt.Errorf("invalid lifetime %q: %w", request.Lifetime, err)
		}
		if lifetime <= 0 {
			return nil, errors.New("lifetime must be positive")
		}
		options.Lifetime = lifetime
	}

	p, err := ps.core.CreatePoll(request.Actor, request.MessageID, request.Topic, options)
	if err != nil {
		return nil, err
	}
	return pollResponse{Poll: ps.pollView(p)}, nil
}

// handleRename replaces a poll's topic and tag. The slug never
// changes.
func (ps *PollService) handleRename(ctx context.Context, raw []byte) (any, error) {
	var request renameRequest
	if err := socketapi.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Actor == "" {
		return nil, errors.New("actor is required")
	}
	if request.Slug == "" {
		return nil, errors.New("slug is required")
	}
	if request.Topic == "" {
		return nil, errors.New("topic is required")
	}

	p, err := ps.core.RenamePoll(request.Actor, request.MessageID, request.Slug, request.Topic, request.Tag)
	if err != nil {
		return nil, err
	}
	return pollResponse{Poll: ps.pollView(p)}, nil
}

// handleDelete logically deletes a poll. The record stays on disk so
// a correction can restore it.
func (ps *PollService) handleDelete(ctx context.Context, raw []byte) (any, error) {
	var request deleteRequest
	if err := socketapi.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Actor == "" {
		return nil, errors.New("actor is required")
	}
	if request.Slug == "" {
		return nil, errors.New("slug is required")
	}

	if err := ps.core.DeletePoll(request.Actor, request.MessageID, request.Slug); err != nil {
		return nil, err
	}
	return deleteResponse{Slug: request.Slug}, nil
}

// handleCast appends a vote to the member's ledger on the poll. A
// veto without a substantive remark is rejected before anything is
// written.
func (ps *PollService) handleCast(ctx context.Context, raw []byte) (any, error) {
	var request castRequest
	if err := socketapi.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Actor == "" {
		return nil, errors.New("actor is required")
	}
	if request.Slug == "" {
		return nil, errors.New("slug is required")
	}
	value, err := poll.ParseVoteValue(request.Value)
	if err != nil {
		return nil, err
	}

	if err := ps.core.CastVote(request.Actor, request.MessageID, request.Slug, value, request.Remark); err != nil {
		return nil, err
	}

	tallyLine, err := ps.core.TallyLine(request.Slug)
	if err != nil {
		return nil, err
	}
	return castResponse{Slug: request.Slug, TallyLine: tallyLine}, nil
}

// handleAttach adds a reference link to a poll.
func (ps *PollService) handleAttach(ctx context.Context, raw []byte) (any, error) {
	var request attachRequest
	if err := socketapi.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Actor == "" {
		return nil, errors.New("actor is required")
	}
	if request.Slug == "" {
		return nil, errors.New("slug is required")
	}
	if request.URL == "" {
		return nil, errors.New("url is required")
	}

	if err := ps.core.AttachURL(request.Actor, request.MessageID, request.Slug, request.URL); err != nil {
		return nil, err
	}
	p, ok := ps.core.Poll(request.Slug)
	if !ok {
		return nil, fmt.Errorf("poll %q not found", request.Slug)
	}
	return pollResponse{Poll: ps.pollView(p)}, nil
}

// handleConclude settles a poll ahead of the expiry sweep. Allowed
// once the whole roster has voted or the voting period has ended.
func (ps *PollService) handleConclude(ctx context.Context, raw []byte) (any, error) {
	var request concludeRequest
	if err := socketapi.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Actor == "" {
		return nil, errors.New("actor is required")
	}
	if request.Slug == "" {
		return nil, errors.New("slug is required")
	}

	reason, err := ps.core.Conclude(request.Actor, request.MessageID, request.Slug)
	if err != nil {
		return nil, err
	}

	p, ok := ps.core.Poll(request.Slug)
	if !ok {
		return nil, fmt.Errorf("poll %q not found", request.Slug)
	}
	count, err := ps.core.Tally(request.Slug)
	if err != nil {
		return nil, err
	}
	text, err := ps.core.AnnouncementText(council.Announcement{
		Poll:   p,
		Reason: reason,
		Count:  count,
		Result: count.Result(),
	})
	if err != nil {
		return nil, err
	}
	return concludeResponse{Slug: request.Slug, Reason: reason, Text: text}, nil
}

// handleCorrection reverses the member's pending transaction and,
// when the edit still asks for an action, executes the replacement.
func (ps *PollService) handleCorrection(ctx context.Context, raw []byte) (any, error) {
	var request correctionRequest
	if err := socketapi.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Member == "" {
		return nil, errors.New("member is required")
	}
	if request.CorrectedID == "" {
		return nil, errors.New("corrected_id is required")
	}

	next, err := parseNextAction(request.Next)
	if err != nil {
		return nil, err
	}

	result, err := ps.core.ApplyCorrection(request.Member, request.CorrectedID, request.MessageID, next)
	if err != nil {
		return nil, err
	}

	response := correctionResponse{
		Reverted: string(result.Reverted),
		ReplyID:  result.ReplyID,
	}
	if result.Poll != nil {
		view := ps.pollView(result.Poll)
		response.Poll = &view
	}
	return response, nil
}

// parseNextAction validates and converts the wire form of a
// correction's replacement action. A nil request stays nil (silent
// revert).
func parseNextAction(request *nextActionRequest) (*council.NextAction, error) {
	if request == nil {
		return nil, nil
	}

	action, err := poll.ParseAction(request.Action)
	if err != nil {
		return nil, fmt.Errorf("next action: %w", err)
	}

	next := &council.NextAction{
		Action:      action,
		Topic:       request.Topic,
		Tag:         request.Tag,
		Description: request.Description,
		URLs:        request.URLs,
		Target:      request.Target,
		Remark:      request.Remark,
		URL:         request.URL,
	}
	if action == poll.ActionCast {
		value, err := poll.ParseVoteValue(request.Value)
		if err != nil {
			return nil, err
		}
		next.Value = value
	}
	return next, nil
}

// handleReplySet records the id of the transport's reply on the
// member's pending transaction.
func (ps *PollService) handleReplySet(ctx context.Context, raw []byte) (any, error) {
	var request replySetRequest
	if err := socketapi.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Member == "" {
		return nil, errors.New("member is required")
	}
	if request.ReplyID == "" {
		return nil, errors.New("reply_id is required")
	}

	if err := ps.core.SetReplyID(request.Member, request.ReplyID); err != nil {
		return nil, err
	}
	return nil, nil
}

// handleAnnounceDone records a due poll's conclusion after the
// transport has posted the result notice. Safe to repeat.
func (ps *PollService) handleAnnounceDone(ctx context.Context, raw []byte) (any, error) {
	var request announceDoneRequest
	if err := socketapi.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Slug == "" {
		return nil, errors.New("slug is required")
	}

	if err := ps.core.MarkAnnounced(request.Slug); err != nil {
		return nil, err
	}
	return nil, nil
}
