// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/council-foundation/council/lib/socketapi"
)

// registerActions registers all socket API actions on the server.
// Query handlers live in socket_query.go, mutation handlers in
// socket_mutate.go; this file carries the service-level actions.
func (ps *PollService) registerActions(server *socketapi.Server) {
	// Liveness health check. Returns only uptime; no poll information
	// is disclosed.
	server.Handle("status", ps.handleStatus)

	// Diagnostic action with store-wide counts.
	server.Handle("info", ps.handleInfo)

	// Queries.
	server.Handle("poll/list", ps.handleList)
	server.Handle("poll/get", ps.handleGet)
	server.Handle("poll/resolve", ps.handleResolve)
	server.Handle("vote/ledger", ps.handleLedger)
	server.Handle("transaction/get", ps.handleTransactionGet)
	server.Handle("announce/pending", ps.handleAnnouncePending)

	// Mutations.
	server.Handle("poll/create", ps.handleCreate)
	server.Handle("poll/rename", ps.handleRename)
	server.Handle("poll/delete", ps.handleDelete)
	server.Handle("vote/cast", ps.handleCast)
	server.Handle("poll/attach", ps.handleAttach)
	server.Handle("poll/conclude", ps.handleConclude)
	server.Handle("correction/apply", ps.handleCorrection)
	server.Handle("reply/set", ps.handleReplySet)
	server.Handle("announce/done", ps.handleAnnounceDone)
}

// statusResponse is the response to the "status" action. Contains
// only liveness information.
type statusResponse struct {
	// UptimeSeconds is how long the service has been running.
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// handleStatus returns a minimal liveness response.
func (ps *PollService) handleStatus(ctx context.Context, raw []byte) (any, error) {
	uptime := ps.clock.Now().Sub(ps.startedAt)
	return statusResponse{
		UptimeSeconds: uptime.Seconds(),
	}, nil
}

// infoResponse is the response to the "info" action.
type infoResponse struct {
	// UptimeSeconds is how long the service has been running.
	UptimeSeconds float64 `json:"uptime_seconds"`

	// Environment is the deployment environment from configuration.
	Environment string `json:"environment"`

	// Polls is the number of tracked polls, deleted ones excluded.
	Polls int `json:"polls"`

	// DuePolls is the number of polls past their voting period whose
	// conclusion has not been announced.
	DuePolls int `json:"due_polls"`

	// Members is the size of the committee roster.
	Members int `json:"members"`
}

// handleInfo returns diagnostic information about the service.
func (ps *PollService) handleInfo(ctx context.Context, raw []byte) (any, error) {
	uptime := ps.clock.Now().Sub(ps.startedAt)

	return infoResponse{
		UptimeSeconds: uptime.Seconds(),
		Environment:   ps.environment,
		Polls:         len(ps.core.ListOpen()),
		DuePolls:      len(ps.core.DuePolls()),
		Members:       len(ps.core.Roster()),
	}, nil
}
