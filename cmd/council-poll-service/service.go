// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/council-foundation/council/lib/council"
)

// PollService is the core service state shared by all socket
// handlers.
type PollService struct {
	core  *council.Core
	clock clockwork.Clock

	environment string
	startedAt   time.Time

	logger *slog.Logger

	// loggedDue tracks polls the sweep has already reported, so a
	// poll waiting on its announcement is logged once rather than on
	// every tick. Touched only by the sweep goroutine.
	loggedDue map[string]struct{}
}

// runSweeper wakes on the configured interval and surfaces polls
// whose voting period has ended. The sweep only observes: the
// conclusion is recorded by the announce/done action once the
// transport has posted the notice, never here, so announcements stay
// at-least-once.
func (ps *PollService) runSweeper(ctx context.Context, interval time.Duration) {
	ticker := ps.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			ps.sweep()
		}
	}
}

func (ps *PollService) sweep() {
	due := ps.core.DuePolls()
	current := make(map[string]struct{}, len(due))
	for _, p := range due {
		current[p.Slug] = struct{}{}
		if _, logged := ps.loggedDue[p.Slug]; logged {
			continue
		}
		ps.logger.Info("poll awaiting conclusion",
			"slug", p.Slug,
			"topic", p.Topic,
			"ended", p.EndTime,
		)
	}
	ps.loggedDue = current
}
