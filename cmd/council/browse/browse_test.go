// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package browse

import (
	"testing"
	"time"

	pollcmd "github.com/council-foundation/council/cmd/council/poll"
)

func TestBrowserPoll(t *testing.T) {
	t.Parallel()

	detail := getResponse{
		Poll: pollcmd.Poll{
			Slug:      "2026-03-09-tmfrggmjq-adopt-xep-0474",
			Topic:     "Adopt XEP-0474 as the SCRAM downgrade protection",
			Tag:       "xep-0474",
			Actor:     "alice@example.org",
			StartTime: "2026-03-09T18:00:00Z",
			EndTime:   "2026-03-16T18:00:00Z",
			State:     "open",
		},
		Votes: map[string]pollcmd.Vote{
			"alice@example.org": {Value: "+1"},
			"bob@example.org":   {Value: "-0", Remark: "needs broader client support"},
		},
		Tally:     &pollcmd.Tally{Cast: 2, RosterSize: 9, Result: "fail"},
		TallyLine: "2/9 votes cast (1 +1, 1 -0), result: fail",
	}

	converted, err := browserPoll(detail)
	if err != nil {
		t.Fatalf("browserPoll: %v", err)
	}

	if converted.Slug != detail.Poll.Slug {
		t.Errorf("slug = %q, want %q", converted.Slug, detail.Poll.Slug)
	}
	wantStart := time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC)
	if !converted.StartTime.Equal(wantStart) {
		t.Errorf("start time = %v, want %v", converted.StartTime, wantStart)
	}
	wantEnd := time.Date(2026, 3, 16, 18, 0, 0, 0, time.UTC)
	if !converted.EndTime.Equal(wantEnd) {
		t.Errorf("end time = %v, want %v", converted.EndTime, wantEnd)
	}
	if converted.Result != "fail" {
		t.Errorf("result = %q, want fail", converted.Result)
	}
	if len(converted.Votes) != 2 {
		t.Fatalf("votes = %d, want 2", len(converted.Votes))
	}
	if converted.TallyLine != detail.TallyLine {
		t.Errorf("tally line = %q, want %q", converted.TallyLine, detail.TallyLine)
	}

	remarks := map[string]string{}
	for _, vote := range converted.Votes {
		remarks[vote.Member] = vote.Remark
	}
	if remarks["bob@example.org"] != "needs broader client support" {
		t.Errorf("bob's remark not carried over: %q", remarks["bob@example.org"])
	}
}

func TestBrowserPollNoTally(t *testing.T) {
	t.Parallel()

	// Deleted polls come back without votes or tally.
	detail := getResponse{
		Poll: pollcmd.Poll{
			Slug:      "2026-02-02-tr8yfmqpj-meeting-time",
			Topic:     "Move the weekly meeting time",
			Actor:     "erin@example.org",
			StartTime: "2026-02-02T15:00:00Z",
			EndTime:   "2026-02-09T15:00:00Z",
			State:     "concluded",
			Deleted:   true,
		},
	}

	converted, err := browserPoll(detail)
	if err != nil {
		t.Fatalf("browserPoll: %v", err)
	}
	if converted.Result != "" {
		t.Errorf("result = %q, want empty", converted.Result)
	}
	if !converted.Deleted {
		t.Error("deleted flag not carried over")
	}
	if len(converted.Votes) != 0 {
		t.Errorf("votes = %d, want 0", len(converted.Votes))
	}
}

func TestBrowserPollBadTimestamp(t *testing.T) {
	t.Parallel()

	detail := getResponse{
		Poll: pollcmd.Poll{
			Slug:      "2026-03-09-tmfrggmjq-adopt-xep-0474",
			StartTime: "yesterday",
			EndTime:   "2026-03-16T18:00:00Z",
		},
	}

	if _, err := browserPoll(detail); err == nil {
		t.Fatal("expected an error for an unparseable timestamp")
	}
}
