// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollindex

import (
	"slices"
	"strings"

	"github.com/council-foundation/council/lib/match"
	"github.com/council-foundation/council/lib/poll"
)

// Similarity thresholds for the two resolution stages. Tags are short
// identifiers, so only near-exact matches qualify; topics are prose,
// so the bar tolerates missing filler words and partial phrasing.
const (
	tagThreshold     = 0.8
	subjectThreshold = 0.4
)

// ResolutionKind classifies a resolution outcome.
type ResolutionKind int

const (
	// ResolutionNotFound means no poll cleared either threshold.
	ResolutionNotFound ResolutionKind = iota

	// ResolutionMatch means exactly one poll qualified.
	ResolutionMatch

	// ResolutionAmbiguous means several polls qualified; the caller
	// picks one, typically via [Index.Suggest].
	ResolutionAmbiguous
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolutionNotFound:
		return "not found"
	case ResolutionMatch:
		return "match"
	case ResolutionAmbiguous:
		return "ambiguous"
	}
	return "unknown"
}

// Candidate is a poll that cleared a resolution threshold.
type Candidate struct {
	Poll  *poll.Poll
	Score float64
}

// Resolution is the outcome of resolving a subject string. Candidates
// is empty for NotFound, has exactly one entry for Match, and two or
// more for Ambiguous, ordered by descending score with ties broken by
// start time and slug.
type Resolution struct {
	Kind       ResolutionKind
	Candidates []Candidate
}

// Poll returns the matched poll for a Match resolution and nil
// otherwise.
func (r Resolution) Poll() *poll.Poll {
	if r.Kind != ResolutionMatch {
		return nil
	}
	return r.Candidates[0].Poll
}

// Slugs returns the candidate slugs in order.
func (r Resolution) Slugs() []string {
	slugs := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		slugs[i] = c.Poll.Slug
	}
	return slugs
}

// Resolve maps a free-form subject string to a poll. Deleted polls
// never participate. The tag stage runs first with the strict
// threshold; if it qualifies at least one poll the subject stage is
// skipped entirely, so a precise tag always pre-empts a loose topic
// match elsewhere.
func (x *Index) Resolve(subject string) Resolution {
	x.mu.RLock()
	defer x.mu.RUnlock()

	active := x.active()

	candidates := tagStage(subject, active)
	if len(candidates) == 0 {
		candidates = subjectStage(subject, active)
	}

	sortCandidates(candidates)
	for i, c := range candidates {
		candidates[i].Poll = c.Poll.Clone()
	}

	switch len(candidates) {
	case 0:
		return Resolution{Kind: ResolutionNotFound}
	case 1:
		return Resolution{Kind: ResolutionMatch, Candidates: candidates}
	default:
		return Resolution{Kind: ResolutionAmbiguous, Candidates: candidates}
	}
}

// Suggest picks one candidate from an Ambiguous resolution using the
// index's pick function. It returns nil for any other kind.
func (x *Index) Suggest(r Resolution) *poll.Poll {
	if r.Kind != ResolutionAmbiguous {
		return nil
	}
	return r.Candidates[x.pick(len(r.Candidates))].Poll
}

func tagStage(subject string, polls []*poll.Poll) []Candidate {
	normalized := normalizeTag(subject)
	if normalized == "" {
		return nil
	}

	var candidates []Candidate
	for _, p := range polls {
		if p.Tag == "" {
			continue
		}
		score := match.Ratio(normalized, normalizeTag(p.Tag))
		if score >= tagThreshold {
			candidates = append(candidates, Candidate{Poll: p, Score: score})
		}
	}
	return candidates
}

func subjectStage(subject string, polls []*poll.Poll) []Candidate {
	var candidates []Candidate
	for _, p := range polls {
		score := match.SubjectScore(subject, p.Topic)
		if score >= subjectThreshold {
			candidates = append(candidates, Candidate{Poll: p, Score: score})
		}
	}
	return candidates
}

func normalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

func sortCandidates(candidates []Candidate) {
	slices.SortFunc(candidates, func(a, b Candidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		if c := a.Poll.StartTime.Compare(b.Poll.StartTime); c != 0 {
			return c
		}
		return strings.Compare(a.Poll.Slug, b.Poll.Slug)
	})
}
