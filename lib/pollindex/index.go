// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollindex

import (
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/council-foundation/council/lib/poll"
)

// PickFunc selects an index in [0, n) among ambiguous resolution
// candidates. n is always at least 1.
type PickFunc func(n int) int

// Index is the in-memory poll registry. All entries are defensive
// copies: Put clones on the way in, Get and ListOpen clone on the way
// out, so callers can never mutate registry state through a returned
// pointer. Safe for concurrent use.
type Index struct {
	mu    sync.RWMutex
	polls map[string]*poll.Poll

	// pick chooses among ambiguous candidates in Suggest. Fixed at
	// construction; inject a deterministic one in tests.
	pick PickFunc
}

// NewIndex returns an empty registry. A nil pick falls back to a
// uniform random choice.
func NewIndex(pick PickFunc) *Index {
	if pick == nil {
		pick = rand.IntN
	}
	return &Index{
		polls: make(map[string]*poll.Poll),
		pick:  pick,
	}
}

// Put inserts or replaces the entry for p.Slug.
func (x *Index) Put(p *poll.Poll) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.polls[p.Slug] = p.Clone()
}

// Get returns a copy of the poll with the given slug.
func (x *Index) Get(slug string) (*poll.Poll, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	p, ok := x.polls[slug]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Remove drops the entry for slug. Removing an absent slug is a no-op.
func (x *Index) Remove(slug string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.polls, slug)
}

// Len returns the number of indexed polls, deleted ones included.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.polls)
}

// ListOpen returns copies of all polls with Deleted == false, ordered
// by start time and then slug. The order is stable across calls and
// restarts.
func (x *Index) ListOpen() []*poll.Poll {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var open []*poll.Poll
	for _, p := range x.polls {
		if p.Deleted {
			continue
		}
		open = append(open, p.Clone())
	}
	sortPolls(open)
	return open
}

// active returns the non-deleted polls without cloning. Callers hold
// at least a read lock and must not retain the pointers.
func (x *Index) active() []*poll.Poll {
	var polls []*poll.Poll
	for _, p := range x.polls {
		if !p.Deleted {
			polls = append(polls, p)
		}
	}
	return polls
}

func sortPolls(polls []*poll.Poll) {
	slices.SortFunc(polls, func(a, b *poll.Poll) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return strings.Compare(a.Slug, b.Slug)
	})
}
