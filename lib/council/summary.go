// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package council

import (
	"fmt"
	"strings"

	"github.com/council-foundation/council/lib/poll"
)

// MaskNick inserts a word-joining dot after the first rune so that
// quoting a member in a summary doesn't trigger a mention
// notification on the chat side.
func MaskNick(nick string) string {
	for i := range nick {
		if i > 0 {
			return nick[:i] + "⋅" + nick[i:]
		}
	}
	return nick
}

// PollSummary renders the per-member voting state of a poll, one line
// per roster member in configured order. Open polls note absentees
// with "(yet)"; settled ones state it plainly.
func (c *Core) PollSummary(slug string) (string, error) {
	p, err := c.loadActive(slug)
	if err != nil {
		return "", err
	}
	current, err := c.store.CurrentVotes(slug)
	if err != nil {
		return "", err
	}

	yetSuffix := ""
	if p.State(poll.Cutoff(c.clock.Now())) == poll.StateOpen {
		yetSuffix = " (yet)"
	}

	var lines []string
	for _, member := range c.roster {
		nick := MaskNick(member.DisplayNick())
		entry, ok := current[member.ID]
		if !ok {
			lines = append(lines, fmt.Sprintf("%s has not voted%s", nick, yetSuffix))
			continue
		}
		if entry.Remark != "" {
			lines = append(lines, fmt.Sprintf("%s has voted %s: %s", nick, entry.Value, entry.Remark))
		} else {
			lines = append(lines, fmt.Sprintf("%s has voted %s without further comment", nick, entry.Value))
		}
	}
	return strings.Join(lines, "\n"), nil
}

// TallyLine renders a one-line tally, e.g.
// "3/5 votes cast (2 +1, 1 -0), result: pass".
func (c *Core) TallyLine(slug string) (string, error) {
	count, err := c.Tally(slug)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d/%d votes cast (%s), result: %s",
		count.Cast(), count.RosterSize, count, count.Result()), nil
}

// AnnouncementText renders the public result notice for a settled
// poll: the outcome line followed by the per-member summary.
func (c *Core) AnnouncementText(a Announcement) (string, error) {
	outcome := "failed"
	if a.Result == poll.ResultPass {
		outcome = "passed"
	}
	vetoNote := ""
	if a.Result == poll.ResultVeto {
		vetoNote = " (with veto)"
	}

	summary, err := c.PollSummary(a.Poll.Slug)
	if err != nil {
		return "", err
	}
	header := fmt.Sprintf("Poll %q concluded due to %s. It has %s%s.",
		a.Poll.Topic, a.Reason, outcome, vetoNote)
	return header + "\n" + summary, nil
}
