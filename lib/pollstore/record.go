// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollstore

import (
	"fmt"
	"time"

	"github.com/council-foundation/council/lib/poll"
)

// The on-disk records are separate structs from the domain types so
// the domain model stays free of filesystem vocabulary: "dirname" and
// the flag files exist only here, and the booleans on poll.Poll are
// mapped to flag-file presence by the store.

// metadataRecord is votes/{slug}/metadata.toml.
type metadataRecord struct {
	StartTime       time.Time `toml:"start_time"`
	EndTime         time.Time `toml:"end_time"`
	Topic           string    `toml:"topic"`
	Actor           string    `toml:"actor"`
	Dirname         string    `toml:"dirname"`
	Tag             string    `toml:"tag,omitempty"`
	Description     string    `toml:"description,omitempty"`
	URLs            []string  `toml:"urls,omitempty"`
	ConcludedReason string    `toml:"concluded_reason,omitempty"`
}

// ledgerRecord is votes/{slug}/vote-{member}.toml: the ordered vote
// history as an array of tables.
type ledgerRecord struct {
	Votes []voteRecord `toml:"votes"`
}

type voteRecord struct {
	Value  string `toml:"value"`
	Remark string `toml:"remark"`
}

// memberRecord is members/{member}.toml.
type memberRecord struct {
	LastTransaction *transactionRecord `toml:"last_transaction,omitempty"`
}

type transactionRecord struct {
	MemberMessageID string      `toml:"member_message_id"`
	OurMessageID    string      `toml:"our_message_id"`
	Action          string      `toml:"action"`
	Target          string      `toml:"target"`
	Undo            *undoRecord `toml:"undo,omitempty"`
}

// undoRecord is the persisted undo payload. Only the fields for the
// transaction's action are set; the others marshal away under
// omitempty.
type undoRecord struct {
	PrevTopic   string          `toml:"prev_topic,omitempty"`
	PrevTag     string          `toml:"prev_tag,omitempty"`
	HadPrevVote bool            `toml:"had_prev_vote,omitempty"`
	PrevValue   string          `toml:"prev_value,omitempty"`
	PrevRemark  string          `toml:"prev_remark,omitempty"`
	URL         string          `toml:"url,omitempty"`
	Snapshot    *snapshotRecord `toml:"snapshot,omitempty"`
}

// snapshotRecord is a full poll copy inlined into a delete
// transaction: the metadata plus every member's ledger, keyed by the
// member identity verbatim (not filename-escaped; this is record
// content, not a path).
type snapshotRecord struct {
	Metadata  metadataRecord          `toml:"metadata"`
	Concluded bool                    `toml:"concluded,omitempty"`
	Ledgers   map[string]ledgerRecord `toml:"ledgers,omitempty"`
}

func recordFromPoll(p *poll.Poll) metadataRecord {
	return metadataRecord{
		StartTime:       p.StartTime,
		EndTime:         p.EndTime,
		Topic:           p.Topic,
		Actor:           p.Actor,
		Dirname:         p.Slug,
		Tag:             p.Tag,
		Description:     p.Description,
		URLs:            p.URLs,
		ConcludedReason: p.ConcludedReason,
	}
}

// pollFromRecord rebuilds the domain poll from its metadata record.
// The concluded/deleted booleans come from flag-file presence, which
// the store checks separately.
func pollFromRecord(slug string, record metadataRecord, concluded, deleted bool) *poll.Poll {
	return &poll.Poll{
		Slug:            slug,
		Topic:           record.Topic,
		Tag:             record.Tag,
		Description:     record.Description,
		URLs:            record.URLs,
		Actor:           record.Actor,
		StartTime:       record.StartTime,
		EndTime:         record.EndTime,
		Concluded:       concluded,
		ConcludedReason: record.ConcludedReason,
		Deleted:         deleted,
	}
}

func recordFromLedger(entries []poll.VoteEntry) ledgerRecord {
	record := ledgerRecord{Votes: make([]voteRecord, 0, len(entries))}
	for _, entry := range entries {
		record.Votes = append(record.Votes, voteRecord{
			Value:  string(entry.Value),
			Remark: entry.Remark,
		})
	}
	return record
}

func ledgerFromRecord(record ledgerRecord) ([]poll.VoteEntry, error) {
	entries := make([]poll.VoteEntry, 0, len(record.Votes))
	for i, vote := range record.Votes {
		value, err := poll.ParseVoteValue(vote.Value)
		if err != nil {
			return nil, fmt.Errorf("vote %d: %w", i, err)
		}
		entries = append(entries, poll.VoteEntry{Value: value, Remark: vote.Remark})
	}
	return entries, nil
}

func recordFromTransaction(txn *poll.Transaction) *transactionRecord {
	record := &transactionRecord{
		MemberMessageID: txn.ID,
		OurMessageID:    txn.ReplyID,
		Action:          string(txn.Action),
		Target:          txn.Target,
	}

	undo := undoRecord{
		PrevTopic:   txn.Undo.PrevTopic,
		PrevTag:     txn.Undo.PrevTag,
		HadPrevVote: txn.Undo.HadPrevVote,
		PrevValue:   string(txn.Undo.PrevVote.Value),
		PrevRemark:  txn.Undo.PrevVote.Remark,
		URL:         txn.Undo.URL,
	}
	if snapshot := txn.Undo.Snapshot; snapshot != nil {
		snapshotRec := &snapshotRecord{
			Metadata:  recordFromPoll(&snapshot.Poll),
			Concluded: snapshot.Poll.Concluded,
			Ledgers:   make(map[string]ledgerRecord, len(snapshot.Ledgers)),
		}
		for member, entries := range snapshot.Ledgers {
			snapshotRec.Ledgers[member] = recordFromLedger(entries)
		}
		undo.Snapshot = snapshotRec
	}
	if undo != (undoRecord{}) {
		record.Undo = &undo
	}
	return record
}

func transactionFromRecord(actor string, record *transactionRecord) (*poll.Transaction, error) {
	action, err := poll.ParseAction(record.Action)
	if err != nil {
		return nil, err
	}

	txn := &poll.Transaction{
		ID:      record.MemberMessageID,
		ReplyID: record.OurMessageID,
		Actor:   actor,
		Action:  action,
		Target:  record.Target,
	}

	if undo := record.Undo; undo != nil {
		txn.Undo.PrevTopic = undo.PrevTopic
		txn.Undo.PrevTag = undo.PrevTag
		txn.Undo.HadPrevVote = undo.HadPrevVote
		txn.Undo.URL = undo.URL
		if undo.PrevValue != "" {
			value, err := poll.ParseVoteValue(undo.PrevValue)
			if err != nil {
				return nil, fmt.Errorf("undo payload: %w", err)
			}
			txn.Undo.PrevVote = poll.VoteEntry{Value: value, Remark: undo.PrevRemark}
		}
		if undo.Snapshot != nil {
			snapshot := &poll.Snapshot{
				Poll:    *pollFromRecord(undo.Snapshot.Metadata.Dirname, undo.Snapshot.Metadata, undo.Snapshot.Concluded, false),
				Ledgers: make(map[string][]poll.VoteEntry, len(undo.Snapshot.Ledgers)),
			}
			for member, ledger := range undo.Snapshot.Ledgers {
				entries, err := ledgerFromRecord(ledger)
				if err != nil {
					return nil, fmt.Errorf("undo snapshot ledger for %s: %w", member, err)
				}
				snapshot.Ledgers[member] = entries
			}
			txn.Undo.Snapshot = snapshot
		}
	}

	return txn, nil
}
