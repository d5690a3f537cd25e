// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package pollarchive

import (
	"fmt"

	"github.com/council-foundation/council/lib/pollstore"
)

// Prune permanently destroys the polls named in an export's manifest.
// Every poll is re-checked first: if any has gone back to unsettled
// since the export (a corrected delete does that), nothing at all is
// destroyed. Polls already gone are skipped.
//
// Destruction is irreversible, so on a mid-prune failure the returned
// list still names every poll destroyed before the error.
func Prune(store *pollstore.Store, manifest *Manifest) ([]string, error) {
	var doomed []string
	for _, entry := range manifest.Polls {
		p, err := store.LoadPoll(entry.Slug)
		if err != nil {
			if pollstore.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if !p.Concluded && !p.Deleted {
			return nil, fmt.Errorf("poll %s is no longer settled: nothing was pruned", entry.Slug)
		}
		doomed = append(doomed, entry.Slug)
	}

	var destroyed []string
	for _, slug := range doomed {
		unlock := store.LockSlug(slug)
		err := store.Destroy(slug)
		unlock()
		if err != nil {
			if pollstore.IsNotFound(err) {
				continue
			}
			return destroyed, fmt.Errorf("destroying poll %s: %w", slug, err)
		}
		destroyed = append(destroyed, slug)
	}
	return destroyed, nil
}
