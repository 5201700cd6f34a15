// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package batch

import (
	"context"
	"time"

	"github.com/siemens/reachdig/store"
)

// expirations is a read-only snapshot of the whois dataset, shared by all
// workers of a run.
type expirations map[string]store.WhoisRecord

// loadExpirations removes the expired rows from the whois dataset and returns
// a snapshot of the remaining rows.
func loadExpirations(ctx context.Context, st store.WhoisStore, now time.Time) (expirations, int, error) {
	recs, err := st.All(ctx)
	if err != nil {
		return nil, 0, err
	}
	snapshot := make(expirations, len(recs))
	removed := 0
	for _, rec := range recs {
		if rec.Expired(now) {
			if err := st.Remove(ctx, rec.IDNASubject); err != nil {
				return nil, removed, err
			}
			removed++
			continue
		}
		snapshot[rec.IDNASubject] = rec
	}
	return snapshot, removed, nil
}

// Expiration returns the cached expiration date of the specified (IDNA)
// subject.
func (e expirations) Expiration(subject string) (string, time.Time, bool) {
	rec, ok := e[subject]
	if !ok {
		return "", time.Time{}, false
	}
	return rec.ExpirationDate, time.Unix(rec.Epoch, 0).UTC(), true
}
