// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/siemens/reachdig/config"
	"github.com/siemens/reachdig/types"
)

// ErrExists is returned when adding a row that already exists.
var ErrExists = errors.New("row already exists")

// InactiveRecord is a row of the inactive dataset.
type InactiveRecord struct {
	File           string       `json:"file"`
	Subject        string       `json:"subject"`
	IDNASubject    string       `json:"idna_subject,omitempty"`
	Status         types.Status `json:"status"`
	StatusSource   types.Source `json:"status_source"`
	IncludedAt     time.Time    `json:"included_at"`
	LastRetestedAt time.Time    `json:"last_retested_at"`
}

// WhoisRecord is a row of the whois dataset. Epoch is the parsed expiration
// date and the sole reference for staleness.
type WhoisRecord struct {
	Subject        string `json:"subject"`
	IDNASubject    string `json:"idna_subject"`
	ExpirationDate string `json:"expiration_date"`
	Epoch          int64  `json:"epoch"`
}

// Expired returns true if the expiration date lies before the specified
// point in time.
func (r WhoisRecord) Expired(now time.Time) bool {
	return r.Epoch < now.Unix()
}

// InactiveStore is the inactive dataset.
type InactiveStore interface {
	// Add adds a new row, returning ErrExists if there is already a row for
	// the same file and subject.
	Add(ctx context.Context, rec InactiveRecord) error
	// Update adds or replaces a row.
	Update(ctx context.Context, rec InactiveRecord) error
	// Remove removes a row, if present.
	Remove(ctx context.Context, file, subject string) error
	// Exists returns true if there is a row for the file and subject.
	Exists(ctx context.Context, file, subject string) (bool, error)
	// Get returns the row for the file and subject, if present.
	Get(ctx context.Context, file, subject string) (InactiveRecord, bool, error)
	// All returns all rows of the specified file.
	All(ctx context.Context, file string) ([]InactiveRecord, error)
}

// WhoisStore is the whois dataset.
type WhoisStore interface {
	// Add adds a new row, returning ErrExists if there is already a row for
	// the same (IDNA) subject.
	Add(ctx context.Context, rec WhoisRecord) error
	// Update adds or replaces a row.
	Update(ctx context.Context, rec WhoisRecord) error
	// Remove removes a row, if present.
	Remove(ctx context.Context, idnaSubject string) error
	// Exists returns true if there is a row for the (IDNA) subject.
	Exists(ctx context.Context, idnaSubject string) (bool, error)
	// Get returns the row for the (IDNA) subject, if present.
	Get(ctx context.Context, idnaSubject string) (WhoisRecord, bool, error)
	// All returns all rows.
	All(ctx context.Context) ([]WhoisRecord, error)
}

// Stores bundles the datasets of a backend.
type Stores struct {
	Inactive InactiveStore
	Whois    WhoisStore

	flush func() error
	close func() error
}

// Open opens the datasets in the specified directory using the specified
// backend, creating the directory as necessary.
func Open(backend config.Backend, dir string) (*Stores, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create store directory: %w", err)
	}
	switch backend {
	case config.BackendJSON:
		return openJSON(dir)
	case config.BackendSQLite:
		return openSQLite(dir)
	}
	return nil, fmt.Errorf("unsupported store backend %q", backend)
}

// Flush makes all changes durable.
func (s *Stores) Flush() error {
	return s.flush()
}

// Close flushes and then closes the datasets.
func (s *Stores) Close() error {
	if err := s.flush(); err != nil {
		_ = s.close()
		return err
	}
	return s.close()
}
