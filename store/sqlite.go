// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteFileName = "reachdig.db"

const schema = `
CREATE TABLE IF NOT EXISTS inactive (
    file TEXT NOT NULL,
    subject TEXT NOT NULL,
    idna_subject TEXT,
    status TEXT NOT NULL,
    status_source TEXT NOT NULL,
    included_at INTEGER NOT NULL,
    last_retested_at INTEGER NOT NULL,
    PRIMARY KEY (file, subject)
);
CREATE TABLE IF NOT EXISTS whois (
    idna_subject TEXT PRIMARY KEY,
    subject TEXT NOT NULL,
    expiration_date TEXT NOT NULL,
    epoch INTEGER NOT NULL
);
`

func openSQLite(dir string) (*Stores, error) {
	db, err := sql.Open("sqlite", filepath.Join(dir, sqliteFileName))
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	// The coordinator is the only writer anyway, and a single connection
	// avoids SQLITE_BUSY errors.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA encoding = 'UTF-8'"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cannot initialize database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cannot initialize database: %w", err)
	}
	return &Stores{
		Inactive: &sqliteInactive{db: db},
		Whois:    &sqliteWhois{db: db},
		flush:    func() error { return nil },
		close:    db.Close,
	}, nil
}

type sqliteInactive struct {
	db *sql.DB
}

func (s *sqliteInactive) Add(ctx context.Context, rec InactiveRecord) error {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO inactive (file, subject, idna_subject, status, status_source, included_at, last_retested_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(file, subject) DO NOTHING`,
		rec.File, rec.Subject, rec.IDNASubject, rec.Status.String(), rec.StatusSource.String(),
		rec.IncludedAt.UnixNano(), rec.LastRetestedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("cannot add inactive row: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrExists
	}
	return nil
}

func (s *sqliteInactive) Update(ctx context.Context, rec InactiveRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO inactive (file, subject, idna_subject, status, status_source, included_at, last_retested_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(file, subject) DO UPDATE SET
    idna_subject=excluded.idna_subject,
    status=excluded.status,
    status_source=excluded.status_source,
    included_at=excluded.included_at,
    last_retested_at=excluded.last_retested_at`,
		rec.File, rec.Subject, rec.IDNASubject, rec.Status.String(), rec.StatusSource.String(),
		rec.IncludedAt.UnixNano(), rec.LastRetestedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("cannot update inactive row: %w", err)
	}
	return nil
}

func (s *sqliteInactive) Remove(ctx context.Context, file, subject string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM inactive WHERE file = ? AND subject = ?", file, subject); err != nil {
		return fmt.Errorf("cannot remove inactive row: %w", err)
	}
	return nil
}

func (s *sqliteInactive) Exists(ctx context.Context, file, subject string) (bool, error) {
	_, ok, err := s.Get(ctx, file, subject)
	return ok, err
}

func (s *sqliteInactive) Get(ctx context.Context, file, subject string) (InactiveRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT file, subject, idna_subject, status, status_source, included_at, last_retested_at
FROM inactive WHERE file = ? AND subject = ?`, file, subject)
	rec, err := scanInactive(row)
	if errors.Is(err, sql.ErrNoRows) {
		return InactiveRecord{}, false, nil
	}
	if err != nil {
		return InactiveRecord{}, false, err
	}
	return rec, true, nil
}

func (s *sqliteInactive) All(ctx context.Context, file string) ([]InactiveRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT file, subject, idna_subject, status, status_source, included_at, last_retested_at
FROM inactive WHERE file = ? ORDER BY subject`, file)
	if err != nil {
		return nil, fmt.Errorf("cannot query inactive rows: %w", err)
	}
	defer rows.Close()
	var recs []InactiveRecord
	for rows.Next() {
		rec, err := scanInactive(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// scanner is implemented by both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInactive(sc scanner) (InactiveRecord, error) {
	var (
		rec                  InactiveRecord
		idna                 sql.NullString
		status, source       string
		included, lastTested int64
	)
	if err := sc.Scan(&rec.File, &rec.Subject, &idna, &status, &source, &included, &lastTested); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("cannot read inactive row: %w", err)
	}
	rec.IDNASubject = idna.String
	if err := rec.Status.UnmarshalText([]byte(status)); err != nil {
		return rec, err
	}
	if err := rec.StatusSource.UnmarshalText([]byte(source)); err != nil {
		return rec, err
	}
	rec.IncludedAt = time.Unix(0, included).UTC()
	rec.LastRetestedAt = time.Unix(0, lastTested).UTC()
	return rec, nil
}

type sqliteWhois struct {
	db *sql.DB
}

func (s *sqliteWhois) Add(ctx context.Context, rec WhoisRecord) error {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO whois (idna_subject, subject, expiration_date, epoch)
VALUES (?, ?, ?, ?)
ON CONFLICT(idna_subject) DO NOTHING`,
		rec.IDNASubject, rec.Subject, rec.ExpirationDate, rec.Epoch)
	if err != nil {
		return fmt.Errorf("cannot add whois row: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrExists
	}
	return nil
}

func (s *sqliteWhois) Update(ctx context.Context, rec WhoisRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO whois (idna_subject, subject, expiration_date, epoch)
VALUES (?, ?, ?, ?)
ON CONFLICT(idna_subject) DO UPDATE SET
    subject=excluded.subject,
    expiration_date=excluded.expiration_date,
    epoch=excluded.epoch`,
		rec.IDNASubject, rec.Subject, rec.ExpirationDate, rec.Epoch)
	if err != nil {
		return fmt.Errorf("cannot update whois row: %w", err)
	}
	return nil
}

func (s *sqliteWhois) Remove(ctx context.Context, idnaSubject string) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM whois WHERE idna_subject = ?", idnaSubject); err != nil {
		return fmt.Errorf("cannot remove whois row: %w", err)
	}
	return nil
}

func (s *sqliteWhois) Exists(ctx context.Context, idnaSubject string) (bool, error) {
	_, ok, err := s.Get(ctx, idnaSubject)
	return ok, err
}

func (s *sqliteWhois) Get(ctx context.Context, idnaSubject string) (WhoisRecord, bool, error) {
	var rec WhoisRecord
	err := s.db.QueryRowContext(ctx, `
SELECT idna_subject, subject, expiration_date, epoch FROM whois WHERE idna_subject = ?`,
		idnaSubject).Scan(&rec.IDNASubject, &rec.Subject, &rec.ExpirationDate, &rec.Epoch)
	if errors.Is(err, sql.ErrNoRows) {
		return WhoisRecord{}, false, nil
	}
	if err != nil {
		return WhoisRecord{}, false, fmt.Errorf("cannot read whois row: %w", err)
	}
	return rec, true, nil
}

func (s *sqliteWhois) All(ctx context.Context) ([]WhoisRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT idna_subject, subject, expiration_date, epoch FROM whois ORDER BY idna_subject`)
	if err != nil {
		return nil, fmt.Errorf("cannot query whois rows: %w", err)
	}
	defer rows.Close()
	var recs []WhoisRecord
	for rows.Next() {
		var rec WhoisRecord
		if err := rows.Scan(&rec.IDNASubject, &rec.Subject, &rec.ExpirationDate, &rec.Epoch); err != nil {
			return nil, fmt.Errorf("cannot read whois row: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

