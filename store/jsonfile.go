// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const (
	inactiveFileName = "inactive.json"
	whoisFileName    = "whois.json"
)

// jsonFile is a dataset kept in memory and saved atomically as a JSON
// document.
type jsonFile[T any] struct {
	mu    sync.Mutex
	path  string
	dirty bool
	rows  T
}

func loadJSONFile[T any](path string, rows T) (*jsonFile[T], error) {
	f := &jsonFile[T]{path: path, rows: rows}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("cannot read dataset: %w", err)
	}
	if err := json.Unmarshal(data, &f.rows); err != nil {
		return nil, fmt.Errorf("cannot parse dataset %s: %w", path, err)
	}
	return f, nil
}

// save writes the dataset atomically, but only if it has changed.
func (f *jsonFile[T]) save() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.dirty {
		return nil
	}
	data, err := json.MarshalIndent(f.rows, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cannot write dataset: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("cannot write dataset: %w", err)
	}
	f.dirty = false
	return nil
}

func openJSON(dir string) (*Stores, error) {
	inactive, err := loadJSONFile(filepath.Join(dir, inactiveFileName),
		map[string]map[string]InactiveRecord{})
	if err != nil {
		return nil, err
	}
	whois, err := loadJSONFile(filepath.Join(dir, whoisFileName),
		map[string]WhoisRecord{})
	if err != nil {
		return nil, err
	}
	return &Stores{
		Inactive: (*jsonInactive)(inactive),
		Whois:    (*jsonWhois)(whois),
		flush: func() error {
			if err := inactive.save(); err != nil {
				return err
			}
			return whois.save()
		},
		close: func() error { return nil },
	}, nil
}

// jsonInactive keeps inactive rows indexed by source file and subject.
type jsonInactive jsonFile[map[string]map[string]InactiveRecord]

func (s *jsonInactive) Add(ctx context.Context, rec InactiveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[rec.File][rec.Subject]; ok {
		return ErrExists
	}
	s.put(rec)
	return nil
}

func (s *jsonInactive) Update(ctx context.Context, rec InactiveRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(rec)
	return nil
}

func (s *jsonInactive) put(rec InactiveRecord) {
	rows, ok := s.rows[rec.File]
	if !ok {
		rows = map[string]InactiveRecord{}
		s.rows[rec.File] = rows
	}
	rows[rec.Subject] = rec
	s.dirty = true
}

func (s *jsonInactive) Remove(ctx context.Context, file, subject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.rows[file]
	if !ok {
		return nil
	}
	if _, ok := rows[subject]; !ok {
		return nil
	}
	delete(rows, subject)
	if len(rows) == 0 {
		delete(s.rows, file)
	}
	s.dirty = true
	return nil
}

func (s *jsonInactive) Exists(ctx context.Context, file, subject string) (bool, error) {
	_, ok, err := s.Get(ctx, file, subject)
	return ok, err
}

func (s *jsonInactive) Get(ctx context.Context, file, subject string) (InactiveRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[file][subject]
	return rec, ok, nil
}

func (s *jsonInactive) All(ctx context.Context, file string) ([]InactiveRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := make([]InactiveRecord, 0, len(s.rows[file]))
	for _, rec := range s.rows[file] {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Subject < recs[j].Subject })
	return recs, nil
}

// jsonWhois keeps whois rows indexed by IDNA subject.
type jsonWhois jsonFile[map[string]WhoisRecord]

func (s *jsonWhois) Add(ctx context.Context, rec WhoisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[rec.IDNASubject]; ok {
		return ErrExists
	}
	s.rows[rec.IDNASubject] = rec
	s.dirty = true
	return nil
}

func (s *jsonWhois) Update(ctx context.Context, rec WhoisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[rec.IDNASubject] = rec
	s.dirty = true
	return nil
}

func (s *jsonWhois) Remove(ctx context.Context, idnaSubject string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[idnaSubject]; ok {
		delete(s.rows, idnaSubject)
		s.dirty = true
	}
	return nil
}

func (s *jsonWhois) Exists(ctx context.Context, idnaSubject string) (bool, error) {
	_, ok, err := s.Get(ctx, idnaSubject)
	return ok, err
}

func (s *jsonWhois) Get(ctx context.Context, idnaSubject string) (WhoisRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[idnaSubject]
	return rec, ok, nil
}

func (s *jsonWhois) All(ctx context.Context) ([]WhoisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := make([]WhoisRecord, 0, len(s.rows))
	for _, rec := range s.rows {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].IDNASubject < recs[j].IDNASubject })
	return recs, nil
}
