// Package memory is an in-process store used by the memory backend and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"painel/internal/comparison"
	"painel/internal/core"
	"painel/internal/ports"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu        sync.RWMutex
	companies map[string]core.Company
	records   map[string]core.QuarterlyRecord
}

func New() *Store {
	return &Store{
		companies: make(map[string]core.Company),
		records:   make(map[string]core.QuarterlyRecord),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) ListCompanies(_ context.Context) ([]core.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Company, 0, len(s.companies))
	for _, c := range s.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetCompany(_ context.Context, id string) (core.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return core.Company{}, fmt.Errorf("company %s: %w", id, core.ErrNotFound)
	}
	return c, nil
}

func (s *Store) CreateCompany(_ context.Context, c core.Company) (core.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	s.companies[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCompany(_ context.Context, c core.Company) (core.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.companies[c.ID]
	if !ok {
		return core.Company{}, fmt.Errorf("company %s: %w", c.ID, core.ErrNotFound)
	}
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = time.Now().UTC()
	s.companies[c.ID] = c
	return c, nil
}

// DeleteCompany removes the company and its records.
func (s *Store) DeleteCompany(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[id]; !ok {
		return fmt.Errorf("company %s: %w", id, core.ErrNotFound)
	}
	delete(s.companies, id)
	for rid, r := range s.records {
		if r.CompanyID == id {
			delete(s.records, rid)
		}
	}
	return nil
}

func (s *Store) ListRecords(_ context.Context, companyID string) ([]core.QuarterlyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.QuarterlyRecord
	for _, r := range s.records {
		if r.CompanyID == companyID {
			out = append(out, r)
		}
	}
	return comparison.SortDescending(out), nil
}

func (s *Store) GetRecord(_ context.Context, id string) (core.QuarterlyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return core.QuarterlyRecord{}, fmt.Errorf("record %s: %w", id, core.ErrNotFound)
	}
	return r, nil
}

func (s *Store) CreateRecord(_ context.Context, r core.QuarterlyRecord) (core.QuarterlyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[r.CompanyID]; !ok {
		return core.QuarterlyRecord{}, fmt.Errorf("company %s: %w", r.CompanyID, core.ErrNotFound)
	}
	if s.takenLocked(r) {
		return core.QuarterlyRecord{}, fmt.Errorf("create record %s: %w", r.Quarter, core.ErrDuplicateQuarter)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	s.records[r.ID] = r
	return r, nil
}

func (s *Store) UpdateRecord(_ context.Context, r core.QuarterlyRecord) (core.QuarterlyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.records[r.ID]
	if !ok {
		return core.QuarterlyRecord{}, fmt.Errorf("record %s: %w", r.ID, core.ErrNotFound)
	}
	r.CompanyID = old.CompanyID
	if s.takenLocked(r) {
		return core.QuarterlyRecord{}, fmt.Errorf("update record %s: %w", r.ID, core.ErrDuplicateQuarter)
	}
	r.CreatedAt = old.CreatedAt
	r.UpdatedAt = time.Now().UTC()
	s.records[r.ID] = r
	return r, nil
}

func (s *Store) DeleteRecord(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("record %s: %w", id, core.ErrNotFound)
	}
	delete(s.records, id)
	return nil
}

// takenLocked reports whether another record already holds r's quarter.
func (s *Store) takenLocked(r core.QuarterlyRecord) bool {
	for id, o := range s.records {
		if id != r.ID && o.CompanyID == r.CompanyID && o.Year == r.Year && o.QuarterNumber == r.QuarterNumber {
			return true
		}
	}
	return false
}
