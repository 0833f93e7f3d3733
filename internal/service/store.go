package service

import (
	"sync"

	"github.com/jdufresne12/web-portal/internal/domain"
)

// Store owns the in-memory sponsor list and its stats. Readers only ever
// receive copies.
type Store struct {
	mu    sync.RWMutex
	items []domain.SponsorData
	stats domain.Stats
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Load replaces the whole list and rescans stats.
func (s *Store) Load(items []domain.SponsorData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = domain.SortByActiveAndDate(cloneAll(items))
	s.stats = domain.ComputeStats(s.items)
}

// ReplaceType swaps every record of type t for items and rescans stats.
func (s *Store) ReplaceType(t domain.SponsorType, items []domain.SponsorData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]domain.SponsorData, 0, len(s.items)+len(items))
	for _, item := range s.items {
		if item.Type != t {
			next = append(next, item)
		}
	}
	next = append(next, cloneAll(items)...)
	s.items = domain.SortByActiveAndDate(next)
	s.stats = domain.ComputeStats(s.items)
}

// Insert adds a record and re-sorts. An existing record with the same id is
// replaced instead.
func (s *Store) Insert(v domain.SponsorData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(v.ID); i >= 0 {
		prev := s.items[i]
		s.items[i] = v.Clone()
		s.stats.Update(&v, false, &prev, false)
	} else {
		s.items = append(s.items, v.Clone())
		s.stats.Update(&v, true, nil, false)
	}
	s.items = domain.SortByActiveAndDate(s.items)
}

// Replace swaps the record with v's id in place and returns the previous
// version. ok is false when no such record exists.
func (s *Store) Replace(v domain.SponsorData) (prev domain.SponsorData, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(v.ID)
	if i < 0 {
		return domain.SponsorData{}, false
	}
	prev = s.items[i]
	s.items[i] = v.Clone()
	s.stats.Update(&v, false, &prev, false)
	s.items = domain.SortByActiveAndDate(s.items)
	return prev.Clone(), true
}

// Remove deletes the record with id and returns it.
func (s *Store) Remove(id string) (domain.SponsorData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.SponsorData{}, false
	}
	removed := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.stats.Update(nil, false, &removed, true)
	return removed, true
}

// Find returns a copy of the record with id.
func (s *Store) Find(id string) (domain.SponsorData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.items[i].Clone(), true
	}
	return domain.SponsorData{}, false
}

// Snapshot returns the sorted records of type t (all types when t is empty)
// that match status.
func (s *Store) Snapshot(t domain.SponsorType, status domain.StatusFilter) []domain.SponsorData {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.SponsorData, 0, len(s.items))
	for _, item := range s.items {
		if t != "" && item.Type != t {
			continue
		}
		if !status.Match(item) {
			continue
		}
		out = append(out, item.Clone())
	}
	return out
}

// Stats returns the current counters.
func (s *Store) Stats() domain.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Len returns the number of records held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(items []domain.SponsorData) []domain.SponsorData {
	out := make([]domain.SponsorData, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}
