// Copyright © 2026 The tangolint authors

package pipeline

import (
	"sort"
	"sync"

	"github.com/davejwalsh/tangolint/report"
)

// Store holds the current diagnostic set of each document. Sets are
// replaced wholesale; reads and writes copy.
type Store struct {
	mu      sync.RWMutex
	entries map[string][]report.Diagnostic
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string][]report.Diagnostic)}
}

// Set replaces the diagnostics of uri. An empty set is kept as a tracked,
// clean document.
func (s *Store) Set(uri string, diags []report.Diagnostic) {
	cp := make([]report.Diagnostic, len(diags))
	copy(cp, diags)
	s.mu.Lock()
	s.entries[uri] = cp
	s.mu.Unlock()
}

// Delete forgets uri.
func (s *Store) Delete(uri string) {
	s.mu.Lock()
	delete(s.entries, uri)
	s.mu.Unlock()
}

// Get returns a copy of the diagnostics of uri.
func (s *Store) Get(uri string) ([]report.Diagnostic, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	diags, ok := s.entries[uri]
	if !ok {
		return nil, false
	}
	cp := make([]report.Diagnostic, len(diags))
	copy(cp, diags)
	return cp, true
}

// URIs returns the tracked documents in sorted order.
func (s *Store) URIs() []string {
	s.mu.RLock()
	uris := make([]string, 0, len(s.entries))
	for uri := range s.entries {
		uris = append(uris, uri)
	}
	s.mu.RUnlock()
	sort.Strings(uris)
	return uris
}

// Clear forgets every document and returns the URIs that were tracked.
func (s *Store) Clear() []string {
	uris := s.URIs()
	s.mu.Lock()
	s.entries = make(map[string][]report.Diagnostic)
	s.mu.Unlock()
	return uris
}
