package entities

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"crm_search_backend/internal/events"

	"github.com/cespare/xxhash/v2"
)

// Data is the content of the pool as produced by a Loader.
type Data struct {
	Leads           []Record                   `json:"leads"`
	Clients         []Record                   `json:"clients"`
	CustomDocuments []CustomDocumentDefinition `json:"customDocuments"`
}

// Snapshot is an immutable view of the pool at a given version. Callers must
// not mutate the slices.
type Snapshot struct {
	Data
	Version  uint64
	LoadedAt time.Time
}

// Fingerprint hashes the pool content so unchanged reloads can be skipped.
func Fingerprint(data Data) uint64 {
	encoded, err := json.Marshal(data)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(encoded)
}

// Store owns the in-memory pool. Reads are snapshot reads; Replace swaps the
// whole pool and bumps the version so caches keyed on it go stale.
type Store struct {
	mu          sync.RWMutex
	snap        Snapshot
	fingerprint uint64
	bus         events.Bus
}

// NewStore creates an empty store. bus may be nil.
func NewStore(bus events.Bus) *Store {
	return &Store{bus: bus}
}

// AllLeads returns every lead in the pool.
func (s *Store) AllLeads() []Record {
	return s.Snapshot().Leads
}

// AllClients returns every client in the pool.
func (s *Store) AllClients() []Record {
	return s.Snapshot().Clients
}

// GlobalCustomDocuments returns the custom document definitions.
func (s *Store) GlobalCustomDocuments() []CustomDocumentDefinition {
	return s.Snapshot().CustomDocuments
}

// Snapshot returns the current pool.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Version returns the current pool version. Zero means never loaded.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Version
}

// Replace installs data as the new pool. It reports false and keeps the
// current version when data is identical to what is already loaded.
func (s *Store) Replace(ctx context.Context, source string, data Data) (Snapshot, bool) {
	fp := Fingerprint(data)

	s.mu.Lock()
	if s.snap.Version > 0 && fp != 0 && fp == s.fingerprint {
		snap := s.snap
		s.mu.Unlock()
		return snap, false
	}
	s.snap = Snapshot{
		Data:     cloneData(data),
		Version:  s.snap.Version + 1,
		LoadedAt: time.Now(),
	}
	s.fingerprint = fp
	snap := s.snap
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(ctx, events.PoolChanged{
			BaseEvent: events.NewBaseEvent(),
			Version:   snap.Version,
			Source:    source,
			Leads:     len(snap.Leads),
			Clients:   len(snap.Clients),
			Documents: len(snap.CustomDocuments),
		})
	}
	return snap, true
}

func cloneData(data Data) Data {
	return Data{
		Leads:           append([]Record(nil), data.Leads...),
		Clients:         append([]Record(nil), data.Clients...),
		CustomDocuments: append([]CustomDocumentDefinition(nil), data.CustomDocuments...),
	}
}
