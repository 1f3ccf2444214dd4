// Package jobs owns the process-wide scan job map and the worker that runs
// each job to completion.
package jobs

import (
	"sync"

	"secretscan/models"
)

// entry wraps one job record with its own lock, so a status poll can never
// observe a half-written progress/message/result triple. Records live for
// the whole process; there is no eviction.
type entry struct {
	mu  sync.Mutex
	job models.ScanJob
}

// Store is a concurrency-safe job map keyed by job id. Writes go through
// Update under the per-entry lock; Get hands out snapshots, never the live
// record.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

func (s *Store) Create(job models.ScanJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[job.ID] = &entry{job: job}
}

// Get returns a snapshot copy of the job record. The Result pointer is
// shared but the ScanResult it points to is immutable once attached.
func (s *Store) Get(id string) (models.ScanJob, bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return models.ScanJob{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job, true
}

// Update applies fn to the live record under its lock. Unknown ids are
// ignored.
func (s *Store) Update(id string, fn func(*models.ScanJob)) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.job)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
