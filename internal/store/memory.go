// Package store provides the in-memory scan record store.
package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/recondor/recondor/internal/engine"
)

// ErrNotFound is returned when no scan exists for the requested ID.
var ErrNotFound = errors.New("scan not found")

// Memory is a mutex-guarded in-memory implementation of engine.Store.
// Save stores a snapshot copy, so readers polling progress observe
// module-boundary states only, never a record mid-mutation.
type Memory struct {
	mu    sync.RWMutex
	scans map[string]*engine.Scan
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{scans: make(map[string]*engine.Scan)}
}

// Create registers a new pending scan for the target and returns a copy.
func (m *Memory) Create(target string, opts engine.Options) *engine.Scan {
	scan := &engine.Scan{
		ID:        uuid.New().String(),
		Target:    target,
		Status:    engine.StatusPending,
		Options:   opts,
		Results:   make(map[string]engine.ModuleResult),
		CreatedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.scans[scan.ID] = scan.Clone()
	m.mu.Unlock()

	return scan
}

// Load returns a copy of the scan with the given ID.
func (m *Memory) Load(id string) (*engine.Scan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	scan, ok := m.scans[id]
	if !ok {
		return nil, ErrNotFound
	}
	return scan.Clone(), nil
}

// Save stores a snapshot of the scan, replacing any previous state.
func (m *Memory) Save(scan *engine.Scan) error {
	if scan == nil || scan.ID == "" {
		return errors.New("scan has no ID")
	}
	m.mu.Lock()
	m.scans[scan.ID] = scan.Clone()
	m.mu.Unlock()
	return nil
}

// List returns copies of all scans, newest first.
func (m *Memory) List() []*engine.Scan {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*engine.Scan, 0, len(m.scans))
	for _, s := range m.scans {
		out = append(out, s.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
