package storage

import (
	"context"
	"sync"

	"github.com/verdantfoods/storefront/internal/domain"
)

// Memory is an in-memory CartStorage for tests.
type Memory struct {
	mu   sync.Mutex
	snap *domain.CartSnapshot

	// SaveErr, when set, is returned by Save to simulate write failure.
	SaveErr error

	// Saves counts Save calls so tests can assert persistence frequency.
	Saves int
}

// NewMemory creates an empty in-memory storage.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns the last saved snapshot or ErrSnapshotNotFound.
func (m *Memory) Load(ctx context.Context) (*domain.CartSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return nil, ErrSnapshotNotFound
	}
	cp := *m.snap
	cp.Lines = append([]domain.CartLine(nil), m.snap.Lines...)
	cp.SelectedIDs = append([]string(nil), m.snap.SelectedIDs...)
	return &cp, nil
}

// Save stores a copy of the snapshot.
func (m *Memory) Save(ctx context.Context, snap *domain.CartSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	cp := *snap
	cp.Lines = append([]domain.CartLine(nil), snap.Lines...)
	cp.SelectedIDs = append([]string(nil), snap.SelectedIDs...)
	m.snap = &cp
	return nil
}
