package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/udisondev/overcharge/internal/model"
)

// MockMaintainedStore is an in-memory maintained effect store for unit tests.
// Does not require PostgreSQL.
type MockMaintainedStore struct {
	mu      sync.RWMutex
	records map[uint32]model.MaintainedRecord

	// Err, if set, is returned by every method.
	Err error

	Saves   int
	Deletes int
}

// NewMockMaintainedStore creates an empty store.
func NewMockMaintainedStore() *MockMaintainedStore {
	return &MockMaintainedStore{
		records: make(map[uint32]model.MaintainedRecord),
	}
}

// SaveMaintained stores rec.
func (m *MockMaintainedStore) SaveMaintained(ctx context.Context, rec model.MaintainedRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return fmt.Errorf("saving maintained effect: %w", m.Err)
	}
	m.records[rec.ActorID] = rec
	m.Saves++
	return nil
}

// LoadMaintained returns a copy of the stored record or nil.
func (m *MockMaintainedStore) LoadMaintained(ctx context.Context, actorID uint32) (*model.MaintainedRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, fmt.Errorf("loading maintained effect: %w", m.Err)
	}
	rec, ok := m.records[actorID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// DeleteMaintained removes the record of actorID.
func (m *MockMaintainedStore) DeleteMaintained(ctx context.Context, actorID uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return fmt.Errorf("deleting maintained effect: %w", m.Err)
	}
	delete(m.records, actorID)
	m.Deletes++
	return nil
}

// Put stores rec without counting it as a save.
func (m *MockMaintainedStore) Put(rec model.MaintainedRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ActorID] = rec
}

// Has reports whether actorID has a record.
func (m *MockMaintainedStore) Has(actorID uint32) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.records[actorID]
	return ok
}

// MockFeedback records HUD messages and visual marker calls.
type MockFeedback struct {
	mu       sync.Mutex
	Messages []string
	Attached map[uint32][]uint32 // actorID → markers currently attached
	Detaches int
}

// NewMockFeedback creates an empty MockFeedback.
func NewMockFeedback() *MockFeedback {
	return &MockFeedback{Attached: make(map[uint32][]uint32)}
}

func (f *MockFeedback) ShowHUDMessage(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Messages = append(f.Messages, msg)
}

func (f *MockFeedback) AttachVisual(actorID, markerID uint32, seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Attached[actorID] = append(f.Attached[actorID], markerID)
}

func (f *MockFeedback) DetachVisual(actorID, markerID uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Detaches++
	markers := f.Attached[actorID]
	n := 0
	for _, m := range markers {
		if m != markerID {
			markers[n] = m
			n++
		}
	}
	f.Attached[actorID] = markers[:n]
}

// LastMessage returns the most recent HUD message or "".
func (f *MockFeedback) LastMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Messages) == 0 {
		return ""
	}
	return f.Messages[len(f.Messages)-1]
}
