package attempts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Record is the failure counter kept for one fingerprint.
type Record struct {
	Fingerprint string    `json:"fingerprint"`
	Failures    int       `json:"failures"`
	LastAttempt time.Time `json:"lastAttempt"`
}

// Store persists attempt records.
type Store interface {
	// Update atomically replaces the record for fingerprint with the result
	// of fn. fn receives a zero Record (Fingerprint set) when nothing is
	// stored. A returned record with zero Failures is deleted. If fn returns
	// an error nothing is written and Update returns fn's record and error.
	Update(ctx context.Context, fingerprint string, fn func(Record) (Record, error)) (Record, error)

	// Get returns the record for fingerprint, or a zero Record.
	Get(ctx context.Context, fingerprint string) (Record, error)

	// List returns all stored records.
	List(ctx context.Context) ([]Record, error)
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (m *MemoryStore) Update(_ context.Context, fingerprint string, fn func(Record) (Record, error)) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.records[fingerprint]
	if !ok {
		current = Record{Fingerprint: fingerprint}
	}

	next, err := fn(current)
	if err != nil {
		return next, err
	}
	next.Fingerprint = fingerprint

	if next.Failures <= 0 {
		delete(m.records, fingerprint)
		return Record{Fingerprint: fingerprint}, nil
	}
	m.records[fingerprint] = next
	return next, nil
}

func (m *MemoryStore) Get(_ context.Context, fingerprint string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.records[fingerprint]; ok {
		return r, nil
	}
	return Record{Fingerprint: fingerprint}, nil
}

func (m *MemoryStore) List(_ context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Fingerprint < records[j].Fingerprint
	})
	return records, nil
}
