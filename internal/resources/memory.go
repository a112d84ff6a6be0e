package resources

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gatekit/authgate/internal/shared"
)

// MemoryRepository is an in-memory document store used by tests and by
// the gateway's ephemeral dev mode.
type MemoryRepository struct {
	mu     sync.Mutex
	docs   map[string]map[int64]Document
	nextID int64
}

// NewMemoryRepository constructs an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[string]map[int64]Document), nextID: 1}
}

// List returns one page of documents plus the collection total.
func (m *MemoryRepository) List(ctx context.Context, collection string, limit, offset int) ([]Document, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.docs[collection]
	ids := make([]int64, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	// Ascending id order, matching the SQL repository.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	out := []Document{}
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, all[id])
	}
	return out, len(all), nil
}

// Get fetches one document.
func (m *MemoryRepository) Get(ctx context.Context, collection string, id int64) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[collection][id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &doc, nil
}

// Create inserts a document and returns it with the assigned id.
func (m *MemoryRepository) Create(ctx context.Context, collection string, data json.RawMessage) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs[collection] == nil {
		m.docs[collection] = make(map[int64]Document)
	}
	now := time.Now().UTC()
	doc := Document{Collection: collection, ID: m.nextID, Data: data, CreatedAt: now, UpdatedAt: now}
	m.docs[collection][doc.ID] = doc
	m.nextID++
	return &doc, nil
}

// Replace overwrites a document's data in full.
func (m *MemoryRepository) Replace(ctx context.Context, collection string, id int64, data json.RawMessage) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[collection][id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	doc.Data = data
	doc.UpdatedAt = time.Now().UTC()
	m.docs[collection][id] = doc
	return &doc, nil
}

// Merge shallow-merges the patch into the stored document.
func (m *MemoryRepository) Merge(ctx context.Context, collection string, id int64, data json.RawMessage) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[collection][id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	var current, patch map[string]any
	if err := json.Unmarshal(doc.Data, &current); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &patch); err != nil {
		return nil, err
	}
	for k, v := range patch {
		current[k] = v
	}
	merged, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	doc.Data = merged
	doc.UpdatedAt = time.Now().UTC()
	m.docs[collection][id] = doc
	return &doc, nil
}

// Delete removes a document.
func (m *MemoryRepository) Delete(ctx context.Context, collection string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[collection][id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.docs[collection], id)
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
