package auth

import (
	"context"
	"sync"
	"time"

	"github.com/gatekit/authgate/internal/shared"
)

// MemoryRepository is an in-memory credential store used by tests and by
// the gateway's ephemeral dev mode. A single mutex serializes writes so
// the email-uniqueness invariant holds under concurrent registrations.
type MemoryRepository struct {
	mu      sync.Mutex
	byEmail map[string]*User
	nextID  int64
}

// NewMemoryRepository constructs an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byEmail: make(map[string]*User), nextID: 1}
}

// FindByEmail fetches a user by exact email match.
func (m *MemoryRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

// EmailExists reports whether a record already uses the email.
func (m *MemoryRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byEmail[email]
	return ok, nil
}

// Create appends the user, assigning an id and creation time.
func (m *MemoryRepository) Create(ctx context.Context, user *User) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[user.Email]; ok {
		return nil, shared.ErrEmailTaken
	}
	user.ID = m.nextID
	user.CreatedAt = time.Now().UTC()
	m.nextID++
	stored := *user
	m.byEmail[user.Email] = &stored
	return user, nil
}

var _ Repository = (*MemoryRepository)(nil)
