// Package preferences persists small per-user settings such as the project
// last opened in the forecast screen.
package preferences

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// KeyProjectID holds the id of the project selected on the forecast screen.
const KeyProjectID = "project_id"

var ErrEmptyUser = errors.New("empty user id")

// Preferences is a flat key/value bag owned by one user.
type Preferences map[string]string

// ProjectID returns the selected project, empty when none was chosen.
func (p Preferences) ProjectID() string {
	return strings.TrimSpace(p[KeyProjectID])
}

// Store reads and writes preferences. Set merges the given keys into the
// existing ones; an empty value removes the key.
type Store interface {
	Get(ctx context.Context, userID string) (Preferences, error)
	Set(ctx context.Context, userID string, prefs Preferences) error
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]Preferences
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: map[string]Preferences{}}
}

func (m *MemoryStore) Get(_ context.Context, userID string) (Preferences, error) {
	if userID == "" {
		return nil, ErrEmptyUser
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := Preferences{}
	for k, v := range m.users[userID] {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, userID string, prefs Preferences) error {
	if userID == "" {
		return ErrEmptyUser
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.users[userID]
	if !ok {
		cur = Preferences{}
		m.users[userID] = cur
	}
	for k, v := range prefs {
		if v == "" {
			delete(cur, k)
			continue
		}
		cur[k] = v
	}
	return nil
}
