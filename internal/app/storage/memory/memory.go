package memory

import (
	"context"
	"sync"

	"github.com/gaiaquest/economy/internal/app/domain/shop"
	"github.com/gaiaquest/economy/internal/app/domain/user"
	"github.com/gaiaquest/economy/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local
// development.
type Store struct {
	mu    sync.RWMutex
	users []user.User
	items []shop.Item
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.CatalogStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{}
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return normalizeAll(user.CloneAll(s.users)), nil
}

func (s *Store) SaveUsers(_ context.Context, users []user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = user.CloneAll(users)
	return nil
}

func (s *Store) UpdateUsers(_ context.Context, mutate func(users []user.User) ([]user.User, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := mutate(normalizeAll(user.CloneAll(s.users)))
	if err != nil {
		return err
	}
	if updated == nil {
		return nil
	}
	s.users = user.CloneAll(updated)
	return nil
}

// ListItems keeps nil (no catalog saved) distinct from a saved empty
// catalog, matching what document-backed stores report.
func (s *Store) ListItems(_ context.Context) ([]shop.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.items == nil {
		return nil, nil
	}
	items := make([]shop.Item, len(s.items))
	copy(items, s.items)
	return items, nil
}

func (s *Store) SaveItems(_ context.Context, items []shop.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if items == nil {
		s.items = nil
		return nil
	}
	s.items = make([]shop.Item, len(items))
	copy(s.items, items)
	return nil
}

func normalizeAll(users []user.User) []user.User {
	for i := range users {
		users[i].Normalize()
	}
	return users
}
