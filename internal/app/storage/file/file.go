// Package file persists collections as one JSON document per collection under
// a data directory (users.json, catalog.json), the layout the original
// frontend tooling expects.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gaiaquest/economy/internal/app/domain/shop"
	"github.com/gaiaquest/economy/internal/app/domain/user"
	"github.com/gaiaquest/economy/internal/app/storage"
	"github.com/gaiaquest/economy/pkg/logger"
)

// Store reads and writes whole-collection JSON documents. Writes are staged
// to a temp file and renamed into place so a crash never leaves a half-written
// document. A single mutex serializes writers within the process.
type Store struct {
	mu  sync.RWMutex
	dir string
	log *logger.Logger
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.CatalogStore = (*Store)(nil)

// New creates a store rooted at dir. The directory is created lazily on the
// first write.
func New(dir string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewDefault("file-store")
	}
	return &Store{dir: dir, log: log}
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadUsersLocked(), nil
}

func (s *Store) SaveUsers(_ context.Context, users []user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeDocument(storage.UsersCollection, users)
}

func (s *Store) UpdateUsers(_ context.Context, mutate func(users []user.User) ([]user.User, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, err := mutate(s.loadUsersLocked())
	if err != nil {
		return err
	}
	if updated == nil {
		return nil
	}
	return s.writeDocument(storage.UsersCollection, updated)
}

func (s *Store) ListItems(_ context.Context) ([]shop.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []shop.Item
	if data, ok := s.readDocument(storage.CatalogCollection); ok {
		if err := json.Unmarshal(data, &items); err != nil {
			s.log.WithError(err).Warnf("parse %s document", storage.CatalogCollection)
			items = nil
		}
	}
	return items, nil
}

func (s *Store) SaveItems(_ context.Context, items []shop.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeDocument(storage.CatalogCollection, items)
}

func (s *Store) loadUsersLocked() []user.User {
	var users []user.User
	if data, ok := s.readDocument(storage.UsersCollection); ok {
		if err := json.Unmarshal(data, &users); err != nil {
			s.log.WithError(err).Warnf("parse %s document", storage.UsersCollection)
			users = nil
		}
	}
	if users == nil {
		users = []user.User{}
	}
	for i := range users {
		users[i].Normalize()
	}
	return users
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// readDocument returns the raw document bytes. Missing documents are normal
// (first run); any other read failure is logged and treated the same so
// callers always see a well-formed, possibly empty, collection.
func (s *Store) readDocument(name string) ([]byte, bool) {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.WithError(err).Warnf("read %s document", name)
		}
		return nil, false
	}
	return data, true
}

func (s *Store) writeDocument(name string, v interface{}) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", name, err)
	}
	data = append(data, '\n')

	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("stage %s document: %w", name, err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		return fmt.Errorf("swap %s document: %w", name, err)
	}
	return nil
}
