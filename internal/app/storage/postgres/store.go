// Package postgres keeps each collection as a single jsonb document row,
// preserving the whole-document read/write contract of the file store while
// letting deployments share a managed database.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/gaiaquest/economy/internal/app/domain/shop"
	"github.com/gaiaquest/economy/internal/app/domain/user"
	"github.com/gaiaquest/economy/internal/app/storage"
	"github.com/gaiaquest/economy/pkg/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS economy_documents (
	name       text PRIMARY KEY,
	body       jsonb NOT NULL,
	updated_at timestamptz NOT NULL
)`

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db  *sqlx.DB
	log *logger.Logger
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.CatalogStore = (*Store)(nil)

// Open connects to the database and returns a Store.
func Open(ctx context.Context, dsn string, log *logger.Logger) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn not configured")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return New(db, log), nil
}

// New creates a Store using the provided database handle.
func New(db *sqlx.DB, log *logger.Logger) *Store {
	if log == nil {
		log = logger.NewDefault("postgres-store")
	}
	return &Store{db: db, log: log}
}

// EnsureSchema creates the documents table when it does not exist and seeds
// an empty users document. Without the row, SELECT ... FOR UPDATE in
// UpdateUsers has nothing to lock and first-ever concurrent updates could
// race.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, seedQuery, storage.UsersCollection, []byte("[]"), time.Now().UTC()); err != nil {
		return fmt.Errorf("seed %s document: %w", storage.UsersCollection, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	users := s.decodeUsers(s.loadDocument(ctx, storage.UsersCollection))
	return users, nil
}

func (s *Store) SaveUsers(ctx context.Context, users []user.User) error {
	body, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", storage.UsersCollection, err)
	}
	if _, err := s.db.ExecContext(ctx, upsertQuery, storage.UsersCollection, body, time.Now().UTC()); err != nil {
		return fmt.Errorf("save %s document: %w", storage.UsersCollection, err)
	}
	return nil
}

// UpdateUsers serializes concurrent updaters with a row lock on the users
// document, so the load-mutate-save section behaves as one transaction.
func (s *Store) UpdateUsers(ctx context.Context, mutate func(users []user.User) ([]user.User, error)) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	var raw []byte
	err = tx.GetContext(ctx, &raw, `SELECT body FROM economy_documents WHERE name = $1 FOR UPDATE`, storage.UsersCollection)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.log.WithError(err).Warnf("load %s document", storage.UsersCollection)
		raw = nil
	}

	updated, err := mutate(s.decodeUsers(raw))
	if err != nil {
		return err
	}
	if updated == nil {
		return nil
	}

	body, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", storage.UsersCollection, err)
	}
	if _, err := tx.ExecContext(ctx, upsertQuery, storage.UsersCollection, body, time.Now().UTC()); err != nil {
		return fmt.Errorf("save %s document: %w", storage.UsersCollection, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

func (s *Store) ListItems(ctx context.Context) ([]shop.Item, error) {
	raw := s.loadDocument(ctx, storage.CatalogCollection)
	if raw == nil {
		return nil, nil
	}
	var items []shop.Item
	if err := json.Unmarshal(raw, &items); err != nil {
		s.log.WithError(err).Warnf("parse %s document", storage.CatalogCollection)
		return nil, nil
	}
	return items, nil
}

func (s *Store) SaveItems(ctx context.Context, items []shop.Item) error {
	body, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", storage.CatalogCollection, err)
	}
	if _, err := s.db.ExecContext(ctx, upsertQuery, storage.CatalogCollection, body, time.Now().UTC()); err != nil {
		return fmt.Errorf("save %s document: %w", storage.CatalogCollection, err)
	}
	return nil
}

const upsertQuery = `
INSERT INTO economy_documents (name, body, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`

const seedQuery = `
INSERT INTO economy_documents (name, body, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO NOTHING`

// loadDocument returns the raw document body, or nil when the row is missing
// or unreadable; read failures are logged, never surfaced.
func (s *Store) loadDocument(ctx context.Context, name string) []byte {
	var raw []byte
	err := s.db.GetContext(ctx, &raw, `SELECT body FROM economy_documents WHERE name = $1`, name)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.log.WithError(err).Warnf("load %s document", name)
		}
		return nil
	}
	return raw
}

func (s *Store) decodeUsers(raw []byte) []user.User {
	var users []user.User
	if raw != nil {
		if err := json.Unmarshal(raw, &users); err != nil {
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
