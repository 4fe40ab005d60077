package storage

import (
	"context"

	"github.com/gaiaquest/economy/internal/app/domain/shop"
	"github.com/gaiaquest/economy/internal/app/domain/user"
)

// Collection names used by document-backed stores.
const (
	UsersCollection   = "users"
	CatalogCollection = "catalog"
)

// UserStore persists the user collection as a whole document. Loads always
// yield a well-formed collection: a missing or unreadable document degrades to
// an empty one, with the failure logged by the implementation.
type UserStore interface {
	ListUsers(ctx context.Context) ([]user.User, error)
	SaveUsers(ctx context.Context, users []user.User) error

	// UpdateUsers runs mutate with the store's write lock held so the whole
	// load-mutate-save section is serialized against other updaters. The
	// returned collection replaces the document; returning nil skips the
	// write. An error from mutate aborts the update and is returned
	// unwrapped.
	UpdateUsers(ctx context.Context, mutate func(users []user.User) ([]user.User, error)) error
}

// CatalogStore persists the shop catalog document.
type CatalogStore interface {
	ListItems(ctx context.Context) ([]shop.Item, error)
	SaveItems(ctx context.Context, items []shop.Item) error
}
