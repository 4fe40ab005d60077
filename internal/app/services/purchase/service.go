package purchase

import (
	"context"
	"errors"
	"fmt"

	domainshop "github.com/gaiaquest/economy/internal/app/domain/shop"
	"github.com/gaiaquest/economy/internal/app/domain/user"
	"github.com/gaiaquest/economy/internal/app/metrics"
	"github.com/gaiaquest/economy/internal/app/services/shop"
	"github.com/gaiaquest/economy/internal/app/storage"
	"github.com/gaiaquest/economy/pkg/logger"
)

// Purchase failure modes. Handlers map these onto HTTP statuses.
var (
	ErrInvalidRequest    = errors.New("userId and itemId are required")
	ErrUserNotFound      = errors.New("user not found")
	ErrItemNotFound      = errors.New("item not found")
	ErrInsufficientFunds = errors.New("not enough XP")
	ErrAlreadyOwned      = errors.New("item already owned")
)

// RepurchasePolicy decides what buying an already-owned item does.
type RepurchasePolicy string

const (
	// RepurchaseCharge debits XP again without duplicating ownership.
	RepurchaseCharge RepurchasePolicy = "charge"
	// RepurchaseReject refuses the purchase outright.
	RepurchaseReject RepurchasePolicy = "reject"
)

// LockPolicy decides how concurrent purchases against the same store are
// coordinated.
type LockPolicy string

const (
	// LockSerialize runs the whole read-modify-write under the store's
	// update transaction.
	LockSerialize LockPolicy = "serialize"
	// LockNone performs an unguarded load and save. Last writer wins.
	LockNone LockPolicy = "none"
)

// Options tune purchase behaviour. Zero values fall back to charge and
// serialize.
type Options struct {
	Repurchase RepurchasePolicy
	Locking    LockPolicy
}

func (o Options) withDefaults() Options {
	if o.Repurchase == "" {
		o.Repurchase = RepurchaseCharge
	}
	if o.Locking == "" {
		o.Locking = LockSerialize
	}
	return o
}

// Receipt is the buyer's state after a successful purchase.
type Receipt struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	XP    int      `json:"xp"`
	Owned []string `json:"owned"`
}

// Service debits XP and grants item ownership.
type Service struct {
	users   storage.UserStore
	catalog *shop.Service
	opts    Options
	log     *logger.Logger
}

func New(users storage.UserStore, catalog *shop.Service, opts Options, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("purchase")
	}
	return &Service{users: users, catalog: catalog, opts: opts.withDefaults(), log: log}
}

// Purchase buys itemID for userID, debiting the item's price from the user's
// XP and appending the item to their owned list if not already present.
func (s *Service) Purchase(ctx context.Context, userID, itemID string) (Receipt, error) {
	receipt, price, err := s.purchase(ctx, userID, itemID)
	if err != nil {
		metrics.RecordPurchase(statusLabel(err), 0)
		return Receipt{}, err
	}
	metrics.RecordPurchase(statusLabel(nil), price)
	s.log.WithField("user", userID).WithField("item", itemID).Info("purchase completed")
	return receipt, nil
}

func (s *Service) purchase(ctx context.Context, userID, itemID string) (Receipt, int, error) {
	// Only truly empty ids are malformed; anything else falls through to
	// the user and item lookups.
	if userID == "" || itemID == "" {
		return Receipt{}, 0, ErrInvalidRequest
	}

	items, err := s.catalog.ListItems(ctx)
	if err != nil {
		return Receipt{}, 0, err
	}

	if s.opts.Locking == LockNone {
		return s.purchaseUnlocked(ctx, userID, itemID, items)
	}

	var receipt Receipt
	var price int
	err = s.users.UpdateUsers(ctx, func(users []user.User) ([]user.User, error) {
		var applyErr error
		receipt, price, applyErr = s.apply(users, userID, itemID, items)
		if applyErr != nil {
			return nil, applyErr
		}
		return users, nil
	})
	if err != nil {
		return Receipt{}, price, err
	}
	return receipt, price, nil
}

func (s *Service) purchaseUnlocked(ctx context.Context, userID, itemID string, items []domainshop.Item) (Receipt, int, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return Receipt{}, 0, fmt.Errorf("load users: %w", err)
	}
	receipt, price, err := s.apply(users, userID, itemID, items)
	if err != nil {
		return Receipt{}, price, err
	}
	if err := s.users.SaveUsers(ctx, users); err != nil {
		return Receipt{}, price, fmt.Errorf("save users: %w", err)
	}
	return receipt, price, nil
}

// apply mutates users in place and reports the charged price.
func (s *Service) apply(users []user.User, userID, itemID string, items []domainshop.Item) (Receipt, int, error) {
	idx := -1
	for i := range users {
		if users[i].ID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Receipt{}, 0, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	item, ok := domainshop.Find(items, itemID)
	if !ok {
		return Receipt{}, 0, fmt.Errorf("%w: %s", ErrItemNotFound, itemID)
	}

	buyer := &users[idx]
	if buyer.XP < item.Price {
		return Receipt{}, item.Price, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, buyer.XP, item.Price)
	}
	if s.opts.Repurchase == RepurchaseReject && buyer.Owns(item.ID) {
		return Receipt{}, item.Price, fmt.Errorf("%w: %s", ErrAlreadyOwned, item.ID)
	}

	buyer.XP -= item.Price
	if !buyer.Owns(item.ID) {
		buyer.Owned = append(buyer.Owned, item.ID)
	}

	receipt := Receipt{
		ID:    buyer.ID,
		Name:  buyer.Name,
		XP:    buyer.XP,
		Owned: append([]string(nil), buyer.Owned...),
	}
	return receipt, item.Price, nil
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_xp"
	case errors.Is(err, ErrAlreadyOwned):
		return "already_owned"
	default:
		return "error"
	}
}
