package shop

import (
	"context"
	"fmt"

	"github.com/gaiaquest/economy/internal/app/domain/shop"
	"github.com/gaiaquest/economy/internal/app/storage"
	"github.com/gaiaquest/economy/pkg/logger"
)

// Service exposes the purchasable catalog. When the store holds no catalog
// document at all the built-in default items are served instead; a persisted
// empty catalog is served as-is so operators can close the shop.
type Service struct {
	store storage.CatalogStore
	log   *logger.Logger
}

func New(store storage.CatalogStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("shop")
	}
	return &Service{store: store, log: log}
}

// ListItems returns the active catalog in stable order.
func (s *Service) ListItems(ctx context.Context) ([]shop.Item, error) {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if items == nil {
		s.log.Debug("no catalog document, serving default items")
		return shop.DefaultCatalog(), nil
	}
	return items, nil
}
