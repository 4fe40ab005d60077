package app

import (
	"context"
	"fmt"

	"github.com/gaiaquest/economy/internal/app/services/leaderboard"
	"github.com/gaiaquest/economy/internal/app/services/purchase"
	shopsvc "github.com/gaiaquest/economy/internal/app/services/shop"
	"github.com/gaiaquest/economy/internal/app/storage"
	"github.com/gaiaquest/economy/internal/app/storage/memory"
	"github.com/gaiaquest/economy/internal/app/system"
	"github.com/gaiaquest/economy/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users   storage.UserStore
	Catalog storage.CatalogStore
}

// Options tune the application services.
type Options struct {
	Repurchase purchase.RepurchasePolicy
	Locking    purchase.LockPolicy
	// WeeklyResetSchedule is a cron expression for the weekly XP reset.
	// Empty disables the job.
	WeeklyResetSchedule string
}

// Application ties the economy services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Leaderboard *leaderboard.Service
	Shop        *shopsvc.Service
	Purchases   *purchase.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Catalog == nil {
		stores.Catalog = mem
	}

	manager := system.NewManager()

	shopService := shopsvc.New(stores.Catalog, log)
	boardService := leaderboard.New(stores.Users, log)
	purchaseService := purchase.New(stores.Users, shopService, purchase.Options{
		Repurchase: opts.Repurchase,
		Locking:    opts.Locking,
	}, log)

	reset := leaderboard.NewWeeklyReset(stores.Users, opts.WeeklyResetSchedule, log)
	if err := manager.Register(reset); err != nil {
		return nil, fmt.Errorf("register %s: %w", reset.Name(), err)
	}

	return &Application{
		manager:     manager,
		log:         log,
		Leaderboard: boardService,
		Shop:        shopService,
		Purchases:   purchaseService,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
