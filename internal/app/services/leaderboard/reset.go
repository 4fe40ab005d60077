package leaderboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/gaiaquest/economy/internal/app/domain/user"
	"github.com/gaiaquest/economy/internal/app/storage"
	"github.com/gaiaquest/economy/internal/app/system"
	"github.com/gaiaquest/economy/pkg/logger"
)

// WeeklyReset zeroes every user's weekly XP on a cron schedule so the weekly
// board starts fresh. An empty schedule disables the job.
type WeeklyReset struct {
	store    storage.UserStore
	schedule string
	log      *logger.Logger
	cron     *cron.Cron
}

var _ system.Service = (*WeeklyReset)(nil)

// NewWeeklyReset constructs the reset job. Schedule accepts cron specs and
// the @weekly style descriptors.
func NewWeeklyReset(store storage.UserStore, schedule string, log *logger.Logger) *WeeklyReset {
	if log == nil {
		log = logger.NewDefault("weekly-reset")
	}
	return &WeeklyReset{store: store, schedule: strings.TrimSpace(schedule), log: log}
}

func (r *WeeklyReset) Name() string { return "leaderboard-weekly-reset" }

func (r *WeeklyReset) Start(_ context.Context) error {
	if r.schedule == "" {
		r.log.Info("weekly XP reset disabled")
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(r.schedule, func() {
		if err := r.Reset(context.Background()); err != nil {
			r.log.WithError(err).Warn("weekly XP reset failed")
		}
	})
	if err != nil {
		return fmt.Errorf("parse reset schedule %q: %w", r.schedule, err)
	}

	c.Start()
	r.cron = c
	r.log.WithField("schedule", r.schedule).Info("weekly XP reset scheduled")
	return nil
}

func (r *WeeklyReset) Stop(ctx context.Context) error {
	if r.cron == nil {
		return nil
	}
	stopped := r.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset performs one reset pass. The write is skipped when no user carries
// weekly XP, so an idle instance never touches the store.
func (r *WeeklyReset) Reset(ctx context.Context) error {
	return r.store.UpdateUsers(ctx, func(users []user.User) ([]user.User, error) {
		changed := false
		for i := range users {
			if users[i].WeeklyXP != 0 {
				users[i].WeeklyXP = 0
				changed = true
			}
		}
		if !changed {
			return nil, nil
		}
		r.log.WithField("users", len(users)).Info("weekly XP reset")
		return users, nil
	})
}
