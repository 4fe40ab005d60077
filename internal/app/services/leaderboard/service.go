package leaderboard

import (
	"context"
	"fmt"
	"sort"

	"github.com/gaiaquest/economy/internal/app/domain/user"
	"github.com/gaiaquest/economy/internal/app/storage"
	"github.com/gaiaquest/economy/pkg/logger"
)

// Entry is one row of the ranked projection. The 1-based rank is positional:
// callers derive it from the slice index, it is never stored.
type Entry struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	XP       int     `json:"xp"`
	WeeklyXP int     `json:"weeklyXp"`
	Avatar   *string `json:"avatar"`
}

// Rank projects users into leaderboard entries ordered by total XP
// descending, then weekly XP descending. Users tied on both fields keep their
// input order. The input collection is not mutated.
func Rank(users []user.User) []Entry {
	entries := make([]Entry, 0, len(users))
	for _, u := range users {
		u.Normalize()
		entries = append(entries, Entry{
			ID:       u.ID,
			Name:     u.Name,
			XP:       u.XP,
			WeeklyXP: u.WeeklyXP,
			Avatar:   u.Avatar,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].XP != entries[j].XP {
			return entries[i].XP > entries[j].XP
		}
		return entries[i].WeeklyXP > entries[j].WeeklyXP
	})
	return entries
}

// Service computes leaderboards over the stored user collection.
type Service struct {
	store storage.UserStore
	log   *logger.Logger
}

// New constructs a leaderboard service.
func New(store storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("leaderboard")
	}
	return &Service{store: store, log: log}
}

// Leaderboard loads the current user collection and returns the ranked view.
func (s *Service) Leaderboard(ctx context.Context) ([]Entry, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return Rank(users), nil
}
