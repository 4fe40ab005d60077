package leaderboard

import (
	"context"
	"testing"

	"github.com/gaiaquest/economy/internal/app/domain/user"
	"github.com/gaiaquest/economy/internal/app/storage/memory"
)

func TestRankOrdersByXPThenWeekly(t *testing.T) {
	avatar := "a.png"
	users := []user.User{
		{ID: "u1", Name: "Ana", XP: 50, WeeklyXP: 5},
		{ID: "u2", Name: "Ben", XP: 120, WeeklyXP: 10, Avatar: &avatar},
		{ID: "u3", Name: "Cora", XP: 50, WeeklyXP: 20},
		{ID: "u4", Name: "Dee", XP: 120, WeeklyXP: 3},
	}

	entries := Rank(users)
	if len(entries) != len(users) {
		t.Fatalf("expected %d entries, got %d", len(users), len(entries))
	}

	wantOrder := []string{"u2", "u4", "u3", "u1"}
	for i, id := range wantOrder {
		if entries[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, entries[i].ID)
		}
	}

	if entries[0].Avatar == nil || *entries[0].Avatar != "a.png" {
		t.Fatalf("avatar not carried to entry: %v", entries[0].Avatar)
	}
	if entries[1].Avatar != nil {
		t.Fatalf("missing avatar should stay nil, got %v", *entries[1].Avatar)
	}
}

func TestRankStableOnFullTies(t *testing.T) {
	users := []user.User{
		{ID: "first", XP: 10, WeeklyXP: 2},
		{ID: "second", XP: 10, WeeklyXP: 2},
		{ID: "third", XP: 10, WeeklyXP: 2},
	}

	entries := Rank(users)
	for i, id := range []string{"first", "second", "third"} {
		if entries[i].ID != id {
			t.Fatalf("ties must keep input order, position %d got %s", i, entries[i].ID)
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	users := []user.User{
		{ID: "low", XP: 1},
		{ID: "high", XP: 99},
	}

	Rank(users)
	if users[0].ID != "low" || users[1].ID != "high" {
		t.Fatalf("input slice reordered: %s, %s", users[0].ID, users[1].ID)
	}
}

func TestServiceLeaderboard(t *testing.T) {
	store := memory.New()
	if err := store.SaveUsers(context.Background(), []user.User{
		{ID: "u1", Name: "Ana", XP: 10},
		{ID: "u2", Name: "Ben", XP: 30},
	}); err != nil {
		t.Fatalf("save users: %v", err)
	}

	svc := New(store, nil)
	entries, err := svc.Leaderboard(context.Background())
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != "u2" {
		t.Fatalf("unexpected board: %+v", entries)
	}
}

func TestWeeklyResetClearsWeeklyXP(t *testing.T) {
	store := memory.New()
	if err := store.SaveUsers(context.Background(), []user.User{
		{ID: "u1", XP: 100, WeeklyXP: 40},
		{ID: "u2", XP: 50, WeeklyXP: 0},
	}); err != nil {
		t.Fatalf("save users: %v", err)
	}

	reset := NewWeeklyReset(store, "@weekly", nil)
	if err := reset.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	for _, u := range users {
		if u.WeeklyXP != 0 {
			t.Fatalf("weekly xp not cleared for %s: %d", u.ID, u.WeeklyXP)
		}
	}
	if users[0].XP != 100 {
		t.Fatalf("lifetime xp must survive reset: %d", users[0].XP)
	}
}

func TestWeeklyResetLifecycle(t *testing.T) {
	reset := NewWeeklyReset(memory.New(), "", nil)
	if err := reset.Start(context.Background()); err != nil {
		t.Fatalf("start with empty schedule: %v", err)
	}
	if err := reset.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	reset = NewWeeklyReset(memory.New(), "not a schedule", nil)
	if err := reset.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid schedule")
	}
}
