package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jensholdgaard/fanta-auction/internal/store"
	"github.com/jensholdgaard/fanta-auction/internal/store/postgres"
)

func TestTimerRepo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := postgres.NewTimerRepo(db)

	now := time.Now().UTC().Truncate(time.Second)
	tm := &store.Timer{
		TurnID:      "turn-1",
		AuctionID:   "s-1",
		LeagueID:    "l-1",
		PlayerID:    "p-1",
		StartedAt:   now,
		ExpiresAt:   now.Add(30 * time.Second),
		DurationSec: 30,
		WarningSec:  10,
		Active:      true,
	}
	if err := repo.SaveTimer(ctx, tm); err != nil {
		t.Fatalf("saving timer: %v", err)
	}

	got, err := repo.GetTimer(ctx, "turn-1")
	if err != nil {
		t.Fatalf("getting timer: %v", err)
	}
	if !got.Active || got.DurationSec != 30 {
		t.Errorf("got active=%v duration=%d, want true/30", got.Active, got.DurationSec)
	}
	if got.Remaining(now.Add(12*time.Second)) != 18 {
		t.Errorf("got remaining %d, want 18", got.Remaining(now.Add(12*time.Second)))
	}

	// Saving the same turn id again updates in place.
	pausedAt := now.Add(5 * time.Second)
	tm.Paused = true
	tm.PausedAt = &pausedAt
	if err := repo.SaveTimer(ctx, tm); err != nil {
		t.Fatalf("upserting timer: %v", err)
	}
	got, err = repo.GetTimer(ctx, "turn-1")
	if err != nil {
		t.Fatalf("getting timer: %v", err)
	}
	if !got.Paused || got.PausedAt == nil {
		t.Error("pause state lost in upsert")
	}

	other := &store.Timer{
		TurnID: "turn-2", AuctionID: "s-2", LeagueID: "l-1", PlayerID: "p-2",
		StartedAt: now, ExpiresAt: now.Add(30 * time.Second), DurationSec: 30, Active: false,
	}
	if err := repo.SaveTimer(ctx, other); err != nil {
		t.Fatalf("saving timer: %v", err)
	}

	active, err := repo.GetActiveTimers(ctx)
	if err != nil {
		t.Fatalf("listing active timers: %v", err)
	}
	if len(active) != 1 || active[0].TurnID != "turn-1" {
		t.Errorf("got active timers %v", active)
	}

	forAuction, err := repo.GetTimersForAuction(ctx, "s-2")
	if err != nil {
		t.Fatalf("listing timers for auction: %v", err)
	}
	if len(forAuction) != 1 || forAuction[0].TurnID != "turn-2" {
		t.Errorf("got auction timers %v", forAuction)
	}

	if err := repo.DeleteTimer(ctx, "turn-1"); err != nil {
		t.Fatalf("deleting timer: %v", err)
	}
	if _, err := repo.GetTimer(ctx, "turn-1"); err == nil {
		t.Error("deleted timer still readable")
	}
	// Deleting twice is harmless.
	if err := repo.DeleteTimer(ctx, "turn-1"); err != nil {
		t.Fatalf("re-deleting timer: %v", err)
	}
}
