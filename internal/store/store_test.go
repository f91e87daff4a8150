package store_test

import (
	"testing"
	"time"

	"github.com/jensholdgaard/fanta-auction/internal/roster"
	"github.com/jensholdgaard/fanta-auction/internal/store"
)

func TestTeamRosterRoundtrip(t *testing.T) {
	rec := &store.Team{
		ID:       "t-1",
		LeagueID: "l-1",
		Name:     "Team One",
		OwnerID:  "owner-1",
		Budget:   500,
		GKUsed:   1, GKMax: 3,
		DefUsed: 4, DefMax: 8,
		MidUsed: 0, MidMax: 8,
		FwdUsed: 6, FwdMax: 6,
	}

	rt, err := rec.ToRoster()
	if err != nil {
		t.Fatal(err)
	}
	if rt.Budget() != 500 {
		t.Errorf("got budget %d, want 500", rt.Budget())
	}
	if !rt.HasSlot(roster.RoleGoalkeeper) {
		t.Error("goalkeeper slot should be free")
	}
	if rt.HasSlot(roster.RoleForward) {
		t.Error("forward slots should be full")
	}

	ops := roster.NewOps()
	if err := ops.Assign(rt, roster.RoleGoalkeeper, 25); err != nil {
		t.Fatal(err)
	}
	rec.SyncFromRoster(rt)
	if rec.Budget != 475 || rec.GKUsed != 2 {
		t.Errorf("got budget=%d gk_used=%d after sync, want 475/2", rec.Budget, rec.GKUsed)
	}
}

func TestTimerRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	tm := &store.Timer{
		StartedAt:   now,
		ExpiresAt:   now.Add(30 * time.Second),
		DurationSec: 30,
		Active:      true,
	}

	if got := tm.Remaining(now); got != 30 {
		t.Errorf("got remaining %d at start, want 30", got)
	}
	if got := tm.Remaining(now.Add(12 * time.Second)); got != 18 {
		t.Errorf("got remaining %d, want 18", got)
	}
	if got := tm.Remaining(now.Add(time.Hour)); got != 0 {
		t.Errorf("got remaining %d past expiry, want clamped 0", got)
	}

	pausedAt := now.Add(10 * time.Second)
	tm.Paused = true
	tm.PausedAt = &pausedAt
	if got := tm.Remaining(now.Add(time.Hour)); got != 20 {
		t.Errorf("got remaining %d while paused, want frozen 20", got)
	}
}
