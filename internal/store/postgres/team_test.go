package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jensholdgaard/fanta-auction/internal/clock"
	"github.com/jensholdgaard/fanta-auction/internal/store"
	"github.com/jensholdgaard/fanta-auction/internal/store/postgres"
)

func sampleTeam(id, leagueID string) *store.Team {
	return &store.Team{
		ID:       id,
		LeagueID: leagueID,
		Name:     "Team " + id,
		OwnerID:  "owner-" + id,
		Budget:   500,
		GKMax:    3,
		DefMax:   8,
		MidMax:   8,
		FwdMax:   6,
	}
}

func TestTeamRepo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := postgres.NewTeamRepo(db, clock.Real())

	if err := repo.Create(ctx, sampleTeam("t-1", "l-1")); err != nil {
		t.Fatalf("creating team: %v", err)
	}
	if err := repo.Create(ctx, sampleTeam("t-2", "l-1")); err != nil {
		t.Fatalf("creating team: %v", err)
	}
	if err := repo.Create(ctx, sampleTeam("t-3", "l-other")); err != nil {
		t.Fatalf("creating team: %v", err)
	}

	got, err := repo.Get(ctx, "t-1")
	if err != nil {
		t.Fatalf("getting team: %v", err)
	}
	if got.Budget != 500 || got.GKMax != 3 {
		t.Errorf("got budget=%d gk_max=%d, want 500/3", got.Budget, got.GKMax)
	}

	teams, err := repo.ListByLeague(ctx, "l-1")
	if err != nil {
		t.Fatalf("listing teams: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("got %d teams, want 2", len(teams))
	}
	if teams[0].ID != "t-1" || teams[1].ID != "t-2" {
		t.Errorf("league listing out of creation order: %v, %v", teams[0].ID, teams[1].ID)
	}

	got.Budget = 480
	got.GKUsed = 1
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("saving team: %v", err)
	}
	reloaded, err := repo.Get(ctx, "t-1")
	if err != nil {
		t.Fatalf("reloading team: %v", err)
	}
	if reloaded.Budget != 480 || reloaded.GKUsed != 1 {
		t.Errorf("got budget=%d gk_used=%d after save, want 480/1", reloaded.Budget, reloaded.GKUsed)
	}
	if !reloaded.UpdatedAt.After(reloaded.CreatedAt.Add(-time.Second)) {
		t.Errorf("updated_at %v not refreshed", reloaded.UpdatedAt)
	}

	if err := repo.Save(ctx, sampleTeam("missing", "l-1")); err == nil {
		t.Error("saving unknown team succeeded")
	}
	if _, err := repo.Get(ctx, "missing"); err == nil {
		t.Error("getting unknown team succeeded")
	}
}
