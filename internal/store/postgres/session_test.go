package postgres_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/jensholdgaard/fanta-auction/internal/clock"
	"github.com/jensholdgaard/fanta-auction/internal/store"
	"github.com/jensholdgaard/fanta-auction/internal/store/postgres"
)

func TestSessionRepo(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := postgres.NewSessionRepo(db, clock.Real())

	s := &store.Session{
		ID:           "s-1",
		LeagueID:     "l-1",
		Status:       "running",
		CurrentRole:  "GK",
		TurnIndex:    0,
		TurnOrder:    []string{"t-1", "t-2", "t-3"},
		BasePrice:    1,
		MinIncrement: 1,
	}
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("creating session: %v", err)
	}

	got, err := repo.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("getting session: %v", err)
	}
	if len(got.TurnOrder) != 3 || got.TurnOrder[1] != "t-2" {
		t.Errorf("got turn order %v", got.TurnOrder)
	}
	if len(got.Bidding) != 0 {
		t.Errorf("fresh session has bidding document: %s", got.Bidding)
	}

	// Round sub-state travels as a JSON document.
	got.Status = "running"
	got.TurnIndex = 1
	got.CurrentRole = "DEF"
	got.Bidding = json.RawMessage(`{"turn_id":"turn-9","highest_amount":12}`)
	if err := repo.Save(ctx, got); err != nil {
		t.Fatalf("saving session: %v", err)
	}

	reloaded, err := repo.Get(ctx, "s-1")
	if err != nil {
		t.Fatalf("reloading session: %v", err)
	}
	if reloaded.TurnIndex != 1 || reloaded.CurrentRole != "DEF" {
		t.Errorf("got turn_index=%d role=%s, want 1/DEF", reloaded.TurnIndex, reloaded.CurrentRole)
	}
	var doc struct {
		TurnID        string `json:"turn_id"`
		HighestAmount int    `json:"highest_amount"`
	}
	if err := json.Unmarshal(reloaded.Bidding, &doc); err != nil {
		t.Fatalf("decoding bidding document: %v", err)
	}
	if doc.TurnID != "turn-9" || doc.HighestAmount != 12 {
		t.Errorf("got bidding document %+v", doc)
	}

	running, err := repo.ListByStatus(ctx, "running")
	if err != nil {
		t.Fatalf("listing by status: %v", err)
	}
	if len(running) != 1 || running[0].ID != "s-1" {
		t.Errorf("got running sessions %v", running)
	}
	completed, err := repo.ListByStatus(ctx, "completed")
	if err != nil {
		t.Fatalf("listing by status: %v", err)
	}
	if len(completed) != 0 {
		t.Errorf("got %d completed sessions, want 0", len(completed))
	}
}
