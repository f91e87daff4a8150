package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/fanta-auction/internal/clock"
	"github.com/jensholdgaard/fanta-auction/internal/store"
)

// TeamRepo implements store.TeamRepository with sqlx.
type TeamRepo struct {
	db  *sqlx.DB
	clk clock.Clock
}

// NewTeamRepo returns a new TeamRepo.
func NewTeamRepo(db *sqlx.DB, clk clock.Clock) *TeamRepo {
	return &TeamRepo{db: db, clk: clk}
}

func (r *TeamRepo) Create(ctx context.Context, t *store.Team) error {
	query := `INSERT INTO teams (id, league_id, name, owner_id, budget,
	            gk_used, gk_max, def_used, def_max, mid_used, mid_max, fwd_used, fwd_max,
	            created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	now := r.clk.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.LeagueID, t.Name, t.OwnerID, t.Budget,
		t.GKUsed, t.GKMax, t.DefUsed, t.DefMax, t.MidUsed, t.MidMax, t.FwdUsed, t.FwdMax,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating team: %w", err)
	}
	return nil
}

func (r *TeamRepo) Get(ctx context.Context, id string) (*store.Team, error) {
	var t store.Team
	err := r.db.GetContext(ctx, &t, `SELECT * FROM teams WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting team: %w", err)
	}
	return &t, nil
}

func (r *TeamRepo) ListByLeague(ctx context.Context, leagueID string) ([]store.Team, error) {
	var teams []store.Team
	err := r.db.SelectContext(ctx, &teams,
		`SELECT * FROM teams WHERE league_id = $1 ORDER BY created_at ASC`, leagueID)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	return teams, nil
}

func (r *TeamRepo) Save(ctx context.Context, t *store.Team) error {
	t.UpdatedAt = r.clk.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE teams SET budget = $1,
		   gk_used = $2, gk_max = $3, def_used = $4, def_max = $5,
		   mid_used = $6, mid_max = $7, fwd_used = $8, fwd_max = $9,
		   name = $10, updated_at = $11
		 WHERE id = $12`,
		t.Budget,
		t.GKUsed, t.GKMax, t.DefUsed, t.DefMax,
		t.MidUsed, t.MidMax, t.FwdUsed, t.FwdMax,
		t.Name, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("saving team: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("team %s not found", t.ID)
	}
	return nil
}
