package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/fanta-auction/internal/clock"
	"github.com/jensholdgaard/fanta-auction/internal/store"
)

// SessionRepo implements store.SessionRepository with sqlx.
type SessionRepo struct {
	db  *sqlx.DB
	clk clock.Clock
}

// NewSessionRepo returns a new SessionRepo.
func NewSessionRepo(db *sqlx.DB, clk clock.Clock) *SessionRepo {
	return &SessionRepo{db: db, clk: clk}
}

func (r *SessionRepo) Create(ctx context.Context, s *store.Session) error {
	query := `INSERT INTO auction_sessions
	            (id, league_id, status, current_role, turn_index, turn_order,
	             base_price, min_increment, bidding, ready_check, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	now := r.clk.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.LeagueID, s.Status, s.CurrentRole, s.TurnIndex, s.TurnOrder,
		s.BasePrice, s.MinIncrement, s.Bidding, s.ReadyCheck, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id string) (*store.Session, error) {
	var s store.Session
	err := r.db.GetContext(ctx, &s, `SELECT * FROM auction_sessions WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepo) Save(ctx context.Context, s *store.Session) error {
	s.UpdatedAt = r.clk.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE auction_sessions
		 SET status = $1, current_role = $2, turn_index = $3,
		     bidding = $4, ready_check = $5, updated_at = $6
		 WHERE id = $7`,
		s.Status, s.CurrentRole, s.TurnIndex, s.Bidding, s.ReadyCheck, s.UpdatedAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session %s not found", s.ID)
	}
	return nil
}

func (r *SessionRepo) ListByStatus(ctx context.Context, status string) ([]store.Session, error) {
	var sessions []store.Session
	err := r.db.SelectContext(ctx, &sessions,
		`SELECT * FROM auction_sessions WHERE status = $1 ORDER BY created_at ASC`, status)
	if err != nil {
		return nil, fmt.Errorf("listing sessions by status: %w", err)
	}
	return sessions, nil
}
