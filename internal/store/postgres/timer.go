package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jensholdgaard/fanta-auction/internal/store"
)

// TimerRepo implements store.TimerRepository with sqlx. Snapshots are
// upserted by turn id so restarts never race inserts against updates.
type TimerRepo struct {
	db *sqlx.DB
}

// NewTimerRepo returns a new TimerRepo.
func NewTimerRepo(db *sqlx.DB) *TimerRepo {
	return &TimerRepo{db: db}
}

func (r *TimerRepo) GetTimer(ctx context.Context, turnID string) (*store.Timer, error) {
	var t store.Timer
	err := r.db.GetContext(ctx, &t, `SELECT * FROM turn_timers WHERE turn_id = $1`, turnID)
	if err != nil {
		return nil, fmt.Errorf("getting timer: %w", err)
	}
	return &t, nil
}

func (r *TimerRepo) SaveTimer(ctx context.Context, t *store.Timer) error {
	query := `INSERT INTO turn_timers
	            (turn_id, auction_id, league_id, player_id, started_at, expires_at,
	             duration_sec, warning_sec, active, paused, paused_at, paused_total_sec)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	           ON CONFLICT (turn_id) DO UPDATE SET
	             started_at = EXCLUDED.started_at,
	             expires_at = EXCLUDED.expires_at,
	             duration_sec = EXCLUDED.duration_sec,
	             warning_sec = EXCLUDED.warning_sec,
	             active = EXCLUDED.active,
	             paused = EXCLUDED.paused,
	             paused_at = EXCLUDED.paused_at,
	             paused_total_sec = EXCLUDED.paused_total_sec`
	_, err := r.db.ExecContext(ctx, query,
		t.TurnID, t.AuctionID, t.LeagueID, t.PlayerID, t.StartedAt, t.ExpiresAt,
		t.DurationSec, t.WarningSec, t.Active, t.Paused, t.PausedAt, t.PausedTotalSec,
	)
	if err != nil {
		return fmt.Errorf("saving timer: %w", err)
	}
	return nil
}

func (r *TimerRepo) DeleteTimer(ctx context.Context, turnID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM turn_timers WHERE turn_id = $1`, turnID); err != nil {
		return fmt.Errorf("deleting timer: %w", err)
	}
	return nil
}

func (r *TimerRepo) GetActiveTimers(ctx context.Context) ([]store.Timer, error) {
	var timers []store.Timer
	err := r.db.SelectContext(ctx, &timers,
		`SELECT * FROM turn_timers WHERE active = TRUE ORDER BY started_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing active timers: %w", err)
	}
	return timers, nil
}

func (r *TimerRepo) GetTimersForAuction(ctx context.Context, auctionID string) ([]store.Timer, error) {
	var timers []store.Timer
	err := r.db.SelectContext(ctx, &timers,
		`SELECT * FROM turn_timers WHERE auction_id = $1 ORDER BY started_at ASC`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("listing timers for auction: %w", err)
	}
	return timers, nil
}
