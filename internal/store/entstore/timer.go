package entstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jensholdgaard/fanta-auction/internal/store"
)

// TimerRepo implements store.TimerRepository over database/sql.
type TimerRepo struct {
	db *sql.DB
}

// NewTimerRepo returns a new TimerRepo.
func NewTimerRepo(db *sql.DB) *TimerRepo {
	return &TimerRepo{db: db}
}

const timerColumns = `turn_id, auction_id, league_id, player_id, started_at, expires_at,
	duration_sec, warning_sec, active, paused, paused_at, paused_total_sec`

func scanTimer(row interface{ Scan(...any) error }) (*store.Timer, error) {
	var t store.Timer
	err := row.Scan(
		&t.TurnID, &t.AuctionID, &t.LeagueID, &t.PlayerID, &t.StartedAt, &t.ExpiresAt,
		&t.DurationSec, &t.WarningSec, &t.Active, &t.Paused, &t.PausedAt, &t.PausedTotalSec,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TimerRepo) GetTimer(ctx context.Context, turnID string) (*store.Timer, error) {
	t, err := scanTimer(r.db.QueryRowContext(ctx,
		`SELECT `+timerColumns+` FROM turn_timers WHERE turn_id = $1`, turnID))
	if err != nil {
		return nil, fmt.Errorf("getting timer: %w", err)
	}
	return t, nil
}

func (r *TimerRepo) SaveTimer(ctx context.Context, t *store.Timer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO turn_timers (`+timerColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (turn_id) DO UPDATE SET
		   started_at = EXCLUDED.started_at,
		   expires_at = EXCLUDED.expires_at,
		   duration_sec = EXCLUDED.duration_sec,
		   warning_sec = EXCLUDED.warning_sec,
		   active = EXCLUDED.active,
		   paused = EXCLUDED.paused,
		   paused_at = EXCLUDED.paused_at,
		   paused_total_sec = EXCLUDED.paused_total_sec`,
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
	return r.listTimers(ctx,
		`SELECT `+timerColumns+` FROM turn_timers WHERE active = TRUE ORDER BY started_at ASC`)
}

func (r *TimerRepo) GetTimersForAuction(ctx context.Context, auctionID string) ([]store.Timer, error) {
	return r.listTimers(ctx,
		`SELECT `+timerColumns+` FROM turn_timers WHERE auction_id = $1 ORDER BY started_at ASC`, auctionID)
}

func (r *TimerRepo) listTimers(ctx context.Context, query string, args ...any) ([]store.Timer, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing timers: %w", err)
	}
	defer rows.Close()

	var timers []store.Timer
	for rows.Next() {
		t, err := scanTimer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning timer: %w", err)
		}
		timers = append(timers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating timers: %w", err)
	}
	return timers, nil
}
