package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/lib/pq"

	"github.com/jensholdgaard/fanta-auction/internal/roster"
)

// Team is the persisted form of a roster aggregate.
type Team struct {
	ID        string    `db:"id"`
	LeagueID  string    `db:"league_id"`
	Name      string    `db:"name"`
	OwnerID   string    `db:"owner_id"`
	Budget    int       `db:"budget"`
	GKUsed    int       `db:"gk_used"`
	GKMax     int       `db:"gk_max"`
	DefUsed   int       `db:"def_used"`
	DefMax    int       `db:"def_max"`
	MidUsed   int       `db:"mid_used"`
	MidMax    int       `db:"mid_max"`
	FwdUsed   int       `db:"fwd_used"`
	FwdMax    int       `db:"fwd_max"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// ToRoster rebuilds the guarded roster aggregate from the record.
func (t *Team) ToRoster() (*roster.Team, error) {
	return roster.NewTeam(t.ID, t.LeagueID, t.Name, t.OwnerID, t.Budget, map[roster.Role]roster.Slot{
		roster.RoleGoalkeeper: {Used: t.GKUsed, Max: t.GKMax},
		roster.RoleDefender:   {Used: t.DefUsed, Max: t.DefMax},
		roster.RoleMidfielder: {Used: t.MidUsed, Max: t.MidMax},
		roster.RoleForward:    {Used: t.FwdUsed, Max: t.FwdMax},
	})
}

// SyncFromRoster copies the mutable aggregate state back onto the record
// before saving.
func (t *Team) SyncFromRoster(rt *roster.Team) {
	t.Budget = rt.Budget()
	gk := rt.Slot(roster.RoleGoalkeeper)
	def := rt.Slot(roster.RoleDefender)
	mid := rt.Slot(roster.RoleMidfielder)
	fwd := rt.Slot(roster.RoleForward)
	t.GKUsed, t.GKMax = gk.Used, gk.Max
	t.DefUsed, t.DefMax = def.Used, def.Max
	t.MidUsed, t.MidMax = mid.Used, mid.Max
	t.FwdUsed, t.FwdMax = fwd.Used, fwd.Max
}

// Session is the persisted snapshot of an auction session. The bidding
// sub-state and ready-check are stored as JSON documents since they exist
// for at most one turn at a time.
type Session struct {
	ID           string          `db:"id"`
	LeagueID     string          `db:"league_id"`
	Status       string          `db:"status"`
	CurrentRole  string          `db:"current_role"`
	TurnIndex    int             `db:"turn_index"`
	TurnOrder    pq.StringArray  `db:"turn_order"`
	BasePrice    int             `db:"base_price"`
	MinIncrement int             `db:"min_increment"`
	Bidding      json.RawMessage `db:"bidding"`
	ReadyCheck   json.RawMessage `db:"ready_check"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// Timer is the crash-recoverable snapshot of one turn countdown. Remaining
// time is always derivable from wall-clock deadlines: pausing records
// PausedAt, resuming shifts ExpiresAt forward by the paused duration.
type Timer struct {
	TurnID         string     `db:"turn_id"`
	AuctionID      string     `db:"auction_id"`
	LeagueID       string     `db:"league_id"`
	PlayerID       string     `db:"player_id"`
	StartedAt      time.Time  `db:"started_at"`
	ExpiresAt      time.Time  `db:"expires_at"`
	DurationSec    int        `db:"duration_sec"`
	WarningSec     int        `db:"warning_sec"`
	Active         bool       `db:"active"`
	Paused         bool       `db:"paused"`
	PausedAt       *time.Time `db:"paused_at"`
	PausedTotalSec int        `db:"paused_total_sec"`
}

// Remaining returns the whole seconds left on the countdown at now.
// While paused the value is frozen at the moment of pausing.
func (t *Timer) Remaining(now time.Time) int {
	ref := now
	if t.Paused && t.PausedAt != nil {
		ref = *t.PausedAt
	}
	left := int(t.ExpiresAt.Sub(ref).Round(time.Second) / time.Second)
	if left < 0 {
		return 0
	}
	return left
}

// TeamRepository defines team persistence operations.
type TeamRepository interface {
	Create(ctx context.Context, t *Team) error
	Get(ctx context.Context, id string) (*Team, error)
	ListByLeague(ctx context.Context, leagueID string) ([]Team, error)
	Save(ctx context.Context, t *Team) error
}

// SessionRepository defines auction session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	ListByStatus(ctx context.Context, status string) ([]Session, error)
}

// TimerRepository defines countdown snapshot persistence operations.
type TimerRepository interface {
	GetTimer(ctx context.Context, turnID string) (*Timer, error)
	SaveTimer(ctx context.Context, t *Timer) error
	DeleteTimer(ctx context.Context, turnID string) error
	GetActiveTimers(ctx context.Context) ([]Timer, error)
	GetTimersForAuction(ctx context.Context, auctionID string) ([]Timer, error)
}
