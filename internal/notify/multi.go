package notify

import (
	"context"

	"github.com/jensholdgaard/fanta-auction/internal/roster"
)

// Multi fans every notification out to a list of sinks.
type Multi []Notifier

// NewMulti combines notifiers into one.
func NewMulti(sinks ...Notifier) Multi { return Multi(sinks) }

func (m Multi) TimerUpdate(ctx context.Context, leagueID, auctionID, turnID string, remaining int) {
	for _, n := range m {
		n.TimerUpdate(ctx, leagueID, auctionID, turnID, remaining)
	}
}

func (m Multi) TimerWarning(ctx context.Context, leagueID, auctionID, turnID string, remaining int) {
	for _, n := range m {
		n.TimerWarning(ctx, leagueID, auctionID, turnID, remaining)
	}
}

func (m Multi) NewHighestBid(ctx context.Context, sessionID, playerID, teamID string, amount int) {
	for _, n := range m {
		n.NewHighestBid(ctx, sessionID, playerID, teamID, amount)
	}
}

func (m Multi) ReadyRequested(ctx context.Context, sessionID, nominatorID, playerID string, role roster.Role, eligible []string) {
	for _, n := range m {
		n.ReadyRequested(ctx, sessionID, nominatorID, playerID, role, eligible)
	}
}

func (m Multi) ReadyCompleted(ctx context.Context, sessionID, nominatorID, playerID string, role roster.Role) {
	for _, n := range m {
		n.ReadyCompleted(ctx, sessionID, nominatorID, playerID, role)
	}
}

func (m Multi) PlayerAssigned(ctx context.Context, sessionID, playerID, teamID string, amount int) {
	for _, n := range m {
		n.PlayerAssigned(ctx, sessionID, playerID, teamID, amount)
	}
}

func (m Multi) TurnAdvanced(ctx context.Context, sessionID string, turnIndex int, teamID string, role roster.Role) {
	for _, n := range m {
		n.TurnAdvanced(ctx, sessionID, turnIndex, teamID, role)
	}
}

func (m Multi) RoleAdvanced(ctx context.Context, sessionID string, role roster.Role) {
	for _, n := range m {
		n.RoleAdvanced(ctx, sessionID, role)
	}
}
