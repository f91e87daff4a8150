// Package notify pushes best-effort updates about a live auction to the
// outside world (Discord channels, the NATS fan-out for web clients).
// Deliveries are fire-and-forget: failures are logged by implementations
// and never reach the auction state machine.
package notify

import (
	"context"

	"github.com/jensholdgaard/fanta-auction/internal/roster"
)

// Notifier is the outbound notification sink consumed by the engine and
// the timer subsystem.
type Notifier interface {
	TimerUpdate(ctx context.Context, leagueID, auctionID, turnID string, remaining int)
	TimerWarning(ctx context.Context, leagueID, auctionID, turnID string, remaining int)
	NewHighestBid(ctx context.Context, sessionID, playerID, teamID string, amount int)
	ReadyRequested(ctx context.Context, sessionID, nominatorID, playerID string, role roster.Role, eligible []string)
	ReadyCompleted(ctx context.Context, sessionID, nominatorID, playerID string, role roster.Role)
	PlayerAssigned(ctx context.Context, sessionID, playerID, teamID string, amount int)
	TurnAdvanced(ctx context.Context, sessionID string, turnIndex int, teamID string, role roster.Role)
	RoleAdvanced(ctx context.Context, sessionID string, role roster.Role)
}
