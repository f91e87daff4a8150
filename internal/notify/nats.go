package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/jensholdgaard/fanta-auction/internal/roster"
)

// NATS publishes auction updates as JSON messages on per-session subjects
// so the web front-end's real-time layer can fan them out to browsers.
// Subjects follow "auction.<session>.<kind>".
type NATS struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// NewNATS returns a NATS notifier on an established connection.
func NewNATS(conn *nats.Conn, logger *slog.Logger) *NATS {
	return &NATS{conn: conn, logger: logger}
}

func (n *NATS) publish(ctx context.Context, subject string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		n.logger.WarnContext(ctx, "nats payload marshal failed",
			slog.String("subject", subject),
			slog.Any("error", err),
		)
		return
	}
	if err := n.conn.Publish(subject, data); err != nil {
		n.logger.WarnContext(ctx, "nats publish failed",
			slog.String("subject", subject),
			slog.Any("error", err),
		)
	}
}

func (n *NATS) TimerUpdate(ctx context.Context, leagueID, auctionID, turnID string, remaining int) {
	n.publish(ctx, fmt.Sprintf("auction.%s.timer", auctionID), map[string]any{
		"league_id":  leagueID,
		"auction_id": auctionID,
		"turn_id":    turnID,
		"remaining":  remaining,
	})
}

func (n *NATS) TimerWarning(ctx context.Context, leagueID, auctionID, turnID string, remaining int) {
	n.publish(ctx, fmt.Sprintf("auction.%s.timer_warning", auctionID), map[string]any{
		"league_id":  leagueID,
		"auction_id": auctionID,
		"turn_id":    turnID,
		"remaining":  remaining,
	})
}

func (n *NATS) NewHighestBid(ctx context.Context, sessionID, playerID, teamID string, amount int) {
	n.publish(ctx, fmt.Sprintf("auction.%s.bid", sessionID), map[string]any{
		"session_id": sessionID,
		"player_id":  playerID,
		"team_id":    teamID,
		"amount":     amount,
	})
}

func (n *NATS) ReadyRequested(ctx context.Context, sessionID, nominatorID, playerID string, role roster.Role, eligible []string) {
	n.publish(ctx, fmt.Sprintf("auction.%s.ready_requested", sessionID), map[string]any{
		"session_id":   sessionID,
		"nominator_id": nominatorID,
		"player_id":    playerID,
		"role":         role,
		"eligible":     eligible,
	})
}

func (n *NATS) ReadyCompleted(ctx context.Context, sessionID, nominatorID, playerID string, role roster.Role) {
	n.publish(ctx, fmt.Sprintf("auction.%s.ready_completed", sessionID), map[string]any{
		"session_id":   sessionID,
		"nominator_id": nominatorID,
		"player_id":    playerID,
		"role":         role,
	})
}

func (n *NATS) PlayerAssigned(ctx context.Context, sessionID, playerID, teamID string, amount int) {
	n.publish(ctx, fmt.Sprintf("auction.%s.assigned", sessionID), map[string]any{
		"session_id": sessionID,
		"player_id":  playerID,
		"team_id":    teamID,
		"amount":     amount,
	})
}

func (n *NATS) TurnAdvanced(ctx context.Context, sessionID string, turnIndex int, teamID string, role roster.Role) {
	n.publish(ctx, fmt.Sprintf("auction.%s.turn", sessionID), map[string]any{
		"session_id": sessionID,
		"turn_index": turnIndex,
		"team_id":    teamID,
		"role":       role,
	})
}

func (n *NATS) RoleAdvanced(ctx context.Context, sessionID string, role roster.Role) {
	n.publish(ctx, fmt.Sprintf("auction.%s.role", sessionID), map[string]any{
		"session_id": sessionID,
		"role":       role,
	})
}
