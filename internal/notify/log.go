package notify

import (
	"context"
	"log/slog"

	"github.com/jensholdgaard/fanta-auction/internal/roster"
)

// Log is a Notifier that writes every notification to a slog.Logger.
// It doubles as the fallback sink when no external channel is configured.
type Log struct {
	logger *slog.Logger
}

// NewLog returns a logging notifier.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) TimerUpdate(ctx context.Context, leagueID, auctionID, turnID string, remaining int) {
	l.logger.DebugContext(ctx, "timer update",
		slog.String("auction_id", auctionID),
		slog.String("turn_id", turnID),
		slog.Int("remaining", remaining),
	)
}

func (l *Log) TimerWarning(ctx context.Context, leagueID, auctionID, turnID string, remaining int) {
	l.logger.InfoContext(ctx, "timer warning",
		slog.String("auction_id", auctionID),
		slog.String("turn_id", turnID),
		slog.Int("remaining", remaining),
	)
}

func (l *Log) NewHighestBid(ctx context.Context, sessionID, playerID, teamID string, amount int) {
	l.logger.InfoContext(ctx, "new highest bid",
		slog.String("session_id", sessionID),
		slog.String("player_id", playerID),
		slog.String("team_id", teamID),
		slog.Int("amount", amount),
	)
}

func (l *Log) ReadyRequested(ctx context.Context, sessionID, nominatorID, playerID string, role roster.Role, eligible []string) {
	l.logger.InfoContext(ctx, "ready check requested",
		slog.String("session_id", sessionID),
		slog.String("nominator_id", nominatorID),
		slog.String("player_id", playerID),
		slog.String("role", string(role)),
		slog.Int("eligible", len(eligible)),
	)
}

func (l *Log) ReadyCompleted(ctx context.Context, sessionID, nominatorID, playerID string, role roster.Role) {
	l.logger.InfoContext(ctx, "ready check completed",
		slog.String("session_id", sessionID),
		slog.String("player_id", playerID),
		slog.String("role", string(role)),
	)
}

func (l *Log) PlayerAssigned(ctx context.Context, sessionID, playerID, teamID string, amount int) {
	l.logger.InfoContext(ctx, "player assigned",
		slog.String("session_id", sessionID),
		slog.String("player_id", playerID),
		slog.String("team_id", teamID),
		slog.Int("amount", amount),
	)
}

func (l *Log) TurnAdvanced(ctx context.Context, sessionID string, turnIndex int, teamID string, role roster.Role) {
	l.logger.InfoContext(ctx, "turn advanced",
		slog.String("session_id", sessionID),
		slog.Int("turn_index", turnIndex),
		slog.String("team_id", teamID),
		slog.String("role", string(role)),
	)
}

func (l *Log) RoleAdvanced(ctx context.Context, sessionID string, role roster.Role) {
	l.logger.InfoContext(ctx, "role advanced",
		slog.String("session_id", sessionID),
		slog.String("role", string(role)),
	)
}
