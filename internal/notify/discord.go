package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/jensholdgaard/fanta-auction/internal/roster"
)

// Discord posts auction updates to a configured channel. Timer updates are
// intentionally not mirrored one-per-second; only warnings and state
// changes reach the channel, or every message would be rate limited away.
type Discord struct {
	session   *discordgo.Session
	channelID string
	logger    *slog.Logger
}

// NewDiscord returns a Discord notifier posting to channelID.
func NewDiscord(session *discordgo.Session, channelID string, logger *slog.Logger) *Discord {
	return &Discord{session: session, channelID: channelID, logger: logger}
}

func (d *Discord) send(ctx context.Context, msg string) {
	if _, err := d.session.ChannelMessageSend(d.channelID, msg); err != nil {
		d.logger.WarnContext(ctx, "discord notification failed",
			slog.String("channel_id", d.channelID),
			slog.Any("error", err),
		)
	}
}

func (d *Discord) TimerUpdate(ctx context.Context, leagueID, auctionID, turnID string, remaining int) {
	// Per-second countdowns stay off the channel; clients follow NATS.
}

func (d *Discord) TimerWarning(ctx context.Context, leagueID, auctionID, turnID string, remaining int) {
	d.send(ctx, fmt.Sprintf(":hourglass: **%d seconds** left to bid!", remaining))
}

func (d *Discord) NewHighestBid(ctx context.Context, sessionID, playerID, teamID string, amount int) {
	d.send(ctx, fmt.Sprintf(":moneybag: New highest bid on **%s**: **%d** credits by **%s**", playerID, amount, teamID))
}

func (d *Discord) ReadyRequested(ctx context.Context, sessionID, nominatorID, playerID string, role roster.Role, eligible []string) {
	d.send(ctx, fmt.Sprintf(":bell: **%s** nominated **%s** (%s). %d teams must `/ready` up.", nominatorID, playerID, role, len(eligible)))
}

func (d *Discord) ReadyCompleted(ctx context.Context, sessionID, nominatorID, playerID string, role roster.Role) {
	d.send(ctx, fmt.Sprintf(":white_check_mark: All teams ready — bidding for **%s** (%s) opens now!", playerID, role))
}

func (d *Discord) PlayerAssigned(ctx context.Context, sessionID, playerID, teamID string, amount int) {
	d.send(ctx, fmt.Sprintf(":trophy: **%s** goes to **%s** for **%d** credits", playerID, teamID, amount))
}

func (d *Discord) TurnAdvanced(ctx context.Context, sessionID string, turnIndex int, teamID string, role roster.Role) {
	d.send(ctx, fmt.Sprintf(":arrow_right: **%s** is on the clock (%s)", teamID, role))
}

func (d *Discord) RoleAdvanced(ctx context.Context, sessionID string, role roster.Role) {
	d.send(ctx, fmt.Sprintf(":rotating_light: Moving on to **%s** nominations", role))
}
