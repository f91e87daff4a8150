package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/fanta-auction/internal/auction"
	"github.com/jensholdgaard/fanta-auction/internal/config"
	"github.com/jensholdgaard/fanta-auction/internal/roster"
	"github.com/jensholdgaard/fanta-auction/internal/store"
)

// Handlers process Discord interactions.
type Handlers struct {
	auctionMgr *auction.Manager
	teams      store.TeamRepository
	cfg        config.AuctionConfig
	logger     *slog.Logger
	tracer     trace.Tracer
}

// NewHandlers creates new command handlers.
func NewHandlers(auctionMgr *auction.Manager, teams store.TeamRepository, cfg config.AuctionConfig, logger *slog.Logger, tp trace.TracerProvider) *Handlers {
	return &Handlers{
		auctionMgr: auctionMgr,
		teams:      teams,
		cfg:        cfg,
		logger:     logger,
		tracer:     tp.Tracer("github.com/jensholdgaard/fanta-auction/internal/bot/commands"),
	}
}

// SlashCommands returns the slash command definitions.
func SlashCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "team-register",
			Description: "Register your team for a league",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "league-id",
					Description: "League the team plays in",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Team name",
					Required:    true,
				},
			},
		},
		{
			Name:        "team-list",
			Description: "List the teams in a league with budgets and slots",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "league-id",
					Description: "League to list",
					Required:    true,
				},
			},
		},
		{
			Name:        "auction-start",
			Description: "Start the live player auction for a league",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "league-id",
					Description: "League to auction",
					Required:    true,
				},
			},
		},
		{
			Name:        "nominate",
			Description: "Nominate a player for auction (turn holder only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "session-id",
					Description: "Auction session ID",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "player",
					Description: "Player to nominate",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "role",
					Description: "Player role (GK, DEF, MID, FWD)",
					Required:    true,
				},
			},
		},
		{
			Name:        "ready",
			Description: "Confirm you are ready for the nominated player",
			Options:     sessionIDOption(),
		},
		{
			Name:        "unready",
			Description: "Withdraw your ready confirmation",
			Options:     sessionIDOption(),
		},
		{
			Name:        "force-ready",
			Description: "Force the ready-check to complete (admin only)",
			Options:     sessionIDOption(),
		},
		{
			Name:        "bid",
			Description: "Place a bid on the player under auction",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "session-id",
					Description: "Auction session ID",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Bid amount in credits",
					Required:    true,
				},
			},
		},
		{
			Name:        "sold",
			Description: "Award the player to the highest bidder (admin only)",
			Options:     sessionIDOption(),
		},
		{
			Name:        "force-advance",
			Description: "Skip the current turn (admin only)",
			Options:     sessionIDOption(),
		},
		{
			Name:        "auction-pause",
			Description: "Pause the auction session (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "session-id",
					Description: "Auction session ID",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Why the auction is pausing",
					Required:    false,
				},
			},
		},
		{
			Name:        "auction-resume",
			Description: "Resume a paused auction session (admin only)",
			Options:     sessionIDOption(),
		},
		{
			Name:        "auction-cancel",
			Description: "Cancel the auction session (admin only)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "session-id",
					Description: "Auction session ID",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "reason",
					Description: "Why the auction is cancelled",
					Required:    false,
				},
			},
		},
		{
			Name:        "auction-complete",
			Description: "Close out a session in review (admin only)",
			Options:     sessionIDOption(),
		},
		{
			Name:        "auction-status",
			Description: "Show the current state of an auction session",
			Options:     sessionIDOption(),
		},
	}
}

func sessionIDOption() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "session-id",
			Description: "Auction session ID",
			Required:    true,
		},
	}
}

// InteractionCreate handles incoming slash command interactions.
func (h *Handlers) InteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, span := h.tracer.Start(context.Background(), "InteractionCreate",
		trace.WithAttributes(attribute.String("command", i.ApplicationCommandData().Name)),
	)
	defer span.End()

	switch i.ApplicationCommandData().Name {
	case "team-register":
		h.handleTeamRegister(ctx, s, i)
	case "team-list":
		h.handleTeamList(ctx, s, i)
	case "auction-start":
		h.handleAuctionStart(ctx, s, i)
	case "nominate":
		h.handleNominate(ctx, s, i)
	case "ready":
		h.handleReady(ctx, s, i)
	case "unready":
		h.handleUnready(ctx, s, i)
	case "force-ready":
		h.handleForceReady(ctx, s, i)
	case "bid":
		h.handleBid(ctx, s, i)
	case "sold":
		h.handleSold(ctx, s, i)
	case "force-advance":
		h.handleForceAdvance(ctx, s, i)
	case "auction-pause":
		h.handlePause(ctx, s, i)
	case "auction-resume":
		h.handleResume(ctx, s, i)
	case "auction-cancel":
		h.handleCancel(ctx, s, i)
	case "auction-complete":
		h.handleComplete(ctx, s, i)
	case "auction-status":
		h.handleStatus(ctx, s, i)
	default:
		respond(s, i, "Unknown command")
	}
}

func (h *Handlers) handleTeamRegister(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := i.ApplicationCommandData().Options
	leagueID := opts[0].StringValue()
	name := opts[1].StringValue()
	ownerID := i.Member.User.ID

	if _, err := h.teamForUser(ctx, leagueID, ownerID); err == nil {
		respond(s, i, "You already own a team in this league.")
		return
	}

	t := &store.Team{
		ID:       uuid.NewString(),
		LeagueID: leagueID,
		Name:     name,
		OwnerID:  ownerID,
		Budget:   h.cfg.TeamBudget,
		GKMax:    h.cfg.Slots.Goalkeepers,
		DefMax:   h.cfg.Slots.Defenders,
		MidMax:   h.cfg.Slots.Midfielders,
		FwdMax:   h.cfg.Slots.Forwards,
	}
	if err := h.teams.Create(ctx, t); err != nil {
		respond(s, i, fmt.Sprintf("Failed to register team: %s", err))
		return
	}
	respond(s, i, fmt.Sprintf("Registered **%s** (budget: %d credits)", name, t.Budget))
}

func (h *Handlers) handleTeamList(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	leagueID := i.ApplicationCommandData().Options[0].StringValue()

	teams, err := h.teams.ListByLeague(ctx, leagueID)
	if err != nil {
		respond(s, i, fmt.Sprintf("Error listing teams: %s", err))
		return
	}
	if len(teams) == 0 {
		respond(s, i, "No teams registered in this league yet.")
		return
	}
	var b strings.Builder
	b.WriteString("**Teams:**\n")
	for idx, t := range teams {
		fmt.Fprintf(&b, "%d. %s — %d credits (GK %d/%d, DEF %d/%d, MID %d/%d, FWD %d/%d)\n",
			idx+1, t.Name, t.Budget,
			t.GKUsed, t.GKMax, t.DefUsed, t.DefMax, t.MidUsed, t.MidMax, t.FwdUsed, t.FwdMax)
	}
	respond(s, i, b.String())
}

func (h *Handlers) handleAuctionStart(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	leagueID := i.ApplicationCommandData().Options[0].StringValue()

	sess, err := h.auctionMgr.StartAuction(ctx, leagueID)
	if err != nil {
		respond(s, i, fmt.Sprintf("Failed to start auction: %s", err))
		return
	}
	st := sess.State()
	respond(s, i, fmt.Sprintf("Auction started (ID: `%s`). First up: role **%s**.", st.ID, st.Turn.Role))
}

func (h *Handlers) handleNominate(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := i.ApplicationCommandData().Options
	sessionID := opts[0].StringValue()
	playerID := opts[1].StringValue()
	role, ok := roster.ParseRole(opts[2].StringValue())
	if !ok {
		respond(s, i, "Unknown role. Use GK, DEF, MID or FWD.")
		return
	}

	team, err := h.callerTeam(ctx, s, i, sessionID)
	if err != nil {
		return
	}
	if err := h.auctionMgr.Nominate(ctx, sessionID, team.ID, playerID, role); err != nil {
		respond(s, i, fmt.Sprintf("Nomination failed: %s", err))
		return
	}
	respond(s, i, fmt.Sprintf("**%s** nominated **%s** (%s)", team.Name, playerID, role))
}

func (h *Handlers) handleReady(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	sessionID := i.ApplicationCommandData().Options[0].StringValue()

	team, err := h.callerTeam(ctx, s, i, sessionID)
	if err != nil {
		return
	}
	if err := h.auctionMgr.Ready(ctx, sessionID, team.ID); err != nil {
		respond(s, i, fmt.Sprintf("Ready failed: %s", err))
		return
	}
	respond(s, i, fmt.Sprintf("**%s** is ready.", team.Name))
}

func (h *Handlers) handleUnready(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	sessionID := i.ApplicationCommandData().Options[0].StringValue()

	team, err := h.callerTeam(ctx, s, i, sessionID)
	if err != nil {
		return
	}
	if err := h.auctionMgr.Unready(ctx, sessionID, team.ID); err != nil {
		respond(s, i, fmt.Sprintf("Unready failed: %s", err))
		return
	}
	respond(s, i, fmt.Sprintf("**%s** withdrew their confirmation.", team.Name))
}

func (h *Handlers) handleForceReady(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	sessionID := i.ApplicationCommandData().Options[0].StringValue()

	if err := h.auctionMgr.ForceReady(ctx, sessionID); err != nil {
		respond(s, i, fmt.Sprintf("Force ready failed: %s", err))
		return
	}
	respond(s, i, "Ready-check forced to complete.")
}

func (h *Handlers) handleBid(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := i.ApplicationCommandData().Options
	sessionID := opts[0].StringValue()
	amount := int(opts[1].IntValue())

	team, err := h.callerTeam(ctx, s, i, sessionID)
	if err != nil {
		return
	}
	if err := h.auctionMgr.PlaceBid(ctx, sessionID, team.ID, amount); err != nil {
		respond(s, i, fmt.Sprintf("Bid failed: %s", err))
		return
	}
	respond(s, i, fmt.Sprintf("**%s** bids **%d credits**", team.Name, amount))
}

func (h *Handlers) handleSold(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	sessionID := i.ApplicationCommandData().Options[0].StringValue()

	if err := h.auctionMgr.DecideWinner(ctx, sessionID); err != nil {
		respond(s, i, fmt.Sprintf("Failed to close bidding: %s", err))
		return
	}
	respond(s, i, "Going once, going twice... sold to the highest bidder.")
}

func (h *Handlers) handleForceAdvance(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	sessionID := i.ApplicationCommandData().Options[0].StringValue()

	if err := h.auctionMgr.ForceAdvance(ctx, sessionID); err != nil {
		respond(s, i, fmt.Sprintf("Force advance failed: %s", err))
		return
	}
	respond(s, i, "Turn skipped.")
}

func (h *Handlers) handlePause(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := i.ApplicationCommandData().Options
	sessionID := opts[0].StringValue()
	reason := "paused by admin"
	if len(opts) > 1 {
		reason = opts[1].StringValue()
	}

	if err := h.auctionMgr.Pause(ctx, sessionID, reason); err != nil {
		respond(s, i, fmt.Sprintf("Pause failed: %s", err))
		return
	}
	respond(s, i, fmt.Sprintf("Auction paused: %s", reason))
}

func (h *Handlers) handleResume(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	sessionID := i.ApplicationCommandData().Options[0].StringValue()

	if err := h.auctionMgr.Resume(ctx, sessionID); err != nil {
		respond(s, i, fmt.Sprintf("Resume failed: %s", err))
		return
	}
	respond(s, i, "Auction resumed.")
}

func (h *Handlers) handleCancel(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := i.ApplicationCommandData().Options
	sessionID := opts[0].StringValue()
	reason := "cancelled by admin"
	if len(opts) > 1 {
		reason = opts[1].StringValue()
	}

	if err := h.auctionMgr.Cancel(ctx, sessionID, reason); err != nil {
		respond(s, i, fmt.Sprintf("Cancel failed: %s", err))
		return
	}
	respond(s, i, fmt.Sprintf("Auction `%s` cancelled.", sessionID))
}

func (h *Handlers) handleComplete(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	sessionID := i.ApplicationCommandData().Options[0].StringValue()

	if err := h.auctionMgr.Complete(ctx, sessionID); err != nil {
		respond(s, i, fmt.Sprintf("Complete failed: %s", err))
		return
	}
	respond(s, i, fmt.Sprintf("Auction `%s` completed. Rosters are final.", sessionID))
}

func (h *Handlers) handleStatus(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate) {
	sessionID := i.ApplicationCommandData().Options[0].StringValue()

	st, err := h.auctionMgr.State(ctx, sessionID)
	if err != nil {
		respond(s, i, fmt.Sprintf("Status failed: %s", err))
		return
	}
	respond(s, i, formatState(st))
}

func formatState(st auction.State) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Auction `%s`** — status: %s\n", st.ID, st.Status)
	if st.Status == auction.StatusRunning || st.Status == auction.StatusPaused {
		fmt.Fprintf(&b, "Turn %d, role **%s**, on the clock: %s\n", st.Turn.Index+1, st.Turn.Role, st.Turn.TeamID)
	}
	if st.Ready != nil {
		fmt.Fprintf(&b, "Ready-check for **%s**: %d/%d confirmed\n",
			st.Ready.PlayerID, len(st.Ready.Confirmed), len(st.Ready.Eligible))
	}
	if st.Bidding != nil {
		fmt.Fprintf(&b, "Bidding on **%s**: highest %d credits by %s (%d bids)\n",
			st.Bidding.PlayerID, st.Bidding.HighestAmount, st.Bidding.HighestBidderID, st.Bidding.BidCount)
	}
	return b.String()
}

// callerTeam maps the interaction author to their team in the session's
// league. Responds to the interaction itself on failure.
func (h *Handlers) callerTeam(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, sessionID string) (*store.Team, error) {
	st, err := h.auctionMgr.State(ctx, sessionID)
	if err != nil {
		respond(s, i, fmt.Sprintf("Unknown session: %s", err))
		return nil, err
	}
	team, err := h.teamForUser(ctx, st.LeagueID, i.Member.User.ID)
	if err != nil {
		respond(s, i, "You do not own a team in this league.")
		return nil, err
	}
	return team, nil
}

func (h *Handlers) teamForUser(ctx context.Context, leagueID, ownerID string) (*store.Team, error) {
	teams, err := h.teams.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("listing teams: %w", err)
	}
	for idx := range teams {
		if teams[idx].OwnerID == ownerID {
			return &teams[idx], nil
		}
	}
	return nil, fmt.Errorf("no team owned by %s in league %s", ownerID, leagueID)
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, msg string) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: msg,
		},
	})
}
