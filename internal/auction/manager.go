// Package auction implements the live player auction: the session state
// machine, the circular turn eligibility algorithm, the ready-check gate and
// the bidding rules. The Manager composes sessions with persistence, the
// audit event store, the in-process bus and outbound notifications.
package auction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/fanta-auction/internal/clock"
	"github.com/jensholdgaard/fanta-auction/internal/config"
	"github.com/jensholdgaard/fanta-auction/internal/event"
	"github.com/jensholdgaard/fanta-auction/internal/notify"
	"github.com/jensholdgaard/fanta-auction/internal/roster"
	"github.com/jensholdgaard/fanta-auction/internal/store"
)

// Manager drives auction sessions. Composite operations (mutate, persist,
// publish) run under one mutex: a guild hosts a single live auction, so
// coarse serialization is simpler than per-session locking and makes the
// duplicate-finalization guard trivially race free.
type Manager struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	finalized map[string]struct{}

	teams    store.TeamRepository
	repo     store.SessionRepository
	events   event.Store
	bus      *event.Bus
	notifier notify.Notifier
	ops      roster.Ops
	cfg      config.AuctionConfig

	logger *slog.Logger
	tracer trace.Tracer
	clk    clock.Clock
}

// NewManager wires an auction manager.
func NewManager(
	teams store.TeamRepository,
	repo store.SessionRepository,
	events event.Store,
	bus *event.Bus,
	notifier notify.Notifier,
	ops roster.Ops,
	cfg config.AuctionConfig,
	logger *slog.Logger,
	clk clock.Clock,
) *Manager {
	m := &Manager{
		sessions:  make(map[string]*Session),
		finalized: make(map[string]struct{}),
		teams:     teams,
		repo:      repo,
		events:    events,
		bus:       bus,
		notifier:  notifier,
		ops:       ops,
		cfg:       cfg,
		logger:    logger,
		tracer:    otel.Tracer("auction-manager"),
		clk:       clk,
	}
	meter := otel.Meter("auction-manager")
	if _, err := meter.Int64ObservableGauge("auction.sessions.live",
		metric.WithDescription("Number of auction sessions held in memory"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(m.LiveSessionCount()))
			return nil
		}),
	); err != nil {
		logger.Error("creating live sessions gauge", slog.Any("error", err))
	}
	return m
}

// StartAuction creates and starts a session for the league using the
// registered teams, in registration order, as the turn order.
func (m *Manager) StartAuction(ctx context.Context, leagueID string) (*Session, error) {
	ctx, span := m.tracer.Start(ctx, "auction.StartAuction",
		trace.WithAttributes(attribute.String("league.id", leagueID)))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.teams.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("listing teams for league %s: %w", leagueID, err)
	}
	order := make([]string, 0, len(records))
	for _, r := range records {
		order = append(order, r.ID)
	}

	s, err := NewSession(uuid.NewString(), leagueID, order, m.cfg.BasePrice, m.cfg.MinIncrement)
	if err != nil {
		return nil, err
	}
	rosters, _, err := m.loadRostersLocked(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	turn, err := s.Start(rosters)
	if err != nil {
		return nil, err
	}

	rec, err := s.Record()
	if err != nil {
		return nil, err
	}
	if err := m.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("persisting session %s: %w", s.ID(), err)
	}
	m.sessions[s.ID()] = s

	cur := s.CurrentTurn()
	m.publish(ctx, s.ID(), event.SessionStartedPayload{
		SessionID: s.ID(),
		LeagueID:  leagueID,
		TurnOrder: order,
		Role:      cur.Role,
		TurnIndex: cur.Index,
	})
	if turn != nil {
		m.notifier.TurnAdvanced(ctx, s.ID(), turn.Index, turn.TeamID, turn.Role)
	} else {
		m.publish(ctx, s.ID(), event.SessionReviewPayload{SessionID: s.ID(), LeagueID: leagueID})
	}

	m.logger.InfoContext(ctx, "auction session started",
		slog.String("session_id", s.ID()),
		slog.String("league_id", leagueID),
		slog.Int("teams", len(order)),
	)
	return s, nil
}

// Nominate handles a nomination by the current turn holder. Depending on
// opponent eligibility it either auto-assigns the player at the base price
// and advances, or opens a ready-check.
func (m *Manager) Nominate(ctx context.Context, sessionID, nominatorID, playerID string, role roster.Role) error {
	ctx, span := m.tracer.Start(ctx, "auction.Nominate",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("team.id", nominatorID),
			attribute.String("player.id", playerID),
		))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	rosters, records, err := m.loadRostersLocked(ctx, s.LeagueID())
	if err != nil {
		return err
	}

	res, err := s.ProcessNomination(nominatorID, playerID, role, rosters)
	if err != nil {
		return err
	}

	if res.Outcome.AutoAssign {
		prev := s.CurrentTurn().Role
		rt, ok := rosters[nominatorID]
		if !ok {
			return ErrUnknownTeam
		}
		if err := m.ops.Assign(rt, role, res.Outcome.Price); err != nil {
			return err
		}
		if err := m.saveTeamLocked(ctx, records, rt); err != nil {
			return err
		}
		turn, err := s.AdvanceToNextTurn(rosters)
		if err != nil {
			return err
		}
		if err := m.saveSessionLocked(ctx, s); err != nil {
			return err
		}
		m.publish(ctx, sessionID, event.PlayerAutoAssignedPayload{
			SessionID: sessionID,
			LeagueID:  s.LeagueID(),
			PlayerID:  playerID,
			TeamID:    nominatorID,
			Role:      role,
			Price:     res.Outcome.Price,
		})
		m.notifier.PlayerAssigned(ctx, sessionID, playerID, nominatorID, res.Outcome.Price)
		m.announceTurn(ctx, s, prev, turn)
		return nil
	}

	if err := m.saveSessionLocked(ctx, s); err != nil {
		return err
	}
	m.publish(ctx, sessionID, event.ReadyRequestedPayload{
		SessionID:   sessionID,
		LeagueID:    s.LeagueID(),
		ReadyID:     res.Ready.ID(),
		NominatorID: nominatorID,
		PlayerID:    playerID,
		Role:        role,
		Eligible:    res.Ready.Eligible(),
	})
	m.notifier.ReadyRequested(ctx, sessionID, nominatorID, playerID, role, res.Ready.Eligible())
	return nil
}

// Ready records a team's confirmation on the in-flight ready-check and
// announces completion when the last confirmation lands.
func (m *Manager) Ready(ctx context.Context, sessionID, teamID string) error {
	ctx, span := m.tracer.Start(ctx, "auction.Ready",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("team.id", teamID),
		))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	accepted, completed, err := s.ConfirmTeamReady(teamID)
	if err != nil {
		return err
	}
	if !accepted {
		m.logger.DebugContext(ctx, "ready confirmation ignored",
			slog.String("session_id", sessionID),
			slog.String("team_id", teamID),
		)
		return nil
	}
	if err := m.saveSessionLocked(ctx, s); err != nil {
		return err
	}
	if completed {
		m.announceReadyCompleted(ctx, s)
	}
	return nil
}

// Unready withdraws a confirmation before the check completes.
func (m *Manager) Unready(ctx context.Context, sessionID, teamID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	changed, err := s.UnconfirmTeamReady(teamID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return m.saveSessionLocked(ctx, s)
}

// ForceReady closes the in-flight ready-check regardless of outstanding
// confirmations. Admin escape hatch for unresponsive teams.
func (m *Manager) ForceReady(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	if err := s.ForceReadyComplete(); err != nil {
		return err
	}
	if err := m.saveSessionLocked(ctx, s); err != nil {
		return err
	}
	m.announceReadyCompleted(ctx, s)
	return nil
}

func (m *Manager) announceReadyCompleted(ctx context.Context, s *Session) {
	st := s.State()
	if st.Ready == nil {
		return
	}
	m.publish(ctx, s.ID(), event.ReadyCompletedPayload{
		SessionID:   s.ID(),
		LeagueID:    s.LeagueID(),
		NominatorID: st.Ready.NominatorID,
		PlayerID:    st.Ready.PlayerID,
		Role:        st.Ready.Role,
	})
	m.notifier.ReadyCompleted(ctx, s.ID(), st.Ready.NominatorID, st.Ready.PlayerID, st.Ready.Role)
}

// StartBidding opens the bidding round for a completed ready-check. The
// orchestrator calls this in response to the ready-completed event.
func (m *Manager) StartBidding(ctx context.Context, sessionID string) error {
	ctx, span := m.tracer.Start(ctx, "auction.StartBidding",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	b, err := s.StartBiddingAfterReady()
	if err != nil {
		return err
	}
	if err := m.saveSessionLocked(ctx, s); err != nil {
		return err
	}
	m.publish(ctx, sessionID, event.BiddingStartedPayload{
		SessionID:   sessionID,
		LeagueID:    s.LeagueID(),
		TurnID:      b.TurnID,
		NominatorID: b.NominatorID,
		PlayerID:    b.PlayerID,
		Role:        b.Role,
		BasePrice:   s.BasePrice(),
		Eligible:    b.Eligible(),
	})
	m.logger.InfoContext(ctx, "bidding round opened",
		slog.String("session_id", sessionID),
		slog.String("turn_id", b.TurnID),
		slog.String("player_id", b.PlayerID),
	)
	return nil
}

// PlaceBid records a bid after checking the bidder's budget against the
// amount. An accepted bid resets the round countdown through the published
// event.
func (m *Manager) PlaceBid(ctx context.Context, sessionID, teamID string, amount int) error {
	ctx, span := m.tracer.Start(ctx, "auction.PlaceBid",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("team.id", teamID),
			attribute.Int("bid.amount", amount),
		))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	rosters, _, err := m.loadRostersLocked(ctx, s.LeagueID())
	if err != nil {
		return err
	}
	rt, ok := rosters[teamID]
	if !ok {
		return ErrUnknownTeam
	}
	if amount > rt.Budget() {
		return fmt.Errorf("%w: bid %d, budget %d", roster.ErrInsufficientBudget, amount, rt.Budget())
	}

	b, err := s.PlaceBid(teamID, amount)
	if err != nil {
		return err
	}
	if err := m.saveSessionLocked(ctx, s); err != nil {
		return err
	}
	m.publish(ctx, sessionID, event.NewHighestBidPayload{
		SessionID: sessionID,
		LeagueID:  s.LeagueID(),
		TurnID:    b.TurnID,
		PlayerID:  b.PlayerID,
		TeamID:    teamID,
		Amount:    amount,
	})
	m.notifier.NewHighestBid(ctx, sessionID, b.PlayerID, teamID, amount)
	return nil
}

// DecideWinner resolves the active round immediately at the current highest
// bid (admin "sold" command). Finalization happens through the published
// event, same as on timer expiry.
func (m *Manager) DecideWinner(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	b := s.Bidding()
	if b == nil {
		return ErrNoActiveBidding
	}
	m.publish(ctx, sessionID, event.WinnerDecidedPayload{
		SessionID: sessionID,
		LeagueID:  s.LeagueID(),
		TurnID:    b.TurnID,
		PlayerID:  b.PlayerID,
		TeamID:    b.HighestBidderID,
		Amount:    b.HighestAmount,
	})
	return nil
}

// Finalize closes the round for the given player: the highest bidder gets
// the player, pays their bid, and the turn advances. It is triggered by both
// the explicit winner event and timer expiry; a marker per (session, player)
// plus the check that the round is still the one being finalized make the
// duplicate trigger a no-op.
func (m *Manager) Finalize(ctx context.Context, sessionID, playerID string) error {
	ctx, span := m.tracer.Start(ctx, "auction.Finalize",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
			attribute.String("player.id", playerID),
		))
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionID + "/" + playerID
	if _, done := m.finalized[key]; done {
		m.logger.DebugContext(ctx, "finalization already processed",
			slog.String("session_id", sessionID),
			slog.String("player_id", playerID),
		)
		return nil
	}

	s, err := m.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	b := s.Bidding()
	if b == nil || b.PlayerID != playerID {
		// Stale trigger for a round that was force-advanced or already
		// resolved through the other path.
		return nil
	}

	rosters, records, err := m.loadRostersLocked(ctx, s.LeagueID())
	if err != nil {
		return err
	}
	winner, ok := rosters[b.HighestBidderID]
	if !ok {
		return ErrUnknownTeam
	}
	prev := s.CurrentTurn().Role
	if err := m.ops.Assign(winner, b.Role, b.HighestAmount); err != nil {
		m.logger.ErrorContext(ctx, "winner roster mutation failed, round left open",
			slog.String("session_id", sessionID),
			slog.String("team_id", b.HighestBidderID),
			slog.Any("error", err),
		)
		return err
	}
	if err := m.saveTeamLocked(ctx, records, winner); err != nil {
		return err
	}

	a, turn, err := s.FinalizeBidding(rosters)
	if err != nil {
		return err
	}
	if err := m.saveSessionLocked(ctx, s); err != nil {
		return err
	}
	m.finalized[key] = struct{}{}

	m.publish(ctx, sessionID, event.PlayerAssignedViaBiddingPayload{
		SessionID: sessionID,
		LeagueID:  s.LeagueID(),
		PlayerID:  a.PlayerID,
		TeamID:    a.TeamID,
		Role:      a.Role,
		Price:     a.Price,
	})
	m.notifier.PlayerAssigned(ctx, sessionID, a.PlayerID, a.TeamID, a.Price)
	m.announceTurn(ctx, s, prev, turn)

	m.logger.InfoContext(ctx, "bidding round finalized",
		slog.String("session_id", sessionID),
		slog.String("player_id", a.PlayerID),
		slog.String("team_id", a.TeamID),
		slog.Int("price", a.Price),
	)
	return nil
}

// ForceAdvance discards any in-flight round and moves the turn pointer on.
func (m *Manager) ForceAdvance(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	rosters, _, err := m.loadRostersLocked(ctx, s.LeagueID())
	if err != nil {
		return err
	}
	prev := s.CurrentTurn().Role
	turn, abortedTurnID, err := s.ForceAdvance(rosters)
	if err != nil {
		return err
	}
	if err := m.saveSessionLocked(ctx, s); err != nil {
		return err
	}
	if abortedTurnID != "" {
		m.publish(ctx, sessionID, event.BiddingAbortedPayload{
			SessionID: sessionID,
			LeagueID:  s.LeagueID(),
			TurnID:    abortedTurnID,
		})
	}
	m.announceTurn(ctx, s, prev, turn)
	return nil
}

// Pause freezes a running session.
func (m *Manager) Pause(ctx context.Context, sessionID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	if err := s.Pause(); err != nil {
		return err
	}
	if err := m.saveSessionLocked(ctx, s); err != nil {
		return err
	}
	m.publish(ctx, sessionID, event.SessionPausedPayload{
		SessionID: sessionID,
		LeagueID:  s.LeagueID(),
		Reason:    reason,
	})
	return nil
}

// Resume returns a paused session to running.
func (m *Manager) Resume(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	if err := s.Resume(); err != nil {
		return err
	}
	if err := m.saveSessionLocked(ctx, s); err != nil {
		return err
	}
	m.publish(ctx, sessionID, event.SessionResumedPayload{
		SessionID: sessionID,
		LeagueID:  s.LeagueID(),
	})
	return nil
}

// Cancel aborts a session.
func (m *Manager) Cancel(ctx context.Context, sessionID, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	if err := s.Cancel(); err != nil {
		return err
	}
	if err := m.saveSessionLocked(ctx, s); err != nil {
		return err
	}
	delete(m.sessions, sessionID)
	m.publish(ctx, sessionID, event.SessionCancelledPayload{
		SessionID: sessionID,
		LeagueID:  s.LeagueID(),
		Reason:    reason,
	})
	return nil
}

// Complete signs off a session in review.
func (m *Manager) Complete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	if err := s.CompleteReview(); err != nil {
		return err
	}
	if err := m.saveSessionLocked(ctx, s); err != nil {
		return err
	}
	delete(m.sessions, sessionID)
	m.publish(ctx, sessionID, event.SessionCompletedPayload{
		SessionID: sessionID,
		LeagueID:  s.LeagueID(),
	})
	return nil
}

// State returns an observable snapshot of a live session.
func (m *Manager) State(ctx context.Context, sessionID string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.sessionLocked(sessionID)
	if err != nil {
		return State{}, err
	}
	return s.State(), nil
}

// LiveSessionCount returns how many sessions are currently held in memory.
func (m *Manager) LiveSessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// RecoverRunningSessions reloads non-terminal sessions from the store after
// a restart, in-flight round sub-state included. It returns how many were
// recovered.
func (m *Manager) RecoverRunningSessions(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, status := range []Status{StatusRunning, StatusPaused, StatusReview} {
		recs, err := m.repo.ListByStatus(ctx, string(status))
		if err != nil {
			return count, fmt.Errorf("listing %s sessions: %w", status, err)
		}
		for i := range recs {
			s, err := FromRecord(&recs[i])
			if err != nil {
				m.logger.ErrorContext(ctx, "skipping unrecoverable session",
					slog.String("session_id", recs[i].ID),
					slog.Any("error", err),
				)
				continue
			}
			m.sessions[s.ID()] = s
			count++
		}
	}
	if count > 0 {
		m.logger.InfoContext(ctx, "recovered auction sessions", slog.Int("count", count))
	}
	return count, nil
}

func (m *Manager) sessionLocked(sessionID string) (*Session, error) {
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// loadRostersLocked loads every team in the league as both the guarded
// aggregate and its backing record, keyed by team id.
func (m *Manager) loadRostersLocked(ctx context.Context, leagueID string) (map[string]*roster.Team, map[string]*store.Team, error) {
	records, err := m.teams.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, nil, fmt.Errorf("listing teams for league %s: %w", leagueID, err)
	}
	rosters := make(map[string]*roster.Team, len(records))
	byID := make(map[string]*store.Team, len(records))
	for i := range records {
		rec := &records[i]
		rt, err := rec.ToRoster()
		if err != nil {
			return nil, nil, fmt.Errorf("rebuilding roster for team %s: %w", rec.ID, err)
		}
		rosters[rec.ID] = rt
		byID[rec.ID] = rec
	}
	return rosters, byID, nil
}

func (m *Manager) saveTeamLocked(ctx context.Context, records map[string]*store.Team, rt *roster.Team) error {
	rec, ok := records[rt.ID()]
	if !ok {
		return ErrUnknownTeam
	}
	rec.SyncFromRoster(rt)
	if err := m.teams.Save(ctx, rec); err != nil {
		return fmt.Errorf("saving team %s: %w", rt.ID(), err)
	}
	return nil
}

func (m *Manager) saveSessionLocked(ctx context.Context, s *Session) error {
	rec, err := s.Record()
	if err != nil {
		return err
	}
	if err := m.repo.Save(ctx, rec); err != nil {
		return fmt.Errorf("saving session %s: %w", s.ID(), err)
	}
	return nil
}

func (m *Manager) announceTurn(ctx context.Context, s *Session, prevRole roster.Role, turn *Turn) {
	if turn == nil {
		m.publish(ctx, s.ID(), event.SessionReviewPayload{
			SessionID: s.ID(),
			LeagueID:  s.LeagueID(),
		})
		m.logger.InfoContext(ctx, "auction entered review",
			slog.String("session_id", s.ID()))
		return
	}
	if turn.Role != prevRole {
		m.publish(ctx, s.ID(), event.RoleAdvancedPayload{
			SessionID: s.ID(),
			LeagueID:  s.LeagueID(),
			Role:      turn.Role,
		})
		m.notifier.RoleAdvanced(ctx, s.ID(), turn.Role)
	}
	m.publish(ctx, s.ID(), event.TurnAdvancedPayload{
		SessionID: s.ID(),
		LeagueID:  s.LeagueID(),
		TurnIndex: turn.Index,
		TeamID:    turn.TeamID,
		Role:      turn.Role,
	})
	m.notifier.TurnAdvanced(ctx, s.ID(), turn.Index, turn.TeamID, turn.Role)
}

// publish appends the payload to the audit store and hands it to the bus.
// Audit failures are logged, not propagated: a lost audit row must not abort
// a live round.
func (m *Manager) publish(ctx context.Context, sessionID string, p event.Payload) {
	data, err := json.Marshal(p)
	if err != nil {
		m.logger.ErrorContext(ctx, "marshaling event payload",
			slog.String("event_type", string(p.EventType())),
			slog.Any("error", err),
		)
		return
	}
	e := event.Event{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Type:      p.EventType(),
		Data:      data,
		CreatedAt: m.clk.Now(),
	}
	if err := m.events.Append(ctx, e); err != nil {
		m.logger.ErrorContext(ctx, "appending audit event",
			slog.String("event_type", string(p.EventType())),
			slog.Any("error", err),
		)
	}
	m.bus.Publish(ctx, p)
}
