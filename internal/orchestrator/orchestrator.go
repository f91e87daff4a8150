// Package orchestrator wires the auction engine and the timer subsystem
// together over the in-process event bus. Neither side imports the other;
// every cross-module reaction lives here.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jensholdgaard/fanta-auction/internal/clock"
	"github.com/jensholdgaard/fanta-auction/internal/config"
	"github.com/jensholdgaard/fanta-auction/internal/event"
)

// AuctionService is the slice of the auction manager the orchestrator drives.
type AuctionService interface {
	StartBidding(ctx context.Context, sessionID string) error
	Finalize(ctx context.Context, sessionID, playerID string) error
}

// TimerService is the slice of the timer manager the orchestrator drives.
type TimerService interface {
	StartTimer(ctx context.Context, turnID, auctionID, leagueID, playerID string, durationSec, warningSec int) error
	UpdateTimer(ctx context.Context, turnID string) error
	StopTimer(ctx context.Context, turnID string) error
	PauseAllForAuction(ctx context.Context, auctionID string)
	ResumeAllForAuction(ctx context.Context, auctionID string)
	StopAllForAuction(ctx context.Context, auctionID string)
}

// Orchestrator translates domain events into calls on the auction and timer
// managers.
type Orchestrator struct {
	auctions AuctionService
	timers   TimerService
	cfg      config.AuctionConfig
	clk      clock.Clock
	logger   *slog.Logger
}

// New wires an orchestrator.
func New(auctions AuctionService, timers TimerService, cfg config.AuctionConfig, clk clock.Clock, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		auctions: auctions,
		timers:   timers,
		cfg:      cfg,
		clk:      clk,
		logger:   logger,
	}
}

// Register subscribes every reaction on the bus. Call once at startup.
func (o *Orchestrator) Register(bus *event.Bus) {
	bus.Subscribe(event.ReadyCompleted, o.onReadyCompleted)
	bus.Subscribe(event.BiddingStarted, o.onBiddingStarted)
	bus.Subscribe(event.NewHighestBid, o.onNewHighestBid)
	bus.Subscribe(event.BiddingTimerExpired, o.onTimerExpired)
	bus.Subscribe(event.WinnerDecided, o.onWinnerDecided)
	bus.Subscribe(event.BiddingAborted, o.onBiddingAborted)
	bus.Subscribe(event.SessionPaused, o.onSessionPaused)
	bus.Subscribe(event.SessionResumed, o.onSessionResumed)
	bus.Subscribe(event.SessionCancelled, o.onSessionCancelled)
}

// onReadyCompleted opens the bidding round once every eligible team has
// confirmed.
func (o *Orchestrator) onReadyCompleted(ctx context.Context, raw event.Payload) error {
	p, ok := raw.(event.ReadyCompletedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", raw)
	}
	return o.auctions.StartBidding(ctx, p.SessionID)
}

// onBiddingStarted starts the countdown for the new round.
func (o *Orchestrator) onBiddingStarted(ctx context.Context, raw event.Payload) error {
	p, ok := raw.(event.BiddingStartedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", raw)
	}
	return o.timers.StartTimer(ctx, p.TurnID, p.SessionID, p.LeagueID, p.PlayerID,
		o.cfg.BidSeconds, o.cfg.WarningSeconds)
}

// onNewHighestBid resets the countdown to its full duration.
func (o *Orchestrator) onNewHighestBid(ctx context.Context, raw event.Payload) error {
	p, ok := raw.(event.NewHighestBidPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", raw)
	}
	return o.timers.UpdateTimer(ctx, p.TurnID)
}

// onTimerExpired finalizes the round after a short grace period. The grace
// gives an explicit winner decision that raced the expiry time to land
// first; the finalization itself is idempotent, so losing the race is
// harmless either way.
func (o *Orchestrator) onTimerExpired(ctx context.Context, raw event.Payload) error {
	p, ok := raw.(event.BiddingTimerExpiredPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", raw)
	}
	if o.cfg.FinalizeGrace > 0 {
		select {
		case <-o.clk.After(o.cfg.FinalizeGrace):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return o.auctions.Finalize(ctx, p.SessionID, p.PlayerID)
}

// onWinnerDecided finalizes immediately and stops the round countdown.
func (o *Orchestrator) onWinnerDecided(ctx context.Context, raw event.Payload) error {
	p, ok := raw.(event.WinnerDecidedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", raw)
	}
	if err := o.auctions.Finalize(ctx, p.SessionID, p.PlayerID); err != nil {
		return err
	}
	return o.timers.StopTimer(ctx, p.TurnID)
}

// onBiddingAborted stops the countdown of a discarded round.
func (o *Orchestrator) onBiddingAborted(ctx context.Context, raw event.Payload) error {
	p, ok := raw.(event.BiddingAbortedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", raw)
	}
	return o.timers.StopTimer(ctx, p.TurnID)
}

// onSessionPaused freezes every countdown of the session.
func (o *Orchestrator) onSessionPaused(ctx context.Context, raw event.Payload) error {
	p, ok := raw.(event.SessionPausedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", raw)
	}
	o.timers.PauseAllForAuction(ctx, p.SessionID)
	o.logger.InfoContext(ctx, "auction paused",
		slog.String("session_id", p.SessionID),
		slog.String("reason", p.Reason),
	)
	return nil
}

// onSessionResumed unfreezes the session's countdowns.
func (o *Orchestrator) onSessionResumed(ctx context.Context, raw event.Payload) error {
	p, ok := raw.(event.SessionResumedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", raw)
	}
	o.timers.ResumeAllForAuction(ctx, p.SessionID)
	return nil
}

// onSessionCancelled discards every countdown of the session.
func (o *Orchestrator) onSessionCancelled(ctx context.Context, raw event.Payload) error {
	p, ok := raw.(event.SessionCancelledPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", raw)
	}
	o.timers.StopAllForAuction(ctx, p.SessionID)
	return nil
}
