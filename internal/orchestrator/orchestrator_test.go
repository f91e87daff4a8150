package orchestrator

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jensholdgaard/fanta-auction/internal/clock"
	"github.com/jensholdgaard/fanta-auction/internal/config"
	"github.com/jensholdgaard/fanta-auction/internal/event"
	"github.com/jensholdgaard/fanta-auction/internal/roster"
)

type fakeAuctions struct {
	mu             sync.Mutex
	biddingStarted []string
	finalized      []string
	done           chan struct{}
}

func (f *fakeAuctions) StartBidding(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.biddingStarted = append(f.biddingStarted, sessionID)
	f.signal()
	return nil
}

func (f *fakeAuctions) Finalize(_ context.Context, sessionID, playerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalized = append(f.finalized, sessionID+"/"+playerID)
	f.signal()
	return nil
}

func (f *fakeAuctions) signal() {
	if f.done != nil {
		select {
		case f.done <- struct{}{}:
		default:
		}
	}
}

type fakeTimers struct {
	mu      sync.Mutex
	started []string
	updated []string
	stopped []string
	paused  []string
	resumed []string
	cleared []string
	done    chan struct{}
}

func (f *fakeTimers) StartTimer(_ context.Context, turnID, _, _, _ string, _, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, turnID)
	f.signal()
	return nil
}

func (f *fakeTimers) UpdateTimer(_ context.Context, turnID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated = append(f.updated, turnID)
	f.signal()
	return nil
}

func (f *fakeTimers) StopTimer(_ context.Context, turnID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, turnID)
	f.signal()
	return nil
}

func (f *fakeTimers) PauseAllForAuction(_ context.Context, auctionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = append(f.paused, auctionID)
	f.signal()
}

func (f *fakeTimers) ResumeAllForAuction(_ context.Context, auctionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumed = append(f.resumed, auctionID)
	f.signal()
}

func (f *fakeTimers) StopAllForAuction(_ context.Context, auctionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared = append(f.cleared, auctionID)
	f.signal()
}

func (f *fakeTimers) signal() {
	if f.done != nil {
		select {
		case f.done <- struct{}{}:
		default:
		}
	}
}

type orchFixture struct {
	bus      *event.Bus
	auctions *fakeAuctions
	timers   *fakeTimers
	done     chan struct{}
}

func newOrchFixture(t *testing.T, cfg config.AuctionConfig) *orchFixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	done := make(chan struct{}, 16)
	f := &orchFixture{
		bus:      event.NewBus(logger),
		auctions: &fakeAuctions{done: done},
		timers:   &fakeTimers{done: done},
		done:     done,
	}
	o := New(f.auctions, f.timers, cfg, clock.Real(), logger)
	o.Register(f.bus)
	return f
}

func (f *orchFixture) waitSignal(t *testing.T) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for orchestrator reaction")
	}
}

func TestOrchestrator_ReadyCompletedOpensBidding(t *testing.T) {
	f := newOrchFixture(t, config.AuctionConfig{BidSeconds: 30})
	f.bus.Publish(context.Background(), event.ReadyCompletedPayload{
		SessionID: "s-1", LeagueID: "l-1", NominatorID: "a", PlayerID: "p-1", Role: roster.RoleGoalkeeper,
	})
	f.waitSignal(t)

	f.auctions.mu.Lock()
	defer f.auctions.mu.Unlock()
	if len(f.auctions.biddingStarted) != 1 || f.auctions.biddingStarted[0] != "s-1" {
		t.Fatalf("got bidding starts %v, want [s-1]", f.auctions.biddingStarted)
	}
}

func TestOrchestrator_BiddingStartedStartsTimer(t *testing.T) {
	f := newOrchFixture(t, config.AuctionConfig{BidSeconds: 30, WarningSeconds: 10})
	f.bus.Publish(context.Background(), event.BiddingStartedPayload{
		SessionID: "s-1", LeagueID: "l-1", TurnID: "turn-1", PlayerID: "p-1",
	})
	f.waitSignal(t)

	f.timers.mu.Lock()
	defer f.timers.mu.Unlock()
	if len(f.timers.started) != 1 || f.timers.started[0] != "turn-1" {
		t.Fatalf("got started timers %v, want [turn-1]", f.timers.started)
	}
}

func TestOrchestrator_NewHighestBidResetsTimer(t *testing.T) {
	f := newOrchFixture(t, config.AuctionConfig{BidSeconds: 30})
	f.bus.Publish(context.Background(), event.NewHighestBidPayload{
		SessionID: "s-1", TurnID: "turn-1", TeamID: "b", Amount: 10,
	})
	f.waitSignal(t)

	f.timers.mu.Lock()
	defer f.timers.mu.Unlock()
	if len(f.timers.updated) != 1 || f.timers.updated[0] != "turn-1" {
		t.Fatalf("got updated timers %v, want [turn-1]", f.timers.updated)
	}
}

func TestOrchestrator_TimerExpiryFinalizesAfterGrace(t *testing.T) {
	f := newOrchFixture(t, config.AuctionConfig{BidSeconds: 30, FinalizeGrace: time.Millisecond})
	f.bus.Publish(context.Background(), event.BiddingTimerExpiredPayload{
		TurnID: "turn-1", SessionID: "s-1", LeagueID: "l-1", PlayerID: "p-1",
	})
	f.waitSignal(t)

	f.auctions.mu.Lock()
	defer f.auctions.mu.Unlock()
	if len(f.auctions.finalized) != 1 || f.auctions.finalized[0] != "s-1/p-1" {
		t.Fatalf("got finalizations %v, want [s-1/p-1]", f.auctions.finalized)
	}
}

func TestOrchestrator_WinnerDecidedFinalizesAndStopsTimer(t *testing.T) {
	f := newOrchFixture(t, config.AuctionConfig{BidSeconds: 30})
	f.bus.Publish(context.Background(), event.WinnerDecidedPayload{
		SessionID: "s-1", TurnID: "turn-1", PlayerID: "p-1", TeamID: "b", Amount: 10,
	})
	f.waitSignal(t)
	f.waitSignal(t)

	f.auctions.mu.Lock()
	if len(f.auctions.finalized) != 1 || f.auctions.finalized[0] != "s-1/p-1" {
		t.Fatalf("got finalizations %v, want [s-1/p-1]", f.auctions.finalized)
	}
	f.auctions.mu.Unlock()

	f.timers.mu.Lock()
	defer f.timers.mu.Unlock()
	if len(f.timers.stopped) != 1 || f.timers.stopped[0] != "turn-1" {
		t.Fatalf("got stopped timers %v, want [turn-1]", f.timers.stopped)
	}
}

func TestOrchestrator_SessionLifecycleControlsTimers(t *testing.T) {
	f := newOrchFixture(t, config.AuctionConfig{BidSeconds: 30})
	ctx := context.Background()

	f.bus.Publish(ctx, event.SessionPausedPayload{SessionID: "s-1", Reason: "break"})
	f.waitSignal(t)
	f.bus.Publish(ctx, event.SessionResumedPayload{SessionID: "s-1"})
	f.waitSignal(t)
	f.bus.Publish(ctx, event.SessionCancelledPayload{SessionID: "s-1", Reason: "abandoned"})
	f.waitSignal(t)

	f.timers.mu.Lock()
	defer f.timers.mu.Unlock()
	if len(f.timers.paused) != 1 || f.timers.paused[0] != "s-1" {
		t.Fatalf("got paused %v, want [s-1]", f.timers.paused)
	}
	if len(f.timers.resumed) != 1 || f.timers.resumed[0] != "s-1" {
		t.Fatalf("got resumed %v, want [s-1]", f.timers.resumed)
	}
	if len(f.timers.cleared) != 1 || f.timers.cleared[0] != "s-1" {
		t.Fatalf("got cleared %v, want [s-1]", f.timers.cleared)
	}
}

func TestOrchestrator_BiddingAbortedStopsTimer(t *testing.T) {
	f := newOrchFixture(t, config.AuctionConfig{BidSeconds: 30})
	f.bus.Publish(context.Background(), event.BiddingAbortedPayload{SessionID: "s-1", TurnID: "turn-1"})
	f.waitSignal(t)

	f.timers.mu.Lock()
	defer f.timers.mu.Unlock()
	if len(f.timers.stopped) != 1 || f.timers.stopped[0] != "turn-1" {
		t.Fatalf("got stopped timers %v, want [turn-1]", f.timers.stopped)
	}
}
