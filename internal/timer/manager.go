// Package timer runs the per-turn bidding countdowns. Every countdown is
// one worker goroutine plus a persisted snapshot, so a restarted process can
// resume live rounds mid-count.
package timer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jensholdgaard/fanta-auction/internal/clock"
	"github.com/jensholdgaard/fanta-auction/internal/event"
	"github.com/jensholdgaard/fanta-auction/internal/notify"
	"github.com/jensholdgaard/fanta-auction/internal/store"
)

// ErrTimerNotFound is returned for operations on an unknown turn id.
var ErrTimerNotFound = fmt.Errorf("timer not found")

// Manager owns the countdown workers, keyed by turn id. Expiry is announced
// on the bus as a bidding-timer-expired event; the orchestrator decides what
// it means.
type Manager struct {
	mu      sync.Mutex
	workers map[string]*worker

	repo     store.TimerRepository
	bus      *event.Bus
	notifier notify.Notifier
	clk      clock.Clock
	logger   *slog.Logger
	tracer   trace.Tracer
	active   metric.Int64UpDownCounter
}

// NewManager wires a timer manager.
func NewManager(repo store.TimerRepository, bus *event.Bus, notifier notify.Notifier, clk clock.Clock, logger *slog.Logger) *Manager {
	meter := otel.Meter("timer-manager")
	active, err := meter.Int64UpDownCounter("auction.timers.active",
		metric.WithDescription("Number of running bidding countdowns"))
	if err != nil {
		logger.Error("creating active timers counter", slog.Any("error", err))
	}
	return &Manager{
		workers:  make(map[string]*worker),
		repo:     repo,
		bus:      bus,
		notifier: notifier,
		clk:      clk,
		logger:   logger,
		tracer:   otel.Tracer("timer-manager"),
		active:   active,
	}
}

// StartTimer starts a countdown for a bidding turn, replacing any countdown
// already running for that turn, and persists its snapshot.
func (m *Manager) StartTimer(ctx context.Context, turnID, auctionID, leagueID, playerID string, durationSec, warningSec int) error {
	ctx, span := m.tracer.Start(ctx, "timer.StartTimer",
		trace.WithAttributes(
			attribute.String("turn.id", turnID),
			attribute.Int("duration.seconds", durationSec),
		))
	defer span.End()

	if turnID == "" {
		return fmt.Errorf("empty turn id")
	}
	if durationSec < 1 {
		return fmt.Errorf("duration must be at least 1 second, got %d", durationSec)
	}

	now := m.clk.Now()
	t := &store.Timer{
		TurnID:      turnID,
		AuctionID:   auctionID,
		LeagueID:    leagueID,
		PlayerID:    playerID,
		StartedAt:   now,
		ExpiresAt:   now.Add(time.Duration(durationSec) * time.Second),
		DurationSec: durationSec,
		WarningSec:  warningSec,
		Active:      true,
	}
	if err := m.repo.SaveTimer(ctx, t); err != nil {
		return fmt.Errorf("persisting timer %s: %w", turnID, err)
	}

	w := newWorker(t, m.clk, m.notifier, m.logger)
	w.onExpire = m.expireHandler(w)
	m.mu.Lock()
	old := m.workers[turnID]
	m.workers[turnID] = w
	m.mu.Unlock()

	if old != nil {
		old.halt()
		m.addActive(ctx, -1)
	}
	go w.run(context.WithoutCancel(ctx))
	m.addActive(ctx, 1)

	m.logger.InfoContext(ctx, "countdown started",
		slog.String("turn_id", turnID),
		slog.String("auction_id", auctionID),
		slog.Int("duration_sec", durationSec),
	)
	return nil
}

// UpdateTimer resets the countdown to its full duration, as when an
// accepted bid reopens the clock.
func (m *Manager) UpdateTimer(ctx context.Context, turnID string) error {
	w, err := m.worker(turnID)
	if err != nil {
		return err
	}
	snap := w.reset(m.clk.Now())
	if err := m.repo.SaveTimer(ctx, snap); err != nil {
		return fmt.Errorf("persisting timer %s: %w", turnID, err)
	}
	return nil
}

// StopTimer halts and removes a countdown without firing expiry.
func (m *Manager) StopTimer(ctx context.Context, turnID string) error {
	m.mu.Lock()
	w, ok := m.workers[turnID]
	if ok {
		delete(m.workers, turnID)
	}
	m.mu.Unlock()
	if !ok {
		return nil
	}
	w.halt()
	m.addActive(ctx, -1)
	if err := m.repo.DeleteTimer(ctx, turnID); err != nil {
		return fmt.Errorf("deleting timer %s: %w", turnID, err)
	}
	return nil
}

// PauseTimer freezes a countdown.
func (m *Manager) PauseTimer(ctx context.Context, turnID string) error {
	w, err := m.worker(turnID)
	if err != nil {
		return err
	}
	snap := w.pause(m.clk.Now())
	if err := m.repo.SaveTimer(ctx, snap); err != nil {
		return fmt.Errorf("persisting timer %s: %w", turnID, err)
	}
	return nil
}

// ResumeTimer unfreezes a countdown, shifting its deadline by the paused
// duration.
func (m *Manager) ResumeTimer(ctx context.Context, turnID string) error {
	w, err := m.worker(turnID)
	if err != nil {
		return err
	}
	snap := w.resume(m.clk.Now())
	if err := m.repo.SaveTimer(ctx, snap); err != nil {
		return fmt.Errorf("persisting timer %s: %w", turnID, err)
	}
	return nil
}

// PauseAllForAuction freezes every countdown of one auction concurrently
// and waits for all of them to settle.
func (m *Manager) PauseAllForAuction(ctx context.Context, auctionID string) {
	var wg sync.WaitGroup
	for _, w := range m.workersForAuction(auctionID) {
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			snap := w.pause(m.clk.Now())
			if err := m.repo.SaveTimer(ctx, snap); err != nil {
				m.logger.ErrorContext(ctx, "persisting paused timer",
					slog.String("turn_id", snap.TurnID), slog.Any("error", err))
			}
		}(w)
	}
	wg.Wait()
}

// ResumeAllForAuction unfreezes every countdown of one auction concurrently
// and waits for all of them to settle.
func (m *Manager) ResumeAllForAuction(ctx context.Context, auctionID string) {
	var wg sync.WaitGroup
	for _, w := range m.workersForAuction(auctionID) {
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			snap := w.resume(m.clk.Now())
			if err := m.repo.SaveTimer(ctx, snap); err != nil {
				m.logger.ErrorContext(ctx, "persisting resumed timer",
					slog.String("turn_id", snap.TurnID), slog.Any("error", err))
			}
		}(w)
	}
	wg.Wait()
}

// StopAllForAuction halts and removes every countdown of one auction.
func (m *Manager) StopAllForAuction(ctx context.Context, auctionID string) {
	var stopped []*worker
	m.mu.Lock()
	for id, w := range m.workers {
		if w.snapshot().AuctionID == auctionID {
			delete(m.workers, id)
			stopped = append(stopped, w)
		}
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, w := range stopped {
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			w.halt()
			m.addActive(ctx, -1)
			if err := m.repo.DeleteTimer(ctx, w.snapshot().TurnID); err != nil {
				m.logger.ErrorContext(ctx, "deleting stopped timer",
					slog.String("turn_id", w.snapshot().TurnID), slog.Any("error", err))
			}
		}(w)
	}
	wg.Wait()
}

// Shutdown halts every running worker without touching persisted snapshots,
// so the next leader can recover them. Call when giving up leadership or on
// process exit.
func (m *Manager) Shutdown() {
	var stopped []*worker
	m.mu.Lock()
	for id, w := range m.workers {
		delete(m.workers, id)
		stopped = append(stopped, w)
	}
	m.mu.Unlock()

	for _, w := range stopped {
		w.halt()
		m.addActive(context.Background(), -1)
	}
}

// Remaining returns the seconds left on a countdown.
func (m *Manager) Remaining(turnID string) (int, error) {
	w, err := m.worker(turnID)
	if err != nil {
		return 0, err
	}
	return w.snapshot().Remaining(m.clk.Now()), nil
}

// ActiveCount returns how many countdowns are currently running.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workers)
}

// RecoverActiveTimers restarts countdowns from persisted snapshots after a
// crash. Snapshots whose deadline already passed expire immediately.
func (m *Manager) RecoverActiveTimers(ctx context.Context) (int, error) {
	timers, err := m.repo.GetActiveTimers(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading active timers: %w", err)
	}

	recovered := 0
	now := m.clk.Now()
	for i := range timers {
		t := timers[i]
		if !t.Paused && t.Remaining(now) <= 0 {
			m.logger.InfoContext(ctx, "timer expired while down",
				slog.String("turn_id", t.TurnID))
			m.finishExpired(ctx, &t)
			continue
		}
		w := newWorker(&t, m.clk, m.notifier, m.logger)
		w.onExpire = m.expireHandler(w)
		m.mu.Lock()
		m.workers[t.TurnID] = w
		m.mu.Unlock()
		go w.run(context.WithoutCancel(ctx))
		m.addActive(ctx, 1)
		recovered++
	}
	if recovered > 0 {
		m.logger.InfoContext(ctx, "recovered countdowns", slog.Int("count", recovered))
	}
	return recovered, nil
}

func (m *Manager) worker(turnID string) (*worker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.workers[turnID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTimerNotFound, turnID)
	}
	return w, nil
}

func (m *Manager) workersForAuction(auctionID string) []*worker {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*worker
	for _, w := range m.workers {
		if w.snapshot().AuctionID == auctionID {
			out = append(out, w)
		}
	}
	return out
}

// expireHandler builds the expiry callback for one worker. It runs on the
// worker goroutine after the worker decided to exit, so it may take the
// manager mutex. The identity check keeps a lingering expiry of a replaced
// or stopped worker from evicting its replacement, double-decrementing the
// active counter, or publishing an expiry for a turn it no longer owns.
func (m *Manager) expireHandler(w *worker) func(t *store.Timer) {
	return func(t *store.Timer) {
		ctx := context.Background()
		m.mu.Lock()
		cur, ok := m.workers[t.TurnID]
		owned := ok && cur == w
		if owned {
			delete(m.workers, t.TurnID)
		}
		m.mu.Unlock()
		if !owned {
			return
		}
		m.addActive(ctx, -1)
		m.finishExpired(ctx, t)
	}
}

func (m *Manager) finishExpired(ctx context.Context, t *store.Timer) {
	t.Active = false
	if err := m.repo.SaveTimer(ctx, t); err != nil {
		m.logger.ErrorContext(ctx, "persisting expired timer",
			slog.String("turn_id", t.TurnID), slog.Any("error", err))
	}
	m.bus.Publish(ctx, event.BiddingTimerExpiredPayload{
		TurnID:    t.TurnID,
		SessionID: t.AuctionID,
		LeagueID:  t.LeagueID,
		PlayerID:  t.PlayerID,
	})
}

func (m *Manager) addActive(ctx context.Context, delta int64) {
	if m.active != nil {
		m.active.Add(ctx, delta)
	}
}
