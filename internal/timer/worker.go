package timer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jensholdgaard/fanta-auction/internal/clock"
	"github.com/jensholdgaard/fanta-auction/internal/notify"
	"github.com/jensholdgaard/fanta-auction/internal/store"
)

// worker drives one turn countdown. It ticks once a second, pushes
// remaining-time updates (deduplicated per second value), emits warnings at
// five-second boundaries inside the warning band and fires the expiry
// callback exactly once when the deadline passes.
type worker struct {
	mu      sync.Mutex
	timer   *store.Timer
	expired bool

	clk      clock.Clock
	notifier notify.Notifier
	logger   *slog.Logger
	onExpire func(t *store.Timer)

	lastSent int
	lastWarn int

	stop chan struct{}
	done chan struct{}
}

func newWorker(t *store.Timer, clk clock.Clock, notifier notify.Notifier, logger *slog.Logger) *worker {
	return &worker{
		timer:    t,
		clk:      clk,
		notifier: notifier,
		logger:   logger,
		lastSent: -1,
		lastWarn: -1,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (w *worker) run(ctx context.Context) {
	defer close(w.done)

	ticker := w.clk.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if w.tick(ctx) {
				return
			}
		}
	}
}

// tick reports true when the countdown expired and the worker must exit.
func (w *worker) tick(ctx context.Context) bool {
	w.mu.Lock()
	t := w.timer
	if t.Paused || w.expired {
		w.mu.Unlock()
		return false
	}
	remaining := t.Remaining(w.clk.Now())

	var fire func(t *store.Timer)
	var snapshot *store.Timer
	if remaining <= 0 {
		w.expired = true
		fire = w.onExpire
		cp := *t
		snapshot = &cp
	} else {
		if remaining != w.lastSent {
			w.lastSent = remaining
			w.notifier.TimerUpdate(ctx, t.LeagueID, t.AuctionID, t.TurnID, remaining)
		}
		if remaining <= t.WarningSec && remaining%5 == 0 && remaining != w.lastWarn {
			w.lastWarn = remaining
			w.notifier.TimerWarning(ctx, t.LeagueID, t.AuctionID, t.TurnID, remaining)
		}
	}
	w.mu.Unlock()

	if fire != nil {
		w.logger.InfoContext(ctx, "bidding countdown expired",
			slog.String("turn_id", snapshot.TurnID),
			slog.String("auction_id", snapshot.AuctionID),
		)
		fire(snapshot)
		return true
	}
	return false
}

// reset moves the deadline to duration from now, as on an accepted bid.
func (w *worker) reset(now time.Time) *store.Timer {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.timer.StartedAt = now
	w.timer.ExpiresAt = now.Add(time.Duration(w.timer.DurationSec) * time.Second)
	w.lastSent = -1
	w.lastWarn = -1
	cp := *w.timer
	return &cp
}

// pause freezes the countdown at now.
func (w *worker) pause(now time.Time) *store.Timer {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.timer.Paused {
		w.timer.Paused = true
		at := now
		w.timer.PausedAt = &at
	}
	cp := *w.timer
	return &cp
}

// resume shifts the deadline forward by the paused duration so the
// remaining time picks up where pause froze it.
func (w *worker) resume(now time.Time) *store.Timer {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer.Paused && w.timer.PausedAt != nil {
		pausedFor := now.Sub(*w.timer.PausedAt)
		w.timer.ExpiresAt = w.timer.ExpiresAt.Add(pausedFor)
		w.timer.PausedTotalSec += int(pausedFor / time.Second)
		w.timer.Paused = false
		w.timer.PausedAt = nil
	}
	cp := *w.timer
	return &cp
}

func (w *worker) snapshot() *store.Timer {
	w.mu.Lock()
	defer w.mu.Unlock()
	cp := *w.timer
	return &cp
}

// halt stops the run loop without firing expiry and waits for it to exit.
func (w *worker) halt() {
	w.mu.Lock()
	w.expired = true
	w.mu.Unlock()
	close(w.stop)
	<-w.done
}
