package event_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/jensholdgaard/fanta-auction/internal/event"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := event.NewBus(slog.Default())

	got := make(chan event.Payload, 2)
	for i := 0; i < 2; i++ {
		bus.Subscribe(event.NewHighestBid, func(_ context.Context, p event.Payload) error {
			got <- p
			return nil
		})
	}

	bus.Publish(context.Background(), event.NewHighestBidPayload{
		SessionID: "s-1",
		TurnID:    "t-1",
		TeamID:    "team-a",
		Amount:    12,
	})

	for i := 0; i < 2; i++ {
		select {
		case p := <-got:
			bid, ok := p.(event.NewHighestBidPayload)
			if !ok {
				t.Fatalf("payload type = %T, want NewHighestBidPayload", p)
			}
			if bid.Amount != 12 {
				t.Errorf("Amount = %d, want 12", bid.Amount)
			}
		case <-time.After(time.Second):
			t.Fatal("handler not invoked")
		}
	}
}

func TestBus_PublishIgnoresOtherTypes(t *testing.T) {
	bus := event.NewBus(slog.Default())

	got := make(chan event.Payload, 1)
	bus.Subscribe(event.ReadyCompleted, func(_ context.Context, p event.Payload) error {
		got <- p
		return nil
	})

	bus.Publish(context.Background(), event.SessionPausedPayload{SessionID: "s-1"})

	select {
	case p := <-got:
		t.Fatalf("handler for ReadyCompleted received %T", p)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_HandlerErrorDoesNotBlockOthers(t *testing.T) {
	bus := event.NewBus(slog.Default())

	bus.Subscribe(event.BiddingTimerExpired, func(context.Context, event.Payload) error {
		return fmt.Errorf("boom")
	})

	got := make(chan struct{}, 1)
	bus.Subscribe(event.BiddingTimerExpired, func(context.Context, event.Payload) error {
		got <- struct{}{}
		return nil
	})

	bus.Publish(context.Background(), event.BiddingTimerExpiredPayload{TurnID: "t-1"})

	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("second handler not invoked after first errored")
	}
}

func TestBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := event.NewBus(slog.Default())

	bus.Subscribe(event.WinnerDecided, func(context.Context, event.Payload) error {
		panic("handler bug")
	})

	// Must not crash the test binary.
	bus.Publish(context.Background(), event.WinnerDecidedPayload{TurnID: "t-1"})
	time.Sleep(50 * time.Millisecond)
}
