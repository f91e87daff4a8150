package event

import "context"

// Store is the persisted audit trail of live auctions. Every state
// transition the engine publishes is appended here keyed by session, so an
// operator can reconstruct exactly how a roster came to be. The trail is
// write-mostly: the engine recovers from session snapshots, not from here,
// which is why append failures are logged rather than propagated.
type Store interface {
	// Append persists events atomically, preserving argument order.
	Append(ctx context.Context, events ...Event) error
	// Load returns one session's full trail in append order.
	Load(ctx context.Context, sessionID string) ([]Event, error)
	// LoadByType returns one transition kind across all sessions, in
	// append order.
	LoadByType(ctx context.Context, eventType Type) ([]Event, error)
}
