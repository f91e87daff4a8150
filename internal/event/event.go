package event

import (
	"encoding/json"
	"time"
)

// Type identifies an event kind.
type Type string

const (
	SessionStarted   Type = "auction.session_started"
	SessionPaused    Type = "auction.session_paused"
	SessionResumed   Type = "auction.session_resumed"
	SessionReview    Type = "auction.session_review"
	SessionCompleted Type = "auction.session_completed"
	SessionCancelled Type = "auction.session_cancelled"

	ReadyRequested Type = "auction.ready_requested"
	ReadyCompleted Type = "auction.ready_completed"

	BiddingStarted      Type = "auction.bidding_started"
	NewHighestBid       Type = "auction.new_highest_bid"
	BiddingAborted      Type = "auction.bidding_aborted"
	BiddingTimerExpired Type = "auction.bidding_timer_expired"
	WinnerDecided       Type = "auction.winner_decided"

	PlayerAutoAssigned       Type = "auction.player_auto_assigned"
	PlayerAssignedViaBidding Type = "auction.player_assigned_via_bidding"

	TurnAdvanced Type = "auction.turn_advanced"
	RoleAdvanced Type = "auction.role_advanced"
)

// Event is one persisted entry of a session's audit trail. SessionID keys
// the trail; Data holds the marshalled payload for the Type.
type Event struct {
	ID        string          `json:"id" db:"id"`
	SessionID string          `json:"session_id" db:"session_id"`
	Type      Type            `json:"type" db:"type"`
	Data      json.RawMessage `json:"data" db:"data"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
