package event

import (
	"github.com/jensholdgaard/fanta-auction/internal/roster"
)

// Payload is the tagged union carried by the in-process Bus. Every variant
// is a plain struct that reports its own Type, so consumers dispatch on the
// tag instead of reflecting over concrete types.
type Payload interface {
	EventType() Type
}

// SessionStartedPayload announces a new running auction session.
type SessionStartedPayload struct {
	SessionID string      `json:"session_id"`
	LeagueID  string      `json:"league_id"`
	TurnOrder []string    `json:"turn_order"`
	Role      roster.Role `json:"role"`
	TurnIndex int         `json:"turn_index"`
}

func (SessionStartedPayload) EventType() Type { return SessionStarted }

// SessionPausedPayload announces that a session stopped accepting bids.
type SessionPausedPayload struct {
	SessionID string `json:"session_id"`
	LeagueID  string `json:"league_id"`
	Reason    string `json:"reason"`
}

func (SessionPausedPayload) EventType() Type { return SessionPaused }

// SessionResumedPayload announces that a paused session is live again.
type SessionResumedPayload struct {
	SessionID string `json:"session_id"`
	LeagueID  string `json:"league_id"`
}

func (SessionResumedPayload) EventType() Type { return SessionResumed }

// SessionReviewPayload announces that no role has eligible teams left and
// the auction content is exhausted.
type SessionReviewPayload struct {
	SessionID string `json:"session_id"`
	LeagueID  string `json:"league_id"`
}

func (SessionReviewPayload) EventType() Type { return SessionReview }

// SessionCompletedPayload announces that the review was signed off and the
// auction is over.
type SessionCompletedPayload struct {
	SessionID string `json:"session_id"`
	LeagueID  string `json:"league_id"`
}

func (SessionCompletedPayload) EventType() Type { return SessionCompleted }

// SessionCancelledPayload announces an aborted session.
type SessionCancelledPayload struct {
	SessionID string `json:"session_id"`
	LeagueID  string `json:"league_id"`
	Reason    string `json:"reason"`
}

func (SessionCancelledPayload) EventType() Type { return SessionCancelled }

// ReadyRequestedPayload asks the eligible non-nominating teams to confirm.
type ReadyRequestedPayload struct {
	SessionID   string      `json:"session_id"`
	LeagueID    string      `json:"league_id"`
	ReadyID     string      `json:"ready_id"`
	NominatorID string      `json:"nominator_id"`
	PlayerID    string      `json:"player_id"`
	Role        roster.Role `json:"role"`
	Eligible    []string    `json:"eligible"`
}

func (ReadyRequestedPayload) EventType() Type { return ReadyRequested }

// ReadyCompletedPayload announces that every eligible team confirmed (or
// the check was forced) and bidding may open.
type ReadyCompletedPayload struct {
	SessionID   string      `json:"session_id"`
	LeagueID    string      `json:"league_id"`
	NominatorID string      `json:"nominator_id"`
	PlayerID    string      `json:"player_id"`
	Role        roster.Role `json:"role"`
}

func (ReadyCompletedPayload) EventType() Type { return ReadyCompleted }

// BiddingStartedPayload opens a bidding round for a nominated player.
type BiddingStartedPayload struct {
	SessionID   string      `json:"session_id"`
	LeagueID    string      `json:"league_id"`
	TurnID      string      `json:"turn_id"`
	NominatorID string      `json:"nominator_id"`
	PlayerID    string      `json:"player_id"`
	Role        roster.Role `json:"role"`
	BasePrice   int         `json:"base_price"`
	Eligible    []string    `json:"eligible"`
}

func (BiddingStartedPayload) EventType() Type { return BiddingStarted }

// NewHighestBidPayload records an accepted bid.
type NewHighestBidPayload struct {
	SessionID string `json:"session_id"`
	LeagueID  string `json:"league_id"`
	TurnID    string `json:"turn_id"`
	PlayerID  string `json:"player_id"`
	TeamID    string `json:"team_id"`
	Amount    int    `json:"amount"`
}

func (NewHighestBidPayload) EventType() Type { return NewHighestBid }

// BiddingAbortedPayload announces that an in-flight round was discarded
// (admin force-advance); its timer must be stopped.
type BiddingAbortedPayload struct {
	SessionID string `json:"session_id"`
	LeagueID  string `json:"league_id"`
	TurnID    string `json:"turn_id"`
}

func (BiddingAbortedPayload) EventType() Type { return BiddingAborted }

// BiddingTimerExpiredPayload is raised by the timer manager when a round's
// countdown reaches zero. It carries identifiers only; the orchestrator
// decides the outcome.
type BiddingTimerExpiredPayload struct {
	TurnID    string `json:"turn_id"`
	SessionID string `json:"session_id"`
	LeagueID  string `json:"league_id"`
	PlayerID  string `json:"player_id"`
}

func (BiddingTimerExpiredPayload) EventType() Type { return BiddingTimerExpired }

// WinnerDecidedPayload is raised synchronously when a round's outcome is
// already determined before the timer fires. Finalization consumers must
// treat it and BiddingTimerExpired as duplicate triggers for the same round.
type WinnerDecidedPayload struct {
	SessionID string `json:"session_id"`
	LeagueID  string `json:"league_id"`
	TurnID    string `json:"turn_id"`
	PlayerID  string `json:"player_id"`
	TeamID    string `json:"team_id"`
	Amount    int    `json:"amount"`
}

func (WinnerDecidedPayload) EventType() Type { return WinnerDecided }

// PlayerAutoAssignedPayload records a nomination that went straight to the
// nominator because no other team was eligible.
type PlayerAutoAssignedPayload struct {
	SessionID string      `json:"session_id"`
	LeagueID  string      `json:"league_id"`
	PlayerID  string      `json:"player_id"`
	TeamID    string      `json:"team_id"`
	Role      roster.Role `json:"role"`
	Price     int         `json:"price"`
}

func (PlayerAutoAssignedPayload) EventType() Type { return PlayerAutoAssigned }

// PlayerAssignedViaBiddingPayload records a finalized bidding round.
type PlayerAssignedViaBiddingPayload struct {
	SessionID string      `json:"session_id"`
	LeagueID  string      `json:"league_id"`
	PlayerID  string      `json:"player_id"`
	TeamID    string      `json:"team_id"`
	Role      roster.Role `json:"role"`
	Price     int         `json:"price"`
}

func (PlayerAssignedViaBiddingPayload) EventType() Type { return PlayerAssignedViaBidding }

// TurnAdvancedPayload announces the next nominating team.
type TurnAdvancedPayload struct {
	SessionID string      `json:"session_id"`
	LeagueID  string      `json:"league_id"`
	TurnIndex int         `json:"turn_index"`
	TeamID    string      `json:"team_id"`
	Role      roster.Role `json:"role"`
}

func (TurnAdvancedPayload) EventType() Type { return TurnAdvanced }

// RoleAdvancedPayload announces that a role was exhausted across all teams
// and the auction moved on to the next one.
type RoleAdvancedPayload struct {
	SessionID string      `json:"session_id"`
	LeagueID  string      `json:"league_id"`
	Role      roster.Role `json:"role"`
}

func (RoleAdvancedPayload) EventType() Type { return RoleAdvanced }
