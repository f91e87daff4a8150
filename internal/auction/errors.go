package auction

import "errors"

// Errors returned by auction session operations. Every one of them aborts
// the single operation that raised it with no partial mutation observable.
var (
	ErrNotRunning        = errors.New("auction session is not running")
	ErrNotPaused         = errors.New("auction session is not paused")
	ErrAlreadyStarted    = errors.New("auction session already started")
	ErrSessionTerminal   = errors.New("auction session is completed or cancelled")
	ErrSessionNotFound   = errors.New("auction session not found")
	ErrEmptyID           = errors.New("empty identifier")
	ErrNotYourTurn       = errors.New("team does not hold the nomination turn")
	ErrRoleNotCurrent    = errors.New("nominated player does not match the current role")
	ErrRoundInFlight     = errors.New("a ready-check or bidding round is already in flight")
	ErrNoReadyCheck      = errors.New("no ready-check in flight")
	ErrReadyIncomplete   = errors.New("ready-check not yet completed")
	ErrNoActiveBidding   = errors.New("no active bidding round")
	ErrNotEligible       = errors.New("team is not eligible to bid in this round")
	ErrBidTooLow         = errors.New("bid is below the required minimum")
	ErrUnknownTeam       = errors.New("unknown team")
)
