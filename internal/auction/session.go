package auction

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jensholdgaard/fanta-auction/internal/roster"
	"github.com/jensholdgaard/fanta-auction/internal/store"
)

// Status is the lifecycle state of an auction session.
type Status string

const (
	StatusPreparation Status = "preparation"
	StatusRunning     Status = "running"
	StatusPaused      Status = "paused"
	StatusReview      Status = "review"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Turn identifies the team currently holding the nomination right.
type Turn struct {
	Role   roster.Role
	Index  int
	TeamID string
}

// Bidding is the sub-state of one competitive round. At most one round
// exists per session at any time.
type Bidding struct {
	TurnID          string
	NominatorID     string
	PlayerID        string
	Role            roster.Role
	HighestBidderID string
	HighestAmount   int
	BidCount        int

	eligible map[string]struct{}
}

// Eligible returns the teams allowed to bid in this round.
func (b *Bidding) Eligible() []string {
	out := make([]string, 0, len(b.eligible))
	for id := range b.eligible {
		out = append(out, id)
	}
	return out
}

func (b *Bidding) clone() *Bidding {
	c := *b
	c.eligible = make(map[string]struct{}, len(b.eligible))
	for id := range b.eligible {
		c.eligible[id] = struct{}{}
	}
	return &c
}

// Assignment is the resolution of one round: the player, the winning team
// and the price to charge against its budget.
type Assignment struct {
	TurnID   string
	PlayerID string
	TeamID   string
	Role     roster.Role
	Price    int
}

// Session is the auction state machine for one league. Operations take the
// session mutex, validate every precondition up front and only then mutate,
// so a failed call leaves no partial state behind. Persistence, events and
// notifications are the manager's business.
type Session struct {
	mu sync.Mutex

	id           string
	leagueID     string
	status       Status
	role         roster.Role
	turnIndex    int
	order        []string
	basePrice    int
	minIncrement int

	ready   *ReadyCheck
	bidding *Bidding
}

// NewSession creates a session in preparation with the given fixed turn
// order. The order must contain at least two teams with no duplicates.
func NewSession(id, leagueID string, order []string, basePrice, minIncrement int) (*Session, error) {
	if id == "" || leagueID == "" {
		return nil, ErrEmptyID
	}
	if len(order) < 2 {
		return nil, fmt.Errorf("turn order needs at least 2 teams, got %d", len(order))
	}
	seen := make(map[string]struct{}, len(order))
	for _, teamID := range order {
		if teamID == "" {
			return nil, ErrEmptyID
		}
		if _, dup := seen[teamID]; dup {
			return nil, fmt.Errorf("duplicate team %q in turn order", teamID)
		}
		seen[teamID] = struct{}{}
	}
	if basePrice < 1 || minIncrement < 1 {
		return nil, fmt.Errorf("base price and min increment must be positive, got %d and %d", basePrice, minIncrement)
	}
	return &Session{
		id:           id,
		leagueID:     leagueID,
		status:       StatusPreparation,
		role:         roster.RoleGoalkeeper,
		order:        append([]string(nil), order...),
		basePrice:    basePrice,
		minIncrement: minIncrement,
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// LeagueID returns the league this session belongs to.
func (s *Session) LeagueID() string { return s.leagueID }

// BasePrice returns the opening price of every nomination.
func (s *Session) BasePrice() int { return s.basePrice }

// MinIncrement returns the smallest allowed raise.
func (s *Session) MinIncrement() int { return s.minIncrement }

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// CurrentTurn returns the turn descriptor for the current pointer position.
func (s *Session) CurrentTurn() Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turnLocked()
}

func (s *Session) turnLocked() Turn {
	t := Turn{Role: s.role, Index: s.turnIndex}
	if s.turnIndex >= 0 && s.turnIndex < len(s.order) {
		t.TeamID = s.order[s.turnIndex]
	}
	return t
}

// Bidding returns a copy of the active round, or nil when none is open.
func (s *Session) Bidding() *Bidding {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bidding == nil {
		return nil
	}
	return s.bidding.clone()
}

// Start transitions preparation to running and positions the turn pointer on
// the first team with a free goalkeeper slot. When no team can take any role
// at all the session goes straight to review and the returned turn is nil.
func (s *Session) Start(teams map[string]*roster.Team) (*Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPreparation {
		return nil, ErrAlreadyStarted
	}
	s.status = StatusRunning
	role, idx, ok := AdvanceUntilEligible(s.order, teams, roster.RoleGoalkeeper, 0)
	if !ok {
		s.status = StatusReview
		return nil, nil
	}
	s.role, s.turnIndex = role, idx
	t := s.turnLocked()
	return &t, nil
}

// Pause freezes a running session. Round sub-state is kept as is; the timer
// layer freezes countdowns separately.
func (s *Session) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return ErrNotRunning
	}
	s.status = StatusPaused
	return nil
}

// Resume returns a paused session to running.
func (s *Session) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusPaused {
		return ErrNotPaused
	}
	s.status = StatusRunning
	return nil
}

// Cancel aborts the session from any non-terminal state.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Terminal() {
		return ErrSessionTerminal
	}
	s.status = StatusCancelled
	s.ready = nil
	s.bidding = nil
	return nil
}

// CompleteReview transitions review to completed.
func (s *Session) CompleteReview() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusReview {
		return fmt.Errorf("session %s is %s, not in review", s.id, s.status)
	}
	s.status = StatusCompleted
	return nil
}

// NominationResult tells the caller how a nomination resolved: either an
// immediate assignment or an opened ready-check.
type NominationResult struct {
	Outcome NominationOutcome
	// Ready is non-nil when the nomination opened a ready-check.
	Ready *ReadyCheck
}

// ProcessNomination validates a nomination by the turn holder and either
// resolves it as an auto-assignment or opens a ready-check for the eligible
// opponents. On the auto path the caller applies the roster mutation and
// then advances the turn.
func (s *Session) ProcessNomination(nominatorID, playerID string, role roster.Role, teams map[string]*roster.Team) (*NominationResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return nil, ErrNotRunning
	}
	if nominatorID == "" || playerID == "" {
		return nil, ErrEmptyID
	}
	if !role.Valid() {
		return nil, roster.ErrUnknownRole
	}
	if s.ready != nil || s.bidding != nil {
		return nil, ErrRoundInFlight
	}
	if s.turnIndex < 0 || s.turnIndex >= len(s.order) || s.order[s.turnIndex] != nominatorID {
		return nil, ErrNotYourTurn
	}
	if role != s.role {
		return nil, ErrRoleNotCurrent
	}

	out := EvaluateNomination(s.order, teams, nominatorID, role, s.basePrice)
	if out.AutoAssign {
		return &NominationResult{Outcome: out}, nil
	}
	rc := NewReadyCheck(uuid.NewString(), s.id, nominatorID, playerID, role, out.EligibleOthers)
	s.ready = rc
	return &NominationResult{Outcome: out, Ready: rc}, nil
}

// ConfirmTeamReady records one confirmation on the in-flight ready-check.
// accepted is false for repeats and non-eligible teams; completed reports
// whether this confirmation was the last one outstanding.
func (s *Session) ConfirmTeamReady(teamID string) (accepted, completed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return false, false, ErrNotRunning
	}
	if s.ready == nil {
		return false, false, ErrNoReadyCheck
	}
	before := s.ready.Completed()
	accepted = s.ready.MarkTeamReady(teamID)
	return accepted, !before && s.ready.Completed(), nil
}

// UnconfirmTeamReady withdraws a confirmation before the check completes.
func (s *Session) UnconfirmTeamReady(teamID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return false, ErrNotRunning
	}
	if s.ready == nil {
		return false, ErrNoReadyCheck
	}
	return s.ready.UnmarkTeamReady(teamID), nil
}

// ForceReadyComplete closes the in-flight ready-check regardless of missing
// confirmations. Used by admins and confirmation timeouts.
func (s *Session) ForceReadyComplete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return ErrNotRunning
	}
	if s.ready == nil {
		return ErrNoReadyCheck
	}
	s.ready.Complete()
	return nil
}

// StartBiddingAfterReady converts a completed ready-check into an open
// bidding round. The nominator opens as highest bidder at the base price so
// an unopposed round still resolves to a valid winner.
func (s *Session) StartBiddingAfterReady() (*Bidding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return nil, ErrNotRunning
	}
	if s.ready == nil {
		return nil, ErrNoReadyCheck
	}
	if !s.ready.Completed() {
		return nil, ErrReadyIncomplete
	}
	rc := s.ready
	eligible := make(map[string]struct{}, len(rc.eligibleOrder)+1)
	for _, id := range rc.eligibleOrder {
		eligible[id] = struct{}{}
	}
	eligible[rc.nominatorID] = struct{}{}
	s.bidding = &Bidding{
		TurnID:          uuid.NewString(),
		NominatorID:     rc.nominatorID,
		PlayerID:        rc.playerID,
		Role:            rc.role,
		HighestBidderID: rc.nominatorID,
		HighestAmount:   s.basePrice,
		eligible:        eligible,
	}
	s.ready = nil
	return s.bidding.clone(), nil
}

// PlaceBid records a bid in the active round. The first real bid must meet
// the base price; every later bid must exceed the highest by at least the
// minimum increment. Budget sufficiency is the manager's check since it
// needs the bidder's roster.
func (s *Session) PlaceBid(teamID string, amount int) (*Bidding, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return nil, ErrNotRunning
	}
	if s.bidding == nil {
		return nil, ErrNoActiveBidding
	}
	if teamID == "" {
		return nil, ErrEmptyID
	}
	b := s.bidding
	if _, ok := b.eligible[teamID]; !ok {
		return nil, ErrNotEligible
	}
	min := b.HighestAmount + s.minIncrement
	if b.BidCount == 0 {
		min = s.basePrice
	}
	if amount < min {
		return nil, fmt.Errorf("%w: got %d, need at least %d", ErrBidTooLow, amount, min)
	}
	b.HighestBidderID = teamID
	b.HighestAmount = amount
	b.BidCount++
	return b.clone(), nil
}

// FinalizeBidding closes the active round, returning the assignment for the
// highest bidder and the next turn. The caller applies the roster mutation
// before persisting. A nil next turn means every role is exhausted and the
// session moved to review.
func (s *Session) FinalizeBidding(teams map[string]*roster.Team) (*Assignment, *Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return nil, nil, ErrNotRunning
	}
	if s.bidding == nil {
		return nil, nil, ErrNoActiveBidding
	}
	b := s.bidding
	a := &Assignment{
		TurnID:   b.TurnID,
		PlayerID: b.PlayerID,
		TeamID:   b.HighestBidderID,
		Role:     b.Role,
		Price:    b.HighestAmount,
	}
	s.bidding = nil
	turn := s.advanceLocked(teams)
	return a, turn, nil
}

// AdvanceToNextTurn moves the turn pointer past the current holder. A nil
// turn means the session entered review.
func (s *Session) AdvanceToNextTurn(teams map[string]*roster.Team) (*Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return nil, ErrNotRunning
	}
	if s.ready != nil || s.bidding != nil {
		return nil, ErrRoundInFlight
	}
	return s.advanceLocked(teams), nil
}

// ForceAdvance discards any in-flight ready-check or bidding round and moves
// the turn pointer on. It returns the aborted round's turn id, if any, so
// the caller can stop its timer.
func (s *Session) ForceAdvance(teams map[string]*roster.Team) (*Turn, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return nil, "", ErrNotRunning
	}
	var aborted string
	if s.bidding != nil {
		aborted = s.bidding.TurnID
	}
	s.ready = nil
	s.bidding = nil
	return s.advanceLocked(teams), aborted, nil
}

func (s *Session) advanceLocked(teams map[string]*roster.Team) *Turn {
	role, idx, ok := AdvanceUntilEligible(s.order, teams, s.role, s.turnIndex+1)
	if !ok {
		s.status = StatusReview
		return nil
	}
	s.role, s.turnIndex = role, idx
	t := s.turnLocked()
	return &t
}

// readySnapshot and biddingSnapshot are the JSON forms of the round
// sub-states inside the persisted session record.
type readySnapshot struct {
	ID          string   `json:"id"`
	NominatorID string   `json:"nominator_id"`
	PlayerID    string   `json:"player_id"`
	Role        string   `json:"role"`
	Eligible    []string `json:"eligible"`
	Confirmed   []string `json:"confirmed"`
	Completed   bool     `json:"completed"`
}

type biddingSnapshot struct {
	TurnID          string   `json:"turn_id"`
	NominatorID     string   `json:"nominator_id"`
	PlayerID        string   `json:"player_id"`
	Role            string   `json:"role"`
	HighestBidderID string   `json:"highest_bidder_id"`
	HighestAmount   int      `json:"highest_amount"`
	BidCount        int      `json:"bid_count"`
	Eligible        []string `json:"eligible"`
}

// Record converts the session into its persisted snapshot form.
func (s *Session) Record() (*store.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &store.Session{
		ID:           s.id,
		LeagueID:     s.leagueID,
		Status:       string(s.status),
		CurrentRole:  string(s.role),
		TurnIndex:    s.turnIndex,
		TurnOrder:    append([]string(nil), s.order...),
		BasePrice:    s.basePrice,
		MinIncrement: s.minIncrement,
	}
	if s.ready != nil {
		snap := readySnapshot{
			ID:          s.ready.id,
			NominatorID: s.ready.nominatorID,
			PlayerID:    s.ready.playerID,
			Role:        string(s.ready.role),
			Eligible:    s.ready.Eligible(),
			Confirmed:   s.ready.Confirmed(),
			Completed:   s.ready.completed,
		}
		data, err := json.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("marshaling ready-check: %w", err)
		}
		rec.ReadyCheck = data
	}
	if s.bidding != nil {
		b := s.bidding
		snap := biddingSnapshot{
			TurnID:          b.TurnID,
			NominatorID:     b.NominatorID,
			PlayerID:        b.PlayerID,
			Role:            string(b.Role),
			HighestBidderID: b.HighestBidderID,
			HighestAmount:   b.HighestAmount,
			BidCount:        b.BidCount,
			Eligible:        b.Eligible(),
		}
		data, err := json.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("marshaling bidding: %w", err)
		}
		rec.Bidding = data
	}
	return rec, nil
}

// FromRecord rebuilds a session, including any in-flight round, from its
// persisted snapshot. Used on crash recovery.
func FromRecord(rec *store.Session) (*Session, error) {
	s, err := NewSession(rec.ID, rec.LeagueID, rec.TurnOrder, rec.BasePrice, rec.MinIncrement)
	if err != nil {
		return nil, err
	}
	s.status = Status(rec.Status)
	s.turnIndex = rec.TurnIndex
	if role, ok := roster.ParseRole(rec.CurrentRole); ok {
		s.role = role
	}
	if len(rec.ReadyCheck) > 0 {
		var snap readySnapshot
		if err := json.Unmarshal(rec.ReadyCheck, &snap); err != nil {
			return nil, fmt.Errorf("unmarshaling ready-check: %w", err)
		}
		role, _ := roster.ParseRole(snap.Role)
		rc := NewReadyCheck(snap.ID, rec.ID, snap.NominatorID, snap.PlayerID, role, snap.Eligible)
		for _, id := range snap.Confirmed {
			rc.confirmed[id] = struct{}{}
		}
		rc.completed = snap.Completed
		s.ready = rc
	}
	if len(rec.Bidding) > 0 {
		var snap biddingSnapshot
		if err := json.Unmarshal(rec.Bidding, &snap); err != nil {
			return nil, fmt.Errorf("unmarshaling bidding: %w", err)
		}
		role, _ := roster.ParseRole(snap.Role)
		eligible := make(map[string]struct{}, len(snap.Eligible))
		for _, id := range snap.Eligible {
			eligible[id] = struct{}{}
		}
		s.bidding = &Bidding{
			TurnID:          snap.TurnID,
			NominatorID:     snap.NominatorID,
			PlayerID:        snap.PlayerID,
			Role:            role,
			HighestBidderID: snap.HighestBidderID,
			HighestAmount:   snap.HighestAmount,
			BidCount:        snap.BidCount,
			eligible:        eligible,
		}
	}
	return s, nil
}

// State is a read-only snapshot of the session for status displays.
type State struct {
	ID           string
	LeagueID     string
	Status       Status
	Turn         Turn
	BasePrice    int
	MinIncrement int
	Ready        *ReadyState
	Bidding      *Bidding
}

// ReadyState is the display form of an in-flight ready-check.
type ReadyState struct {
	ID          string
	NominatorID string
	PlayerID    string
	Role        roster.Role
	Eligible    []string
	Confirmed   []string
	Completed   bool
}

// State returns a deep copy of the observable session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{
		ID:           s.id,
		LeagueID:     s.leagueID,
		Status:       s.status,
		Turn:         s.turnLocked(),
		BasePrice:    s.basePrice,
		MinIncrement: s.minIncrement,
	}
	if s.ready != nil {
		st.Ready = &ReadyState{
			ID:          s.ready.id,
			NominatorID: s.ready.nominatorID,
			PlayerID:    s.ready.playerID,
			Role:        s.ready.role,
			Eligible:    s.ready.Eligible(),
			Confirmed:   s.ready.Confirmed(),
			Completed:   s.ready.completed,
		}
	}
	if s.bidding != nil {
		st.Bidding = s.bidding.clone()
	}
	return st
}
