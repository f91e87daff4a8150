package auction

import (
	"errors"
	"testing"

	"github.com/jensholdgaard/fanta-auction/internal/roster"
)

func openSlots(t *testing.T, ids ...string) map[string]*roster.Team {
	t.Helper()
	teams := make(map[string]*roster.Team, len(ids))
	for _, id := range ids {
		teams[id] = testTeam(t, id, 500, map[roster.Role]roster.Slot{
			roster.RoleGoalkeeper: {Max: 3},
			roster.RoleDefender:   {Max: 8},
			roster.RoleMidfielder: {Max: 8},
			roster.RoleForward:    {Max: 6},
		})
	}
	return teams
}

func startedSession(t *testing.T, teams map[string]*roster.Team, order ...string) *Session {
	t.Helper()
	s, err := NewSession("s-1", "league-1", order, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Start(teams); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestNewSession_Validation(t *testing.T) {
	if _, err := NewSession("", "l", []string{"a", "b"}, 1, 1); !errors.Is(err, ErrEmptyID) {
		t.Fatalf("empty id: got %v", err)
	}
	if _, err := NewSession("s", "l", []string{"a"}, 1, 1); err == nil {
		t.Fatal("single team accepted")
	}
	if _, err := NewSession("s", "l", []string{"a", "a"}, 1, 1); err == nil {
		t.Fatal("duplicate team accepted")
	}
	if _, err := NewSession("s", "l", []string{"a", "b"}, 0, 1); err == nil {
		t.Fatal("zero base price accepted")
	}
}

func TestSession_StartPositionsOnFirstGoalkeeperSlot(t *testing.T) {
	teams := openSlots(t, "a", "b", "c")
	// First team has no goalkeeper slot left.
	teams["a"] = testTeam(t, "a", 500, map[roster.Role]roster.Slot{
		roster.RoleGoalkeeper: {Used: 3, Max: 3},
		roster.RoleDefender:   {Max: 8},
	})

	s, err := NewSession("s-1", "league-1", []string{"a", "b", "c"}, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	turn, err := s.Start(teams)
	if err != nil {
		t.Fatal(err)
	}
	if turn == nil || turn.TeamID != "b" || turn.Role != roster.RoleGoalkeeper {
		t.Fatalf("got turn %+v, want team b on GK", turn)
	}
	if s.Status() != StatusRunning {
		t.Fatalf("got status %s, want running", s.Status())
	}
	if _, err := s.Start(teams); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("restart: got %v", err)
	}
}

func TestSession_StartWithEverythingFullGoesToReview(t *testing.T) {
	full := map[roster.Role]roster.Slot{
		roster.RoleGoalkeeper: {Used: 3, Max: 3},
		roster.RoleDefender:   {Used: 8, Max: 8},
		roster.RoleMidfielder: {Used: 8, Max: 8},
		roster.RoleForward:    {Used: 6, Max: 6},
	}
	teams := map[string]*roster.Team{
		"a": testTeam(t, "a", 0, full),
		"b": testTeam(t, "b", 0, full),
	}
	s, err := NewSession("s-1", "league-1", []string{"a", "b"}, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	turn, err := s.Start(teams)
	if err != nil {
		t.Fatal(err)
	}
	if turn != nil {
		t.Fatalf("got turn %+v, want nil", turn)
	}
	if s.Status() != StatusReview {
		t.Fatalf("got status %s, want review", s.Status())
	}
}

func TestSession_ProcessNomination(t *testing.T) {
	t.Run("rejects non-holder and wrong role", func(t *testing.T) {
		teams := openSlots(t, "a", "b")
		s := startedSession(t, teams, "a", "b")

		if _, err := s.ProcessNomination("b", "p1", roster.RoleGoalkeeper, teams); !errors.Is(err, ErrNotYourTurn) {
			t.Fatalf("wrong nominator: got %v", err)
		}
		if _, err := s.ProcessNomination("a", "p1", roster.RoleForward, teams); !errors.Is(err, ErrRoleNotCurrent) {
			t.Fatalf("wrong role: got %v", err)
		}
	})

	t.Run("opens a ready-check for eligible opponents", func(t *testing.T) {
		teams := openSlots(t, "a", "b", "c")
		s := startedSession(t, teams, "a", "b", "c")

		res, err := s.ProcessNomination("a", "p1", roster.RoleGoalkeeper, teams)
		if err != nil {
			t.Fatal(err)
		}
		if res.Ready == nil {
			t.Fatal("expected a ready-check")
		}
		got := res.Ready.Eligible()
		if len(got) != 2 || got[0] != "b" || got[1] != "c" {
			t.Fatalf("got eligible %v, want [b c]", got)
		}
		// A second nomination while the check is open is rejected.
		if _, err := s.ProcessNomination("a", "p2", roster.RoleGoalkeeper, teams); !errors.Is(err, ErrRoundInFlight) {
			t.Fatalf("second nomination: got %v", err)
		}
	})

	t.Run("auto-assigns when no opponent is eligible", func(t *testing.T) {
		teams := map[string]*roster.Team{
			"a": testTeam(t, "a", 500, map[roster.Role]roster.Slot{roster.RoleGoalkeeper: {Max: 3}}),
			"b": testTeam(t, "b", 500, map[roster.Role]roster.Slot{roster.RoleGoalkeeper: {Used: 3, Max: 3}, roster.RoleDefender: {Max: 8}}),
		}
		s := startedSession(t, teams, "a", "b")

		res, err := s.ProcessNomination("a", "p1", roster.RoleGoalkeeper, teams)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Outcome.AutoAssign || res.Ready != nil {
			t.Fatalf("got %+v, want auto-assign without ready-check", res)
		}
		if res.Outcome.Price != 1 {
			t.Fatalf("got price %d, want base price 1", res.Outcome.Price)
		}
	})
}

func TestSession_BiddingFlow(t *testing.T) {
	teams := openSlots(t, "a", "b", "c")
	s, err := NewSession("s-1", "league-1", []string{"a", "b", "c"}, 5, 3)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Start(teams); err != nil {
		t.Fatal(err)
	}

	if _, err := s.ProcessNomination("a", "p1", roster.RoleGoalkeeper, teams); err != nil {
		t.Fatal(err)
	}
	if _, err := s.StartBiddingAfterReady(); !errors.Is(err, ErrReadyIncomplete) {
		t.Fatalf("bidding before ready: got %v", err)
	}
	for _, id := range []string{"b", "c"} {
		if _, _, err := s.ConfirmTeamReady(id); err != nil {
			t.Fatal(err)
		}
	}

	b, err := s.StartBiddingAfterReady()
	if err != nil {
		t.Fatal(err)
	}
	if b.HighestBidderID != "a" || b.HighestAmount != 5 {
		t.Fatalf("got opener %s at %d, want nominator a at base 5", b.HighestBidderID, b.HighestAmount)
	}
	if b.TurnID == "" {
		t.Fatal("missing turn id")
	}

	// First real bid only needs to meet the base price.
	if _, err := s.PlaceBid("b", 4); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("below base: got %v", err)
	}
	if _, err := s.PlaceBid("b", 7); err != nil {
		t.Fatalf("first bid: %v", err)
	}
	// Later bids must clear highest plus the increment.
	if _, err := s.PlaceBid("c", 8); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("sub-increment raise: got %v", err)
	}
	got, err := s.PlaceBid("c", 10)
	if err != nil {
		t.Fatalf("valid raise: %v", err)
	}
	if got.HighestBidderID != "c" || got.HighestAmount != 10 || got.BidCount != 2 {
		t.Fatalf("got %+v, want c leading at 10 with 2 bids", got)
	}

	// Outsiders cannot bid.
	if _, err := s.PlaceBid("ghost", 100); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("outsider bid: got %v", err)
	}

	a, turn, err := s.FinalizeBidding(teams)
	if err != nil {
		t.Fatal(err)
	}
	if a.TeamID != "c" || a.Price != 10 || a.PlayerID != "p1" {
		t.Fatalf("got assignment %+v, want c paying 10 for p1", a)
	}
	if turn == nil || turn.TeamID != "b" {
		t.Fatalf("got next turn %+v, want team b", turn)
	}
	if s.Bidding() != nil {
		t.Fatal("round not cleared after finalization")
	}
	if _, _, err := s.FinalizeBidding(teams); !errors.Is(err, ErrNoActiveBidding) {
		t.Fatalf("double finalize: got %v", err)
	}
}

func TestSession_ForceAdvanceDiscardsRound(t *testing.T) {
	teams := openSlots(t, "a", "b")
	s := startedSession(t, teams, "a", "b")

	if _, err := s.ProcessNomination("a", "p1", roster.RoleGoalkeeper, teams); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.ConfirmTeamReady("b"); err != nil {
		t.Fatal(err)
	}
	b, err := s.StartBiddingAfterReady()
	if err != nil {
		t.Fatal(err)
	}

	turn, aborted, err := s.ForceAdvance(teams)
	if err != nil {
		t.Fatal(err)
	}
	if aborted != b.TurnID {
		t.Fatalf("got aborted turn %q, want %q", aborted, b.TurnID)
	}
	if turn == nil || turn.TeamID != "b" {
		t.Fatalf("got turn %+v, want team b", turn)
	}
	if s.Bidding() != nil {
		t.Fatal("bidding survived force advance")
	}
}

func TestSession_PauseResume(t *testing.T) {
	teams := openSlots(t, "a", "b")
	s := startedSession(t, teams, "a", "b")

	if err := s.Resume(); !errors.Is(err, ErrNotPaused) {
		t.Fatalf("resume while running: got %v", err)
	}
	if err := s.Pause(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ProcessNomination("a", "p1", roster.RoleGoalkeeper, teams); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("nomination while paused: got %v", err)
	}
	if err := s.Pause(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("double pause: got %v", err)
	}
	if err := s.Resume(); err != nil {
		t.Fatal(err)
	}
	if s.Status() != StatusRunning {
		t.Fatalf("got status %s, want running", s.Status())
	}
}

func TestSession_CancelIsTerminal(t *testing.T) {
	teams := openSlots(t, "a", "b")
	s := startedSession(t, teams, "a", "b")

	if err := s.Cancel(); err != nil {
		t.Fatal(err)
	}
	if err := s.Cancel(); !errors.Is(err, ErrSessionTerminal) {
		t.Fatalf("cancel after cancel: got %v", err)
	}
	if err := s.Pause(); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("pause after cancel: got %v", err)
	}
}

func TestSession_RecordRoundtrip(t *testing.T) {
	teams := openSlots(t, "a", "b", "c")
	s := startedSession(t, teams, "a", "b", "c")

	if _, err := s.ProcessNomination("a", "p1", roster.RoleGoalkeeper, teams); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.ConfirmTeamReady("b"); err != nil {
		t.Fatal(err)
	}

	rec, err := s.Record()
	if err != nil {
		t.Fatal(err)
	}
	restored, err := FromRecord(rec)
	if err != nil {
		t.Fatal(err)
	}

	st := restored.State()
	if st.Status != StatusRunning {
		t.Fatalf("got status %s, want running", st.Status)
	}
	if st.Ready == nil {
		t.Fatal("ready-check lost in roundtrip")
	}
	if len(st.Ready.Confirmed) != 1 || st.Ready.Confirmed[0] != "b" {
		t.Fatalf("got confirmed %v, want [b]", st.Ready.Confirmed)
	}

	// The restored check accepts the outstanding confirmation and completes.
	if _, completed, err := restored.ConfirmTeamReady("c"); err != nil || !completed {
		t.Fatalf("got completed=%v err=%v, want true/nil", completed, err)
	}

	b, err := restored.StartBiddingAfterReady()
	if err != nil {
		t.Fatal(err)
	}
	rec2, err := restored.Record()
	if err != nil {
		t.Fatal(err)
	}
	restored2, err := FromRecord(rec2)
	if err != nil {
		t.Fatal(err)
	}
	got := restored2.Bidding()
	if got == nil || got.TurnID != b.TurnID || got.HighestBidderID != "a" {
		t.Fatalf("bidding lost in roundtrip: %+v", got)
	}
	if _, err := restored2.PlaceBid("b", 1); err != nil {
		t.Fatalf("bid on restored session: %v", err)
	}
}
