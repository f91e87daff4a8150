package auction

import (
	"testing"

	"github.com/jensholdgaard/fanta-auction/internal/roster"
)

func testTeam(t *testing.T, id string, budget int, slots map[roster.Role]roster.Slot) *roster.Team {
	t.Helper()
	rt, err := roster.NewTeam(id, "league-1", "Team "+id, "owner-"+id, budget, slots)
	if err != nil {
		t.Fatalf("NewTeam(%s): %v", id, err)
	}
	return rt
}

func TestEvaluateNomination(t *testing.T) {
	order := []string{"a", "b", "c"}

	t.Run("competitive when opponents have a free slot", func(t *testing.T) {
		teams := map[string]*roster.Team{
			"a": testTeam(t, "a", 100, map[roster.Role]roster.Slot{roster.RoleGoalkeeper: {Max: 3}}),
			"b": testTeam(t, "b", 100, map[roster.Role]roster.Slot{roster.RoleGoalkeeper: {Max: 3}}),
			"c": testTeam(t, "c", 100, map[roster.Role]roster.Slot{roster.RoleGoalkeeper: {Max: 3}}),
		}
		out := EvaluateNomination(order, teams, "a", roster.RoleGoalkeeper, 1)
		if out.AutoAssign {
			t.Fatal("expected competitive outcome")
		}
		want := []string{"b", "c"}
		if len(out.EligibleOthers) != len(want) {
			t.Fatalf("got eligible %v, want %v", out.EligibleOthers, want)
		}
		for i := range want {
			if out.EligibleOthers[i] != want[i] {
				t.Fatalf("got eligible %v, want %v", out.EligibleOthers, want)
			}
		}
	})

	t.Run("auto-assign when opponents lack slots", func(t *testing.T) {
		teams := map[string]*roster.Team{
			"a": testTeam(t, "a", 100, map[roster.Role]roster.Slot{roster.RoleGoalkeeper: {Max: 3}}),
			"b": testTeam(t, "b", 100, map[roster.Role]roster.Slot{roster.RoleGoalkeeper: {Used: 3, Max: 3}}),
			"c": testTeam(t, "c", 100, map[roster.Role]roster.Slot{roster.RoleGoalkeeper: {Used: 3, Max: 3}}),
		}
		out := EvaluateNomination(order, teams, "a", roster.RoleGoalkeeper, 1)
		if !out.AutoAssign {
			t.Fatal("expected auto-assign outcome")
		}
		if out.Price != 1 {
			t.Fatalf("got price %d, want 1", out.Price)
		}
	})

	t.Run("broke opponent with a free slot still forces a round", func(t *testing.T) {
		teams := map[string]*roster.Team{
			"a": testTeam(t, "a", 100, map[roster.Role]roster.Slot{roster.RoleGoalkeeper: {Max: 3}}),
			"b": testTeam(t, "b", 0, map[roster.Role]roster.Slot{roster.RoleGoalkeeper: {Max: 3}}),
			"c": testTeam(t, "c", 100, map[roster.Role]roster.Slot{roster.RoleGoalkeeper: {Used: 3, Max: 3}}),
		}
		out := EvaluateNomination(order, teams, "a", roster.RoleGoalkeeper, 1)
		if out.AutoAssign {
			t.Fatal("expected competitive outcome")
		}
		if len(out.EligibleOthers) != 1 || out.EligibleOthers[0] != "b" {
			t.Fatalf("got eligible %v, want [b]", out.EligibleOthers)
		}
	})
}

func TestFindNextEligibleIndex(t *testing.T) {
	order := []string{"a", "b", "c", "d"}
	full := map[roster.Role]roster.Slot{roster.RoleDefender: {Used: 8, Max: 8}}
	free := map[roster.Role]roster.Slot{roster.RoleDefender: {Used: 2, Max: 8}}

	t.Run("wraps past the end of the order", func(t *testing.T) {
		teams := map[string]*roster.Team{
			"a": testTeam(t, "a", 100, free),
			"b": testTeam(t, "b", 100, full),
			"c": testTeam(t, "c", 100, full),
			"d": testTeam(t, "d", 100, full),
		}
		if got := FindNextEligibleIndex(order, 2, teams, roster.RoleDefender); got != 0 {
			t.Fatalf("got index %d, want 0", got)
		}
	})

	t.Run("start beyond length is normalized", func(t *testing.T) {
		teams := map[string]*roster.Team{
			"a": testTeam(t, "a", 100, full),
			"b": testTeam(t, "b", 100, free),
			"c": testTeam(t, "c", 100, full),
			"d": testTeam(t, "d", 100, full),
		}
		if got := FindNextEligibleIndex(order, len(order), teams, roster.RoleDefender); got != 1 {
			t.Fatalf("got index %d, want 1", got)
		}
	})

	t.Run("no eligible team returns -1", func(t *testing.T) {
		teams := map[string]*roster.Team{
			"a": testTeam(t, "a", 100, full),
			"b": testTeam(t, "b", 100, full),
			"c": testTeam(t, "c", 100, full),
			"d": testTeam(t, "d", 100, full),
		}
		if got := FindNextEligibleIndex(order, 0, teams, roster.RoleDefender); got != -1 {
			t.Fatalf("got index %d, want -1", got)
		}
	})

	t.Run("empty order returns -1", func(t *testing.T) {
		if got := FindNextEligibleIndex(nil, 0, nil, roster.RoleDefender); got != -1 {
			t.Fatalf("got index %d, want -1", got)
		}
	})
}

func TestAdvanceUntilEligible(t *testing.T) {
	order := []string{"a", "b"}

	t.Run("rolls over to the next role when current is exhausted", func(t *testing.T) {
		teams := map[string]*roster.Team{
			"a": testTeam(t, "a", 100, map[roster.Role]roster.Slot{
				roster.RoleGoalkeeper: {Used: 3, Max: 3},
				roster.RoleDefender:   {Max: 8},
			}),
			"b": testTeam(t, "b", 100, map[roster.Role]roster.Slot{
				roster.RoleGoalkeeper: {Used: 3, Max: 3},
				roster.RoleDefender:   {Max: 8},
			}),
		}
		role, idx, ok := AdvanceUntilEligible(order, teams, roster.RoleGoalkeeper, 1)
		if !ok {
			t.Fatal("expected an eligible team")
		}
		if role != roster.RoleDefender || idx != 0 {
			t.Fatalf("got role=%s idx=%d, want DEF/0", role, idx)
		}
	})

	t.Run("skips multiple exhausted roles", func(t *testing.T) {
		slots := map[roster.Role]roster.Slot{
			roster.RoleGoalkeeper: {Used: 3, Max: 3},
			roster.RoleDefender:   {Used: 8, Max: 8},
			roster.RoleMidfielder: {Used: 8, Max: 8},
			roster.RoleForward:    {Max: 6},
		}
		teams := map[string]*roster.Team{
			"a": testTeam(t, "a", 100, slots),
			"b": testTeam(t, "b", 100, map[roster.Role]roster.Slot{
				roster.RoleGoalkeeper: {Used: 3, Max: 3},
				roster.RoleDefender:   {Used: 8, Max: 8},
				roster.RoleMidfielder: {Used: 8, Max: 8},
				roster.RoleForward:    {Max: 6},
			}),
		}
		role, idx, ok := AdvanceUntilEligible(order, teams, roster.RoleGoalkeeper, 0)
		if !ok || role != roster.RoleForward || idx != 0 {
			t.Fatalf("got role=%s idx=%d ok=%v, want FWD/0/true", role, idx, ok)
		}
	})

	t.Run("all roles exhausted ends the phase", func(t *testing.T) {
		slots := map[roster.Role]roster.Slot{
			roster.RoleGoalkeeper: {Used: 3, Max: 3},
			roster.RoleDefender:   {Used: 8, Max: 8},
			roster.RoleMidfielder: {Used: 8, Max: 8},
			roster.RoleForward:    {Used: 6, Max: 6},
		}
		teams := map[string]*roster.Team{
			"a": testTeam(t, "a", 100, slots),
			"b": testTeam(t, "b", 100, slots),
		}
		_, _, ok := AdvanceUntilEligible(order, teams, roster.RoleGoalkeeper, 0)
		if ok {
			t.Fatal("expected exhaustion")
		}
	})
}
