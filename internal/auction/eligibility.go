package auction

import "github.com/jensholdgaard/fanta-auction/internal/roster"

// NominationOutcome is the result of evaluating a nomination against the
// current rosters before any round is opened.
type NominationOutcome struct {
	// AutoAssign is true when no other team can compete for the player and
	// the nominator takes them at the base price without a round.
	AutoAssign bool
	// Price is the assignment price on the auto-assign path.
	Price int
	// EligibleOthers lists the teams, in turn order, that can compete for
	// the nominated role. Empty iff AutoAssign.
	EligibleOthers []string
}

// EvaluateNomination decides whether a nomination opens a competitive round
// or resolves immediately. A team other than the nominator is eligible when
// it has a free slot for the role; budget is not checked here, it is
// enforced per bid when the team actually raises. The scan follows the turn
// order so the result is deterministic for a given roster state.
func EvaluateNomination(order []string, teams map[string]*roster.Team, nominatorID string, role roster.Role, basePrice int) NominationOutcome {
	var others []string
	for _, id := range order {
		if id == nominatorID {
			continue
		}
		t, ok := teams[id]
		if !ok {
			continue
		}
		if t.HasSlot(role) {
			others = append(others, id)
		}
	}
	if len(others) == 0 {
		return NominationOutcome{AutoAssign: true, Price: basePrice}
	}
	return NominationOutcome{EligibleOthers: others}
}

// FindNextEligibleIndex scans the turn order circularly starting at start
// (normalized modulo the order length) and returns the index of the first
// team with a free slot for role. It wraps around at most once; -1 means no
// team can take the role anymore.
func FindNextEligibleIndex(order []string, start int, teams map[string]*roster.Team, role roster.Role) int {
	n := len(order)
	if n == 0 {
		return -1
	}
	start = ((start % n) + n) % n
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		t, ok := teams[order[idx]]
		if !ok {
			continue
		}
		if t.HasSlot(role) {
			return idx
		}
	}
	return -1
}

// AdvanceUntilEligible finds the next turn holder starting from the given
// role and index. When a role is exhausted across every team it moves to the
// next role and restarts the scan at index 0. The returned ok is false when
// every role is exhausted, which ends the nomination phase.
func AdvanceUntilEligible(order []string, teams map[string]*roster.Team, role roster.Role, start int) (roster.Role, int, bool) {
	for {
		if idx := FindNextEligibleIndex(order, start, teams, role); idx >= 0 {
			return role, idx, true
		}
		next, ok := role.Next()
		if !ok {
			return "", -1, false
		}
		role = next
		start = 0
	}
}
