package auction

import "github.com/jensholdgaard/fanta-auction/internal/roster"

// ReadyCheck gates the start of a competitive bidding round: every eligible
// opponent has to confirm before the countdown opens. Confirmations from
// teams outside the eligible set are rejected, so confirmed is always a
// subset of eligible.
type ReadyCheck struct {
	id          string
	sessionID   string
	nominatorID string
	playerID    string
	role        roster.Role

	eligibleOrder []string
	eligible      map[string]struct{}
	confirmed     map[string]struct{}
	completed     bool
}

// NewReadyCheck opens a ready-check for the given eligible opponents.
func NewReadyCheck(id, sessionID, nominatorID, playerID string, role roster.Role, eligible []string) *ReadyCheck {
	rc := &ReadyCheck{
		id:            id,
		sessionID:     sessionID,
		nominatorID:   nominatorID,
		playerID:      playerID,
		role:          role,
		eligibleOrder: append([]string(nil), eligible...),
		eligible:      make(map[string]struct{}, len(eligible)),
		confirmed:     make(map[string]struct{}, len(eligible)),
	}
	for _, id := range eligible {
		rc.eligible[id] = struct{}{}
	}
	return rc
}

// ID returns the ready-check identifier.
func (r *ReadyCheck) ID() string { return r.id }

// NominatorID returns the team that made the nomination.
func (r *ReadyCheck) NominatorID() string { return r.nominatorID }

// PlayerID returns the nominated player.
func (r *ReadyCheck) PlayerID() string { return r.playerID }

// Role returns the nominated player's role.
func (r *ReadyCheck) Role() roster.Role { return r.role }

// Eligible returns the eligible opponents in turn order.
func (r *ReadyCheck) Eligible() []string {
	return append([]string(nil), r.eligibleOrder...)
}

// Confirmed returns the teams that have confirmed, in turn order.
func (r *ReadyCheck) Confirmed() []string {
	out := make([]string, 0, len(r.confirmed))
	for _, id := range r.eligibleOrder {
		if _, ok := r.confirmed[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// MarkTeamReady records a confirmation. It reports whether the confirmation
// was accepted; repeats, unknown teams and confirmations after completion
// are ignored rather than treated as errors, since clients race the
// completion broadcast. Once every eligible team has confirmed the check
// completes itself.
func (r *ReadyCheck) MarkTeamReady(teamID string) bool {
	if r.completed {
		return false
	}
	if _, ok := r.eligible[teamID]; !ok {
		return false
	}
	if _, ok := r.confirmed[teamID]; ok {
		return false
	}
	r.confirmed[teamID] = struct{}{}
	if r.AllTeamsReady() {
		r.completed = true
	}
	return true
}

// UnmarkTeamReady withdraws a confirmation before completion. It reports
// whether anything changed.
func (r *ReadyCheck) UnmarkTeamReady(teamID string) bool {
	if r.completed {
		return false
	}
	if _, ok := r.confirmed[teamID]; !ok {
		return false
	}
	delete(r.confirmed, teamID)
	return true
}

// AllTeamsReady reports whether every eligible team has confirmed. It is
// vacuously true for an empty eligible set.
func (r *ReadyCheck) AllTeamsReady() bool {
	return len(r.confirmed) == len(r.eligible)
}

// Complete forces the check closed regardless of outstanding confirmations.
// Completing an already completed check is a no-op.
func (r *ReadyCheck) Complete() { r.completed = true }

// Completed reports whether the check has closed.
func (r *ReadyCheck) Completed() bool { return r.completed }
