package roster

import (
	"errors"
	"fmt"
)

// Errors returned by roster operations.
var (
	ErrInsufficientBudget = errors.New("insufficient budget")
	ErrNoFreeSlot         = errors.New("no free slot for role")
	ErrNothingToRelease   = errors.New("no assigned player to release for role")
	ErrUnknownRole        = errors.New("unknown role")
)

// Slot tracks how many players a team has assigned for one role and how
// many it may hold at most.
type Slot struct {
	Used int
	Max  int
}

// Free reports whether the slot can take one more player.
func (s Slot) Free() bool { return s.Used < s.Max }

// Team is a participant roster: a budget plus per-role slot counts.
// Budget and slots are mutated only through Ops, the capability handed to
// the auction engine; everything else gets read-only access.
type Team struct {
	id       string
	leagueID string
	name     string
	ownerID  string
	budget   int
	slots    map[Role]Slot
}

// NewTeam builds a team and validates its invariants: a non-negative
// budget and used ≤ max for every role.
func NewTeam(id, leagueID, name, ownerID string, budget int, slots map[Role]Slot) (*Team, error) {
	if id == "" {
		return nil, fmt.Errorf("team id must not be empty")
	}
	if budget < 0 {
		return nil, fmt.Errorf("team %s: negative budget %d", id, budget)
	}
	copied := make(map[Role]Slot, len(slots))
	for role, slot := range slots {
		if !role.Valid() {
			return nil, fmt.Errorf("team %s: %w: %q", id, ErrUnknownRole, role)
		}
		if slot.Used < 0 || slot.Max < 0 || slot.Used > slot.Max {
			return nil, fmt.Errorf("team %s: invalid slot counts for %s: used=%d max=%d", id, role, slot.Used, slot.Max)
		}
		copied[role] = slot
	}
	for _, role := range roleOrder {
		if _, ok := copied[role]; !ok {
			copied[role] = Slot{}
		}
	}
	return &Team{
		id:       id,
		leagueID: leagueID,
		name:     name,
		ownerID:  ownerID,
		budget:   budget,
		slots:    copied,
	}, nil
}

// ID returns the team identity.
func (t *Team) ID() string { return t.id }

// LeagueID returns the owning league.
func (t *Team) LeagueID() string { return t.leagueID }

// Name returns the display name.
func (t *Team) Name() string { return t.name }

// OwnerID returns the id of the user controlling the team.
func (t *Team) OwnerID() string { return t.ownerID }

// Budget returns the remaining credits.
func (t *Team) Budget() int { return t.budget }

// Slot returns the slot counts for a role.
func (t *Team) Slot(role Role) Slot { return t.slots[role] }

// HasSlot reports whether the team still has a free slot for role.
func (t *Team) HasSlot(role Role) bool { return t.slots[role].Free() }

// Ops is the capability that performs guarded roster mutations. It is
// constructed once at wiring time and handed only to the auction engine,
// keeping assign/release out of reach of transport and notification code.
type Ops struct{}

// NewOps returns the roster mutation capability.
func NewOps() Ops { return Ops{} }

// Assign charges price against the team budget and fills one slot for
// role. On any violation the team is left unchanged.
func (Ops) Assign(t *Team, role Role, price int) error {
	slot, ok := t.slots[role]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	if !slot.Free() {
		return fmt.Errorf("%w: %s", ErrNoFreeSlot, role)
	}
	if price < 0 || price > t.budget {
		return fmt.Errorf("%w: price %d, budget %d", ErrInsufficientBudget, price, t.budget)
	}
	slot.Used++
	t.slots[role] = slot
	t.budget -= price
	return nil
}

// Release is the inverse of Assign: it frees one slot for role and
// refunds price. On any violation the team is left unchanged.
func (Ops) Release(t *Team, role Role, price int) error {
	slot, ok := t.slots[role]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	if slot.Used == 0 {
		return fmt.Errorf("%w: %s", ErrNothingToRelease, role)
	}
	if price < 0 {
		return fmt.Errorf("negative release price %d", price)
	}
	slot.Used--
	t.slots[role] = slot
	t.budget += price
	return nil
}
