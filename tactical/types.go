// Package tactical defines the combat-planning data model: the immutable
// per-turn situation snapshot, the action vocabulary, and the physics
// formulas that convert between action points and distance.
//
// Everything here is a plain value type so that a planning call can snapshot
// its inputs once and never observe world mutation mid-search.
package tactical

// Command identifies one actor-action primitive in the combat vocabulary.
type Command string

const (
	CommandTarget  Command = "target"
	CommandStrike  Command = "strike"
	CommandAdvance Command = "advance"
	CommandRetreat Command = "retreat"
	CommandDefend  Command = "defend"
)

// IsMovement reports whether the command repositions the actor.
func (c Command) IsMovement() bool {
	return c == CommandAdvance || c == CommandRetreat
}

// Cost is the resource price of one action. AP is fractional; proposed costs
// are rounded up (see CeilTenth) so an action stays affordable after any
// downstream re-computation.
type Cost struct {
	AP     float64 `json:"ap"`
	Energy float64 `json:"energy"`
}

// ActionArgs carries the per-command variant arguments. Only the fields
// relevant to the command are set.
type ActionArgs struct {
	TargetID string  `json:"targetId,omitempty"`
	Distance float64 `json:"distance,omitempty"`
	AutoDone bool    `json:"autoDone,omitempty"`
}

// CombatAction is one step of a turn plan. It carries everything a plan
// executor needs to invoke the matching world-mutating primitive.
type CombatAction struct {
	ActorID string     `json:"actorId"`
	Command Command    `json:"command"`
	Args    ActionArgs `json:"args"`
	Cost    Cost       `json:"cost"`
}

// Resource is a current/max pair for a per-turn budget.
type Resource struct {
	Cur float64 `json:"cur"`
	Max float64 `json:"max"`
}

// Facing is the direction an actor faces along the battle line.
type Facing int

const (
	FacingUp   Facing = 1  // toward increasing coordinates
	FacingDown Facing = -1 // toward decreasing coordinates
)

// Position locates an actor on the battle line.
// Coordinates are clamped to [0, MaxCoordinate] by movement.
type Position struct {
	Coordinate float64 `json:"coordinate"`
	Facing     Facing  `json:"facing"`
}

// MaxCoordinate bounds the battle line.
const MaxCoordinate = 299.0

// WeaponSchema describes an equipped weapon as stored by the world.
type WeaponSchema struct {
	Name         string  `json:"name"`
	MassKg       float64 `json:"massKg"`
	OptimalRange float64 `json:"optimalRange"`
	MaxRange     float64 `json:"maxRange"`
	Falloff      bool    `json:"falloff"`
}

// Combatant is the planning view of one actor: resources, position, body
// stats, and the persistent target assignment (which planning never mutates;
// only the executed plan's TARGET action does).
type Combatant struct {
	ID       string   `json:"id"`
	Faction  string   `json:"faction"`
	PlaceID  string   `json:"placeId"`
	AP       Resource `json:"ap"`
	Energy   Resource `json:"energy"`
	Position Position `json:"position"`
	TargetID string   `json:"targetId,omitempty"`
	Power    float64  `json:"power"`
	Finesse  float64  `json:"finesse"`
	MassKg   float64  `json:"massKg"`
}
