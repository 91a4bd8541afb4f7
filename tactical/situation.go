package tactical

import (
	"errors"
	"fmt"
	"math"
)

// ErrActorNotFound indicates the requested combatant does not exist in the
// world. Caller misuse, not a recoverable tactical state.
var ErrActorNotFound = errors.New("actor not found")

// ErrNoWeaponSchema indicates the combatant has no equipped weapon schema.
// Caller misuse, not a recoverable tactical state.
var ErrNoWeaponSchema = errors.New("no equipped weapon schema")

// TargetInfo is one valid target as seen from the combatant's starting
// position.
type TargetInfo struct {
	ID         string  `json:"id"`
	Coordinate float64 `json:"coordinate"`
	Distance   float64 `json:"distance"`
}

// WeaponAssessment summarizes the equipped weapon for planning.
type WeaponAssessment struct {
	Name         string  `json:"name"`
	MassKg       float64 `json:"massKg"`
	OptimalRange float64 `json:"optimalRange"`
	MaxRange     float64 `json:"maxRange"`
	CanHit       bool    `json:"canHit"`
	HasFalloff   bool    `json:"hasFalloff"`
}

// BattlefieldAssessment is the targeting summary for one position. The
// planner re-derives it mid-plan whenever a node has moved away from the
// snapshot position.
type BattlefieldAssessment struct {
	PrimaryTargetID    string  `json:"primaryTargetId"`
	PrimaryCoordinate  float64 `json:"primaryCoordinate"`
	Distance           float64 `json:"distance"`
	CanAttack          bool    `json:"canAttack"`
	NeedsRepositioning bool    `json:"needsRepositioning"`
}

// Situation is the immutable snapshot of everything needed to plan one
// combatant's turn. Built fresh per decision point; never mutated by search.
type Situation struct {
	Combatant    Combatant             `json:"combatant"`
	Weapon       WeaponAssessment      `json:"weapon"`
	ValidTargets []TargetInfo          `json:"validTargets"`
	Assessment   BattlefieldAssessment `json:"assessment"`
	SessionID    string                `json:"sessionId"`
}

// TargetCoordinate resolves a target id to its battle-line coordinate.
func (s *Situation) TargetCoordinate(id string) (float64, bool) {
	for _, t := range s.ValidTargets {
		if t.ID == id {
			return t.Coordinate, true
		}
	}
	return 0, false
}

// World is the narrow slice of the entity store the situation builder needs.
type World interface {
	// Actor returns the combatant with the given id, or an error wrapping
	// ErrActorNotFound.
	Actor(id string) (*Combatant, error)
	// EquippedWeapon returns the actor's equipped weapon schema, or an error
	// wrapping ErrNoWeaponSchema.
	EquippedWeapon(actorID string) (*WeaponSchema, error)
	// ActorsIn returns every combatant present in a place.
	ActorsIn(placeID string) []*Combatant
}

// BuildSituation assembles the planning snapshot for one combatant: valid
// hostile targets in the same place, the weapon-range assessment, and the
// battlefield assessment from the actor's current position.
func BuildSituation(w World, actorID, sessionID string) (*Situation, error) {
	actor, err := w.Actor(actorID)
	if err != nil {
		return nil, fmt.Errorf("build situation for %s: %w", actorID, err)
	}

	schema, err := w.EquippedWeapon(actorID)
	if err != nil {
		return nil, fmt.Errorf("build situation for %s: %w", actorID, err)
	}

	var targets []TargetInfo
	for _, other := range w.ActorsIn(actor.PlaceID) {
		if other.ID == actor.ID || other.Faction == actor.Faction {
			continue
		}
		targets = append(targets, TargetInfo{
			ID:         other.ID,
			Coordinate: other.Position.Coordinate,
			Distance:   math.Abs(other.Position.Coordinate - actor.Position.Coordinate),
		})
	}

	s := &Situation{
		Combatant: *actor,
		Weapon: WeaponAssessment{
			Name:         schema.Name,
			MassKg:       schema.MassKg,
			OptimalRange: schema.OptimalRange,
			MaxRange:     schema.MaxRange,
			CanHit:       len(targets) > 0,
			HasFalloff:   schema.Falloff,
		},
		ValidTargets: targets,
		SessionID:    sessionID,
	}

	assessor := NearestHostileAssessor{}
	assessment, err := assessor.AssessFrom(s, actor.Position)
	if err == nil {
		s.Assessment = assessment
	}
	// No viable target leaves a zero assessment: the planner will simply
	// find no TARGET or STRIKE actions to generate.
	return s, nil
}
