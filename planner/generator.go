package planner

import (
	"iter"
	"log/slog"

	"github.com/industry-digital/flux-game-sub007/tactical"
)

const (
	// kitePreferredDistance is the standoff a falloff weapon retreats toward.
	kitePreferredDistance = 8.0
	// minActionableAP is the floor below which a node is left to natural
	// termination rather than offered a DEFEND.
	minActionableAP = 0.1
	// movePrecision is the binary-search resolution for movement distances.
	movePrecision = 0.1
)

// Generator enumerates the legal, affordable next actions at a search node.
// Yield order encodes tie-break priority: target acquisition, strike,
// movement, then defend.
type Generator struct {
	Physics  tactical.Physics
	Assessor tactical.Assessor
	Log      *slog.Logger
}

// Actions returns a lazy, finite sequence of affordable actions for the node.
// The sequence is single-use; call Actions again for a fresh pass.
func (g *Generator) Actions(node *PlanNode, s *tactical.Situation) iter.Seq[tactical.CombatAction] {
	return func(yield func(tactical.CombatAction) bool) {
		st := node.State()
		assess := s.Assessment

		// A node that moved earlier in its plan judges range from where it
		// stands now, not from the snapshot position. On failure keep the
		// stale assessment and continue.
		if st.Coordinate != s.Combatant.Position.Coordinate && g.Assessor != nil {
			pos := tactical.Position{Coordinate: st.Coordinate, Facing: st.Facing}
			fresh, err := g.Assessor.AssessFrom(s, pos)
			if err != nil {
				g.logger().Warn("re-targeting after move failed, keeping stale assessment",
					"actor", s.Combatant.ID,
					"coordinate", st.Coordinate,
					"error", err,
				)
			} else {
				assess = fresh
			}
		}

		actor := s.Combatant.ID

		// Target acquisition: exactly one TARGET when a primary exists and
		// nothing is assigned yet. No attack is eligible before this.
		if assess.PrimaryTargetID != "" && st.TargetID == "" {
			a := tactical.CombatAction{
				ActorID: actor,
				Command: tactical.CommandTarget,
				Args:    tactical.ActionArgs{TargetID: assess.PrimaryTargetID},
			}
			if !yield(a) {
				return
			}
		}

		strikeAffordable := false
		if st.TargetID != "" && assess.CanAttack && s.Weapon.CanHit {
			cost := tactical.CeilTenth(g.Physics.WeaponAPCost(s.Weapon.MassKg, s.Combatant.Finesse))
			if tactical.Affordable(cost, st.AP) {
				strikeAffordable = true
				a := tactical.CombatAction{
					ActorID: actor,
					Command: tactical.CommandStrike,
					Args:    tactical.ActionArgs{TargetID: st.TargetID},
					Cost:    tactical.Cost{AP: cost},
				}
				if !yield(a) {
					return
				}
			}
		}

		// Movement never follows movement.
		if !node.LastCommand().IsMovement() {
			if assess.PrimaryTargetID != "" {
				closing := assess.Distance - s.Weapon.OptimalRange
				if closing > 0 {
					if d, cost := g.affordableDistance(s.Combatant, closing, st.AP); d > 0 {
						a := tactical.CombatAction{
							ActorID: actor,
							Command: tactical.CommandAdvance,
							Args:    tactical.ActionArgs{TargetID: assess.PrimaryTargetID, Distance: d},
							Cost:    tactical.Cost{AP: cost},
						}
						if !yield(a) {
							return
						}
					}
				}
			}

			if s.Weapon.HasFalloff && st.TargetID != "" && assess.Distance < kitePreferredDistance {
				if d, cost := g.affordableDistance(s.Combatant, kitePreferredDistance-assess.Distance, st.AP); d > 0 {
					a := tactical.CombatAction{
						ActorID: actor,
						Command: tactical.CommandRetreat,
						Args:    tactical.ActionArgs{TargetID: st.TargetID, Distance: d},
						Cost:    tactical.Cost{AP: cost},
					}
					if !yield(a) {
						return
					}
				}
			}
		}

		// Fallback: burn the remaining AP defending, but only when no strike
		// is affordable and repositioning would not help (already inside
		// optimal range). Nodes at or below the AP floor terminate naturally.
		withinOptimal := assess.Distance <= s.Weapon.OptimalRange
		if !strikeAffordable && withinOptimal && st.AP > minActionableAP {
			a := tactical.CombatAction{
				ActorID: actor,
				Command: tactical.CommandDefend,
				Args:    tactical.ActionArgs{AutoDone: true},
				Cost:    tactical.Cost{AP: st.AP},
			}
			if !yield(a) {
				return
			}
		}
	}
}

// affordableDistance returns the longest tactically affordable distance
// toward desired, at 0.1 resolution, with its rounded AP cost. Returns zeros
// when not even 0.1 is affordable.
func (g *Generator) affordableDistance(c tactical.Combatant, desired, ap float64) (float64, float64) {
	desired = tactical.FloorTenth(desired)
	if desired <= 0 {
		return 0, 0
	}

	costFor := func(d float64) float64 {
		return tactical.CeilTenth(g.Physics.DistanceToAP(c.Power, c.Finesse, d, c.MassKg))
	}

	if cost := costFor(desired); tactical.Affordable(cost, ap) {
		return desired, cost
	}

	// Binary search the largest affordable distance in (0, desired).
	lo, hi := 0.0, desired
	for hi-lo > movePrecision {
		mid := tactical.FloorTenth((lo + hi) / 2)
		if mid <= lo {
			break
		}
		if tactical.Affordable(costFor(mid), ap) {
			lo = mid
		} else {
			hi = mid
		}
	}
	if lo <= 0 {
		return 0, 0
	}
	return lo, costFor(lo)
}

func (g *Generator) logger() *slog.Logger {
	if g.Log != nil {
		return g.Log
	}
	return slog.Default()
}
