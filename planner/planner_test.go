package planner

import (
	"math"

	"github.com/industry-digital/flux-game-sub007/tactical"
)

// stubScorer scores by an injected function so search behavior is fully
// deterministic in tests.
type stubScorer struct {
	fn func(node *PlanNode, s *tactical.Situation) float64
}

func (ss stubScorer) EvaluateNode(n *PlanNode, s *tactical.Situation, _ *tactical.Profile) float64 {
	return ss.fn(n, s)
}

func (ss stubScorer) ScorePlan(n *PlanNode, s *tactical.Situation, _ *tactical.Profile) ScoredPlan {
	return ScoredPlan{Actions: n.Actions(), Score: ss.fn(n, s)}
}

// strikeCountScorer rewards strikes; constant floor keeps every plan above a
// zero threshold.
func strikeCountScorer() stubScorer {
	return stubScorer{fn: func(n *PlanNode, _ *tactical.Situation) float64 {
		score := 1.0
		for _, a := range n.Actions() {
			if a.Command == tactical.CommandStrike {
				score += 10
			}
		}
		return score
	}}
}

func constantScorer(v float64) stubScorer {
	return stubScorer{fn: func(_ *PlanNode, _ *tactical.Situation) float64 { return v }}
}

// meleeSituation places the combatant and a single hostile dummy on the
// battle line with a melee weapon (optimal 1, max 2).
func meleeSituation(ap, coord, targetCoord float64, targetAssigned bool) *tactical.Situation {
	dist := math.Abs(targetCoord - coord)
	s := &tactical.Situation{
		Combatant: tactical.Combatant{
			ID: "hero", Faction: "red", PlaceID: "bridge",
			AP:       tactical.Resource{Cur: ap, Max: 8},
			Energy:   tactical.Resource{Cur: 10, Max: 10},
			Position: tactical.Position{Coordinate: coord, Facing: tactical.FacingUp},
			Power:    8, Finesse: 40, MassKg: 80,
		},
		Weapon: tactical.WeaponAssessment{
			Name: "saber", MassKg: 2, OptimalRange: 1, MaxRange: 2, CanHit: true,
		},
		ValidTargets: []tactical.TargetInfo{
			{ID: "dummy", Coordinate: targetCoord, Distance: dist},
		},
		Assessment: tactical.BattlefieldAssessment{
			PrimaryTargetID:    "dummy",
			PrimaryCoordinate:  targetCoord,
			Distance:           dist,
			CanAttack:          dist <= 2,
			NeedsRepositioning: dist > 1,
		},
		SessionID: "sess",
	}
	if targetAssigned {
		s.Combatant.TargetID = "dummy"
	}
	return s
}

// rangedSituation uses a falloff weapon (optimal 10, max 25).
func rangedSituation(ap, coord, targetCoord float64, targetAssigned bool) *tactical.Situation {
	s := meleeSituation(ap, coord, targetCoord, targetAssigned)
	dist := s.Assessment.Distance
	s.Weapon = tactical.WeaponAssessment{
		Name: "shortbow", MassKg: 1, OptimalRange: 10, MaxRange: 25, CanHit: true, HasFalloff: true,
	}
	s.Assessment.CanAttack = dist <= 25
	s.Assessment.NeedsRepositioning = dist > 10
	return s
}

func testGenerator(physics tactical.Physics) *Generator {
	return &Generator{Physics: physics, Assessor: tactical.NearestHostileAssessor{}}
}

func collectActions(g *Generator, node *PlanNode, s *tactical.Situation) []tactical.CombatAction {
	var out []tactical.CombatAction
	for a := range g.Actions(node, s) {
		out = append(out, a)
	}
	return out
}

func testPlanner(physics tactical.Physics, scorer Scorer, cache *PlanCache) *Planner {
	return New(physics, tactical.NearestHostileAssessor{}, scorer, cache, nil)
}

func testProfile() *tactical.Profile {
	return &tactical.Profile{
		Name:    "test",
		Weights: tactical.PriorityWeights{Aggression: 1, Mobility: 0.5, Caution: 0.3, Efficiency: 0.2},
	}
}
