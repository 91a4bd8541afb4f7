package tactical

import (
	"fmt"
	"math"
)

// Assessor re-runs the targeting pass from an arbitrary position. The planner
// invokes it whenever a node in a multi-step plan has drifted from the
// snapshot position, so range and hittability reflect the post-move reality.
type Assessor interface {
	AssessFrom(s *Situation, pos Position) (BattlefieldAssessment, error)
}

// NearestHostileAssessor keeps the combatant's persistent target when it is
// still valid and otherwise picks the nearest valid target.
type NearestHostileAssessor struct{}

func (NearestHostileAssessor) AssessFrom(s *Situation, pos Position) (BattlefieldAssessment, error) {
	if len(s.ValidTargets) == 0 {
		return BattlefieldAssessment{}, fmt.Errorf("assess from %.1f: no valid targets for %s", pos.Coordinate, s.Combatant.ID)
	}

	chosen := s.ValidTargets[0]
	if coord, ok := s.TargetCoordinate(s.Combatant.TargetID); ok {
		chosen = TargetInfo{ID: s.Combatant.TargetID, Coordinate: coord}
	} else {
		for _, t := range s.ValidTargets[1:] {
			if math.Abs(t.Coordinate-pos.Coordinate) < math.Abs(chosen.Coordinate-pos.Coordinate) {
				chosen = t
			}
		}
	}

	dist := math.Abs(chosen.Coordinate - pos.Coordinate)
	return BattlefieldAssessment{
		PrimaryTargetID:    chosen.ID,
		PrimaryCoordinate:  chosen.Coordinate,
		Distance:           dist,
		CanAttack:          dist <= s.Weapon.MaxRange,
		NeedsRepositioning: dist > s.Weapon.OptimalRange,
	}, nil
}
