package planner

import (
	"fmt"
	"math"

	"github.com/industry-digital/flux-game-sub007/tactical"
)

// CombatantState is the mutable slice of combatant state a plan simulates:
// resources, battle-line position, and the node-local target assignment.
// The persistent combatant target only changes when an accepted plan is
// executed.
type CombatantState struct {
	AP         float64
	Energy     float64
	Coordinate float64
	Facing     tactical.Facing
	TargetID   string
}

// PlanNode is one state in the search tree. Action history is prefix-shared:
// each node stores only its own action plus a parent link, and full sequences
// are reconstructed by walking to the root. The parent link exists for path
// reconstruction only; nodes are exclusively owned by one search call and
// discarded with it.
type PlanNode struct {
	id       int
	parent   *PlanNode
	depth    int
	action   tactical.CombatAction // zero value at the root
	state    CombatantState
	terminal bool
}

func newRoot(s *tactical.Situation) *PlanNode {
	return &PlanNode{
		state: CombatantState{
			AP:         s.Combatant.AP.Cur,
			Energy:     s.Combatant.Energy.Cur,
			Coordinate: s.Combatant.Position.Coordinate,
			Facing:     s.Combatant.Position.Facing,
			TargetID:   s.Combatant.TargetID,
		},
	}
}

// State returns the simulated combatant state at this node.
func (n *PlanNode) State() CombatantState { return n.state }

// Depth returns the number of actions taken to reach this node.
func (n *PlanNode) Depth() int { return n.depth }

// IsTerminal reports whether this node's last action is plan-ending.
func (n *PlanNode) IsTerminal() bool { return n.terminal }

// LastCommand returns the command of the node's own action; empty at the root.
func (n *PlanNode) LastCommand() tactical.Command {
	if n.parent == nil {
		return ""
	}
	return n.action.Command
}

// Actions reconstructs the ordered action sequence from the root to this node.
func (n *PlanNode) Actions() []tactical.CombatAction {
	if n.depth == 0 {
		return nil
	}
	out := make([]tactical.CombatAction, n.depth)
	for cur := n; cur.parent != nil; cur = cur.parent {
		out[cur.depth-1] = cur.action
	}
	return out
}

// fingerprint identifies a node state for cycle detection: coordinate, AP at
// 0.1 resolution, energy at integer resolution, and depth.
func (n *PlanNode) fingerprint() string {
	return fmt.Sprintf("%.1f|%.1f|%d|%d",
		n.state.Coordinate,
		tactical.FloorTenth(n.state.AP),
		int(math.Round(n.state.Energy)),
		n.depth,
	)
}

// applyAction derives a child node from applying one action. Pure: the parent
// is never mutated. Resources only ever decrease and never go below zero;
// movement clamps to the battle line and updates facing toward the target.
func applyAction(n *PlanNode, a tactical.CombatAction, s *tactical.Situation, cfg Config, id int) *PlanNode {
	st := n.state
	st.AP = math.Max(0, st.AP-a.Cost.AP)
	st.Energy = math.Max(0, st.Energy-a.Cost.Energy)

	switch a.Command {
	case tactical.CommandTarget:
		st.TargetID = a.Args.TargetID
	case tactical.CommandAdvance, tactical.CommandRetreat:
		dir := moveDirection(st, s)
		delta := a.Args.Distance
		if a.Command == tactical.CommandRetreat {
			delta = -delta
		}
		st.Coordinate = clampCoordinate(st.Coordinate + float64(dir)*delta)
		st.Facing = dir
	}

	return &PlanNode{
		id:       id,
		parent:   n,
		depth:    n.depth + 1,
		action:   a,
		state:    st,
		terminal: cfg.IsPlanEnding(a.Command),
	}
}

// moveDirection is the facing toward the node-local target, falling back to
// the primary target and then the current facing.
func moveDirection(st CombatantState, s *tactical.Situation) tactical.Facing {
	targetID := st.TargetID
	if targetID == "" {
		targetID = s.Assessment.PrimaryTargetID
	}
	if coord, ok := s.TargetCoordinate(targetID); ok {
		if coord < st.Coordinate {
			return tactical.FacingDown
		}
		return tactical.FacingUp
	}
	if st.Facing == 0 {
		return tactical.FacingUp
	}
	return st.Facing
}

func clampCoordinate(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > tactical.MaxCoordinate {
		return tactical.MaxCoordinate
	}
	return c
}
