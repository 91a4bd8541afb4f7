package planner

import "github.com/industry-digital/flux-game-sub007/tactical"

// EnsurePlanTermination guarantees the sequence ends with a plan-ending
// action regardless of how search stopped: an empty plan, or one whose last
// command is not plan-ending, gains a zero-cost auto-done DEFEND.
func EnsurePlanTermination(actions []tactical.CombatAction, actorID string, cfg Config) []tactical.CombatAction {
	if len(actions) > 0 && cfg.IsPlanEnding(actions[len(actions)-1].Command) {
		return actions
	}
	return append(actions, tactical.CombatAction{
		ActorID: actorID,
		Command: tactical.CommandDefend,
		Args:    tactical.ActionArgs{AutoDone: true},
		Cost:    tactical.Cost{AP: 0, Energy: 0},
	})
}
