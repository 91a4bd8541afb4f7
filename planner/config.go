// Package planner implements budget-bounded turn planning: it searches the
// space of legal, affordable action sequences for one combatant and returns
// the best-scoring sequence for the current turn.
//
// One planning call is single-threaded and runs to completion; independent
// calls for different combatants may run concurrently since each owns its own
// node tree and situation snapshot. The only shared mutable state is the
// PlanCache.
package planner

import "github.com/industry-digital/flux-game-sub007/tactical"

// Config bounds one search call. The node and terminal-plan budgets are the
// sole defense against runaway search cost; they are hard ceilings.
type Config struct {
	MaxDepth               int     `json:"maxDepth"`
	MaxNodes               int     `json:"maxNodes"`
	MaxTerminalPlans       int     `json:"maxTerminalPlans"`
	EnableEarlyTermination bool    `json:"enableEarlyTermination"`
	MinScoreThreshold      float64 `json:"minScoreThreshold"`

	// PlanEnding commands mark a sequence a valid completed turn when last.
	PlanEnding map[tactical.Command]bool `json:"-"`
	// Chance commands have randomized outcomes.
	Chance map[tactical.Command]bool `json:"-"`
}

// DefaultConfig returns the standard search budgets.
func DefaultConfig() Config {
	return Config{
		MaxDepth:               4,
		MaxNodes:               600,
		MaxTerminalPlans:       24,
		EnableEarlyTermination: true,
		MinScoreThreshold:      0,
		PlanEnding:             map[tactical.Command]bool{tactical.CommandDefend: true},
		Chance:                 map[tactical.Command]bool{tactical.CommandStrike: true},
	}
}

// IsPlanEnding reports whether cmd is in the plan-ending set.
func (c Config) IsPlanEnding(cmd tactical.Command) bool {
	return c.PlanEnding[cmd]
}
