// Package heuristics implements plan scoring: a weighted default heuristic
// plus optional per-profile scoring expressions compiled with expr.
package heuristics

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/industry-digital/flux-game-sub007/planner"
	"github.com/industry-digital/flux-game-sub007/tactical"
)

// strikeDamage is the expected-damage proxy credited per planned strike.
const strikeDamage = 12.5

// ScoreEnv is the environment a profile expression evaluates against.
// Field names are the identifiers available in the expression source.
type ScoreEnv struct {
	Strikes     int     `expr:"strikes"`
	Damage      float64 `expr:"damage"`
	Moves       int     `expr:"moves"`
	RangeClosed float64 `expr:"rangeClosed"`
	APReserve   float64 `expr:"apReserve"`
	Defended    bool    `expr:"defended"`
	Aggression  float64 `expr:"aggression"`
	Mobility    float64 `expr:"mobility"`
	Caution     float64 `expr:"caution"`
	Efficiency  float64 `expr:"efficiency"`
}

// Scorer implements planner.Scorer. Compiled expressions are cached per
// profile so repeated planning calls pay compilation once.
type Scorer struct {
	mu       sync.Mutex
	programs map[string]*vm.Program
	log      *slog.Logger
}

// NewScorer returns a ready Scorer.
func NewScorer(log *slog.Logger) *Scorer {
	if log == nil {
		log = slog.Default()
	}
	return &Scorer{programs: make(map[string]*vm.Program), log: log}
}

// EvaluateNode scores the node's action sequence so far. Used both for
// pruning during search and, via ScorePlan, for ranking completed plans.
func (sc *Scorer) EvaluateNode(node *planner.PlanNode, s *tactical.Situation, profile *tactical.Profile) float64 {
	env := buildEnv(node, s, profile)

	if profile.Expression != "" {
		if score, err := sc.runExpression(profile, env); err == nil {
			return score
		} else {
			sc.log.Warn("profile expression failed, using weighted default",
				"profile", profile.Name, "error", err)
		}
	}

	score := env.Aggression*env.Damage +
		env.Mobility*env.RangeClosed +
		env.Efficiency*env.APReserve
	if env.Defended {
		score += env.Caution * 2
	}
	return score
}

// ScorePlan scores the node as a completed plan.
func (sc *Scorer) ScorePlan(node *planner.PlanNode, s *tactical.Situation, profile *tactical.Profile) planner.ScoredPlan {
	return planner.ScoredPlan{
		Actions: node.Actions(),
		Score:   sc.EvaluateNode(node, s, profile),
	}
}

func (sc *Scorer) runExpression(profile *tactical.Profile, env ScoreEnv) (float64, error) {
	key := profile.Name + "\x00" + profile.Expression

	sc.mu.Lock()
	prog, ok := sc.programs[key]
	sc.mu.Unlock()

	if !ok {
		var err error
		prog, err = expr.Compile(profile.Expression, expr.Env(ScoreEnv{}), expr.AsFloat64())
		if err != nil {
			return 0, fmt.Errorf("compile profile %q: %w", profile.Name, err)
		}
		sc.mu.Lock()
		sc.programs[key] = prog
		sc.mu.Unlock()
	}

	out, err := vm.Run(prog, env)
	if err != nil {
		return 0, fmt.Errorf("run profile %q: %w", profile.Name, err)
	}
	score, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("profile %q: expression returned %T, want float64", profile.Name, out)
	}
	return score, nil
}

func buildEnv(node *planner.PlanNode, s *tactical.Situation, profile *tactical.Profile) ScoreEnv {
	st := node.State()
	env := ScoreEnv{
		APReserve:  st.AP,
		Aggression: profile.Weights.Aggression,
		Mobility:   profile.Weights.Mobility,
		Caution:    profile.Weights.Caution,
		Efficiency: profile.Weights.Efficiency,
	}

	for _, a := range node.Actions() {
		switch a.Command {
		case tactical.CommandStrike:
			env.Strikes++
		case tactical.CommandAdvance, tactical.CommandRetreat:
			env.Moves++
		case tactical.CommandDefend:
			env.Defended = true
		}
	}
	env.Damage = float64(env.Strikes) * strikeDamage

	// How much the plan improved the gap to weapon-optimal range.
	targetCoord := s.Assessment.PrimaryCoordinate
	if coord, ok := s.TargetCoordinate(st.TargetID); ok {
		targetCoord = coord
	}
	if s.Assessment.PrimaryTargetID != "" || st.TargetID != "" {
		initialGap := math.Abs(s.Assessment.Distance - s.Weapon.OptimalRange)
		finalGap := math.Abs(math.Abs(targetCoord-st.Coordinate) - s.Weapon.OptimalRange)
		env.RangeClosed = initialGap - finalGap
	}

	return env
}
