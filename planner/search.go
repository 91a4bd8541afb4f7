package planner

import (
	"iter"
	"log/slog"
	"sort"

	"github.com/industry-digital/flux-game-sub007/tactical"
)

// offensiveThresholdFactor lowers the early-termination bar for STRIKE
// children by 30%, biasing the search toward multi-strike plans.
const offensiveThresholdFactor = 0.7

// ScoredPlan is a completed action sequence with its heuristic score.
type ScoredPlan struct {
	Actions []tactical.CombatAction `json:"actions"`
	Score   float64                 `json:"score"`
}

// Scorer evaluates nodes and completed plans. Injected: the planner defines
// the search, not the scoring formulas.
type Scorer interface {
	// EvaluateNode returns a preliminary score for pruning decisions.
	EvaluateNode(node *PlanNode, s *tactical.Situation, profile *tactical.Profile) float64
	// ScorePlan scores the node's full action sequence as a completed plan.
	ScorePlan(node *PlanNode, s *tactical.Situation, profile *tactical.Profile) ScoredPlan
}

// Stats summarizes one search call.
type Stats struct {
	NodesExpanded int  `json:"nodesExpanded"`
	PlansScored   int  `json:"plansScored"`
	MaxDepth      int  `json:"maxDepth"`
	CacheHit      bool `json:"cacheHit"`
}

// Planner owns the injected collaborators for planning calls. Safe for
// concurrent use by independent callers; the cache is the only shared
// mutable state.
type Planner struct {
	gen    *Generator
	scorer Scorer
	cache  *PlanCache
	log    *slog.Logger
}

// New assembles a Planner. cache may be nil to disable memoization.
func New(physics tactical.Physics, assessor tactical.Assessor, scorer Scorer, cache *PlanCache, log *slog.Logger) *Planner {
	if log == nil {
		log = slog.Default()
	}
	return &Planner{
		gen:    &Generator{Physics: physics, Assessor: assessor, Log: log},
		scorer: scorer,
		cache:  cache,
		log:    log,
	}
}

// GenerateAndEvaluatePlans lazily yields every completed plan the bounded
// search finds, in discovery order. The sequence is finite and single-use;
// call again for a fresh search.
func (p *Planner) GenerateAndEvaluatePlans(s *tactical.Situation, profile *tactical.Profile, cfg Config) iter.Seq[ScoredPlan] {
	return func(yield func(ScoredPlan) bool) {
		p.search(s, profile, cfg, nil, yield)
	}
}

// Search runs one full planning call and returns every completed plan plus
// search statistics.
func (p *Planner) Search(s *tactical.Situation, profile *tactical.Profile, cfg Config) ([]ScoredPlan, Stats) {
	var plans []ScoredPlan
	var stats Stats
	p.search(s, profile, cfg, &stats, func(sp ScoredPlan) bool {
		plans = append(plans, sp)
		return true
	})
	return plans, stats
}

// FindOptimalPlan returns the best-scoring plan for the situation, or nil
// when no viable plan exists. Results are memoized per situation fingerprint
// when a cache is attached. Every returned plan ends with a plan-ending
// action.
func (p *Planner) FindOptimalPlan(s *tactical.Situation, profile *tactical.Profile, cfg Config) *ScoredPlan {
	best, _ := p.FindOptimalPlanWithStats(s, profile, cfg)
	return best
}

// FindOptimalPlanWithStats is FindOptimalPlan plus search statistics; a cache
// hit is reported through Stats.CacheHit.
func (p *Planner) FindOptimalPlanWithStats(s *tactical.Situation, profile *tactical.Profile, cfg Config) (*ScoredPlan, Stats) {
	key := CacheKey(s, profile, cfg)
	if p.cache != nil {
		if ranked, ok := p.cache.Get(key); ok && len(ranked) > 0 {
			best := ranked[0]
			return &best, Stats{CacheHit: true}
		}
	}

	plans, stats := p.Search(s, profile, cfg)
	if len(plans) == 0 {
		return nil, stats
	}

	sort.SliceStable(plans, func(i, j int) bool { return plans[i].Score > plans[j].Score })
	plans[0].Actions = EnsurePlanTermination(plans[0].Actions, s.Combatant.ID, cfg)

	if p.cache != nil {
		p.cache.Put(key, plans)
	}
	best := plans[0]
	return &best, stats
}

// search is the FIFO frontier expansion. Exhausting any budget is normal
// termination, never an error.
func (p *Planner) search(s *tactical.Situation, profile *tactical.Profile, cfg Config, stats *Stats, emit func(ScoredPlan) bool) {
	root := newRoot(s)
	queue := []*PlanNode{root}
	visited := make(map[string]struct{})

	nextID := 1
	expanded := 0
	scored := 0

	for len(queue) > 0 && expanded < cfg.MaxNodes && scored < cfg.MaxTerminalPlans {
		node := queue[0]
		queue = queue[1:]

		fp := node.fingerprint()
		if _, seen := visited[fp]; seen {
			continue
		}
		visited[fp] = struct{}{}
		expanded++

		if stats != nil && node.depth > stats.MaxDepth {
			stats.MaxDepth = node.depth
		}

		var children []*PlanNode
		if !node.terminal && node.depth < cfg.MaxDepth {
			for a := range p.gen.Actions(node, s) {
				child := applyAction(node, a, s, cfg, nextID)
				nextID++

				if cfg.EnableEarlyTermination && !child.terminal {
					limit := cfg.MinScoreThreshold
					if a.Command == tactical.CommandStrike {
						limit *= offensiveThresholdFactor
					}
					if p.scorer.EvaluateNode(child, s, profile) < limit {
						continue
					}
				}
				children = append(children, child)
			}
		}

		// Terminal, depth-capped, or out of affordable actions: this node is
		// a completed plan candidate.
		if len(children) == 0 {
			sp := p.scorer.ScorePlan(node, s, profile)
			if sp.Score >= cfg.MinScoreThreshold {
				scored++
				if stats != nil {
					stats.PlansScored = scored
					stats.NodesExpanded = expanded
				}
				if !emit(sp) {
					return
				}
			}
			continue
		}

		queue = append(queue, children...)
	}

	if stats != nil {
		stats.NodesExpanded = expanded
		stats.PlansScored = scored
	}
}
