package planner

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/industry-digital/flux-game-sub007/tactical"
)

const (
	// cacheFreshFor is how long a stored entry short-circuits search.
	cacheFreshFor = 5000 * time.Millisecond
	// cacheSweepAge is the age past which a sweep discards entries.
	cacheSweepAge = 10000 * time.Millisecond
	// cacheSweepThreshold is the entry count above which writes sweep.
	cacheSweepThreshold = 100
)

type cacheEntry struct {
	plans    []ScoredPlan
	storedAt time.Time
}

// PlanCache memoizes ranked plans per situation fingerprint. It is an
// explicit injected collaborator so each simulation context can own its own
// cache. Safe for concurrent use. Best-effort only: a miss costs
// recomputation, never incorrectness.
type PlanCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewPlanCache returns an empty cache using wall-clock time.
func NewPlanCache() *PlanCache {
	return &PlanCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the ranked plans for key when the entry is still fresh.
func (c *PlanCache) Get(key string) ([]ScoredPlan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.storedAt) >= cacheFreshFor {
		return nil, false
	}
	return e.plans, true
}

// Put stores ranked plans for key, sweeping stale entries once the cache
// grows past its threshold.
func (c *PlanCache) Put(key string, plans []ScoredPlan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{plans: plans, storedAt: c.now()}
	if len(c.entries) > cacheSweepThreshold {
		c.sweepLocked()
	}
}

// Sweep removes every entry older than the sweep age.
func (c *PlanCache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked()
}

// Len returns the current entry count.
func (c *PlanCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *PlanCache) sweepLocked() {
	cutoff := c.now().Add(-cacheSweepAge)
	for k, e := range c.entries {
		if e.storedAt.Before(cutoff) {
			delete(c.entries, k)
		}
	}
}

// CacheKey fingerprints every score-relevant planning input: heuristic
// weights, the search budgets, and the combatant's rounded tactical state.
//
// Known omissions, kept deliberately: the chance-command set and
// full-precision resources are not part of the key. If future config
// variants make those score-relevant, stale plans could be served; widen the
// key then, not speculatively.
func CacheKey(s *tactical.Situation, profile *tactical.Profile, cfg Config) string {
	var b strings.Builder
	w := profile.Weights
	fmt.Fprintf(&b, "w:%.2f,%.2f,%.2f,%.2f;", w.Aggression, w.Mobility, w.Caution, w.Efficiency)
	fmt.Fprintf(&b, "cfg:%d,%d,%d,%t,%.2f;", cfg.MaxDepth, cfg.MaxNodes, cfg.MaxTerminalPlans, cfg.EnableEarlyTermination, cfg.MinScoreThreshold)
	c := s.Combatant
	fmt.Fprintf(&b, "c:%s,%.1f,%d,%.1f,%.0f;", c.ID, c.Position.Coordinate, c.Position.Facing, tactical.FloorTenth(c.AP.Cur), c.Energy.Cur)
	a := s.Assessment
	fmt.Fprintf(&b, "a:%s,%t,%t", a.PrimaryTargetID, a.CanAttack, a.NeedsRepositioning)
	return b.String()
}
