// Package executor walks an accepted combat plan and invokes the matching
// actor-action primitives that mutate world state.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/industry-digital/flux-game-sub007/planner"
	"github.com/industry-digital/flux-game-sub007/tactical"
)

// Primitives is the world-mutation surface a plan is executed against.
// Implementations live with the entity store, not here.
type Primitives interface {
	SetTarget(ctx context.Context, actorID, targetID string) error
	Strike(ctx context.Context, actorID, targetID string) error
	Advance(ctx context.Context, actorID string, distance float64) error
	Retreat(ctx context.Context, actorID string, distance float64) error
	Defend(ctx context.Context, actorID string, autoDone bool) error
}

// Executor dispatches plan actions to primitives in order, stopping at the
// first failure.
type Executor struct {
	prim Primitives
	log  *slog.Logger
}

// New returns an Executor over the given primitives.
func New(prim Primitives, log *slog.Logger) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{prim: prim, log: log}
}

// Execute walks the plan front to back. A failed step aborts the remainder:
// a half-executed turn must not keep spending resources the world no longer
// agrees the actor has.
func (e *Executor) Execute(ctx context.Context, plan planner.ScoredPlan) error {
	for i, a := range plan.Actions {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("execute step %d/%d: %w", i+1, len(plan.Actions), err)
		}
		if err := e.dispatch(ctx, a); err != nil {
			return fmt.Errorf("execute step %d/%d (%s): %w", i+1, len(plan.Actions), a.Command, err)
		}
		e.log.Debug("executed plan step",
			"actor", a.ActorID,
			"command", a.Command,
			"apCost", a.Cost.AP,
		)
	}
	return nil
}

func (e *Executor) dispatch(ctx context.Context, a tactical.CombatAction) error {
	switch a.Command {
	case tactical.CommandTarget:
		return e.prim.SetTarget(ctx, a.ActorID, a.Args.TargetID)
	case tactical.CommandStrike:
		return e.prim.Strike(ctx, a.ActorID, a.Args.TargetID)
	case tactical.CommandAdvance:
		return e.prim.Advance(ctx, a.ActorID, a.Args.Distance)
	case tactical.CommandRetreat:
		return e.prim.Retreat(ctx, a.ActorID, a.Args.Distance)
	case tactical.CommandDefend:
		return e.prim.Defend(ctx, a.ActorID, a.Args.AutoDone)
	default:
		return fmt.Errorf("unknown command %q", a.Command)
	}
}
