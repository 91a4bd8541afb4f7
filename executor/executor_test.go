package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/industry-digital/flux-game-sub007/planner"
	"github.com/industry-digital/flux-game-sub007/tactical"
)

// recordingPrimitives logs each invocation and can fail a chosen command.
type recordingPrimitives struct {
	calls  []string
	failOn tactical.Command
}

func (r *recordingPrimitives) record(cmd tactical.Command, detail string) error {
	r.calls = append(r.calls, fmt.Sprintf("%s(%s)", cmd, detail))
	if cmd == r.failOn {
		return errors.New("world rejected action")
	}
	return nil
}

func (r *recordingPrimitives) SetTarget(_ context.Context, actorID, targetID string) error {
	return r.record(tactical.CommandTarget, actorID+","+targetID)
}

func (r *recordingPrimitives) Strike(_ context.Context, actorID, targetID string) error {
	return r.record(tactical.CommandStrike, actorID+","+targetID)
}

func (r *recordingPrimitives) Advance(_ context.Context, actorID string, distance float64) error {
	return r.record(tactical.CommandAdvance, fmt.Sprintf("%s,%.1f", actorID, distance))
}

func (r *recordingPrimitives) Retreat(_ context.Context, actorID string, distance float64) error {
	return r.record(tactical.CommandRetreat, fmt.Sprintf("%s,%.1f", actorID, distance))
}

func (r *recordingPrimitives) Defend(_ context.Context, actorID string, autoDone bool) error {
	return r.record(tactical.CommandDefend, fmt.Sprintf("%s,%t", actorID, autoDone))
}

func fullPlan() planner.ScoredPlan {
	return planner.ScoredPlan{
		Actions: []tactical.CombatAction{
			{ActorID: "hero", Command: tactical.CommandTarget, Args: tactical.ActionArgs{TargetID: "dummy"}},
			{ActorID: "hero", Command: tactical.CommandAdvance, Args: tactical.ActionArgs{TargetID: "dummy", Distance: 4.5}, Cost: tactical.Cost{AP: 1.5}},
			{ActorID: "hero", Command: tactical.CommandStrike, Args: tactical.ActionArgs{TargetID: "dummy"}, Cost: tactical.Cost{AP: 2}},
			{ActorID: "hero", Command: tactical.CommandRetreat, Args: tactical.ActionArgs{TargetID: "dummy", Distance: 2}, Cost: tactical.Cost{AP: 0.7}},
			{ActorID: "hero", Command: tactical.CommandDefend, Args: tactical.ActionArgs{AutoDone: true}, Cost: tactical.Cost{AP: 1.8}},
		},
		Score: 20,
	}
}

func TestExecuteDispatchesInOrder(t *testing.T) {
	prim := &recordingPrimitives{}
	if err := New(prim, nil).Execute(context.Background(), fullPlan()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []string{
		"target(hero,dummy)",
		"advance(hero,4.5)",
		"strike(hero,dummy)",
		"retreat(hero,2.0)",
		"defend(hero,true)",
	}
	if len(prim.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", prim.calls, want)
	}
	for i := range want {
		if prim.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, prim.calls[i], want[i])
		}
	}
}

func TestExecuteStopsOnFirstFailure(t *testing.T) {
	prim := &recordingPrimitives{failOn: tactical.CommandStrike}
	err := New(prim, nil).Execute(context.Background(), fullPlan())
	if err == nil {
		t.Fatal("want error from rejected strike")
	}
	if !strings.Contains(err.Error(), "step 3/5") || !strings.Contains(err.Error(), "strike") {
		t.Errorf("error lacks step context: %v", err)
	}
	// the strike itself was attempted; nothing after it runs
	if len(prim.calls) != 3 {
		t.Errorf("calls = %v, want execution to stop after the failed strike", prim.calls)
	}
}

func TestExecuteHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prim := &recordingPrimitives{}
	err := New(prim, nil).Execute(ctx, fullPlan())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if len(prim.calls) != 0 {
		t.Errorf("calls = %v, want none after cancellation", prim.calls)
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	plan := planner.ScoredPlan{Actions: []tactical.CombatAction{
		{ActorID: "hero", Command: tactical.Command("teleport")},
	}}
	if err := New(&recordingPrimitives{}, nil).Execute(context.Background(), plan); err == nil {
		t.Fatal("want error for unknown command")
	}
}

func TestExecuteEmptyPlan(t *testing.T) {
	prim := &recordingPrimitives{}
	if err := New(prim, nil).Execute(context.Background(), planner.ScoredPlan{}); err != nil {
		t.Fatalf("empty plan must be a no-op, got %v", err)
	}
}
