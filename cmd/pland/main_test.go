package main

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/industry-digital/flux-game-sub007/tactical"
)

func testService(t *testing.T) *planService {
	t.Helper()
	svc, err := newPlanService("", "", slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("newPlanService: %v", err)
	}
	return svc
}

func duelSituation(ap, coord, targetCoord float64) *tactical.Situation {
	dist := math.Abs(targetCoord - coord)
	return &tactical.Situation{
		Combatant: tactical.Combatant{
			ID: "hero", Faction: "red", PlaceID: "bridge", TargetID: "dummy",
			AP:       tactical.Resource{Cur: 6, Max: 8},
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
		SessionID: "sess-1",
	}
}

func TestHandlePlanRequestReturnsTerminatedPlan(t *testing.T) {
	svc := testService(t)

	env := svc.handlePlanRequest(planRequest{
		RequestID: "req-1",
		Situation: duelSituation(6, 100, 101),
	})
	if env.Type != "plan.result" {
		t.Fatalf("type = %s, want plan.result", env.Type)
	}
	res := env.Payload.(planResult)
	if res.RequestID != "req-1" || res.ActorID != "hero" {
		t.Errorf("result identity = %+v", res)
	}
	if res.Plan == nil || len(res.Plan.Actions) == 0 {
		t.Fatal("expected a plan")
	}
	last := res.Plan.Actions[len(res.Plan.Actions)-1]
	if last.Command != tactical.CommandDefend {
		t.Errorf("plan must end with defend, got %v", last.Command)
	}
	if res.Stats.NodesExpanded == 0 {
		t.Error("stats missing for a fresh search")
	}
}

func TestHandlePlanRequestValidation(t *testing.T) {
	svc := testService(t)

	env := svc.handlePlanRequest(planRequest{RequestID: "req-2"})
	if env.Type != "plan.error" {
		t.Fatalf("type = %s, want plan.error", env.Type)
	}
	if env.Payload.(planError).Reason != "missing_situation" {
		t.Errorf("reason = %s", env.Payload.(planError).Reason)
	}

	s := duelSituation(6, 100, 101)
	s.Combatant.ID = ""
	env = svc.handlePlanRequest(planRequest{RequestID: "req-3", Situation: s})
	if env.Type != "plan.error" || env.Payload.(planError).Reason != "missing_combatant" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestHandlePlanRequestAssignsRequestID(t *testing.T) {
	svc := testService(t)
	env := svc.handlePlanRequest(planRequest{Situation: duelSituation(6, 100, 101)})
	if env.Payload.(planResult).RequestID == "" {
		t.Error("request id must be assigned when omitted")
	}
}

func TestConfigForOverrides(t *testing.T) {
	svc := testService(t)

	if got := svc.configFor(nil); got.MaxDepth != 4 || got.MaxNodes != 600 {
		t.Errorf("nil payload must yield defaults, got %+v", got)
	}

	depth := 2
	threshold := 5.0
	got := svc.configFor(&searchConfigPayload{MaxDepth: &depth, MinScoreThreshold: &threshold})
	if got.MaxDepth != 2 || got.MinScoreThreshold != 5.0 {
		t.Errorf("overrides not applied: %+v", got)
	}
	if got.MaxNodes != 600 || !got.EnableEarlyTermination {
		t.Errorf("omitted fields must keep defaults: %+v", got)
	}
}

func TestProfileForFallsBackToDefault(t *testing.T) {
	svc := testService(t)
	if p := svc.profileFor("berserker"); p.Name != "berserker" {
		t.Errorf("profile = %s, want builtin berserker", p.Name)
	}
	if p := svc.profileFor("no-such-profile"); p.Name != "balanced" {
		t.Errorf("profile = %s, want balanced fallback", p.Name)
	}
}

func TestWebsocketPlanRoundTrip(t *testing.T) {
	svc := testService(t)
	server := httptest.NewServer(buildWSHandler(svc))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	req := planRequest{RequestID: "ws-1", Situation: duelSituation(6, 100, 101)}
	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.WriteJSON(clientEnvelope{Type: "plan.request", Payload: payload}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var env struct {
		Type    string     `json:"type"`
		Payload planResult `json:"payload"`
	}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	if env.Type != "plan.result" {
		t.Fatalf("type = %s", env.Type)
	}
	if env.Payload.RequestID != "ws-1" || env.Payload.Plan == nil {
		t.Errorf("payload = %+v", env.Payload)
	}
}

func TestWebsocketUnknownType(t *testing.T) {
	svc := testService(t)
	server := httptest.NewServer(buildWSHandler(svc))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(clientEnvelope{Type: "bogus"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var env struct {
		Type    string    `json:"type"`
		Payload planError `json:"payload"`
	}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read: %v", err)
	}
	if env.Type != "plan.error" || !strings.HasPrefix(env.Payload.Reason, "unknown_type:") {
		t.Errorf("envelope = %+v", env)
	}
}
