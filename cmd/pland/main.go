// Command pland serves turn planning over websocket to the world server.
//
// Clients send plan.request envelopes carrying a tactical situation and
// receive a plan.result (or plan.error) envelope back. A per-process plan
// cache memoizes repeated requests, and completed planning calls can be
// recorded as parquet traces for offline heuristic tuning.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/industry-digital/flux-game-sub007/heuristics"
	"github.com/industry-digital/flux-game-sub007/logging"
	"github.com/industry-digital/flux-game-sub007/planner"
	"github.com/industry-digital/flux-game-sub007/store"
	"github.com/industry-digital/flux-game-sub007/tactical"
)

type serverEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type clientEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// searchConfigPayload is the wire shape of the tunable config fields.
// Omitted fields keep their defaults.
type searchConfigPayload struct {
	MaxDepth               *int     `json:"maxDepth,omitempty"`
	MaxNodes               *int     `json:"maxNodes,omitempty"`
	MaxTerminalPlans       *int     `json:"maxTerminalPlans,omitempty"`
	EnableEarlyTermination *bool    `json:"enableEarlyTermination,omitempty"`
	MinScoreThreshold      *float64 `json:"minScoreThreshold,omitempty"`
}

type planRequest struct {
	RequestID string               `json:"requestId"`
	Situation *tactical.Situation  `json:"situation"`
	Profile   string               `json:"profile,omitempty"`
	Config    *searchConfigPayload `json:"config,omitempty"`
}

type planResult struct {
	RequestID string              `json:"requestId"`
	ActorID   string              `json:"actorId"`
	Plan      *planner.ScoredPlan `json:"plan"`
	Stats     planner.Stats       `json:"stats"`
}

type planError struct {
	RequestID string `json:"requestId"`
	Reason    string `json:"reason"`
}

type planService struct {
	planner  *planner.Planner
	profiles map[string]tactical.Profile
	log      *slog.Logger

	traceMu sync.Mutex
	traces  *store.TraceWriter
}

func (svc *planService) profileFor(name string) tactical.Profile {
	if p, ok := svc.profiles[name]; ok {
		return p
	}
	return heuristics.DefaultProfile()
}

func (svc *planService) configFor(payload *searchConfigPayload) planner.Config {
	cfg := planner.DefaultConfig()
	if payload == nil {
		return cfg
	}
	if payload.MaxDepth != nil {
		cfg.MaxDepth = *payload.MaxDepth
	}
	if payload.MaxNodes != nil {
		cfg.MaxNodes = *payload.MaxNodes
	}
	if payload.MaxTerminalPlans != nil {
		cfg.MaxTerminalPlans = *payload.MaxTerminalPlans
	}
	if payload.EnableEarlyTermination != nil {
		cfg.EnableEarlyTermination = *payload.EnableEarlyTermination
	}
	if payload.MinScoreThreshold != nil {
		cfg.MinScoreThreshold = *payload.MinScoreThreshold
	}
	return cfg
}

func (svc *planService) handlePlanRequest(req planRequest) serverEnvelope {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	if req.Situation == nil {
		return serverEnvelope{Type: "plan.error", Payload: planError{RequestID: req.RequestID, Reason: "missing_situation"}}
	}
	if req.Situation.Combatant.ID == "" {
		return serverEnvelope{Type: "plan.error", Payload: planError{RequestID: req.RequestID, Reason: "missing_combatant"}}
	}

	profile := svc.profileFor(req.Profile)
	cfg := svc.configFor(req.Config)

	best, stats := svc.planner.FindOptimalPlanWithStats(req.Situation, &profile, cfg)

	svc.recordTrace(req, profile.Name, best, stats)

	// A nil plan is a valid answer: "no viable plan", caller falls back to
	// its default action.
	return serverEnvelope{
		Type: "plan.result",
		Payload: planResult{
			RequestID: req.RequestID,
			ActorID:   req.Situation.Combatant.ID,
			Plan:      best,
			Stats:     stats,
		},
	}
}

func (svc *planService) recordTrace(req planRequest, profileName string, best *planner.ScoredPlan, stats planner.Stats) {
	if svc.traces == nil || best == nil {
		return
	}
	row := store.NewPlanTrace(req.Situation.SessionID, req.Situation.Combatant.ID, profileName, *best, stats)
	svc.traceMu.Lock()
	defer svc.traceMu.Unlock()
	if err := svc.traces.WriteRows([]store.PlanTrace{row}); err != nil {
		svc.log.Warn("trace write failed", "error", err)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

func buildWSHandler(svc *planService) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		conn, err := upgrader.Upgrade(writer, request, nil)
		if err != nil {
			svc.log.Warn("ws upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		var writeMu sync.Mutex
		send := func(env serverEnvelope) {
			writeMu.Lock()
			defer writeMu.Unlock()
			if err := conn.WriteJSON(env); err != nil {
				svc.log.Warn("client write failed", "error", err)
			}
		}

		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}

			var envelope clientEnvelope
			if err := json.Unmarshal(payload, &envelope); err != nil {
				continue
			}

			switch envelope.Type {
			case "plan.request":
				var req planRequest
				if err := json.Unmarshal(envelope.Payload, &req); err != nil {
					send(serverEnvelope{Type: "plan.error", Payload: planError{Reason: "invalid_payload"}})
					continue
				}
				send(svc.handlePlanRequest(req))
			default:
				send(serverEnvelope{Type: "plan.error", Payload: planError{Reason: fmt.Sprintf("unknown_type:%s", envelope.Type)}})
			}
		}
	}
}

func buildHealthHandler() http.HandlerFunc {
	return func(writer http.ResponseWriter, _ *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(writer).Encode(map[string]string{"status": "ok"})
	}
}

func newPlanService(profilesPath, traceDir string, log *slog.Logger) (*planService, error) {
	profiles := map[string]tactical.Profile{}
	if profilesPath != "" {
		loaded, err := heuristics.LoadProfiles(profilesPath)
		if err != nil {
			return nil, err
		}
		profiles = loaded
	}
	for _, p := range []tactical.Profile{heuristics.DefaultProfile(), heuristics.BerserkerProfile(), heuristics.SkirmisherProfile()} {
		if _, ok := profiles[p.Name]; !ok {
			profiles[p.Name] = p
		}
	}

	svc := &planService{
		planner: planner.New(
			tactical.DefaultPhysics(),
			tactical.NearestHostileAssessor{},
			heuristics.NewScorer(log),
			planner.NewPlanCache(),
			log,
		),
		profiles: profiles,
		log:      log,
	}

	if traceDir != "" {
		traces, err := store.NewTraceWriter(traceDir)
		if err != nil {
			return nil, err
		}
		svc.traces = traces
	}
	return svc, nil
}

func main() {
	addr := flag.String("addr", ":8790", "listen address")
	profilesPath := flag.String("profiles", "", "heuristic profiles YAML (optional)")
	traceDir := flag.String("trace-dir", "", "directory for parquet plan traces (optional)")
	flag.Parse()

	log := logging.Setup(os.Stdout, slog.LevelInfo)

	svc, err := newPlanService(*profilesPath, *traceDir, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", buildWSHandler(svc))
	mux.HandleFunc("/healthz", buildHealthHandler())

	server := &http.Server{Addr: *addr, Handler: mux}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		if svc.traces != nil {
			svc.traceMu.Lock()
			path, rows, err := svc.traces.Finalize()
			svc.traceMu.Unlock()
			if err != nil {
				log.Warn("trace finalize failed", "error", err)
			} else if rows > 0 {
				log.Info("traces flushed", "path", path, "rows", rows)
			}
		}
		_ = server.Close()
	}()

	log.Info("pland listening", "addr", *addr, "profiles", len(svc.profiles))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("listen failed", "error", err)
		os.Exit(1)
	}
}
