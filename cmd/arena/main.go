// Command arena stress-exercises the planner: a pool of workers plans turns
// for randomized tactical situations, recording parquet traces for heuristic
// tuning, with a live terminal dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/industry-digital/flux-game-sub007/heuristics"
	"github.com/industry-digital/flux-game-sub007/logging"
	"github.com/industry-digital/flux-game-sub007/planner"
	"github.com/industry-digital/flux-game-sub007/store"
	"github.com/industry-digital/flux-game-sub007/tactical"
)

var (
	totalPlans     atomic.Int64
	totalNodes     atomic.Int64
	totalCacheHits atomic.Int64
	totalNoPlan    atomic.Int64
)

// PlanUpdate is one worker's completed planning call, for the dashboard.
type PlanUpdate struct {
	WorkerID int
	ActorID  string
	Score    float64
	Actions  int
	CacheHit bool
}

type model struct {
	plansDone   int
	noPlan      int
	nodes       int64
	cacheHits   int64
	startTime   time.Time
	recentPlans []string
	updates     chan PlanUpdate
}

func initialModel(updates chan PlanUpdate) model {
	return model{startTime: time.Now(), updates: updates}
}

type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func waitForUpdate(updates chan PlanUpdate) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case TickMsg:
		m.nodes = totalNodes.Load()
		m.cacheHits = totalCacheHits.Load()
		m.noPlan = int(totalNoPlan.Load())
		return m, tickCmd()
	case PlanUpdate:
		m.plansDone++
		logMsg := fmt.Sprintf("Worker %d: %s score %.1f, %d actions", msg.WorkerID, msg.ActorID, msg.Score, msg.Actions)
		if msg.CacheHit {
			logMsg += " (cached)"
		}
		m.recentPlans = append([]string{logMsg}, m.recentPlans...)
		if len(m.recentPlans) > 10 {
			m.recentPlans = m.recentPlans[:10]
		}
		return m, waitForUpdate(m.updates)
	}
	return m, nil
}

func (m model) View() string {
	duration := time.Since(m.startTime)
	plansPerSec := float64(m.plansDone) / duration.Seconds()
	nodesPerSec := float64(m.nodes) / duration.Seconds()
	if duration.Seconds() < 1 {
		plansPerSec = 0
		nodesPerSec = 0
	}

	s := fmt.Sprintf("Plans Found:    %d\n", m.plansDone)
	s += fmt.Sprintf("No-Plan Calls:  %d\n", m.noPlan)
	s += fmt.Sprintf("Nodes Expanded: %d\n", m.nodes)
	s += fmt.Sprintf("Cache Hits:     %d\n", m.cacheHits)
	s += fmt.Sprintf("Duration:       %s\n", duration.Round(time.Second))
	s += fmt.Sprintf("Plans/sec:      %.1f\n", plansPerSec)
	s += fmt.Sprintf("Nodes/sec:      %.0f\n", nodesPerSec)
	s += "\nRecent plans:\n"
	for _, g := range m.recentPlans {
		s += "  " + g + "\n"
	}
	s += "\nPress q to quit.\n"
	return s
}

// randomSituation builds a plausible one-on-one matchup on the battle line.
func randomSituation(rng *rand.Rand, iteration int) *tactical.Situation {
	coord := rng.Float64() * tactical.MaxCoordinate
	targetCoord := clampCoord(coord + (rng.Float64()*40 - 20))
	dist := abs(targetCoord - coord)

	ranged := rng.Intn(2) == 0
	weapon := tactical.WeaponAssessment{
		Name:         "training-blade",
		MassKg:       1 + rng.Float64()*3,
		OptimalRange: 1,
		MaxRange:     2,
	}
	if ranged {
		weapon = tactical.WeaponAssessment{
			Name:         "training-bow",
			MassKg:       0.5 + rng.Float64(),
			OptimalRange: 10,
			MaxRange:     25,
			HasFalloff:   true,
		}
	}
	weapon.CanHit = true

	actorID := fmt.Sprintf("actor-%d", iteration)
	targetID := fmt.Sprintf("dummy-%d", iteration)

	return &tactical.Situation{
		Combatant: tactical.Combatant{
			ID:       actorID,
			Faction:  "red",
			PlaceID:  "arena",
			AP:       tactical.Resource{Cur: 2 + rng.Float64()*6, Max: 8},
			Energy:   tactical.Resource{Cur: 10, Max: 10},
			Position: tactical.Position{Coordinate: coord, Facing: tactical.FacingUp},
			Power:    5 + rng.Float64()*10,
			Finesse:  rng.Float64() * 100,
			MassKg:   60 + rng.Float64()*40,
		},
		Weapon: weapon,
		ValidTargets: []tactical.TargetInfo{
			{ID: targetID, Coordinate: targetCoord, Distance: dist},
		},
		Assessment: tactical.BattlefieldAssessment{
			PrimaryTargetID:    targetID,
			PrimaryCoordinate:  targetCoord,
			Distance:           dist,
			CanAttack:          dist <= weapon.MaxRange,
			NeedsRepositioning: dist > weapon.OptimalRange,
		},
		SessionID: "arena",
	}
}

func clampCoord(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > tactical.MaxCoordinate {
		return tactical.MaxCoordinate
	}
	return c
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

type traceRequest struct {
	rows []store.PlanTrace
}

func runWorker(ctx context.Context, workerID int, p *planner.Planner, profile tactical.Profile, cfg planner.Config, updates chan<- PlanUpdate, traceCh chan<- traceRequest) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)*1000003))
	iteration := 0

	for {
		if ctx.Err() != nil {
			return
		}
		iteration++

		s := randomSituation(rng, workerID*1_000_000+iteration)
		best, stats := p.FindOptimalPlanWithStats(s, &profile, cfg)

		totalNodes.Add(int64(stats.NodesExpanded))
		if stats.CacheHit {
			totalCacheHits.Add(1)
		}
		if best == nil {
			totalNoPlan.Add(1)
			continue
		}
		totalPlans.Add(1)

		if traceCh != nil {
			row := store.NewPlanTrace(s.SessionID, s.Combatant.ID, profile.Name, *best, stats)
			select {
			case traceCh <- traceRequest{rows: []store.PlanTrace{row}}:
			case <-ctx.Done():
				return
			}
		}

		select {
		case updates <- PlanUpdate{
			WorkerID: workerID,
			ActorID:  s.Combatant.ID,
			Score:    best.Score,
			Actions:  len(best.Actions),
			CacheHit: stats.CacheHit,
		}:
		case <-ctx.Done():
			return
		}
	}
}

func main() {
	workers := flag.Int("workers", 4, "concurrent planning workers")
	outDir := flag.String("out", "", "directory for parquet plan traces (optional)")
	profileName := flag.String("profile", "balanced", "heuristic profile: balanced, berserker, skirmisher")
	headless := flag.Bool("headless", false, "log stats periodically instead of the TUI")
	flag.Parse()

	log := logging.Setup(os.Stderr, slog.LevelWarn)

	var profile tactical.Profile
	switch *profileName {
	case "berserker":
		profile = heuristics.BerserkerProfile()
	case "skirmisher":
		profile = heuristics.SkirmisherProfile()
	default:
		profile = heuristics.DefaultProfile()
	}
	cfg := planner.DefaultConfig()

	p := planner.New(
		tactical.DefaultPhysics(),
		tactical.NearestHostileAssessor{},
		heuristics.NewScorer(log),
		planner.NewPlanCache(),
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()

	var traceCh chan traceRequest
	var traceWG sync.WaitGroup
	var traces *store.TraceWriter
	if *outDir != "" {
		var err error
		traces, err = store.NewTraceWriter(*outDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "trace writer: %v\n", err)
			os.Exit(1)
		}
		traceCh = make(chan traceRequest, 64)
		traceWG.Add(1)
		go func() {
			defer traceWG.Done()
			for req := range traceCh {
				if err := traces.WriteRows(req.rows); err != nil {
					log.Warn("trace write failed", "error", err)
				}
			}
		}()
	}

	updates := make(chan PlanUpdate, 64)
	var workerWG sync.WaitGroup
	for i := 0; i < *workers; i++ {
		workerWG.Add(1)
		go func(id int) {
			defer workerWG.Done()
			runWorker(ctx, id, p, profile, cfg, updates, traceCh)
		}(i)
	}

	if *headless {
		// No TUI consuming updates; drain so workers never stall.
		go func() {
			for range updates {
			}
		}()
		runHeadless(ctx)
	} else {
		prog := tea.NewProgram(initialModel(updates))
		if _, err := prog.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "tui: %v\n", err)
		}
		cancel()
	}

	workerWG.Wait()
	if traceCh != nil {
		close(traceCh)
		traceWG.Wait()
		path, rows, err := traces.Finalize()
		if err != nil {
			fmt.Fprintf(os.Stderr, "trace finalize: %v\n", err)
		} else if rows > 0 {
			fmt.Printf("wrote %d traces to %s\n", rows, path)
		}
	}
}

func runHeadless(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed := time.Since(start).Seconds()
			fmt.Printf("plans=%d noplan=%d nodes=%d cacheHits=%d plans/sec=%.1f\n",
				totalPlans.Load(), totalNoPlan.Load(), totalNodes.Load(), totalCacheHits.Load(),
				float64(totalPlans.Load())/elapsed)
		}
	}
}
