// Package store records search traces as parquet batches for offline
// heuristic tuning. Write-only telemetry: the planner never reads traces
// back, so plans are never served from disk.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/industry-digital/flux-game-sub007/planner"
)

// PlanTrace is one planning call's outcome.
//
// Plan is the JSON-encoded action sequence; trainers featurize it however
// they like.
type PlanTrace struct {
	TraceID       string  `parquet:"trace_id,dict"`
	SessionID     string  `parquet:"session_id,dict"`
	ActorID       string  `parquet:"actor_id,dict"`
	Profile       string  `parquet:"profile,dict"`
	Score         float64 `parquet:"score"`
	ActionCount   int32   `parquet:"action_count"`
	NodesExpanded int32   `parquet:"nodes_expanded"`
	PlansScored   int32   `parquet:"plans_scored"`
	SearchDepth   int32   `parquet:"search_depth"`
	CacheHit      bool    `parquet:"cache_hit"`
	Plan          []byte  `parquet:"plan"`
	UnixMs        int64   `parquet:"unix_ms"`
}

// NewPlanTrace builds a trace row for one planning call.
func NewPlanTrace(sessionID, actorID, profile string, plan planner.ScoredPlan, stats planner.Stats) PlanTrace {
	encoded, err := json.Marshal(plan.Actions)
	if err != nil {
		encoded = nil
	}
	return PlanTrace{
		TraceID:       uuid.NewString(),
		SessionID:     sessionID,
		ActorID:       actorID,
		Profile:       profile,
		Score:         plan.Score,
		ActionCount:   int32(len(plan.Actions)),
		NodesExpanded: int32(stats.NodesExpanded),
		PlansScored:   int32(stats.PlansScored),
		SearchDepth:   int32(stats.MaxDepth),
		CacheHit:      stats.CacheHit,
		Plan:          encoded,
		UnixMs:        time.Now().UnixMilli(),
	}
}

// TraceWriter buffers trace rows into a parquet file under outDir/tmp and
// publishes it atomically on Finalize.
type TraceWriter struct {
	outDir  string
	tmpPath string
	outPath string

	file   *os.File
	writer *parquet.GenericWriter[PlanTrace]

	buffered int
}

// NewTraceWriter opens a fresh batch file under outDir.
func NewTraceWriter(outDir string) (*TraceWriter, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		absOut = outDir
	}
	tmpDir := filepath.Join(absOut, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("traces_%d.parquet", time.Now().UnixNano())
	tmpPath := filepath.Join(tmpDir, name)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tmp parquet: %w", err)
	}

	w := parquet.NewGenericWriter[PlanTrace](
		f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
	)
	w.SetKeyValueMetadata("schema", "plan_trace_v1")

	return &TraceWriter{
		outDir:  absOut,
		tmpPath: tmpPath,
		outPath: filepath.Join(absOut, name),
		file:    f,
		writer:  w,
	}, nil
}

// Buffered returns the number of rows written so far.
func (t *TraceWriter) Buffered() int { return t.buffered }

// WriteRows appends trace rows to the batch.
func (t *TraceWriter) WriteRows(rows []PlanTrace) error {
	if t.writer == nil || t.file == nil {
		return fmt.Errorf("trace writer is closed")
	}
	if len(rows) == 0 {
		return nil
	}
	if _, err := t.writer.Write(rows); err != nil {
		return err
	}
	t.buffered += len(rows)
	return nil
}

// Finalize closes the writer and moves the batch from tmp/ into outDir.
// An empty batch is removed and outPath is returned empty.
func (t *TraceWriter) Finalize() (outPath string, rows int, err error) {
	if t.writer == nil && t.file == nil {
		return "", 0, nil
	}

	rows = t.buffered
	outPath = t.outPath

	var closeErr error
	if t.writer != nil {
		closeErr = t.writer.Close()
		t.writer = nil
	}
	var fileErr error
	if t.file != nil {
		_ = t.file.Sync()
		fileErr = t.file.Close()
		t.file = nil
	}
	if closeErr != nil {
		return "", 0, fmt.Errorf("close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		return "", 0, fmt.Errorf("close parquet file: %w", fileErr)
	}

	if rows == 0 {
		_ = os.Remove(t.tmpPath)
		return "", 0, nil
	}
	if err := os.Rename(t.tmpPath, t.outPath); err != nil {
		return "", 0, fmt.Errorf("rename parquet: %w", err)
	}
	return outPath, rows, nil
}
