// Package logging provides the slog setup shared by the planning binaries:
// one compact JSON object per line, suitable for daemon logs.
package logging

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// Setup installs a JSONLineHandler writing to w as the default logger and
// returns it.
func Setup(w io.Writer, level slog.Level) *slog.Logger {
	log := slog.New(NewJSONLineHandler(w, level))
	slog.SetDefault(log)
	return log
}

// JSONLineHandler is a slog.Handler emitting one flat JSON object per line.
// Group names become key prefixes ("search.nodes") rather than nested
// objects, which keeps planner telemetry greppable.
type JSONLineHandler struct {
	w     io.Writer
	mu    *sync.Mutex
	level slog.Leveler

	prefix string
	attrs  []slog.Attr
}

// NewJSONLineHandler returns a handler writing records at or above level.
func NewJSONLineHandler(w io.Writer, level slog.Leveler) *JSONLineHandler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &JSONLineHandler{w: w, mu: &sync.Mutex{}, level: level}
}

func (h *JSONLineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *JSONLineHandler) Handle(_ context.Context, r slog.Record) error {
	payload := make(map[string]any, 4+len(h.attrs)+r.NumAttrs())

	when := r.Time
	if when.IsZero() {
		when = time.Now()
	}
	payload["time"] = when.Format(time.RFC3339Nano)
	payload["level"] = r.Level.String()
	payload["msg"] = r.Message

	for _, a := range h.attrs {
		h.put(payload, h.prefix, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.put(payload, h.prefix, a)
		return true
	})

	b, err := json.Marshal(payload)
	if err != nil {
		b = []byte(`{"level":"ERROR","msg":` + strconv.Quote("unloggable record: "+r.Message) + `}`)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(append(b, '\n'))
	return err
}

func (h *JSONLineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *JSONLineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func (h *JSONLineHandler) put(dst map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		sub := prefix
		if a.Key != "" {
			sub = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.put(dst, sub, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	dst[prefix+a.Key] = a.Value.Any()
}
