// Package logging builds the slog loggers used across sctnet and the JSONL
// epoch trace written by the trainer.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LevelTrace is a custom slog level below Debug. At this level the trainer
// also logs per-neuron weights every epoch.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel accepts info, debug and trace in any case. Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

const traceFile = "training.jsonl"

// EpochRecord is one line of the training trace.
type EpochRecord struct {
	Time    time.Time `json:"time"`
	Freq0   float64   `json:"freq0"`
	Round   int       `json:"round"`
	Epoch   int       `json:"epoch"`
	MSE     float64   `json:"mse"`
	MSEs    []float64 `json:"mses"`
	BestMSE float64   `json:"best_mse"`
	Thetas  []float64 `json:"thetas"`
	Weights []float64 `json:"weights"`
}

// TraceLogger appends EpochRecords to <dir>/training.jsonl. A nil
// TraceLogger discards everything.
type TraceLogger struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
	now func() time.Time
}

// NewTraceLogger returns nil, nil when dir is empty or level is info; traces
// are only kept at debug and trace.
func NewTraceLogger(dir, level string) (*TraceLogger, error) {
	if dir == "" || ParseLevel(level) >= slog.LevelInfo {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create trace dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, traceFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	return &TraceLogger{f: f, enc: json.NewEncoder(f), now: time.Now}, nil
}

// Log stamps rec with the current time unless it already has one. Encoding
// errors are dropped; the trace never fails a training run.
func (tl *TraceLogger) Log(rec EpochRecord) {
	if tl == nil {
		return
	}
	tl.mu.Lock()
	defer tl.mu.Unlock()
	if tl.f == nil {
		return
	}
	if rec.Time.IsZero() {
		rec.Time = tl.now().UTC()
	}
	_ = tl.enc.Encode(rec)
}

func (tl *TraceLogger) Close() error {
	if tl == nil {
		return nil
	}
	tl.mu.Lock()
	defer tl.mu.Unlock()
	if tl.f == nil {
		return nil
	}
	err := tl.f.Close()
	tl.f = nil
	return err
}
