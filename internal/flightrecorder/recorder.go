// Package flightrecorder keeps a rolling execution trace in memory and dumps it to disk when a request misses its
// deadline.
package flightrecorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync/atomic"
	"time"
)

const (
	defaultMinAge   = 5 * time.Minute
	defaultMaxBytes = 64 << 20
	defaultCooldown = 30 * time.Minute
)

// ErrCooldown is returned by Capture when the previous capture happened less than the cooldown ago.
var ErrCooldown = errors.New("trace capture cooling down")

// Config configures a Recorder. Zero durations and sizes use defaults.
type Config struct {
	// Directory receives the trace files. It is created when missing.
	Directory string
	MinAge    time.Duration
	MaxBytes  uint64
	// Cooldown is the minimum time between two captures.
	Cooldown time.Duration
}

// Recorder wraps a [trace.FlightRecorder].
type Recorder struct {
	logger   *slog.Logger
	fr       *trace.FlightRecorder
	dir      string
	cooldown time.Duration
	// lastCapture is the unix nano timestamp of the latest capture.
	lastCapture atomic.Int64
}

// New validates cfg and creates a stopped Recorder.
func New(cfg Config, logger *slog.Logger) (*Recorder, error) {
	if cfg.Directory == "" {
		return nil, errors.New("trace directory is required")
	}
	if err := os.MkdirAll(cfg.Directory, 0o750); err != nil { //nolint:mnd // owner and group
		return nil, fmt.Errorf("create trace directory: %w", err)
	}
	if cfg.MinAge == 0 {
		cfg.MinAge = defaultMinAge
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = defaultMaxBytes
	}
	if cfg.Cooldown == 0 {
		cfg.Cooldown = defaultCooldown
	}

	return &Recorder{
		logger:      logger,
		fr:          trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: cfg.MinAge, MaxBytes: cfg.MaxBytes}),
		dir:         cfg.Directory,
		cooldown:    cfg.Cooldown,
		lastCapture: atomic.Int64{},
	}, nil
}

// Start begins recording.
func (r *Recorder) Start(ctx context.Context) error {
	if err := r.fr.Start(); err != nil {
		return fmt.Errorf("start flight recorder: %w", err)
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.String("directory", r.dir), slog.Duration("cooldown", r.cooldown))
	return nil
}

// Stop ends recording.
func (r *Recorder) Stop(ctx context.Context) {
	r.fr.Stop()
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// Capture writes the buffered trace to a file named after reason and returns its path.
//
// At most one capture happens per cooldown. Concurrent callers losing the race get ErrCooldown.
func (r *Recorder) Capture(ctx context.Context, reason string) (string, error) {
	now := time.Now()
	last := r.lastCapture.Load()
	if last != 0 && now.Sub(time.Unix(0, last)) < r.cooldown {
		return "", ErrCooldown
	}
	if !r.lastCapture.CompareAndSwap(last, now.UnixNano()) {
		return "", ErrCooldown
	}

	path := filepath.Join(r.dir, fmt.Sprintf("%s-%s.trace", reason, now.UTC().Format("20060102-150405.000")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create trace file: %w", err)
	}
	n, err := r.fr.WriteTo(f)
	if err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write trace: %w", err)
	}
	if err = f.Close(); err != nil {
		return "", fmt.Errorf("close trace file: %w", err)
	}

	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured trace",
		slog.String("reason", reason), slog.String("file", path), slog.Int64("bytes", n))
	return path, nil
}
