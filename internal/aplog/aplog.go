// Package aplog is the single structured-logging helper of this module,
// used by the driver and the CLI, the way core/util.go is the teacher's one
// logging choke point. It wraps log/slog rather than inventing a
// third-party logging dependency the corpus never reaches for.
package aplog

import (
	"context"
	"log/slog"
	"time"
)

// LevelDriver sits between Info and Warn: the per-iteration driver status
// line (§4.8) is routine, but noisier than ordinary Info traffic, so it
// gets its own level the same way the teacher carves out LevelTrace and
// LevelWaveform above slog.LevelInfo.
const LevelDriver slog.Level = slog.LevelInfo + 1

// Iteration emits one global-placer driver status line: iteration index,
// lower/upper-bound HPWL and the three stage timings, tagged with runID so
// concurrent driver invocations can be told apart in a shared log stream.
func Iteration(runID string, iter int, lb, ub float64, solverTime, legalizeTime, totalTime time.Duration) {
	slog.Log(context.Background(), LevelDriver, "ap iteration",
		slog.String("run", runID),
		slog.Int("iter", iter),
		slog.Float64("lb_hpwl", lb),
		slog.Float64("ub_hpwl", ub),
		slog.Duration("solver_time", solverTime),
		slog.Duration("legalizer_time", legalizeTime),
		slog.Duration("total_time", totalTime),
	)
}

// Warn logs a recoverable condition (§7's one Warning row: the legaliser
// loop cap reached with bins still overfilled).
func Warn(runID, msg string, args ...any) {
	slog.Warn(msg, append([]any{slog.String("run", runID)}, args...)...)
}

// Fatal logs a fatal APError just before the embedder translates it into a
// process exit code; it never exits the process itself.
func Fatal(runID string, err error) {
	slog.Error("ap fatal", slog.String("run", runID), slog.Any("error", err))
}
