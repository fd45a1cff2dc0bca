package tools

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"goslim/application/ports"
)

// defaultToolTimeout bounds tools whose spec carries no timeout
const defaultToolTimeout = 5 * time.Minute

// Runner implements ports.ToolRunner by spawning the tool as a subprocess
// in the given scratch directory and capturing combined output.
type Runner struct {
	logger *zap.Logger
}

// NewRunner creates a subprocess tool runner
func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run executes the tool with its configured arguments followed by extraArgs.
// The tool's configured timeout bounds the run even when the caller's context has no
// deadline; a timed-out process is killed and its partial output returned.
func (r *Runner) Run(ctx context.Context, spec ports.ToolSpec, workdir string, extraArgs []string) ([]byte, error) {
	timeout := defaultToolTimeout
	if spec.TimeoutSeconds > 0 {
		timeout = time.Duration(spec.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append(append([]string{}, spec.Args...), extraArgs...)
	cmd := exec.CommandContext(ctx, spec.Command, args...)
	cmd.Dir = workdir

	start := time.Now()
	output, err := cmd.CombinedOutput()
	elapsed := time.Since(start)

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		r.logger.Warn("tool timed out",
			zap.String("tool", spec.Name),
			zap.Duration("elapsed", elapsed),
		)
		return output, fmt.Errorf("tool %s timed out", spec.Name)
	}
	if err != nil {
		r.logger.Warn("tool run failed",
			zap.String("tool", spec.Name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		if snippet := firstLine(output); snippet != "" {
			return output, fmt.Errorf("tool %s: %w: %s", spec.Name, err, snippet)
		}
		return output, fmt.Errorf("tool %s: %w", spec.Name, err)
	}

	r.logger.Debug("tool run completed",
		zap.String("tool", spec.Name),
		zap.Duration("elapsed", elapsed),
		zap.Int("outputBytes", len(output)),
	)
	return output, nil
}

// firstLine trims tool output to something fit for an error message
func firstLine(output []byte) string {
	line := strings.TrimSpace(string(output))
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	if len(line) > 200 {
		line = line[:200]
	}
	return line
}
