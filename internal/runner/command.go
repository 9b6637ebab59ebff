package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ddfmonitor/internal/runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CommandRunner runs a command template on a runtime and waits for it.
// Output is captured to <baseDir>/logs/<kind>-<field>.log.
type CommandRunner struct {
	kind    string
	rt      runtime.Runtime
	image   string
	command []string
	logger  *slog.Logger
}

// NewCommandRunner creates a runner. kind labels logs and spans ("pipeline", "upload").
// image is only used by container runtimes.
func NewCommandRunner(kind string, rt runtime.Runtime, image string, command []string, logger *slog.Logger) *CommandRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandRunner{
		kind:    kind,
		rt:      rt,
		image:   image,
		command: command,
		logger:  logger.With("runner", kind),
	}
}

// Run starts the command and blocks until it exits.
func (r *CommandRunner) Run(ctx context.Context, fieldID, baseDir string) error {
	ctx, span := otel.Tracer("ddfmonitor-runner").Start(ctx, "run_"+r.kind,
		trace.WithAttributes(
			attribute.String("field.id", fieldID),
			attribute.String("runner.kind", r.kind),
		),
	)
	defer span.End()

	opts := runtime.StartOptions{
		Name:    r.kind + "-" + fieldID,
		Image:   r.image,
		Command: expandCommand(r.command, fieldID, baseDir),
		Env: map[string]string{
			"DDF_FIELD_ID": fieldID,
			"DDF_BASEDIR":  baseDir,
		},
		WorkDir: baseDir,
	}

	r.logger.Info("starting command", "field_id", fieldID, "command", strings.Join(opts.Command, " "))

	handle, err := r.rt.Start(ctx, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "start failed")
		return fmt.Errorf("failed to start %s for %s: %w", r.kind, fieldID, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.captureLogs(ctx, fieldID, baseDir, handle)
	}()

	result, err := handle.Wait(ctx)
	wg.Wait()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "wait failed")
		return fmt.Errorf("%s for %s: %w", r.kind, fieldID, err)
	}

	span.SetAttributes(attribute.Int("exit_code", result.ExitCode))
	if result.ExitCode != 0 {
		exitErr := &ExitError{Kind: r.kind, FieldID: fieldID, Code: result.ExitCode, Cause: result.Error}
		span.RecordError(exitErr)
		span.SetStatus(codes.Error, "non-zero exit")
		return exitErr
	}

	r.logger.Info("command finished", "field_id", fieldID)
	return nil
}

// LogPath returns where the output of a run is captured.
func LogPath(baseDir, kind, fieldID string) string {
	return filepath.Join(baseDir, "logs", fmt.Sprintf("%s-%s.log", kind, fieldID))
}

func (r *CommandRunner) captureLogs(ctx context.Context, fieldID, baseDir string, handle runtime.Handle) {
	rc, err := handle.StreamLogs(ctx)
	if err != nil {
		r.logger.Warn("failed to get log stream", "field_id", fieldID, "error", err)
		return
	}
	defer rc.Close()

	path := LogPath(baseDir, r.kind, fieldID)
	var dst io.Writer = io.Discard
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		r.logger.Warn("failed to create log dir", "path", path, "error", err)
	} else if f, err := os.Create(path); err != nil {
		r.logger.Warn("failed to create log file", "path", path, "error", err)
	} else {
		defer f.Close()
		dst = f
	}

	// Keep reading even without a destination so the command never blocks on output.
	if _, err := io.Copy(dst, rc); err != nil {
		r.logger.Warn("log capture interrupted", "field_id", fieldID, "error", err)
	}
}
