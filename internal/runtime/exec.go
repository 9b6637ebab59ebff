package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// ExecRuntime implements the Runtime interface using raw OS processes.
// This is the default on HPC nodes where the pipeline is installed locally.
type ExecRuntime struct {
	WorkDir string
}

// ExecHandle represents a running OS process.
type ExecHandle struct {
	cmd  *exec.Cmd
	logs *os.File
	done chan struct{}

	mu      sync.Mutex
	waitErr error
}

// NewExecRuntime creates a new process-based runtime.
// workDir is used when StartOptions.WorkDir is empty.
func NewExecRuntime(workDir string) *ExecRuntime {
	if workDir == "" {
		workDir = "."
	}
	return &ExecRuntime{WorkDir: workDir}
}

// Start implements Runtime.Start using os/exec.
// The process is not bound to ctx: once started it runs until it exits.
func (e *ExecRuntime) Start(ctx context.Context, opts StartOptions) (Handle, error) {
	if len(opts.Command) == 0 {
		return nil, errors.New("command is required")
	}

	dir := opts.WorkDir
	if dir == "" {
		dir = e.WorkDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create work dir %s: %w", dir, err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create log pipe: %w", err)
	}

	cmd := exec.Command(opts.Command[0], opts.Command[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), mapToEnvList(opts.Env)...)
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Start(); err != nil {
		r.Close()
		w.Close()
		return nil, fmt.Errorf("failed to start %s: %w", opts.Command[0], err)
	}
	// The child holds its own copy of the write end.
	w.Close()

	h := &ExecHandle{
		cmd:  cmd,
		logs: r,
		done: make(chan struct{}),
	}
	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		h.waitErr = err
		h.mu.Unlock()
		close(h.done)
	}()

	return h, nil
}

func (h *ExecHandle) Wait(ctx context.Context) (ExitResult, error) {
	select {
	case <-h.done:
	case <-ctx.Done():
		return ExitResult{ExitCode: -1, Error: ctx.Err()}, ctx.Err()
	}

	h.mu.Lock()
	err := h.waitErr
	h.mu.Unlock()

	if err == nil {
		return ExitResult{ExitCode: 0}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return ExitResult{ExitCode: exitErr.ExitCode(), Error: err}, nil
	}
	return ExitResult{ExitCode: -1, Error: err}, err
}

func (h *ExecHandle) StreamLogs(ctx context.Context) (io.ReadCloser, error) {
	return h.logs, nil
}
