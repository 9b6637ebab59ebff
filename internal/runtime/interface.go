// Package runtime provides the execution backends used to run pipeline and upload commands.
package runtime

import (
	"context"
	"fmt"
	"io"
)

// Runtime defines the interface for executing a command somewhere.
// Implementations include raw processes, Docker and Kubernetes.
type Runtime interface {
	// Start begins execution and returns a handle.
	Start(ctx context.Context, opts StartOptions) (Handle, error)
}

// StartOptions contains the parameters for starting a command.
type StartOptions struct {
	// Name is a human readable label, e.g. "pipeline-P001+01".
	Name    string
	Image   string // ignored by the exec runtime
	Command []string
	Env     map[string]string
	// WorkDir is the directory the command runs in. Container runtimes
	// mount it at the same path.
	WorkDir string
}

// ExitResult is the outcome of a finished command.
type ExitResult struct {
	ExitCode int
	Error    error
}

// Handle represents a running command.
type Handle interface {
	// Wait blocks until the command completes. Cancelling ctx abandons the
	// wait only; the command keeps running.
	// A non-zero exit code is reported in ExitResult, not as an error.
	Wait(ctx context.Context) (ExitResult, error)

	// StreamLogs returns a reader for the command's combined output.
	// Callers must drain and close it.
	StreamLogs(ctx context.Context) (io.ReadCloser, error)
}

func mapToEnvList(m map[string]string) []string {
	var env []string
	for k, v := range m {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
