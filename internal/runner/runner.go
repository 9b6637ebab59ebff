// Package runner contains the collaborators the monitor launches into its slots:
// the pipeline run that downloads and processes a field, and the upload that
// archives a finished one.
package runner

import (
	"context"
	"fmt"
	"strings"
)

// Runner kinds. They label spans and name the captured log files.
const (
	KindPipeline = "pipeline"
	KindUpload   = "upload"
)

// Runner performs one unit of background work for a field.
// Success or failure is reported back through the status database by the
// runner itself; the returned error is only used for logging.
type Runner interface {
	Run(ctx context.Context, fieldID, baseDir string) error
}

// Func adapts a plain function to the Runner interface.
type Func func(ctx context.Context, fieldID, baseDir string) error

func (f Func) Run(ctx context.Context, fieldID, baseDir string) error {
	return f(ctx, fieldID, baseDir)
}

// ExitError is returned when a command finishes with a non-zero exit code.
type ExitError struct {
	Kind    string
	FieldID string
	Code    int
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s for %s exited with code %d: %v", e.Kind, e.FieldID, e.Code, e.Cause)
	}
	return fmt.Sprintf("%s for %s exited with code %d", e.Kind, e.FieldID, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// expandCommand substitutes {id} and {basedir} in every argument.
func expandCommand(template []string, fieldID, baseDir string) []string {
	r := strings.NewReplacer("{id}", fieldID, "{basedir}", baseDir)
	out := make([]string, len(template))
	for i, arg := range template {
		out[i] = r.Replace(arg)
	}
	return out
}
