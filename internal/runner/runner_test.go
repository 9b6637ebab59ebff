package runner

import (
	"context"
	"errors"
	"io"
	"os"
	"reflect"
	"strings"
	"sync"
	"testing"

	"ddfmonitor/internal/runtime"
)

// mockRuntime implements runtime.Runtime for testing.
type mockRuntime struct {
	mu       sync.Mutex
	started  []runtime.StartOptions
	startErr error
	handle   *mockHandle
}

func (m *mockRuntime) Start(ctx context.Context, opts runtime.StartOptions) (runtime.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, opts)
	if m.startErr != nil {
		return nil, m.startErr
	}
	return m.handle, nil
}

// mockHandle implements runtime.Handle for testing.
type mockHandle struct {
	result  runtime.ExitResult
	waitErr error
	output  string
}

func (h *mockHandle) Wait(ctx context.Context) (runtime.ExitResult, error) {
	return h.result, h.waitErr
}


func (h *mockHandle) StreamLogs(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(h.output)), nil
}

func TestExpandCommand(t *testing.T) {
	got := expandCommand([]string{"run_pipeline", "{id}", "--dir={basedir}/{id}"}, "P001+01", "/data")
	want := []string{"run_pipeline", "P001+01", "--dir=/data/P001+01"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expandCommand() = %v, want %v", got, want)
	}
}

func TestCommandRunner_Success(t *testing.T) {
	base := t.TempDir()
	rt := &mockRuntime{handle: &mockHandle{output: "imaging done\n"}}
	r := NewCommandRunner("pipeline", rt, "lofar/ddf", []string{"run_pipeline", "{id}", "{basedir}"}, nil)

	if err := r.Run(context.Background(), "P001+01", base); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(rt.started) != 1 {
		t.Fatalf("expected 1 start, got %d", len(rt.started))
	}
	opts := rt.started[0]
	if !reflect.DeepEqual(opts.Command, []string{"run_pipeline", "P001+01", base}) {
		t.Errorf("unexpected command %v", opts.Command)
	}
	if opts.WorkDir != base {
		t.Errorf("expected work dir %s, got %s", base, opts.WorkDir)
	}
	if opts.Image != "lofar/ddf" {
		t.Errorf("expected image lofar/ddf, got %s", opts.Image)
	}
	if opts.Env["DDF_FIELD_ID"] != "P001+01" || opts.Env["DDF_BASEDIR"] != base {
		t.Errorf("unexpected env %v", opts.Env)
	}
	if opts.Name != "pipeline-P001+01" {
		t.Errorf("unexpected name %s", opts.Name)
	}

	logs, err := os.ReadFile(LogPath(base, "pipeline", "P001+01"))
	if err != nil {
		t.Fatalf("expected captured log file: %v", err)
	}
	if string(logs) != "imaging done\n" {
		t.Errorf("unexpected log contents %q", logs)
	}
}

func TestCommandRunner_NonZeroExit(t *testing.T) {
	rt := &mockRuntime{handle: &mockHandle{result: runtime.ExitResult{ExitCode: 2}}}
	r := NewCommandRunner("upload", rt, "", []string{"upload", "{id}"}, nil)

	err := r.Run(context.Background(), "P002+02", t.TempDir())

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 2 || exitErr.FieldID != "P002+02" || exitErr.Kind != "upload" {
		t.Errorf("unexpected exit error %+v", exitErr)
	}
}

func TestCommandRunner_StartError(t *testing.T) {
	startErr := errors.New("no such binary")
	rt := &mockRuntime{startErr: startErr}
	r := NewCommandRunner("pipeline", rt, "", []string{"run_pipeline"}, nil)

	err := r.Run(context.Background(), "P003+03", t.TempDir())
	if !errors.Is(err, startErr) {
		t.Errorf("expected wrapped start error, got %v", err)
	}
}

func TestCommandRunner_WaitError(t *testing.T) {
	waitErr := errors.New("watch failed")
	rt := &mockRuntime{handle: &mockHandle{waitErr: waitErr}}
	r := NewCommandRunner("pipeline", rt, "", []string{"run_pipeline"}, nil)

	err := r.Run(context.Background(), "P004+04", t.TempDir())
	if !errors.Is(err, waitErr) {
		t.Errorf("expected wrapped wait error, got %v", err)
	}
}

func TestCommandRunner_WithExecRuntime(t *testing.T) {
	base := t.TempDir()
	r := NewCommandRunner("pipeline", runtime.NewExecRuntime(base), "", []string{"sh", "-c", "echo processing {id}"}, nil)

	if err := r.Run(context.Background(), "P005+05", base); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	logs, err := os.ReadFile(LogPath(base, "pipeline", "P005+05"))
	if err != nil {
		t.Fatalf("expected captured log file: %v", err)
	}
	if strings.TrimSpace(string(logs)) != "processing P005+05" {
		t.Errorf("unexpected log contents %q", logs)
	}
}

func TestFunc_Run(t *testing.T) {
	var gotID, gotDir string
	f := Func(func(ctx context.Context, fieldID, baseDir string) error {
		gotID, gotDir = fieldID, baseDir
		return nil
	})

	if err := f.Run(context.Background(), "P006+06", "/data"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotID != "P006+06" || gotDir != "/data" {
		t.Errorf("arguments not forwarded: %s %s", gotID, gotDir)
	}
}
