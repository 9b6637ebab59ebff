package cmd

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestLogsCommand_Success(t *testing.T) {
	resetViper()
	follow = false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fields/P123/logs" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if kind := r.URL.Query().Get("kind"); kind != kindUpload {
			t.Errorf("expected kind=upload, got %q", kind)
		}
		w.Write([]byte("uploaded 3 files\n"))
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	output, err := runCLI(t, "logs", "P123", "--kind", "upload")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output, "uploaded 3 files") {
		t.Errorf("expected log content in output, got: %s", output)
	}
}

func TestLogsCommand_NotFound(t *testing.T) {
	resetViper()
	follow = false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"No logs for field","code":"404"}`))
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	output, err := runCLI(t, "logs", "P999", "--kind", "pipeline")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(output, "No logs for field") {
		t.Errorf("expected API error in output, got: %s", output)
	}
}

func TestLogsCommand_InvalidKind(t *testing.T) {
	resetViper()
	follow = false

	_, err := runCLI(t, "logs", "P123", "--kind", "download")
	if err == nil {
		t.Fatal("expected error for unknown kind")
	}
	if !strings.Contains(err.Error(), "invalid --kind") {
		t.Errorf("expected kind validation error, got: %v", err)
	}
}

func TestLogsCommand_UnterminatedLastLine(t *testing.T) {
	resetViper()
	follow = false
	logKind = kindPipeline

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("stage 1 done\nstage 2 at 40%"))
	}))
	defer server.Close()

	viper.Set("url", server.URL)

	output, err := runCLI(t, "logs", "P123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output != "stage 1 done\nstage 2 at 40%\n" {
		t.Errorf("unexpected output: %q", output)
	}
}

func TestSplitCompleteLines_GrowingLog(t *testing.T) {
	// Successive polls of a log whose second line is cut mid-write.
	polls := []string{
		"stage 1 done\nstage 2 at",
		"stage 1 done\nstage 2 at 40%\n",
		"stage 1 done\nstage 2 at 40%\nstage 3\n",
	}

	var printed []string
	offset, pending := 0, ""
	for _, content := range polls {
		var complete string
		complete, pending = splitCompleteLines(pending + content[offset:])
		if complete != "" {
			printed = append(printed, complete)
		}
		offset = len(content)
	}

	want := []string{"stage 1 done\n", "stage 2 at 40%\n", "stage 3\n"}
	if strings.Join(printed, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", printed, want)
	}
	if pending != "" {
		t.Errorf("expected nothing pending, got %q", pending)
	}
}
