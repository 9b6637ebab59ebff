package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

func scrape(t *testing.T, handler http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	return rr.Body.String()
}

func shutdownWithin(t *testing.T, shutdown func(context.Context) error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = shutdown(ctx)
}

func TestInitMetrics(t *testing.T) {
	handler, shutdown, err := InitMetrics(context.Background(), "ddfmonitor", "cep3")
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer shutdownWithin(t, shutdown)

	if handler == nil || shutdown == nil {
		t.Fatal("expected handler and shutdown to be non-nil")
	}

	body := scrape(t, handler)
	if !strings.Contains(body, "go_goroutines") {
		t.Errorf("expected runtime metrics in output, got:\n%s", body)
	}
}

func TestInitMetrics_CounterAppearsInOutput(t *testing.T) {
	handler, shutdown, err := InitMetrics(context.Background(), "ddfmonitor", "cep3")
	if err != nil {
		t.Fatalf("InitMetrics failed: %v", err)
	}
	defer shutdownWithin(t, shutdown)

	counter, err := otel.Meter("ddfmonitor").Int64Counter("ddfmonitor.tasks.started")
	if err != nil {
		t.Fatalf("failed to create counter: %v", err)
	}
	counter.Add(context.Background(), 7)

	body := scrape(t, handler)
	if !strings.Contains(body, "ddfmonitor_tasks_started") {
		t.Errorf("expected ddfmonitor_tasks_started in output, got:\n%s", body)
	}
	if !strings.Contains(body, " 7") {
		t.Errorf("expected value 7 in output, got:\n%s", body)
	}
}

func TestInitMetrics_Repeatable(t *testing.T) {
	for i := 0; i < 2; i++ {
		_, shutdown, err := InitMetrics(context.Background(), "ddfmonitor", "cep3")
		if err != nil {
			t.Fatalf("InitMetrics call %d failed: %v", i, err)
		}
		shutdownWithin(t, shutdown)
	}
}
