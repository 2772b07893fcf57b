package metricsserver

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/docmirror/docmirror-go/internal/telemetry/metric"
)

func TestServer_Metrics(t *testing.T) {
	reg := metric.NewRegistry()
	reg.SnapshotsWritten.Inc()

	srv := httptest.NewServer(New("127.0.0.1:0", reg).Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "docmirror_snapshots_written_total 1") {
		t.Errorf("metrics output missing snapshot counter:\n%s", body)
	}
}

func TestServer_Health(t *testing.T) {
	srv := httptest.NewServer(New("127.0.0.1:0", metric.NewRegistry()).Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"status":"healthy"`) {
		t.Errorf("body = %s", body)
	}
}

func TestServer_Shutdown(t *testing.T) {
	s := New("127.0.0.1:0", metric.NewRegistry())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
