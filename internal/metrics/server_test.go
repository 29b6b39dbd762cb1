package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/randomizedcoder/go-disc-burn/internal/logging"
)

func TestServer_Endpoints(t *testing.T) {
	c, registry := newTestCollector()
	c.RecordLine("build", "no_change")

	s := NewServer("127.0.0.1:0", registry, logging.NewDiscardLogger())

	tests := []struct {
		path string
		want string
	}{
		{"/health", "ok"},
		{"/healthz", "ok"},
		{"/ready", "ok"},
		{"/readyz", "ok"},
		{"/metrics", `disc_burn_output_lines_total{dialect="build",result="no_change"} 1`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body missing %q:\n%s", tt.want, rec.Body.String())
			}
		})
	}
}

func TestServer_StartShutdown(t *testing.T) {
	_, registry := newTestCollector()
	s := NewServer("127.0.0.1:0", registry, logging.NewDiscardLogger())

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if strings.HasSuffix(s.Addr(), ":0") {
		t.Errorf("Addr() = %q, want the bound port", s.Addr())
	}

	resp, err := http.Get("http://" + s.Addr() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if strings.TrimSpace(string(body)) != "ok" {
		t.Errorf("body = %q", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestServer_StartBindError(t *testing.T) {
	s := NewServer("127.0.0.1:99999", nil, logging.NewDiscardLogger())
	if err := s.Start(); err == nil {
		t.Error("Start() on an invalid address should fail")
	}
}
