package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gearhouse/autoparts-backend/pkg/config"
)

type stubPinger struct{ err error }

func (p *stubPinger) Ping(context.Context) error { return p.err }

func TestHealthReadyChecksDependencies(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	handler := HealthReady(cfg, testLogger(), &stubPinger{}, &stubPinger{})
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with healthy dependencies, got %d", w.Code)
	}

	handler = HealthReady(cfg, testLogger(), &stubPinger{}, &stubPinger{err: errors.New("connection refused")})
	w = httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 with a failing dependency, got %d", w.Code)
	}
}

func TestHealthReadyWithoutDependencies(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	handler := HealthReady(cfg, testLogger())
	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with no dependencies wired, got %d", w.Code)
	}
}
