package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vistle-sys/vistle/internal/debugapi"
	"github.com/vistle-sys/vistle/internal/shmem"
	"github.com/vistle-sys/vistle/internal/vconfig"
	"github.com/vistle-sys/vistle/internal/vmetrics"
)

func TestOwnerAttachRoundTripsThroughBaseDir(t *testing.T) {
	cfg := vconfig.Default()
	dir := t.TempDir()

	owner, err := shmem.CreateOwner(cfg, dir, "owner")
	if err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}
	defer owner.Detach()

	attached, err := shmem.Attach(cfg, dir, owner.ID(), "worker")
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer attached.Detach()

	if attached.ID() != owner.ID() {
		t.Fatalf("attached ID = %q, want %q", attached.ID(), owner.ID())
	}
}

func TestAttachTimesOutWhenNoOwnerExists(t *testing.T) {
	cfg := vconfig.Default()
	cfg.AttachTimeout = 0
	dir := t.TempDir()

	if _, err := shmem.Attach(cfg, filepath.Join(dir, "missing"), "nobody", "worker"); err == nil {
		t.Fatalf("expected Attach to fail when no owner marker exists")
	}
}

func TestDebugAPIHandlerServesHealthzForHostedStore(t *testing.T) {
	cfg := vconfig.Default()
	store, err := shmem.CreateOwner(cfg, t.TempDir(), "owner")
	if err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}
	defer store.Detach()

	handler := debugapi.New(store).Handler()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
}

func TestMetricsHandlerExposesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = vmetrics.New(reg)
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if body := rr.Body.String(); body == "" {
		t.Fatalf("expected non-empty metrics output")
	}
}
