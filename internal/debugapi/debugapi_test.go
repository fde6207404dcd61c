package debugapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vistle-sys/vistle/internal/shmem"
	"github.com/vistle-sys/vistle/internal/vconfig"
)

func testStore(t *testing.T) *shmem.Store {
	t.Helper()
	cfg := vconfig.Default()
	cfg.StoreMaxBytes = 1 << 20
	cfg.AttachTimeout = 200 * time.Millisecond
	s, err := shmem.CreateOwner(cfg, t.TempDir(), "mod1")
	if err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}
	t.Cleanup(s.Detach)
	return s
}

func TestHealthzReportsHealthy(t *testing.T) {
	store := testStore(t)
	srv := New(store)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if healthy, _ := body["healthy"].(bool); !healthy {
		t.Fatalf("healthy = %v, want true", body["healthy"])
	}
}

func TestStatsReflectsStoreOccupancy(t *testing.T) {
	store := testStore(t)
	if _, err := store.AllocateArray(shmem.ElemFloat32, 10); err != nil {
		t.Fatalf("AllocateArray: %v", err)
	}
	srv := New(store)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var stats shmem.Stats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.EntryCount != 1 {
		t.Fatalf("EntryCount = %d, want 1", stats.EntryCount)
	}
	if stats.UsedBytes <= 0 {
		t.Fatalf("UsedBytes = %d, want > 0", stats.UsedBytes)
	}
}

func TestObjectsReturnsMetadataWithoutPayload(t *testing.T) {
	store := testStore(t)
	arr, err := store.AllocateArray(shmem.ElemFloat32, 4)
	if err != nil {
		t.Fatalf("AllocateArray: %v", err)
	}
	srv := New(store)

	req := httptest.NewRequest(http.MethodGet, "/objects/"+arr.Name(), nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, present := body["byte_size"]; !present {
		t.Fatalf("expected byte_size metadata field")
	}
	if _, present := body["data"]; present {
		t.Fatalf("response must not include raw payload bytes")
	}
}

func TestObjectsReturns404ForUnknownName(t *testing.T) {
	store := testStore(t)
	srv := New(store)

	req := httptest.NewRequest(http.MethodGet, "/objects/does-not-exist", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
