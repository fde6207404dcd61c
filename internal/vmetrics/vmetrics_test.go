package vmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersStartAtZero(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	if got := testutil.ToFloat64(m.ArraysAllocated); got != 0 {
		t.Fatalf("ArraysAllocated initial value = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.CacheHits); got != 0 {
		t.Fatalf("CacheHits initial value = %v, want 0", got)
	}
}

func TestCounterVecIncrementsPerLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PortObjectsPublished.WithLabelValues("data_out0").Inc()
	m.PortObjectsPublished.WithLabelValues("data_out0").Inc()
	m.PortObjectsPublished.WithLabelValues("data_out1").Inc()

	if got := testutil.ToFloat64(m.PortObjectsPublished.WithLabelValues("data_out0")); got != 2 {
		t.Fatalf("data_out0 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.PortObjectsPublished.WithLabelValues("data_out1")); got != 1 {
		t.Fatalf("data_out1 count = %v, want 1", got)
	}
}

func TestTwoRegistriesDoNotCollide(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	if m1, m2 := New(reg1), New(reg2); m1 == nil || m2 == nil {
		t.Fatalf("New should not fail across independent registries")
	}
}
