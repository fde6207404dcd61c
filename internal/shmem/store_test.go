package shmem

import (
	"testing"
	"time"

	"github.com/vistle-sys/vistle/internal/vconfig"
	"github.com/vistle-sys/vistle/internal/verrors"
)

func testConfig() *vconfig.Config {
	cfg := vconfig.Default()
	cfg.StoreMaxBytes = 1 << 20
	cfg.AttachTimeout = 200 * time.Millisecond
	return cfg
}

func TestAllocateArrayAndDecrementFreesBytes(t *testing.T) {
	s, err := newStore(testConfig(), t.TempDir(), "mod1", true)
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer s.Detach()

	arr, err := s.AllocateArray(ElemFloat32, 100)
	if err != nil {
		t.Fatalf("AllocateArray: %v", err)
	}
	if got := s.Stats().UsedBytes; got != 400 {
		t.Fatalf("UsedBytes = %d, want 400", got)
	}

	if err := s.Decrement(arr.Name()); err != nil {
		t.Fatalf("Decrement: %v", err)
	}
	if got := s.Stats().UsedBytes; got != 0 {
		t.Fatalf("UsedBytes after decrement = %d, want 0", got)
	}
	if _, _, _, found := s.Lookup(arr.Name()); found {
		t.Fatalf("Lookup found entry after refcount reached zero")
	}
}

func TestAllocateObjectIncrementsReferences(t *testing.T) {
	s, err := newStore(testConfig(), t.TempDir(), "mod1", true)
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer s.Detach()

	arr, err := s.AllocateArray(ElemByte, 8)
	if err != nil {
		t.Fatalf("AllocateArray: %v", err)
	}

	objName, err := s.AllocateObject("UniformGrid", []string{arr.Name()})
	if err != nil {
		t.Fatalf("AllocateObject: %v", err)
	}

	// Drop the producer's own reference; the object's reference must
	// keep the array alive.
	if err := s.Decrement(arr.Name()); err != nil {
		t.Fatalf("Decrement(array): %v", err)
	}
	if _, _, _, found := s.Lookup(arr.Name()); !found {
		t.Fatalf("array freed while its owning object still references it")
	}

	// The object now holds the only reference; decrementing the object
	// should cascade and free the array too.
	if err := s.Decrement(objName); err != nil {
		t.Fatalf("Decrement(object): %v", err)
	}
	if _, _, _, found := s.Lookup(arr.Name()); found {
		t.Fatalf("array survived cascading decrement of its owning object")
	}
}

func TestDecrementUnknownNameIsNotFound(t *testing.T) {
	s, err := newStore(testConfig(), t.TempDir(), "mod1", true)
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer s.Detach()

	err = s.Decrement("nope:1")
	ve, ok := err.(*verrors.VistleError)
	if !ok || ve.Code != verrors.NotFound {
		t.Fatalf("Decrement(unknown) = %v, want NotFound", err)
	}
}

func TestAllocateArrayOutOfSpace(t *testing.T) {
	cfg := testConfig()
	cfg.StoreMaxBytes = 10
	s, err := newStore(cfg, t.TempDir(), "mod1", true)
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer s.Detach()

	_, err = s.AllocateArray(ElemFloat64, 100)
	ve, ok := err.(*verrors.VistleError)
	if !ok || ve.Code != verrors.OutOfSpace {
		t.Fatalf("AllocateArray over budget = %v, want OutOfSpace", err)
	}
}

func TestAttachTimesOutWhenOwnerNeverCreatesStore(t *testing.T) {
	cfg := testConfig()
	dir := t.TempDir()
	_, err := Attach(cfg, dir, "missing-store", "mod2")
	ve, ok := err.(*verrors.VistleError)
	if !ok || ve.Code != verrors.NotFound {
		t.Fatalf("Attach to missing store = %v, want NotFound", err)
	}
}

func TestCreateOwnerThenAttachSucceeds(t *testing.T) {
	cfg := testConfig()
	dir := t.TempDir()

	owner, err := CreateOwner(cfg, dir, "mod1")
	if err != nil {
		t.Fatalf("CreateOwner: %v", err)
	}
	defer owner.Detach()

	peer, err := Attach(cfg, dir, owner.ID(), "mod2")
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer peer.Detach()

	if peer.ID() != owner.ID() {
		t.Fatalf("peer.ID() = %s, want %s", peer.ID(), owner.ID())
	}
}

func TestDecrementAfterDestructionIsNotFound(t *testing.T) {
	s, err := newStore(testConfig(), t.TempDir(), "mod1", true)
	if err != nil {
		t.Fatalf("newStore: %v", err)
	}
	defer s.Detach()

	arr, err := s.AllocateArray(ElemByte, 1)
	if err != nil {
		t.Fatalf("AllocateArray: %v", err)
	}
	if err := s.Decrement(arr.Name()); err != nil {
		t.Fatalf("first Decrement: %v", err)
	}

	err = s.Decrement(arr.Name())
	ve, ok := err.(*verrors.VistleError)
	if !ok || ve.Code != verrors.NotFound {
		t.Fatalf("second Decrement after destruction = %v, want NotFound (entry already removed)", err)
	}
}
