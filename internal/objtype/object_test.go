package objtype

import (
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

func TestStateMachineTransitionsInOrder(t *testing.T) {
	s := testStore(t)
	grid, err := NewUniformGrid(s, NewMetadata("mod1"), [3]float64{0, 0, 0}, [3]float64{1, 1, 1}, [3]int{2, 2, 2})
	if err != nil {
		t.Fatalf("NewUniformGrid: %v", err)
	}
	if grid.State() != StateFilled {
		t.Fatalf("fresh object state = %v, want Filled", grid.State())
	}
	if err := grid.SetAttribute(AttrSpecies, "velocity"); err != nil {
		t.Fatalf("SetAttribute while Filled: %v", err)
	}
	if err := grid.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := grid.SetAttribute(AttrColor, "red"); err == nil {
		t.Fatalf("SetAttribute after Finalize should fail")
	}
	if err := grid.Publish(); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := grid.Finalize(); err == nil {
		t.Fatalf("re-Finalize a Published object should fail")
	}
}

func TestConstructAndDowncast(t *testing.T) {
	s := testStore(t)
	xArr, _ := s.AllocateArray(shmem.ElemFloat32, 4)
	yArr, _ := s.AllocateArray(shmem.ElemFloat32, 4)
	zArr, _ := s.AllocateArray(shmem.ElemFloat32, 4)

	obj, err := Construct(s, TagRectilinear, NewMetadata("mod1"), []string{xArr.Name(), yArr.Name(), zArr.Name()})
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	rect, ok := Downcast[*RectilinearGrid](obj)
	if !ok {
		t.Fatalf("Downcast to *RectilinearGrid failed")
	}
	if rect.XArray() != xArr.Name() {
		t.Fatalf("XArray() = %s, want %s", rect.XArray(), xArr.Name())
	}

	if _, ok := Downcast[*StructuredGrid](obj); ok {
		t.Fatalf("Downcast to wrong subtype unexpectedly succeeded")
	}
}

func TestConstructWrongArityIsSchemaMismatch(t *testing.T) {
	s := testStore(t)
	_, err := Construct(s, TagRectilinear, NewMetadata("mod1"), []string{"only-one"})
	if err == nil {
		t.Fatalf("Construct with wrong arity should fail")
	}
}

func TestCloneSharesArraysButNotMetadata(t *testing.T) {
	s := testStore(t)
	xArr, _ := s.AllocateArray(shmem.ElemFloat32, 8)
	yArr, _ := s.AllocateArray(shmem.ElemFloat32, 8)
	zArr, _ := s.AllocateArray(shmem.ElemFloat32, 8)
	grid, err := NewStructuredGrid(s, NewMetadata("mod1"), [3]int{2, 2, 2}, xArr.Name(), yArr.Name(), zArr.Name())
	if err != nil {
		t.Fatalf("NewStructuredGrid: %v", err)
	}

	comp, _ := s.AllocateArray(shmem.ElemFloat32, 8)
	field1, err := NewVec(s, NewMetadata("mod2"), grid.Name(), []string{comp.Name()}, MappingVertex)
	if err != nil {
		t.Fatalf("NewVec: %v", err)
	}

	meta2 := NewMetadata("mod2")
	meta2.Block = 1
	cloned, err := Clone(s, field1, meta2)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	field2, ok := Downcast[*Vec](cloned)
	if !ok {
		t.Fatalf("cloned object is not a *Vec")
	}

	if field1.GridObject() != field2.GridObject() {
		t.Fatalf("clone's grid handle = %s, want %s (same grid)", field2.GridObject(), field1.GridObject())
	}
	if field1.Name() == field2.Name() {
		t.Fatalf("clone must have a distinct name from the source")
	}
	if field2.Metadata().Block != 1 {
		t.Fatalf("clone metadata.Block = %d, want 1", field2.Metadata().Block)
	}
}

func TestLinesWithZeroCornersIsValid(t *testing.T) {
	s := testStore(t)
	offsets, _ := s.AllocateArray(shmem.ElemInt32, 1)
	conn, _ := s.AllocateArray(shmem.ElemInt32, 0)
	x, _ := s.AllocateArray(shmem.ElemFloat32, 0)
	y, _ := s.AllocateArray(shmem.ElemFloat32, 0)
	z, _ := s.AllocateArray(shmem.ElemFloat32, 0)

	lines, err := NewLines(s, NewMetadata("mod1"), offsets.Name(), conn.Name(), x.Name(), y.Name(), z.Name())
	if err != nil {
		t.Fatalf("NewLines with zero corners should be accepted: %v", err)
	}
	if lines.Tag() != TagLines {
		t.Fatalf("Tag() = %v, want Lines", lines.Tag())
	}
}

func TestUnstructuredGridGhostFlagsExcludeFromOwnedCount(t *testing.T) {
	s := testStore(t)
	offsets, _ := s.AllocateArray(shmem.ElemInt32, 3)
	conn, _ := s.AllocateArray(shmem.ElemInt32, 12)
	types, _ := s.AllocateArray(shmem.ElemByte, 3)
	x, _ := s.AllocateArray(shmem.ElemFloat32, 8)
	y, _ := s.AllocateArray(shmem.ElemFloat32, 8)
	z, _ := s.AllocateArray(shmem.ElemFloat32, 8)

	grid, err := NewUnstructuredGrid(s, NewMetadata("mod1"), offsets.Name(), conn.Name(), types.Name(), x.Name(), y.Name(), z.Name())
	if err != nil {
		t.Fatalf("NewUnstructuredGrid: %v", err)
	}

	ghost, _ := s.AllocateArray(shmem.ElemByte, 3)
	ghost.SetByte(1, 1) // element 1 is a ghost cell
	if err := grid.SetGhostFlags(ghost.Name()); err != nil {
		t.Fatalf("SetGhostFlags: %v", err)
	}

	if got := grid.OwnedElementCount(ghost); got != 2 {
		t.Fatalf("OwnedElementCount() = %d, want 2 (one ghost of three elements)", got)
	}
}
