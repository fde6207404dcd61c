package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vistle-sys/vistle/internal/chunkfile"
	"github.com/vistle-sys/vistle/internal/codec"
)

func TestListFileReportsEntriesAndByteTotals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run1.vsld")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w := chunkfile.NewWriter(f)
	if err := w.WriteDirectoryEntry(chunkfile.DirectoryEntry{
		Name: "grid0", IsArray: false, UncompressedSize: 100, CompressionMode: codec.ModeNone, CompressedBytes: make([]byte, 100),
	}); err != nil {
		t.Fatalf("WriteDirectoryEntry: %v", err)
	}
	if err := w.WriteDirectoryMarker(); err != nil {
		t.Fatalf("WriteDirectoryMarker: %v", err)
	}
	if err := w.WritePortObject(chunkfile.PortObjectHeader{Port: 0, Timestep: 0, Block: -1, Object: "data_out0_0000"}); err != nil {
		t.Fatalf("WritePortObject: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	raw, compressed, err := listFile(path)
	if err != nil {
		t.Fatalf("listFile: %v", err)
	}
	if raw != 100 {
		t.Fatalf("raw = %d, want 100", raw)
	}
	if compressed != 100 {
		t.Fatalf("compressed = %d, want 100", compressed)
	}
}

func TestListFileReturnsErrorForMissingFile(t *testing.T) {
	if _, _, err := listFile(filepath.Join(t.TempDir(), "does-not-exist.vsld")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func writeTimestepRun(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w := chunkfile.NewWriter(f)
	if err := w.WriteDirectoryMarker(); err != nil {
		t.Fatalf("WriteDirectoryMarker: %v", err)
	}
	for ts := 0; ts < 10; ts++ {
		if err := w.WritePortObject(chunkfile.PortObjectHeader{
			Port: 0, Timestep: int32(ts), Block: -1, Object: "obj",
		}); err != nil {
			t.Fatalf("WritePortObject: %v", err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestFilteredReaderAppliesListTimestepFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.vsld")
	writeTimestepRun(t, path)

	filterStart, filterStop, filterStep, filterRenumber = 2, 8, 2, true
	defer func() { filterStart, filterStop, filterStep, filterRenumber = 0, -1, 1, false }()

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	fr := chunkfile.NewFilteredReader(chunkfile.NewReader(f), chunkfile.TimestepFilter{
		Start: filterStart, Stop: filterStop, Step: filterStep, Renumber: filterRenumber,
	})
	var got []int32
	for {
		typ, val, err := fr.Next()
		if err != nil {
			break
		}
		if typ == chunkfile.ChunkPortObject {
			got = append(got, val.(chunkfile.PortObjectHeader).Timestep)
		}
	}
	want := []int32{0, 1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestReorderReaderGroupsInterleavedFileByTimestepThenPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interleaved.vsld")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	w := chunkfile.NewWriter(f)
	order := []chunkfile.PortObjectHeader{
		{Port: 1, Timestep: 0, Block: -1, Object: "t0p1"},
		{Port: 0, Timestep: 1, Block: -1, Object: "t1p0"},
		{Port: 0, Timestep: 0, Block: -1, Object: "t0p0"},
		{Port: 1, Timestep: 1, Block: -1, Object: "t1p1"},
	}
	for _, po := range order {
		if err := w.WritePortObject(po); err != nil {
			t.Fatalf("WritePortObject: %v", err)
		}
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	rf, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rf.Close()

	rr, err := chunkfile.NewReorderReader(chunkfile.NewReader(rf))
	if err != nil {
		t.Fatalf("NewReorderReader: %v", err)
	}
	var got []string
	for {
		typ, val, err := rr.Next()
		if err != nil {
			break
		}
		if typ == chunkfile.ChunkPortObject {
			got = append(got, val.(chunkfile.PortObjectHeader).Object)
		}
	}
	want := []string{"t0p0", "t0p1", "t1p0", "t1p1"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
