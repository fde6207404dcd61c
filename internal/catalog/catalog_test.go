package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/vistle-sys/vistle/internal/chunkfile"
	"github.com/vistle-sys/vistle/internal/codec"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	srv := miniredis.RunT(t)
	c, err := New(context.Background(), "redis://"+srv.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestIndexDirectoryThenLookup(t *testing.T) {
	cat := testCatalog(t)
	ctx := context.Background()

	dir := []chunkfile.DirectoryEntry{
		{Name: "grid0", IsArray: false, UncompressedSize: 128, CompressionMode: codec.ModeNone},
		{Name: "x0", IsArray: true, ElementTypeCode: 3, UncompressedSize: 4096, CompressionMode: codec.ModeRangeCoded},
	}
	if err := cat.IndexDirectory(ctx, "run1.vsld", dir); err != nil {
		t.Fatalf("IndexDirectory: %v", err)
	}

	entry, found, err := cat.Lookup(ctx, "run1.vsld", "x0")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !found {
		t.Fatalf("expected found=true for indexed entry")
	}
	if entry.UncompressedSize != 4096 || entry.CompressionMode != codec.ModeRangeCoded {
		t.Fatalf("Lookup returned %+v, want matching indexed fields", entry)
	}
}

func TestLookupMissReturnsFoundFalse(t *testing.T) {
	cat := testCatalog(t)
	_, found, err := cat.Lookup(context.Background(), "run1.vsld", "never-indexed")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if found {
		t.Fatalf("expected found=false for an unindexed name")
	}
}

func TestEvictRemovesEntry(t *testing.T) {
	cat := testCatalog(t)
	ctx := context.Background()
	dir := []chunkfile.DirectoryEntry{{Name: "grid0", UncompressedSize: 64, CompressionMode: codec.ModeNone}}
	if err := cat.IndexDirectory(ctx, "run1.vsld", dir); err != nil {
		t.Fatalf("IndexDirectory: %v", err)
	}

	if err := cat.Evict(ctx, "run1.vsld", "grid0"); err != nil {
		t.Fatalf("Evict: %v", err)
	}
	_, found, err := cat.Lookup(ctx, "run1.vsld", "grid0")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if found {
		t.Fatalf("expected found=false after Evict")
	}
}
