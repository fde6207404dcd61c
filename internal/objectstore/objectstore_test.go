package objectstore

import (
	"context"
	"errors"
	"testing"

	"github.com/vistle-sys/vistle/internal/verrors"
)

func TestLocalBackendPutGetRoundTrip(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBackend: %v", err)
	}
	ctx := context.Background()

	if err := backend.Put(ctx, "archives/run1.vsld", []byte("payload bytes")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data, err := backend.Get(ctx, "archives/run1.vsld")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "payload bytes" {
		t.Fatalf("Get = %q, want %q", data, "payload bytes")
	}
}

func TestLocalBackendGetMissingKeyIsNotFound(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBackend: %v", err)
	}
	_, err = backend.Get(context.Background(), "does/not/exist.vsld")
	if !errors.Is(err, verrors.Sentinel(verrors.NotFound)) {
		t.Fatalf("Get missing key error = %v, want NotFound", err)
	}
}

func TestLocalBackendExistsAndDelete(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBackend: %v", err)
	}
	ctx := context.Background()
	if err := backend.Put(ctx, "a.vsld", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if ok, err := backend.Exists(ctx, "a.vsld"); err != nil || !ok {
		t.Fatalf("Exists = %v, %v, want true, nil", ok, err)
	}
	if err := backend.Delete(ctx, "a.vsld"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, err := backend.Exists(ctx, "a.vsld"); err != nil || ok {
		t.Fatalf("Exists after delete = %v, %v, want false, nil", ok, err)
	}
}

func TestLocalBackendListFiltersByPrefix(t *testing.T) {
	backend, err := NewLocalBackend(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalBackend: %v", err)
	}
	ctx := context.Background()
	for _, key := range []string{"runs/a.vsld", "runs/b.vsld", "other/c.vsld"} {
		if err := backend.Put(ctx, key, []byte("x")); err != nil {
			t.Fatalf("Put %s: %v", key, err)
		}
	}

	keys, err := backend.List(ctx, "runs/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("List returned %d keys, want 2: %v", len(keys), keys)
	}
}

type fakeBackend struct {
	data map[string][]byte
}

func newFakeBackend() *fakeBackend { return &fakeBackend{data: map[string][]byte{}} }

func (f *fakeBackend) Type() string { return "fake" }
func (f *fakeBackend) Put(ctx context.Context, key string, data []byte) error {
	f.data[key] = data
	return nil
}
func (f *fakeBackend) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := f.data[key]
	if !ok {
		return nil, verrors.New(verrors.NotFound, "fake", "Get", "key "+key)
	}
	return v, nil
}
func (f *fakeBackend) Delete(ctx context.Context, key string) error { delete(f.data, key); return nil }
func (f *fakeBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := f.data[key]
	return ok, nil
}
func (f *fakeBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range f.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func TestManagerFallsBackOnPrimaryMiss(t *testing.T) {
	primary := newFakeBackend()
	fallback := newFakeBackend()
	fallback.data["archived.vsld"] = []byte("legacy bytes")

	mgr := NewManager(primary, fallback)
	data, err := mgr.Get(context.Background(), "archived.vsld")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "legacy bytes" {
		t.Fatalf("Get = %q, want %q", data, "legacy bytes")
	}
}

func TestManagerWritesOnlyToPrimary(t *testing.T) {
	primary := newFakeBackend()
	fallback := newFakeBackend()
	mgr := NewManager(primary, fallback)

	if err := mgr.Put(context.Background(), "new.vsld", []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok := primary.data["new.vsld"]; !ok {
		t.Fatalf("expected primary to hold the written key")
	}
	if _, ok := fallback.data["new.vsld"]; ok {
		t.Fatalf("fallback should not receive writes")
	}
}
