// Package objectstore implements the pluggable remote blob backend for
// archived .vsld bytes (SPEC_FULL.md expansion of spec.md §4.5: once an
// archive is serialized to bytes, a deployment may want it durable
// somewhere other than a local path). It generalizes the teacher's
// internal/storage package (one Backend interface, one constructor per
// cloud, a Manager composing primary/fallback/cache) from arbitrary
// object keys to archive names, trimmed to the operations an archive
// store actually needs: Put/Get/Delete/Exists/List.
package objectstore

import (
	"context"
	"errors"

	"github.com/vistle-sys/vistle/internal/verrors"
)

// Backend is a key/value blob store for whole, already-compressed
// archive byte streams. Implementations must treat Get on a missing key
// as a verrors.NotFound error, not a generic failure, so callers can
// distinguish "not archived yet" from "backend unreachable".
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]string, error)
	Type() string
}

// Manager wraps a primary backend with an optional fallback, mirroring
// the teacher's storage.Manager: writes always go to primary; reads
// fall back to the secondary backend when the primary returns
// verrors.NotFound, covering a migration window where old archives
// still live on one backend and new ones land on another.
type Manager struct {
	primary  Backend
	fallback Backend
}

// NewManager returns a Manager that reads/writes through primary, and
// additionally consults fallback on a primary miss. fallback may be nil.
func NewManager(primary Backend, fallback Backend) *Manager {
	return &Manager{primary: primary, fallback: fallback}
}

func (m *Manager) Put(ctx context.Context, key string, data []byte) error {
	return m.primary.Put(ctx, key, data)
}

func (m *Manager) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := m.primary.Get(ctx, key)
	if err == nil {
		return data, nil
	}
	if m.fallback == nil || !errors.Is(err, verrors.Sentinel(verrors.NotFound)) {
		return nil, err
	}
	return m.fallback.Get(ctx, key)
}

func (m *Manager) Delete(ctx context.Context, key string) error {
	return m.primary.Delete(ctx, key)
}

func (m *Manager) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := m.primary.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if ok || m.fallback == nil {
		return ok, nil
	}
	return m.fallback.Exists(ctx, key)
}

func (m *Manager) List(ctx context.Context, prefix string) ([]string, error) {
	return m.primary.List(ctx, prefix)
}
