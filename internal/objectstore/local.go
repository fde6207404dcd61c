package objectstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/vistle-sys/vistle/internal/verrors"
)

// LocalBackend implements Backend against a local directory, used for
// development and as the fallback target in tests that should not
// reach a real cloud endpoint.
type LocalBackend struct {
	basePath string
}

func NewLocalBackend(basePath string) (*LocalBackend, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, verrors.Wrap(verrors.OutOfSpace, "objectstore", "NewLocalBackend", "create base path", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, verrors.Wrap(verrors.Incompatible, "objectstore", "NewLocalBackend", "resolve absolute path", err)
	}
	return &LocalBackend{basePath: abs}, nil
}

func (l *LocalBackend) Type() string { return "local" }

func (l *LocalBackend) path(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}

func (l *LocalBackend) Put(ctx context.Context, key string, data []byte) error {
	p := l.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return verrors.Wrap(verrors.OutOfSpace, "objectstore", "LocalBackend.Put", "mkdir for "+key, err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return verrors.Wrap(verrors.OutOfSpace, "objectstore", "LocalBackend.Put", "key "+key, err)
	}
	return nil
}

func (l *LocalBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, verrors.New(verrors.NotFound, "objectstore", "LocalBackend.Get", "key "+key)
		}
		return nil, verrors.Wrap(verrors.Incompatible, "objectstore", "LocalBackend.Get", "key "+key, err)
	}
	return data, nil
}

func (l *LocalBackend) Delete(ctx context.Context, key string) error {
	if err := os.Remove(l.path(key)); err != nil && !os.IsNotExist(err) {
		return verrors.Wrap(verrors.Incompatible, "objectstore", "LocalBackend.Delete", "key "+key, err)
	}
	return nil
}

func (l *LocalBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, verrors.Wrap(verrors.Incompatible, "objectstore", "LocalBackend.Exists", "key "+key, err)
	}
	return true, nil
}

func (l *LocalBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	walkRoot := l.basePath
	err := filepath.Walk(walkRoot, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(walkRoot, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, verrors.Wrap(verrors.Incompatible, "objectstore", "LocalBackend.List", "prefix "+prefix, err)
	}
	return keys, nil
}
