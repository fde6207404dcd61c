package objectstore

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/vistle-sys/vistle/internal/verrors"
)

// GCSConfig describes a Google Cloud Storage bucket.
type GCSConfig struct {
	Bucket string
}

// GCSBackend implements Backend against Google Cloud Storage.
type GCSBackend struct {
	client *storage.Client
	bucket string
}

func NewGCSBackend(ctx context.Context, cfg GCSConfig) (*GCSBackend, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, verrors.Wrap(verrors.Incompatible, "objectstore", "NewGCSBackend", "create client", err)
	}
	return &GCSBackend{client: client, bucket: cfg.Bucket}, nil
}

func (g *GCSBackend) Type() string { return "gcs" }

func (g *GCSBackend) bucketHandle() *storage.BucketHandle {
	return g.client.Bucket(g.bucket)
}

func (g *GCSBackend) Put(ctx context.Context, key string, data []byte) error {
	w := g.bucketHandle().Object(key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return verrors.Wrap(verrors.OutOfSpace, "objectstore", "GCSBackend.Put", "key "+key, err)
	}
	if err := w.Close(); err != nil {
		return verrors.Wrap(verrors.OutOfSpace, "objectstore", "GCSBackend.Put", "close writer "+key, err)
	}
	return nil
}

func (g *GCSBackend) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := g.bucketHandle().Object(key).NewReader(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return nil, verrors.New(verrors.NotFound, "objectstore", "GCSBackend.Get", "key "+key)
		}
		return nil, verrors.Wrap(verrors.Incompatible, "objectstore", "GCSBackend.Get", "key "+key, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, verrors.Wrap(verrors.Corrupt, "objectstore", "GCSBackend.Get", "read body "+key, err)
	}
	return data, nil
}

func (g *GCSBackend) Delete(ctx context.Context, key string) error {
	if err := g.bucketHandle().Object(key).Delete(ctx); err != nil {
		return verrors.Wrap(verrors.Incompatible, "objectstore", "GCSBackend.Delete", "key "+key, err)
	}
	return nil
}

func (g *GCSBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := g.bucketHandle().Object(key).Attrs(ctx)
	if err != nil {
		if err == storage.ErrObjectNotExist {
			return false, nil
		}
		return false, verrors.Wrap(verrors.Incompatible, "objectstore", "GCSBackend.Exists", "key "+key, err)
	}
	return true, nil
}

func (g *GCSBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	it := g.bucketHandle().Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, verrors.Wrap(verrors.Incompatible, "objectstore", "GCSBackend.List", "prefix "+prefix, err)
		}
		keys = append(keys, attrs.Name)
	}
	return keys, nil
}
