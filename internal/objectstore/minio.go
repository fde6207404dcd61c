package objectstore

import (
	"bytes"
	"context"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/vistle-sys/vistle/internal/verrors"
)

// MinIOConfig describes a MinIO (or any S3-compatible, non-AWS)
// endpoint, the shape tile-server's cmd/server/main.go uses to reach
// its local tile cache bucket.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
}

// MinIOBackend implements Backend against a MinIO endpoint, creating
// the target bucket on first use the way tile-server's
// ensureBucket does.
type MinIOBackend struct {
	client *minio.Client
	bucket string
}

func NewMinIOBackend(ctx context.Context, cfg MinIOConfig) (*MinIOBackend, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, verrors.Wrap(verrors.Incompatible, "objectstore", "NewMinIOBackend", "create client", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, verrors.Wrap(verrors.Incompatible, "objectstore", "NewMinIOBackend", "check bucket "+cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, verrors.Wrap(verrors.Incompatible, "objectstore", "NewMinIOBackend", "create bucket "+cfg.Bucket, err)
		}
	}
	return &MinIOBackend{client: client, bucket: cfg.Bucket}, nil
}

func (m *MinIOBackend) Type() string { return "minio" }

func (m *MinIOBackend) Put(ctx context.Context, key string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return verrors.Wrap(verrors.OutOfSpace, "objectstore", "MinIOBackend.Put", "key "+key, err)
	}
	return nil
}

func (m *MinIOBackend) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, verrors.Wrap(verrors.Incompatible, "objectstore", "MinIOBackend.Get", "key "+key, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if isMinIONotFound(err) {
			return nil, verrors.New(verrors.NotFound, "objectstore", "MinIOBackend.Get", "key "+key)
		}
		return nil, verrors.Wrap(verrors.Corrupt, "objectstore", "MinIOBackend.Get", "read body "+key, err)
	}
	return data, nil
}

func (m *MinIOBackend) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return verrors.Wrap(verrors.Incompatible, "objectstore", "MinIOBackend.Delete", "key "+key, err)
	}
	return nil
}

func (m *MinIOBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isMinIONotFound(err) {
			return false, nil
		}
		return false, verrors.Wrap(verrors.Incompatible, "objectstore", "MinIOBackend.Exists", "key "+key, err)
	}
	return true, nil
}

func (m *MinIOBackend) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, verrors.Wrap(verrors.Incompatible, "objectstore", "MinIOBackend.List", "prefix "+prefix, obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func isMinIONotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
}
