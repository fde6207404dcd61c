package objectstore

import (
	"context"
	"strings"

	"github.com/vistle-sys/vistle/internal/vconfig"
)

// FromConfig builds the backend named by cfg.ObjectStoreEndpoint's
// scheme: an empty endpoint selects a local directory backend rooted
// at localPath, "minio://host:port" selects MinIO at host:port. Any
// other non-empty endpoint is also handed to MinIO, with no scheme
// stripped. The S3, Azure and GCS backends (s3://, azure://, gcs://)
// are constructed directly by callers that need provider-specific
// credentials instead of going through this convenience path.
func FromConfig(ctx context.Context, cfg *vconfig.Config, localPath string) (Backend, error) {
	if cfg.ObjectStoreEndpoint == "" {
		return NewLocalBackend(localPath)
	}
	return NewMinIOBackend(ctx, MinIOConfig{
		Endpoint: strings.TrimPrefix(cfg.ObjectStoreEndpoint, "minio://"),
		Bucket:   cfg.ObjectStoreBucket,
	})
}
