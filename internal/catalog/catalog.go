// Package catalog implements an optional remote index of archive
// directory entries, letting out-of-process navigation tools (a
// browser UI, a dataset explorer) resolve "does this archive contain
// entry X, and what does its metadata look like" without fetching and
// decompressing the archive itself. Grounded on the teacher's
// services/tile-server/cmd/server/main.go Redis tile-cache pattern
// (cache-key-per-coordinate, JSON-serialized value, a TTL), generalized
// from tile coordinates to archive entry names.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vistle-sys/vistle/internal/chunkfile"
	"github.com/vistle-sys/vistle/internal/codec"
	"github.com/vistle-sys/vistle/internal/verrors"
	"github.com/vistle-sys/vistle/internal/vlog"
)

// Entry is the catalog's JSON-serialized view of one archive directory
// record, omitting CompressedBytes so a catalog lookup never carries
// payload weight.
type Entry struct {
	ArchiveKey       string     `json:"archive_key"`
	Name             string     `json:"name"`
	IsArray          bool       `json:"is_array"`
	ElementTypeCode  int        `json:"element_type_code,omitempty"`
	UncompressedSize uint64     `json:"uncompressed_size"`
	CompressionMode  codec.Mode `json:"compression_mode"`
}

// Catalog indexes archive directory entries in Redis, keyed by
// archive key + entry name, with a bounded TTL so stale entries expire
// rather than accumulate forever.
type Catalog struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to redisURL (e.g. "redis://localhost:6379/0") and
// verifies reachability with a Ping, matching the teacher's
// connect-then-ping startup sequence.
func New(ctx context.Context, redisURL string, ttl time.Duration) (*Catalog, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, verrors.Wrap(verrors.Incompatible, "catalog", "New", "parse redis URL", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, verrors.Wrap(verrors.Incompatible, "catalog", "New", "connect to redis", err)
	}
	return &Catalog{client: client, ttl: ttl}, nil
}

func key(archiveKey, name string) string {
	return fmt.Sprintf("vistle:entry:%s:%s", archiveKey, name)
}

// IndexDirectory stores one Entry per directory record under
// archiveKey, overwriting any previous index for that archive.
func (c *Catalog) IndexDirectory(ctx context.Context, archiveKey string, dir []chunkfile.DirectoryEntry) error {
	pipe := c.client.Pipeline()
	for _, d := range dir {
		entry := Entry{
			ArchiveKey:       archiveKey,
			Name:             d.Name,
			IsArray:          d.IsArray,
			ElementTypeCode:  d.ElementTypeCode,
			UncompressedSize: d.UncompressedSize,
			CompressionMode:  d.CompressionMode,
		}
		data, err := json.Marshal(entry)
		if err != nil {
			return verrors.Wrap(verrors.Corrupt, "catalog", "IndexDirectory", "marshal entry "+d.Name, err)
		}
		pipe.Set(ctx, key(archiveKey, d.Name), data, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return verrors.Wrap(verrors.Incompatible, "catalog", "IndexDirectory", "pipeline exec for "+archiveKey, err)
	}
	return nil
}

// Lookup resolves one entry's metadata without touching the archive
// backend. found is false on a cache miss (either never indexed or
// the TTL has since expired), which callers should treat as "fall
// back to reading the archive directory directly", not as an error.
func (c *Catalog) Lookup(ctx context.Context, archiveKey, name string) (entry Entry, found bool, err error) {
	raw, err := c.client.Get(ctx, key(archiveKey, name)).Result()
	if err == redis.Nil {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, verrors.Wrap(verrors.Incompatible, "catalog", "Lookup", "redis get "+name, err)
	}
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return Entry{}, false, verrors.Wrap(verrors.Corrupt, "catalog", "Lookup", "unmarshal entry "+name, err)
	}
	return entry, true, nil
}

// Evict removes archiveKey's cached index for name, for callers that
// overwrite an archive entry in place.
func (c *Catalog) Evict(ctx context.Context, archiveKey, name string) error {
	if err := c.client.Del(ctx, key(archiveKey, name)).Err(); err != nil {
		return verrors.Wrap(verrors.Incompatible, "catalog", "Evict", "redis del "+name, err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (c *Catalog) Close() error {
	if err := c.client.Close(); err != nil {
		vlog.WithError(err).Warn("catalog: error closing redis client")
		return err
	}
	return nil
}
