package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "equitylens/internal/errors"
	"equitylens/pkg/contracts/domain"
)

// CacheKey identifies one cached artifact. Entries are immutable once
// written: the same (symbol, kind, as-of date) always resolves to the same
// bytes, so a re-fetch can only ever add a new as-of date.
type CacheKey struct {
	Symbol string
	Kind   domain.DataKind
	AsOf   time.Time
}

// String returns the stable cache-file stem for the key.
func (k CacheKey) String() string {
	symbol := strings.ReplaceAll(k.Symbol, ".", "_")
	return fmt.Sprintf("%s_%s_%s", symbol, k.Kind, k.AsOf.Format("2006-01-02"))
}

// Cache is a file-backed JSON artifact store with single-flight fetch
// deduplication: concurrent requests for the same key share one in-flight
// fetch instead of hammering a rate-limited provider.
type Cache struct {
	dir    string
	logger *slog.Logger
	group  singleflight.Group
}

// NewCache opens (creating if needed) a cache rooted at dir.
func NewCache(dir string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.NewStorageError("create cache directory", err)
	}
	return &Cache{dir: dir, logger: logger}, nil
}

// GetOrFetch returns the cached artifact for key, fetching and persisting it
// on a miss. dest receives the unmarshaled artifact; fetch must return a
// JSON-marshalable value. Concurrent callers with the same key are collapsed
// into one fetch.
func (c *Cache) GetOrFetch(ctx context.Context, key CacheKey, dest interface{}, fetch func(ctx context.Context) (interface{}, error)) error {
	path := c.path(key)
	if c.readInto(path, dest) {
		c.logger.DebugContext(ctx, "cache hit",
			slog.String("key", key.String()))
		return nil
	}

	raw, err, shared := c.group.Do(key.String(), func() (interface{}, error) {
		// Another flight may have written the entry while this one queued.
		if data, err := os.ReadFile(path); err == nil {
			return data, nil
		}
		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, apperrors.NewStorageError("encode cache entry", err)
		}
		if err := c.write(path, data); err != nil {
			return nil, err
		}
		c.logger.InfoContext(ctx, "cache entry written",
			slog.String("key", key.String()),
			slog.Int("bytes", len(data)),
		)
		return data, nil
	})
	if err != nil {
		return err
	}
	if shared {
		c.logger.DebugContext(ctx, "fetch deduplicated",
			slog.String("key", key.String()))
	}
	if err := json.Unmarshal(raw.([]byte), dest); err != nil {
		return apperrors.NewStorageError("decode cache entry", err)
	}
	return nil
}

// Has reports whether the key is already persisted.
func (c *Cache) Has(key CacheKey) bool {
	_, err := os.Stat(c.path(key))
	return err == nil
}

func (c *Cache) path(key CacheKey) string {
	return filepath.Join(c.dir, key.String()+".json")
}

func (c *Cache) readInto(path string, dest interface{}) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// write persists atomically via a temp file so a crashed process never
// leaves a truncated entry behind.
func (c *Cache) write(path string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, ".cache-*")
	if err != nil {
		return apperrors.NewStorageError("create cache temp file", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.NewStorageError("write cache entry", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStorageError("close cache temp file", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperrors.NewStorageError("publish cache entry", err)
	}
	return nil
}
