// Package cache keeps successful extraction outcomes in a bbolt file keyed
// by content hash, so re-uploading the same document skips extraction.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/sanjeevkumarraob/study-material-service/internal/document"
)

var bucketName = []byte("outcomes")

// Cache stores document.Outcome values in a bbolt database.
type Cache struct {
	db     *bolt.DB
	logger *zap.Logger
}

// Open opens (or creates) the cache file at path.
func Open(path string, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for cache: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Cache{db: db, logger: logger}, nil
}

// Key identifies src by the SHA-256 of its bytes, its classified format and
// any declared charset. The same bytes uploaded under a different type or
// charset decode differently, so they are cached separately.
func Key(src document.Source) string {
	sum := sha256.Sum256(src.Data)
	key := hex.EncodeToString(sum[:]) + ":" + string(document.Classify(src.MIMEType, src.Filename))
	if _, params, err := mime.ParseMediaType(src.MIMEType); err == nil {
		if cs := strings.ToLower(strings.TrimSpace(params["charset"])); cs != "" {
			key += ":" + cs
		}
	}
	return key
}

// Get returns the outcome stored under key.
func (c *Cache) Get(key string) (document.Outcome, bool, error) {
	var (
		out   document.Outcome
		found bool
	)
	err := c.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &out)
	})
	if err != nil {
		return document.Outcome{}, false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return out, found, nil
}

// Put stores out under key. Unsuccessful outcomes are not stored so a
// later attempt with a working engine can do better.
func (c *Cache) Put(key string, out document.Outcome) error {
	if !out.Succeeded {
		return nil
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), data)
	})
}

// Cached returns the stored outcome for src, or runs extract and stores its
// result. Cache errors are logged and never fail the extraction.
func (c *Cache) Cached(ctx context.Context, src document.Source, extract func(context.Context, document.Source) document.Outcome) document.Outcome {
	key := Key(src)

	out, found, err := c.Get(key)
	if err != nil {
		c.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
	}
	if found {
		c.logger.Debug("cache hit", zap.String("key", key))
		return out
	}

	out = extract(ctx, src)
	if err := c.Put(key, out); err != nil {
		c.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
	}
	return out
}

// Len returns the number of cached outcomes.
func (c *Cache) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).ForEach(func(k, v []byte) error {
			n++
			return nil
		})
	})
	return n, err
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

var _ document.OutcomeCache = (*Cache)(nil)
