// Package cache stores example check verdicts in BadgerDB so unchanged
// examples are not re-checked on the next run.
//
// Keys are the SHA-256 of backend, dialect and source, so a verdict is
// reused only when all three match. Only pass and fail verdicts are stored;
// timeouts and backend failures are always retried.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/specialistvlad/refgraph/internal/ctxlog"
)

const keyPrefix = "check/v1/"

// Verdict is a cached check result.
type Verdict struct {
	Passed    bool      `json:"passed"`
	Line      int       `json:"line,omitempty"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Cache is a verdict store. It is safe for concurrent use.
type Cache struct {
	db *badger.DB
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface. Badger's
// info chatter is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens (or creates) the cache in dir.
func Open(ctx context.Context, dir string) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory %s: %w", dir, err)
	}
	return open(ctx, badger.DefaultOptions(dir))
}

// OpenInMemory opens a cache that lives only as long as the process.
func OpenInMemory(ctx context.Context) (*Cache, error) {
	return open(ctx, badger.DefaultOptions("").WithInMemory(true))
}

func open(ctx context.Context, opts badger.Options) (*Cache, error) {
	logger := ctxlog.FromContext(ctx).With("component", "cache")
	opts = opts.
		WithNumVersionsToKeep(1).
		WithLogger(&badgerLogger{logger: logger})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Key derives the cache key of one check.
func Key(backend, dialect, source string) []byte {
	h := sha256.New()
	for _, part := range []string{backend, dialect, source} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return []byte(keyPrefix + hex.EncodeToString(h.Sum(nil)))
}

// Get returns the verdict stored under key. ok is false on a miss.
func (c *Cache) Get(ctx context.Context, key []byte) (v Verdict, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return Verdict{}, false, err
	}
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Verdict{}, false, nil
	}
	if err != nil {
		return Verdict{}, false, fmt.Errorf("read cache entry: %w", err)
	}
	return v, true, nil
}

// Put stores a verdict under key.
func (c *Cache) Put(ctx context.Context, key []byte, v Verdict) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	}); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Len returns the number of stored verdicts.
func (c *Cache) Len() (int, error) {
	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Close flushes and closes the store.
func (c *Cache) Close() error {
	return c.db.Close()
}
