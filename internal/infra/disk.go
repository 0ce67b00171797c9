package infra

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/seenimoa/fraudscope/internal/metrics"
)

// DiskCacheConfig configures a DiskCache.
type DiskCacheConfig struct {
	// Dir is the database directory. Required unless InMemory is set.
	Dir string

	// InMemory keeps everything in memory (for tests).
	InMemory bool

	// TTL applied by Set.
	TTL time.Duration

	Logger *slog.Logger
}

// DiskCache is a persistent TTL cache on BadgerDB. It survives restarts,
// so repeated analyses of the same company skip EDGAR entirely.
type DiskCache struct {
	db  *badger.DB
	ttl time.Duration
}

// badgerLogger routes badger's internal logging to slog.
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

// OpenDiskCache opens (or creates) the cache database.
func OpenDiskCache(cfg DiskCacheConfig) (*DiskCache, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, errors.New("disk cache: directory is required")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0750); err != nil {
			return nil, fmt.Errorf("create cache directory %s: %w", cfg.Dir, err)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open disk cache: %w", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &DiskCache{db: db, ttl: ttl}, nil
}

// Get returns the stored value for key. Missing and expired keys report false.
func (d *DiskCache) Get(key string) ([]byte, bool, error) {
	var value []byte
	err := d.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("disk cache get %s: %w", key, err)
	}
	metrics.CacheHit(metrics.TierDisk)
	return value, true, nil
}

// Set stores value under key with the configured TTL.
func (d *DiskCache) Set(key string, value []byte) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(key), value).WithTTL(d.ttl))
	})
	if err != nil {
		return fmt.Errorf("disk cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (d *DiskCache) Delete(key string) error {
	err := d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("disk cache delete %s: %w", key, err)
	}
	return nil
}

// Clear drops every entry.
func (d *DiskCache) Clear() error {
	if err := d.db.DropAll(); err != nil {
		return fmt.Errorf("disk cache clear: %w", err)
	}
	return nil
}

// Close flushes and closes the database.
func (d *DiskCache) Close() error {
	return d.db.Close()
}
