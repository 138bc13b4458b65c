// fitsync - Fitbit data synchronization into a relational store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitsync

package archive

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/goccy/go-json"

	"github.com/tomtom215/fitsync/internal/config"
	"github.com/tomtom215/fitsync/internal/logging"
	"github.com/tomtom215/fitsync/internal/metrics"
)

var (
	// ErrNotFound is returned when no body is archived for a stream and date.
	ErrNotFound = errors.New("archive entry not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("archive is closed")
)

const keyPrefix = "raw:"

// Entry is one archived response.
type Entry struct {
	Stream    string    `json:"stream"`
	Date      time.Time `json:"date"`
	Path      string    `json:"path"`
	FetchedAt time.Time `json:"fetched_at"`
	Size      int       `json:"size"`
	Body      []byte    `json:"body,omitempty"`
}

// Archive stores raw bodies in BadgerDB.
type Archive struct {
	db     *badger.DB
	ttl    time.Duration
	now    func() time.Time
	mu     sync.RWMutex
	closed bool
}

// Open opens (or creates) the archive at cfg.Path.
func Open(cfg config.ArchiveConfig) (*Archive, error) {
	opts := badger.DefaultOptions(cfg.Path)
	opts.Compression = options.Snappy
	opts.Logger = nil

	return open(opts, cfg.TTL, cfg.Path)
}

// OpenInMemory opens a non-persistent archive, for tests and dry runs.
func OpenInMemory(ttl time.Duration) (*Archive, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	return open(opts, ttl, ":memory:")
}

func open(opts badger.Options, ttl time.Duration, path string) (*Archive, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	logging.Info().
		Str("path", path).
		Dur("ttl", ttl).
		Msg("Archive opened")
	return &Archive{db: db, ttl: ttl, now: time.Now}, nil
}

func entryKey(stream string, date time.Time) []byte {
	return []byte(keyPrefix + stream + ":" + date.Format(time.DateOnly))
}

// Put archives body for (stream, date), replacing any earlier body.
func (a *Archive) Put(ctx context.Context, stream string, date time.Time, path string, body []byte) (err error) {
	defer func() { metrics.RecordArchiveWrite(stream, err) }()

	if err := a.checkOpen(ctx); err != nil {
		return err
	}

	entry := Entry{
		Stream:    stream,
		Date:      date.UTC(),
		Path:      path,
		FetchedAt: a.now().UTC(),
		Size:      len(body),
		Body:      body,
	}
	data, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	err = a.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(entryKey(stream, date), data)
		if a.ttl > 0 {
			e = e.WithTTL(a.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("write to BadgerDB: %w", err)
	}
	return nil
}

// Get returns the archived body for (stream, date).
func (a *Archive) Get(ctx context.Context, stream string, date time.Time) (*Entry, error) {
	if err := a.checkOpen(ctx); err != nil {
		return nil, err
	}

	var entry Entry
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(entryKey(stream, date))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("read archive entry: %w", err)
	}
	return &entry, nil
}

// List returns the entries archived for stream, or for every stream when
// stream is empty, in key order. Bodies are omitted.
func (a *Archive) List(ctx context.Context, stream string) ([]Entry, error) {
	if err := a.checkOpen(ctx); err != nil {
		return nil, err
	}

	prefix := []byte(keyPrefix)
	if stream != "" {
		prefix = []byte(keyPrefix + stream + ":")
	}

	var entries []Entry
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			item := it.Item()
			var entry Entry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				logging.Warn().Err(err).Str("key", string(item.Key())).Msg("Archive failed to unmarshal entry")
				continue
			}
			entry.Body = nil
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate archive: %w", err)
	}
	return entries, nil
}

// Delete removes every entry for stream. It returns the number removed.
func (a *Archive) Delete(ctx context.Context, stream string) (int, error) {
	if err := a.checkOpen(ctx); err != nil {
		return 0, err
	}
	if strings.TrimSpace(stream) == "" {
		return 0, fmt.Errorf("stream is required")
	}

	prefix := []byte(keyPrefix + stream + ":")
	count := 0
	err := a.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		// Collect keys to delete (can't delete while iterating)
		var keysToDelete [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keysToDelete = append(keysToDelete, it.Item().KeyCopy(nil))
		}

		for _, key := range keysToDelete {
			if err := txn.Delete(key); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete archive entries: %w", err)
	}
	return count, nil
}

// CollectGarbage reclaims value log space left by overwritten and expired
// entries. It runs until Badger reports nothing left to rewrite.
func (a *Archive) CollectGarbage(ratio float64) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	for {
		err := a.db.RunValueLogGC(ratio)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("value log GC: %w", err)
		}
	}
}

// Close flushes and closes the database. It is safe to call more than once.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.db.Close()
}

func (a *Archive) checkOpen(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	return nil
}
