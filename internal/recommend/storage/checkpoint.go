// Tastegraph - Recommendation & Preference Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tastegraph

package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// ErrCheckpointsClosed indicates the checkpoint store has been closed.
var ErrCheckpointsClosed = errors.New("checkpoint store is closed")

// Checkpoints records which users a sweep cycle has already refreshed, so a
// restarted sweep resumes instead of starting over.
type Checkpoints interface {
	// Mark records userID as refreshed in cycle.
	Mark(ctx context.Context, cycle string, userID int64) error

	// Done reports whether userID was refreshed in cycle.
	Done(ctx context.Context, cycle string, userID int64) (bool, error)

	// Close releases resources.
	Close() error
}

// checkpointEntry is the JSON value stored per user.
type checkpointEntry struct {
	Cycle       string    `json:"cycle"`
	UserID      int64     `json:"user_id"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// BadgerCheckpoints stores checkpoints in BadgerDB with a TTL, so entries of
// old cycles disappear on their own.
type BadgerCheckpoints struct {
	db     *badger.DB
	ttl    time.Duration
	prefix []byte
	ownsDB bool

	mu     sync.RWMutex
	closed bool
}

var _ Checkpoints = (*BadgerCheckpoints)(nil)

// OpenBadgerCheckpoints opens a checkpoint store at path. An empty path
// opens an in-memory database.
func OpenBadgerCheckpoints(path string, ttl time.Duration) (*BadgerCheckpoints, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store: %w", err)
	}
	cp := NewBadgerCheckpoints(db, ttl)
	cp.ownsDB = true
	return cp, nil
}

// NewBadgerCheckpoints wraps an existing database. The caller keeps
// ownership of db.
func NewBadgerCheckpoints(db *badger.DB, ttl time.Duration) *BadgerCheckpoints {
	return &BadgerCheckpoints{
		db:     db,
		ttl:    ttl,
		prefix: []byte("sweep:"),
	}
}

func (c *BadgerCheckpoints) key(cycle string, userID int64) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d", c.prefix, cycle, userID))
}

func (c *BadgerCheckpoints) checkOpen() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrCheckpointsClosed
	}
	return nil
}

// Mark implements Checkpoints.
func (c *BadgerCheckpoints) Mark(_ context.Context, cycle string, userID int64) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	data, err := json.Marshal(checkpointEntry{Cycle: cycle, UserID: userID, RefreshedAt: time.Now()})
	if err != nil {
		return err
	}

	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(c.key(cycle, userID), data).WithTTL(c.ttl)
		return txn.SetEntry(e)
	})
}

// Done implements Checkpoints.
func (c *BadgerCheckpoints) Done(_ context.Context, cycle string, userID int64) (bool, error) {
	if err := c.checkOpen(); err != nil {
		return false, err
	}

	var done bool
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(c.key(cycle, userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		done = true
		return nil
	})
	return done, err
}

// Count returns the number of users checkpointed in cycle.
func (c *BadgerCheckpoints) Count(_ context.Context, cycle string) (int, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}

	count := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(fmt.Sprintf("%s%s:", c.prefix, cycle))
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Close implements Checkpoints. The database is closed only when it was
// opened by OpenBadgerCheckpoints.
func (c *BadgerCheckpoints) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.ownsDB {
		return c.db.Close()
	}
	return nil
}
