package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"cmrdocs/pkg/models"
)

const keyPrefix = "analysis:"

// BadgerCache persists records as JSON in a badger database so results
// survive restarts.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadger opens (or creates) the database in dir. An empty dir opens an
// in-memory database.
func OpenBadger(dir string, ttl time.Duration) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &BadgerCache{db: db, ttl: ttl}, nil
}

func (b *BadgerCache) Get(_ context.Context, key string) (models.DocumentRecord, bool, error) {
	var rec models.DocumentRecord
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return models.DocumentRecord{}, false, nil
	}
	if err != nil {
		return models.DocumentRecord{}, false, fmt.Errorf("read cache entry: %w", err)
	}
	return rec, true, nil
}

func (b *BadgerCache) Set(_ context.Context, key string, rec models.DocumentRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(keyPrefix+key), value)
		if b.ttl > 0 {
			e = e.WithTTL(b.ttl)
		}
		return txn.SetEntry(e)
	})
}

func (b *BadgerCache) Close() error {
	return b.db.Close()
}
