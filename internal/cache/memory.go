package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"cmrdocs/pkg/models"
)

const defaultMaxEntries = 10_000

// MemoryCache keeps records in process memory. Every entry costs 1, so
// maxEntries bounds the number of records held.
type MemoryCache struct {
	cache *ristretto.Cache[string, models.DocumentRecord]
	ttl   time.Duration
}

// NewMemory creates a ristretto backed cache.
func NewMemory(maxEntries int64, ttl time.Duration) (*MemoryCache, error) {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, models.DocumentRecord]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create memory cache: %w", err)
	}
	return &MemoryCache{cache: c, ttl: ttl}, nil
}

func (m *MemoryCache) Get(_ context.Context, key string) (models.DocumentRecord, bool, error) {
	rec, ok := m.cache.Get(key)
	return rec, ok, nil
}

// Set stores rec and waits until the write is visible to Get.
func (m *MemoryCache) Set(_ context.Context, key string, rec models.DocumentRecord) error {
	if !m.cache.SetWithTTL(key, rec, 1, m.ttl) {
		return fmt.Errorf("memory cache rejected key %s", key)
	}
	m.cache.Wait()
	return nil
}

func (m *MemoryCache) Close() error {
	m.cache.Close()
	return nil
}
