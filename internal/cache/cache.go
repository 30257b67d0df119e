// Package cache stores normalized analysis results keyed by the content hash
// of the uploaded document.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"cmrdocs/pkg/models"
)

// Cache maps a content key to a normalized record. Implementations are safe
// for concurrent use; an entry is never modified after it is written.
type Cache interface {
	Get(ctx context.Context, key string) (models.DocumentRecord, bool, error)
	Set(ctx context.Context, key string, rec models.DocumentRecord) error
	Close() error
}

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendNone   = "none"
)

// Options configures New.
type Options struct {
	Backend    string
	Dir        string        // badger directory
	TTL        time.Duration // zero keeps entries until evicted
	MaxEntries int64         // memory backend capacity
}

// Key returns the hex sha256 of data.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// New builds the cache selected by opts.Backend.
func New(opts Options) (Cache, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendMemory:
		return NewMemory(opts.MaxEntries, opts.TTL)
	case BackendBadger:
		return OpenBadger(opts.Dir, opts.TTL)
	case BackendNone:
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (models.DocumentRecord, bool, error) {
	return models.DocumentRecord{}, false, nil
}

func (Nop) Set(context.Context, string, models.DocumentRecord) error { return nil }

func (Nop) Close() error { return nil }
