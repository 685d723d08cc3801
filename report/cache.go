package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	customerrors "ivr-report/errors"
	"ivr-report/models"
	"ivr-report/store"
)

// CacheKey is the store key holding the persisted report cache.
const CacheKey = "report_cache"

// Cache memoizes report results by signature. It is read from the store on
// first use and written back in full after every insert. Entries are never
// evicted.
type Cache struct {
	mu      sync.Mutex
	store   store.Store
	loaded  bool
	entries map[string]*models.ReportResult
}

func NewCache(s store.Store) *Cache {
	return &Cache{store: s}
}

// Get returns the cached pointer itself, so repeated hits are identical.
func (c *Cache) Get(ctx context.Context, signature string) (*models.ReportResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(ctx); err != nil {
		return nil, false, err
	}
	r, ok := c.entries[signature]
	return r, ok, nil
}

func (c *Cache) Put(ctx context.Context, signature string, result *models.ReportResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(ctx); err != nil {
		return err
	}
	c.entries[signature] = result

	data, err := json.Marshal(c.entries)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}
	if err := c.store.Put(ctx, CacheKey, data); err != nil {
		return fmt.Errorf("save report cache: %w", err)
	}
	return nil
}

// Len reports the number of cached results.
func (c *Cache) Len(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(ctx); err != nil {
		return 0, err
	}
	return len(c.entries), nil
}

// Raw returns the persisted form of every cached result.
func (c *Cache) Raw(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.load(ctx); err != nil {
		return nil, err
	}
	data, err := json.Marshal(c.entries)
	if err != nil {
		return nil, fmt.Errorf("encode report cache: %w", err)
	}
	return data, nil
}

// Replace discards every entry, in memory and in the store, in favour of
// entries. Later Puts build on the replacement.
func (c *Cache) Replace(ctx context.Context, entries map[string]*models.ReportResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entries == nil {
		entries = make(map[string]*models.ReportResult)
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode report cache: %w", err)
	}
	if err := c.store.Put(ctx, CacheKey, data); err != nil {
		return fmt.Errorf("save report cache: %w", err)
	}

	c.entries = entries
	c.loaded = true
	return nil
}

// DecodeCache parses a persisted cache. Empty input and JSON null decode to
// an empty cache.
func DecodeCache(data []byte) (map[string]*models.ReportResult, error) {
	entries := make(map[string]*models.ReportResult)
	if len(bytes.TrimSpace(data)) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = make(map[string]*models.ReportResult)
	}
	return entries, nil
}

func (c *Cache) load(ctx context.Context) error {
	if c.loaded {
		return nil
	}

	entries := make(map[string]*models.ReportResult)
	data, err := c.store.Get(ctx, CacheKey)
	switch {
	case errors.Is(err, customerrors.ErrKeyNotFound):
	case err != nil:
		return fmt.Errorf("load report cache: %w", err)
	default:
		if entries, err = DecodeCache(data); err != nil {
			return fmt.Errorf("decode report cache: %w", err)
		}
	}

	c.entries = entries
	c.loaded = true
	return nil
}
