// Package store provides the key-value persistence the repository and the
// report cache write their snapshots to. Every backend stores opaque JSON
// documents under a small set of well-known keys.
package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	customerrors "ivr-report/errors"
	"ivr-report/metrics"

	"github.com/rs/zerolog"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendDynamo   = "dynamodb"
	BackendMongo    = "mongo"
)

// Store is a minimal key-value interface. Get returns ErrKeyNotFound for keys
// that were never written.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Backend string `env:"STORE_BACKEND" envDefault:"file" validate:"oneof=memory file postgres dynamodb mongo"`
	Path    string `env:"STORE_PATH" envDefault:".ivr-report"`

	PostgresURL   string `env:"POSTGRES_URL" validate:"required_if=Backend postgres"`
	PostgresTable string `env:"POSTGRES_TABLE" envDefault:"ivr_report_kv"`

	Dynamo DynamoConfig

	MongoURI        string `env:"MONGO_URI" validate:"required_if=Backend mongo"`
	MongoDatabase   string `env:"MONGO_DATABASE" envDefault:"ivr_report"`
	MongoCollection string `env:"MONGO_COLLECTION" envDefault:"kv"`
}

// Open builds the backend named by cfg.Backend.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case BackendMemory:
		s = NewMemory()
	case BackendFile, "":
		s, err = NewFile(cfg.Path)
	case BackendPostgres:
		s, err = NewPostgres(ctx, cfg.PostgresURL, cfg.PostgresTable)
	case BackendDynamo:
		var d *Dynamo
		if d, err = NewDynamo(ctx, cfg.Dynamo, logger); err == nil {
			s = Chunk(d, DynamoMaxValueSize)
		}
	case BackendMongo:
		var m *Mongo
		if m, err = NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection); err == nil {
			s = Chunk(m, MongoMaxValueSize)
		}
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}

	logger.Debug().Str("backend", cfg.Backend).Msg("store opened")
	return Instrument(s, cfg.Backend), nil
}

// Memory keeps values in process memory. Values are copied on the way in and
// out so callers cannot alias stored bytes.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", customerrors.ErrKeyNotFound, key)
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Close() error { return nil }

// instrumented records per-operation latency for any backend.
type instrumented struct {
	Store
	backend string
}

// Instrument wraps s so that Get and Put are timed under the given backend
// label.
func Instrument(s Store, backend string) Store {
	return &instrumented{Store: s, backend: backend}
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	defer i.observe("get", time.Now())
	return i.Store.Get(ctx, key)
}

func (i *instrumented) Put(ctx context.Context, key string, value []byte) error {
	defer i.observe("put", time.Now())
	return i.Store.Put(ctx, key, value)
}

func (i *instrumented) observe(op string, start time.Time) {
	metrics.StoreOperationDurationSeconds.WithLabelValues(i.backend, op).Observe(time.Since(start).Seconds())
}
