package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"ivr-report/config"
	"ivr-report/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)

	assert.Equal(t, store.BackendFile, cfg.Store.Backend)
	assert.Equal(t, ".ivr-report", cfg.Store.Path)
	assert.Equal(t, store.DynamoModeLocal, cfg.Store.Dynamo.Mode)
	assert.Equal(t, "ivr-report-kv", cfg.Store.Dynamo.Table)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 4, cfg.ImportConcurrency)
	assert.Equal(t, int64(32<<20), cfg.ImportMaxFileSize)
}

func TestLoadFromEnvironment(t *testing.T) {
	tests := map[string]struct {
		env     map[string]string
		check   func(t *testing.T, cfg *config.Config)
		wantErr bool
	}{
		"MemoryBackend": {
			env: map[string]string{"STORE_BACKEND": "memory", "IMPORT_CONCURRENCY": "8", "LOG_FORMAT": "json"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, store.BackendMemory, cfg.Store.Backend)
				assert.Equal(t, 8, cfg.ImportConcurrency)
				assert.Equal(t, "json", cfg.Log.Format)
			},
		},
		"PostgresNeedsURL": {
			env:     map[string]string{"STORE_BACKEND": "postgres"},
			wantErr: true,
		},
		"PostgresWithURL": {
			env: map[string]string{"STORE_BACKEND": "postgres", "POSTGRES_URL": "postgres://localhost/ivr"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "ivr_report_kv", cfg.Store.PostgresTable)
			},
		},
		"MongoNeedsURI": {
			env:     map[string]string{"STORE_BACKEND": "mongo"},
			wantErr: true,
		},
		"DynamoAWS": {
			env: map[string]string{"STORE_BACKEND": "dynamodb", "DYNAMO_MODE": "aws", "DYNAMO_REGION": "us-east-1"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, store.DynamoModeAWS, cfg.Store.Dynamo.Mode)
				assert.Equal(t, "us-east-1", cfg.Store.Dynamo.Region)
			},
		},
		"UnknownBackend":  {env: map[string]string{"STORE_BACKEND": "redis"}, wantErr: true},
		"BadDynamoMode":   {env: map[string]string{"DYNAMO_MODE": "none"}, wantErr: true},
		"ZeroConcurrency": {env: map[string]string{"IMPORT_CONCURRENCY": "0"}, wantErr: true},
		"NotANumber":      {env: map[string]string{"IMPORT_CONCURRENCY": "many"}, wantErr: true},
		"BadLogLevel":     {env: map[string]string{"LOG_LEVEL": "loud"}, wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("STORE_BACKEND=memory\nLOG_LEVEL=debug\n"), 0o644))

	// The process environment wins over the file.
	t.Setenv("LOG_LEVEL", "warn")
	t.Cleanup(func() { os.Unsetenv("STORE_BACKEND") })

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, store.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "warn", cfg.Log.Level)
}
