package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"ivr-report/config"
	"ivr-report/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	tests := map[string]struct {
		cfg      config.LogConfig
		logDebug bool
		contains []string
		empty    bool
	}{
		"JSON": {
			cfg:      config.LogConfig{Level: "info", Format: "json"},
			contains: []string{`"level":"info"`, `"message":"hello"`, `"file":"a.csv"`},
		},
		"Console": {
			cfg:      config.LogConfig{Level: "info", Format: "console"},
			contains: []string{"hello", "file=", "a.csv"},
		},
		"LevelFilters": {
			cfg:   config.LogConfig{Level: "warn", Format: "json"},
			empty: true,
		},
		"DebugEnabled": {
			cfg:      config.LogConfig{Level: "debug", Format: "json"},
			logDebug: true,
			contains: []string{`"level":"debug"`},
		},
		"BadLevelDefaultsToInfo": {
			cfg:      config.LogConfig{Level: "loud", Format: "json"},
			contains: []string{`"message":"hello"`},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := logging.NewWithWriter(tt.cfg, &buf)
			if tt.logDebug {
				logger.Debug().Str("file", "a.csv").Msg("hello")
			} else {
				logger.Info().Str("file", "a.csv").Msg("hello")
			}

			if tt.empty {
				assert.Empty(t, buf.String())
				return
			}
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ivr.log")
	var console bytes.Buffer

	logger := logging.NewWithWriter(config.LogConfig{Level: "info", Format: "console", File: path, MaxSizeMB: 1}, &console)
	logger.Info().Int("rows", 3).Msg("stored")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "stored", entry["message"])
	assert.Equal(t, float64(3), entry["rows"])
	assert.Contains(t, console.String(), "stored")
}
