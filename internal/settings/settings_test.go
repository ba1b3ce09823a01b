package settings

import (
	"testing"
	"time"

	"github.com/atinylittleshell/cmdsieve/internal/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(New())

	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, s.LogLevel.Level())
	assert.Equal(t, templates.DefaultCacheTTL, s.CacheTTL)
	assert.True(t, s.History)
	assert.Equal(t, templates.DefaultConfigFile, s.ConfigFile)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("CMDSIEVE_LOG_LEVEL", "debug")
	t.Setenv("CMDSIEVE_CACHE_TTL", "5s")
	t.Setenv("CMDSIEVE_HISTORY", "false")
	t.Setenv("CMDSIEVE_CONFIG_FILE", "tools/sieve.yaml")

	s, err := Load(New())

	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, s.LogLevel.Level())
	assert.Equal(t, 5*time.Second, s.CacheTTL)
	assert.False(t, s.History)
	assert.Equal(t, "tools/sieve.yaml", s.ConfigFile)
}

func TestLoad_ExplicitValuesWinOverEnvironment(t *testing.T) {
	t.Setenv("CMDSIEVE_LOG_LEVEL", "debug")

	v := New()
	v.Set(KeyLogLevel, "warn")

	s, err := Load(v)

	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, s.LogLevel.Level())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"unknown log level", KeyLogLevel, "loud"},
		{"zero ttl", KeyCacheTTL, "0s"},
		{"negative ttl", KeyCacheTTL, "-1m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			assert.ErrorContains(t, err, tt.key)
		})
	}
}

func TestLoad_EmptyConfigFileFallsBackToDefault(t *testing.T) {
	v := New()
	v.Set(KeyConfigFile, "")

	s, err := Load(v)

	require.NoError(t, err)
	assert.Equal(t, templates.DefaultConfigFile, s.ConfigFile)
}
