// Package settings resolves cmdsieve's runtime settings from command-line
// flags, CMDSIEVE_* environment variables and defaults, in that order.
package settings

import (
	"fmt"
	"strings"
	"time"

	"github.com/atinylittleshell/cmdsieve/internal/templates"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// EnvPrefix is prepended to setting names to form environment variables,
// e.g. CMDSIEVE_LOG_LEVEL.
const EnvPrefix = "CMDSIEVE"

// Setting keys. Flags bound to viper use the same names with dashes.
const (
	KeyLogLevel   = "log_level"
	KeyCacheTTL   = "cache_ttl"
	KeyHistory    = "history"
	KeyConfigFile = "config_file"
)

// Settings holds the resolved runtime settings.
type Settings struct {
	LogLevel   zap.AtomicLevel
	CacheTTL   time.Duration
	History    bool
	ConfigFile string
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyCacheTTL, templates.DefaultCacheTTL)
	v.SetDefault(KeyHistory, true)
	v.SetDefault(KeyConfigFile, templates.DefaultConfigFile)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads Settings from v.
func Load(v *viper.Viper) (*Settings, error) {
	level, err := zap.ParseAtomicLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyLogLevel, err)
	}

	ttl := v.GetDuration(KeyCacheTTL)
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid %s: must be positive, got %s", KeyCacheTTL, ttl)
	}

	configFile := v.GetString(KeyConfigFile)
	if configFile == "" {
		configFile = templates.DefaultConfigFile
	}

	return &Settings{
		LogLevel:   level,
		CacheTTL:   ttl,
		History:    v.GetBool(KeyHistory),
		ConfigFile: configFile,
	}, nil
}
