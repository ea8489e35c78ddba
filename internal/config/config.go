package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bhandras/agbridge/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "AGB"

// Keys understood in config files and, upper-cased with EnvPrefix, in the
// environment.
const (
	KeyAddr              = "addr"
	KeyDataDir           = "data_dir"
	KeyPolicyFile        = "policy_file"
	KeyWakerCmd          = "waker_cmd"
	KeyWakerTimeout      = "waker_timeout"
	KeyDebug             = "debug"
	KeyJournal           = "journal"
	KeyAllowedOrigins    = "allowed_origins"
	KeyStrictModeDefault = "strict_mode_default"
	KeyLogLevel          = "log_level"
	KeyDevPruneJournal   = "dev_prune_journal"
)

// Config holds bridge configuration.
type Config struct {
	// Addr is the HTTP listen address.
	Addr       string
	DataDir    string
	PolicyFile string
	// WakerCmd is the command line of the external waker process.
	WakerCmd     string
	WakerTimeout time.Duration
	Debug        bool
	// Journal enables the SQLite audit journal.
	Journal        bool
	AllowedOrigins []string
	// StrictModeDefault seeds strict mode when no snapshot exists yet.
	StrictModeDefault bool
	LogLevel          logger.Level
	// DevPruneJournal empties the audit journal at startup.
	DevPruneJournal bool
}

// StatePath is the snapshot file location.
func (c *Config) StatePath() string { return filepath.Join(c.DataDir, "state.json") }

// JournalPath is the audit journal database location.
func (c *Config) JournalPath() string { return filepath.Join(c.DataDir, "journal.db") }

// Overrides optionally overrides values from files and the environment.
//
// A nil pointer means "use the environment/default value".
type Overrides struct {
	ConfigFile *string
	EnvFile    *string
	Addr       *string
	DataDir    *string
	PolicyFile *string
	WakerCmd   *string
	Debug      *bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyAddr, "0.0.0.0:8787")
	v.SetDefault(KeyDataDir, "./data")
	v.SetDefault(KeyPolicyFile, "./policy.json")
	v.SetDefault(KeyWakerCmd, "node scripts/poke.mjs")
	v.SetDefault(KeyWakerTimeout, "30s")
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyJournal, true)
	v.SetDefault(KeyAllowedOrigins, []string{"*"})
	v.SetDefault(KeyStrictModeDefault, true)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyDevPruneJournal, false)
}

// Load resolves configuration from, lowest to highest precedence: defaults,
// the optional config file, the .env file, AGB_* environment variables and
// explicit overrides.
func Load(v *viper.Viper, overrides Overrides) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	envFile := ".env"
	if overrides.EnvFile != nil {
		envFile = *overrides.EnvFile
	}
	if envFile != "" {
		// godotenv never replaces variables already present in the process.
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	if overrides.ConfigFile != nil && *overrides.ConfigFile != "" {
		v.SetConfigFile(*overrides.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	cfg := &Config{
		Addr:              pick(overrides.Addr, v.GetString(KeyAddr)),
		DataDir:           pick(overrides.DataDir, v.GetString(KeyDataDir)),
		PolicyFile:        pick(overrides.PolicyFile, v.GetString(KeyPolicyFile)),
		WakerCmd:          pick(overrides.WakerCmd, v.GetString(KeyWakerCmd)),
		WakerTimeout:      v.GetDuration(KeyWakerTimeout),
		Debug:             pick(overrides.Debug, v.GetBool(KeyDebug)),
		Journal:           v.GetBool(KeyJournal),
		AllowedOrigins:    splitList(v.GetStringSlice(KeyAllowedOrigins)),
		StrictModeDefault: v.GetBool(KeyStrictModeDefault),
		DevPruneJournal:   v.GetBool(KeyDevPruneJournal),
	}

	level, err := logger.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", KeyLogLevel, err)
	}
	cfg.LogLevel = level
	if cfg.Debug && level > logger.LevelDebug {
		cfg.LogLevel = logger.LevelDebug
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("addr must not be empty")
	}
	if c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	if c.WakerTimeout <= 0 {
		return fmt.Errorf("waker_timeout must be positive, got %s", c.WakerTimeout)
	}
	if strings.TrimSpace(c.WakerCmd) == "" {
		return errors.New("waker_cmd must not be empty")
	}
	return nil
}

func pick[T any](override *T, fallback T) T {
	if override != nil {
		return *override
	}
	return fallback
}

// splitList accepts both list values and comma separated strings.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
