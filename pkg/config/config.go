// Package config loads daybook settings. Sources, lowest precedence first:
// built-in defaults, a YAML config file, a .env file and DAYBOOK_* environment
// variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/unowned-ai/daybook/pkg/db"
	"github.com/unowned-ai/daybook/pkg/journal"
	"github.com/unowned-ai/daybook/pkg/logging"
	"github.com/unowned-ai/daybook/pkg/stores"
	"github.com/unowned-ai/daybook/pkg/utils"
)

// EnvPrefix is prepended to every environment variable, e.g. DAYBOOK_DB_PATH.
const EnvPrefix = "DAYBOOK"

type Config struct {
	DB        DBConfig        `mapstructure:"db" yaml:"db"`
	Retention RetentionConfig `mapstructure:"retention" yaml:"retention"`
	Search    SearchConfig    `mapstructure:"search" yaml:"search"`
	HTTP      HTTPConfig      `mapstructure:"http" yaml:"http"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
}

type DBConfig struct {
	Path   string `mapstructure:"path" yaml:"path"`
	Driver string `mapstructure:"driver" yaml:"driver"`
	WAL    bool   `mapstructure:"wal" yaml:"wal"`
	Sync   string `mapstructure:"sync" yaml:"sync"`
}

type RetentionConfig struct {
	Days     int           `mapstructure:"days" yaml:"days"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

type SearchConfig struct {
	Limit int `mapstructure:"limit" yaml:"limit"`
}

type HTTPConfig struct {
	Addr        string   `mapstructure:"addr" yaml:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// Source says where Load reads from. Zero values select the defaults: the
// per-user config directory, ".env" in the working directory and no flags.
type Source struct {
	File    string
	EnvFile string
	Flags   *pflag.FlagSet
}

// FlagKeys maps command-line flag names to config keys. Flags missing from
// Source.Flags are skipped.
var FlagKeys = map[string]string{
	"db":             "db.path",
	"driver":         "db.driver",
	"wal":            "db.wal",
	"sync":           "db.sync",
	"retention-days": "retention.days",
	"addr":           "http.addr",
	"cors-origin":    "http.cors_origins",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db.path", utils.DefaultDBPath())
	v.SetDefault("db.driver", db.DriverModernc)
	v.SetDefault("db.wal", true)
	v.SetDefault("db.sync", "FULL")
	v.SetDefault("retention.days", journal.DefaultRetentionDays)
	v.SetDefault("retention.interval", 24*time.Hour)
	v.SetDefault("search.limit", journal.DefaultSearchLimit)
	v.SetDefault("http.addr", "127.0.0.1:8765")
	v.SetDefault("http.cors_origins", []string{})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("cache.ttl", stores.DefaultTTL)
}

// Load resolves the effective configuration.
func Load(src Source) (*Config, error) {
	envFile := src.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading env file %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, src.File); err != nil {
		return nil, err
	}

	if src.Flags != nil {
		for name, key := range FlagKeys {
			if f := src.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag --%s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	cfg.DB.Sync = strings.ToUpper(cfg.DB.Sync)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readConfigFile(v *viper.Viper, file string) error {
	if file != "" {
		file, err := utils.ExpandHome(file)
		if err != nil {
			return err
		}
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", file, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(utils.DefaultConfigDir())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file %s: %w", filepath.Join(utils.DefaultConfigDir(), "config.yaml"), err)
	}
	return nil
}

// Validate rejects settings the rest of daybook cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.DB.Path == "" {
		errs = append(errs, errors.New("db.path must not be empty"))
	}
	if c.DB.Driver != db.DriverModernc && c.DB.Driver != db.DriverMattn {
		errs = append(errs, fmt.Errorf("db.driver must be %q or %q, got %q", db.DriverModernc, db.DriverMattn, c.DB.Driver))
	}
	switch c.DB.Sync {
	case "OFF", "NORMAL", "FULL", "EXTRA":
	default:
		errs = append(errs, fmt.Errorf("db.sync must be one of OFF, NORMAL, FULL, EXTRA, got %q", c.DB.Sync))
	}
	if c.Retention.Days <= 0 {
		errs = append(errs, fmt.Errorf("retention.days must be positive, got %d", c.Retention.Days))
	}
	if c.Retention.Interval <= 0 {
		errs = append(errs, fmt.Errorf("retention.interval must be positive, got %s", c.Retention.Interval))
	}
	if c.Search.Limit <= 0 {
		errs = append(errs, fmt.Errorf("search.limit must be positive, got %d", c.Search.Limit))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// YAML renders the configuration in config-file form.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
