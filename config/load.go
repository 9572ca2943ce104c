package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileName is the per-project configuration file read from the audited directory
const FileName = ".bundler-audit.yml"

// Settings is the resolved configuration of one run
type Settings struct {
	Database           string        `mapstructure:"database"`
	GemfileLock        string        `mapstructure:"gemfile_lock"`
	Ignore             []string      `mapstructure:"ignore"`
	Format             string        `mapstructure:"format"`
	Output             string        `mapstructure:"output"`
	Quiet              bool          `mapstructure:"quiet"`
	Verbose            bool          `mapstructure:"verbose"`
	Update             bool          `mapstructure:"update"`
	LogFormat          string        `mapstructure:"log_format"`
	LogFile            string        `mapstructure:"log_file"`
	MaxAge             time.Duration `mapstructure:"max_age"`
	TrustInternalHosts bool          `mapstructure:"trust_internal_hosts"`
	Workers            int           `mapstructure:"workers"`
	Repository         string        `mapstructure:"repository"`
	MetricsFile        string        `mapstructure:"metrics_file"`
}

// flagKeys maps command line flags to configuration keys
var flagKeys = map[string]string{
	"database":             "database",
	"gemfile-lock":         "gemfile_lock",
	"ignore":               "ignore",
	"format":               "format",
	"output":               "output",
	"quiet":                "quiet",
	"verbose":              "verbose",
	"update":               "update",
	"log-format":           "log_format",
	"log-file":             "log_file",
	"max-age":              "max_age",
	"trust-internal-hosts": "trust_internal_hosts",
	"workers":              "workers",
	"repository":           "repository",
	"metrics-file":         "metrics_file",
}

// DefaultDatabasePath is $XDG_DATA_HOME/ruby-advisory-db, else ~/.local/share/ruby-advisory-db
func DefaultDatabasePath() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "ruby-advisory-db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".local", "share", "ruby-advisory-db")
	}
	return filepath.Join(home, ".local", "share", "ruby-advisory-db")
}

// New returns a viper instance with every default set
func New() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix("BUNDLE_AUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("database", DefaultDatabasePath())
	v.SetDefault("gemfile_lock", "Gemfile.lock")
	v.SetDefault("ignore", []string{})
	v.SetDefault("format", "text")
	v.SetDefault("output", "")
	v.SetDefault("quiet", false)
	v.SetDefault("verbose", false)
	v.SetDefault("update", false)
	v.SetDefault("log_format", "text")
	v.SetDefault("log_file", "")
	v.SetDefault("max_age", "168h")
	v.SetDefault("trust_internal_hosts", false)
	v.SetDefault("workers", 8)
	v.SetDefault("repository", "https://github.com/rubysec/ruby-advisory-db.git")
	v.SetDefault("metrics_file", "")

	return v
}

// BindFlags binds every known flag present in flags to its configuration key
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads .env and the configuration file, then resolves Settings.
// An explicit cfgFile must exist; the default FileName in dir is optional.
func Load(v *viper.Viper, cfgFile, dir string) (*Settings, error) {
	// a missing .env is fine
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	path := cfgFile
	if path == "" {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat %s: %w", candidate, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
