package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Shared root for uploaded scripts and their log files
	StorageDir string `mapstructure:"storage_dir"`

	// API settings
	APIHost     string   `mapstructure:"api_host"`
	APIPort     int      `mapstructure:"api_port"`
	CORSOrigins []string `mapstructure:"cors_origins"`

	// Supervisor settings
	MaxBotsPerUser           int  `mapstructure:"max_bots_per_user"`
	StopTimeoutSeconds       int  `mapstructure:"stop_timeout_seconds"`
	ReconcileIntervalSeconds int  `mapstructure:"reconcile_interval_seconds"`
	KillOnShutdown           bool `mapstructure:"kill_on_shutdown"`

	// Launch commands per file extension; the script path is appended.
	// Operators can point these at non-default interpreter locations.
	Runtimes map[string][]string `mapstructure:"runtimes"`

	// Logging settings
	LogFile  string `mapstructure:"log_file"`
	LogLevel string `mapstructure:"log_level"`
}

const (
	DefaultConfigPath        = "/etc/bothive/config.yml"
	DefaultStorageDir        = "/tmp/bots"
	DefaultAPIHost           = "0.0.0.0"
	DefaultAPIPort           = 8300
	DefaultMaxBotsPerUser    = 3
	DefaultStopTimeout       = 5
	DefaultReconcileInterval = 15
	DefaultLogLevel          = "info"
)

// DefaultRuntimes maps supported script extensions to their interpreters.
func DefaultRuntimes() map[string][]string {
	return map[string][]string{
		"py": {"python3"},
		"js": {"node"},
	}
}

// Load reads configuration from the given file (or the default path),
// with BOTHIVE_ environment variable overrides. A missing file is fine
// when no explicit path was requested; defaults apply.
func Load(configPath string) (*Config, error) {
	explicit := configPath != ""
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetDefault("storage_dir", DefaultStorageDir)
	viper.SetDefault("api_host", DefaultAPIHost)
	viper.SetDefault("api_port", DefaultAPIPort)
	viper.SetDefault("max_bots_per_user", DefaultMaxBotsPerUser)
	viper.SetDefault("stop_timeout_seconds", DefaultStopTimeout)
	viper.SetDefault("reconcile_interval_seconds", DefaultReconcileInterval)
	viper.SetDefault("kill_on_shutdown", true)
	viper.SetDefault("log_level", DefaultLogLevel)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("BOTHIVE")

	if err := viper.ReadInConfig(); err != nil {
		if explicit {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Runtimes == nil {
		cfg.Runtimes = DefaultRuntimes()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.StorageDir == "" {
		return fmt.Errorf("storage_dir is required")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("api_port must be between 1 and 65535")
	}
	if c.MaxBotsPerUser <= 0 {
		return fmt.Errorf("max_bots_per_user must be positive")
	}
	if c.StopTimeoutSeconds <= 0 {
		return fmt.Errorf("stop_timeout_seconds must be positive")
	}
	for ext, argv := range c.Runtimes {
		if len(argv) == 0 {
			return fmt.Errorf("runtime for %q must name a command", ext)
		}
	}
	return nil
}

func (c *Config) IsDevMode() bool {
	return os.Getenv("BOTHIVE_DEV_MODE") == "1"
}

func (c *Config) StopTimeout() time.Duration {
	return time.Duration(c.StopTimeoutSeconds) * time.Second
}

// ReconcileInterval returns how often the supervisor sweeps for processes
// that exited on their own. Zero disables the sweep.
func (c *Config) ReconcileInterval() time.Duration {
	return time.Duration(c.ReconcileIntervalSeconds) * time.Second
}
