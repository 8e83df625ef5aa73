package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every console environment variable, e.g. FREIGHTDESK_API_URL.
const EnvPrefix = "FREIGHTDESK"

// ClientConfig is the console configuration. Values come from flags bound by
// the caller, FREIGHTDESK_* variables, then the config file, then defaults.
type ClientConfig struct {
	APIURL    string        `mapstructure:"api_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	StateDir  string        `mapstructure:"state_dir"`
	RateLimit float64       `mapstructure:"rate_limit"`
	Burst     int           `mapstructure:"burst"`
	PageSize  int           `mapstructure:"page_size"`
	LogLevel  string        `mapstructure:"log_level"`
}

func DefaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "freightdesk")
	}
	return ".freightdesk"
}

// NewViper returns a viper instance with the console defaults and env
// binding in place; flags may be bound to it before LoadClient.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("api_url", "http://localhost:8080/api/v1")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("state_dir", DefaultStateDir())
	v.SetDefault("rate_limit", 10.0)
	v.SetDefault("burst", 5)
	v.SetDefault("page_size", 10)
	v.SetDefault("log_level", "warn")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// LoadClient reads .env, the optional config file and the environment into
// a validated ClientConfig. An explicit configFile must exist; the default
// search locations may be empty.
func LoadClient(v *viper.Viper, configFile string) (*ClientConfig, error) {
	_ = godotenv.Load()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(v.GetString("state_dir"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &ClientConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *ClientConfig) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.APIURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api_url must be an absolute URL, got %q", c.APIURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if strings.TrimSpace(c.StateDir) == "" {
		return fmt.Errorf("state_dir cannot be empty")
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit cannot be negative")
	}

	if c.PageSize <= 0 || c.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100")
	}

	return nil
}
