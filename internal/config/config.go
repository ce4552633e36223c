package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultDataFile is the dataset name shipped with the original dashboards.
const DefaultDataFile = "Sleep_health_and_lifestyle_dataset.csv"

// Config holds application configuration
type Config struct {
	DataFile string
	Host     string
	Port     string
	Variant  string
	Debug    bool
}

// Overrides carries command flag values; empty fields are ignored.
type Overrides struct {
	DataFile string
	Host     string
	Port     string
	Variant  string
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// Load loads configuration from multiple sources with priority:
// 1. Command flags (via LoadWithOverrides)
// 2. Config file (./sleepboard.toml or $XDG_CONFIG_HOME/sleepboard/sleepboard.toml)
// 3. Environment variables (a .env file in the working directory is read first)
// 4. Defaults
func Load() (*Config, error) {
	return LoadWithOverrides(Overrides{})
}

// LoadWithOverrides loads config and applies flag overrides
func LoadWithOverrides(o Overrides) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newBaseViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return buildConfig(v, o), nil
}

// loadDotEnv populates the environment from path without overriding
// variables that are already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

func newBaseViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("sleepboard")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	// XDG Base Directory, resolved manually so tests can point HOME elsewhere
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configHome = filepath.Join(home, ".config")
		}
	}
	if configHome != "" {
		v.AddConfigPath(filepath.Join(configHome, "sleepboard"))
	}

	return v
}

func buildConfig(v *viper.Viper, o Overrides) *Config {
	cfg := &Config{
		DataFile: DefaultDataFile,
		Host:     "127.0.0.1",
		Port:     "8050",
		Variant:  "story",
	}

	// Config file values
	if v.IsSet("data_file") {
		cfg.DataFile = v.GetString("data_file")
	}
	if v.IsSet("host") {
		cfg.Host = v.GetString("host")
	}
	if v.IsSet("port") {
		cfg.Port = v.GetString("port")
	}
	if v.IsSet("variant") {
		cfg.Variant = v.GetString("variant")
	}
	if v.IsSet("debug") {
		cfg.Debug = v.GetBool("debug")
	}

	// Environment fallback (only if not configured)
	envFallback := func(key, env string, dst *string) {
		if v.IsSet(key) {
			return
		}
		if value := strings.TrimSpace(os.Getenv(env)); value != "" {
			*dst = value
		}
	}
	envFallback("data_file", "DATA_FILE", &cfg.DataFile)
	envFallback("host", "HOST", &cfg.Host)
	envFallback("port", "PORT", &cfg.Port)
	envFallback("variant", "VARIANT", &cfg.Variant)
	if !v.IsSet("debug") {
		cfg.Debug = strings.EqualFold(os.Getenv("DEBUG"), "true")
	}

	// Flags last
	if o.DataFile != "" {
		cfg.DataFile = o.DataFile
	}
	if o.Host != "" {
		cfg.Host = o.Host
	}
	if o.Port != "" {
		cfg.Port = o.Port
	}
	if o.Variant != "" {
		cfg.Variant = o.Variant
	}

	cfg.Variant = strings.ToLower(cfg.Variant)
	return cfg
}
