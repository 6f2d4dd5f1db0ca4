// Package config loads depweave settings from depweave.yml, a .env file
// and DEPWEAVE_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/joshharrison/depweave/internal/logger"
)

// EnvPrefix namespaces the environment variables read by Load.
const EnvPrefix = "DEPWEAVE"

// Config holds every CLI setting.
type Config struct {
	Log          logger.Config `yaml:"log" mapstructure:"log"`
	Source       string        `yaml:"source" mapstructure:"source" validate:"oneof=file bd"`
	SnapshotPath string        `yaml:"snapshot_path" mapstructure:"snapshot_path" validate:"required"`
	BdBin        string        `yaml:"bd_bin" mapstructure:"bd_bin"`
	DBPath       string        `yaml:"db_path" mapstructure:"db_path"`
	BdStatus     string        `yaml:"bd_status" mapstructure:"bd_status"`
	CycleCheck   bool          `yaml:"cycle_check" mapstructure:"cycle_check"`
	ViewerPort   int           `yaml:"viewer_port" mapstructure:"viewer_port" validate:"min=1,max=65535"`
	Model        string        `yaml:"model" mapstructure:"model"`
}

var defaults = map[string]any{
	"log.level":     "warn",
	"log.format":    "console",
	"log.output":    "stderr",
	"log.no_color":  false,
	"log.timestamp": false,
	"source":        "file",
	"snapshot_path": ".depweave/snapshot.json",
	"bd_bin":        "bd",
	"db_path":       "",
	"bd_status":     "open",
	"cycle_check":   true,
	"viewer_port":   7171,
	"model":         "",
}

// searchPaths are tried in order when no config file is given.
var searchPaths = []string{
	"./depweave.yml",
	"./depweave.yaml",
	"./.depweave/config.yml",
}

type loaderConfig struct {
	configFile string
	envFile    string
}

// Option configures Load.
type Option func(*loaderConfig)

// WithConfigFile sets an explicit config file path. A missing file is an error.
func WithConfigFile(path string) Option {
	return func(lc *loaderConfig) { lc.configFile = path }
}

// WithEnvFile sets an explicit .env file path. A missing file is an error.
func WithEnvFile(path string) Option {
	return func(lc *loaderConfig) { lc.envFile = path }
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load resolves the configuration and validates it.
func Load(opts ...Option) (*Config, error) {
	var lc loaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	envFile := lc.envFile
	if envFile == "" && exists(".env") {
		envFile = ".env"
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	configFile := lc.configFile
	if configFile == "" {
		for _, p := range searchPaths {
			if exists(p) {
				configFile = p
				break
			}
		}
	} else if !exists(configFile) {
		return nil, fmt.Errorf("config file %s: %w", configFile, os.ErrNotExist)
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", configFile, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills zero values left by a hand-built Config.
func (c *Config) ApplyDefaults() {
	c.Log.ApplyDefaults()
	if c.Source == "" {
		c.Source = "file"
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = defaults["snapshot_path"].(string)
	}
	if c.BdBin == "" {
		c.BdBin = "bd"
	}
	if c.ViewerPort == 0 {
		c.ViewerPort = defaults["viewer_port"].(int)
	}
}

// Validate checks field constraints and the nested logging config.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fe := verrs[0]
			return fmt.Errorf("config.%s failed %q (got: %v)", strings.ToLower(fe.Field()), fe.Tag(), fe.Value())
		}
		return err
	}
	return c.Log.Validate()
}
