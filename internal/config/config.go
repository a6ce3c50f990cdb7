package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, eg BITMAPTOOL_DECODE_MAX_WIDTH
const EnvPrefix = "BITMAPTOOL"

// Config holds the settings of the bitmaptool command.
type Config struct {
	Jobs    int           `mapstructure:"jobs" toml:"jobs"`
	Decode  DecodeConfig  `mapstructure:"decode" toml:"decode"`
	Output  OutputConfig  `mapstructure:"output" toml:"output"`
	Logging LoggingConfig `mapstructure:"logging" toml:"logging"`
}

// DecodeConfig holds the bounds and the host decoder.
type DecodeConfig struct {
	MaxWidth  int    `mapstructure:"max_width" toml:"max_width"`
	MaxHeight int    `mapstructure:"max_height" toml:"max_height"`
	Codec     string `mapstructure:"codec" toml:"codec"` // "std" or "cimg"
}

// OutputConfig holds where and how shrunk images are written.
type OutputConfig struct {
	Dir     string `mapstructure:"dir" toml:"dir"`
	Format  string `mapstructure:"format" toml:"format"` // "jpeg" or "png"
	Quality int    `mapstructure:"quality" toml:"quality"`
}

// LoggingConfig holds the logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
}

// Default returns the configuration used when nothing else is set
func Default() *Config {
	return &Config{
		Jobs: runtime.NumCPU(),
		Decode: DecodeConfig{
			MaxWidth:  1024,
			MaxHeight: 1024,
			Codec:     "std",
		},
		Output: OutputConfig{
			Dir:     ".",
			Format:  "jpeg",
			Quality: 85,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Maps command line flags to their config keys
var flagKeys = map[string]string{
	"jobs":       "jobs",
	"max-width":  "decode.max_width",
	"max-height": "decode.max_height",
	"codec":      "decode.codec",
	"out-dir":    "output.dir",
	"format":     "output.format",
	"quality":    "output.quality",
	"log-level":  "logging.level",
	"log-format": "logging.format",
}

// Load merges, from lowest to highest precedence: defaults, the TOML file at path,
// BITMAPTOOL_* environment variables, and the flags in flags that were set explicitly.
// A missing file is not an error. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("jobs", def.Jobs)
	v.SetDefault("decode.max_width", def.Decode.MaxWidth)
	v.SetDefault("decode.max_height", def.Decode.MaxHeight)
	v.SetDefault("decode.codec", def.Decode.Codec)
	v.SetDefault("output.dir", def.Output.Dir)
	v.SetDefault("output.format", def.Output.Format)
	v.SetDefault("output.quality", def.Output.Quality)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read configuration from %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the values that cannot be interpreted.
// Non-positive bounds are accepted: a zero bound shrinks as far as possible, a negative one disables downsampling.
func (c *Config) Validate() error {
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	switch c.Decode.Codec {
	case "std", "cimg":
	default:
		return fmt.Errorf("unknown codec %q", c.Decode.Codec)
	}
	switch c.Output.Format {
	case "jpeg", "jpg", "png":
	default:
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}
	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", c.Output.Quality)
	}
	if c.Output.Dir == "" {
		return errors.New("output directory is empty")
	}
	return nil
}

// Save writes cfg to path as TOML
func Save(path string, cfg *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trying to save the config: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("trying to save the config: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("trying to save the config: %w", err)
	}
	return nil
}
