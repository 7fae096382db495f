package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the beamline configuration file
// (~/.config/beamline/config.yaml). Numeric fields are pointers so a
// configured zero can be told apart from "not set".
type Config struct {
	// Decoding defaults
	BeamWidth *int64   `yaml:"beam"`
	MaxLen    *int64   `yaml:"max_len"`
	LPAlpha   *float64 `yaml:"lp_alpha"`
	BatchSize *int64   `yaml:"batch_size"`

	// Data maps split names to their source files.
	Data map[string]string `yaml:"data"`

	// Output
	Output    string `yaml:"output"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "beamline", "config.yaml")
}

// applyDecodingConfig applies config file defaults to the shared decoding
// variables when the corresponding CLI flag was not explicitly set.
func applyDecodingConfig(c *cli.Command, cfg Config) {
	if cfg.BeamWidth != nil && !c.IsSet("beam") && !c.IsSet("k") {
		beamWidth = *cfg.BeamWidth
	}
	if cfg.MaxLen != nil && !c.IsSet("max-len") {
		maxLen = *cfg.MaxLen
	}
	if cfg.LPAlpha != nil && !c.IsSet("lp-alpha") {
		lpAlpha = *cfg.LPAlpha
	}
	if cfg.BatchSize != nil && !c.IsSet("batch-size") {
		batchSize = *cfg.BatchSize
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyTranslateConfig applies config file defaults to translate command
// variables.
func applyTranslateConfig(c *cli.Command, cfg Config, output *string) {
	applyDecodingConfig(c, cfg)
	if cfg.Output != "" && !c.IsSet("output") {
		*output = cfg.Output
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	applyDecodingConfig(c, cfg)
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	return loadConfigFrom(path)
}

func loadConfigFrom(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
