package rnx

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config is the bridge configuration, loadable from YAML. Zero values fall
// back to the defaults below, which match the external binary's own
// conventions (config discovery under ~/.rnx is left entirely to it).
type Config struct {
	BinaryPath string `yaml:"binary_path"`
	ConfigFile string `yaml:"config_file"`
	NodeName   string `yaml:"node_name"`
	JSONOutput *bool  `yaml:"json_output"`

	ExecTimeoutMS  int `yaml:"exec_timeout_ms"`
	PollIntervalMS int `yaml:"poll_interval_ms"`
	PollMaxWaitMS  int `yaml:"poll_max_wait_ms"`

	LogLevel string `yaml:"log_level"`
}

func DefaultConfig() Config {
	jsonOut := true
	return Config{
		BinaryPath:     "rnx",
		NodeName:       "default",
		JSONOutput:     &jsonOut,
		ExecTimeoutMS:  60_000,
		PollIntervalMS: 1_000,
		PollMaxWaitMS:  300_000,
		LogLevel:       "info",
	}
}

// LoadConfig reads a YAML config file over the defaults. Unknown keys are
// rejected. An empty path returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var fileCfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&fileCfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.merge(fileCfg)
	return cfg, nil
}

func (c *Config) merge(o Config) {
	if o.BinaryPath != "" {
		c.BinaryPath = o.BinaryPath
	}
	if o.ConfigFile != "" {
		c.ConfigFile = o.ConfigFile
	}
	if o.NodeName != "" {
		c.NodeName = o.NodeName
	}
	if o.JSONOutput != nil {
		c.JSONOutput = o.JSONOutput
	}
	if o.ExecTimeoutMS > 0 {
		c.ExecTimeoutMS = o.ExecTimeoutMS
	}
	if o.PollIntervalMS > 0 {
		c.PollIntervalMS = o.PollIntervalMS
	}
	if o.PollMaxWaitMS > 0 {
		c.PollMaxWaitMS = o.PollMaxWaitMS
	}
	if o.LogLevel != "" {
		c.LogLevel = o.LogLevel
	}
}

// Invocation derives the immutable per-call context from the config.
func (c Config) Invocation() InvocationContext {
	jsonOut := true
	if c.JSONOutput != nil {
		jsonOut = *c.JSONOutput
	}
	return InvocationContext{
		BinaryPath: c.BinaryPath,
		ConfigFile: c.ConfigFile,
		NodeName:   c.NodeName,
		JSONOutput: jsonOut,
	}
}

func (c Config) ExecTimeout() time.Duration {
	return time.Duration(c.ExecTimeoutMS) * time.Millisecond
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func (c Config) PollMaxWait() time.Duration {
	return time.Duration(c.PollMaxWaitMS) * time.Millisecond
}

// Logger builds the process logger at the configured level. Unparseable
// levels fall back to info.
func (c Config) Logger() zerolog.Logger {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || c.LogLevel == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
