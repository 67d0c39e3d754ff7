package driver

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"protoshape/pkg/errors"
	"protoshape/pkg/vm"
)

// Config is the driver's YAML configuration file:
//
//	vm:
//	  max_shapes: 100000
//	  max_call_depth: 256
//	log_level: debug
//	history_file: ~/.protoshape_history
type Config struct {
	VM          vm.Options `yaml:"vm"`
	LogLevel    string     `yaml:"log_level"`
	HistoryFile string     `yaml:"history_file"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() Config {
	return Config{
		VM:       vm.DefaultOptions(),
		LogLevel: "warn",
	}
}

// LoadConfig reads path over the defaults. Unknown fields are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.NewLoadError(errors.Position{File: path}, "cannot read config").CausedBy(err)
	}
	return ParseConfig(path, data)
}

// ParseConfig decodes a configuration document over the defaults
func ParseConfig(file string, data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, errors.NewLoadError(errors.Position{File: file}, "invalid config").CausedBy(err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.NewLoadError(errors.Position{File: file}, "invalid config").CausedBy(err)
	}
	return cfg, nil
}

// Validate checks the limits and the log level
func (c Config) Validate() error {
	limits := []struct {
		name  string
		value int
	}{
		{"max_shapes", c.VM.MaxShapes},
		{"max_storage_slots", c.VM.MaxStorageSlots},
		{"max_transitions_per_shape", c.VM.MaxTransitionsPerShape},
		{"max_call_depth", c.VM.MaxCallDepth},
	}
	for _, l := range limits {
		if l.value < 0 {
			return fmt.Errorf("vm.%s must not be negative, got %d", l.name, l.value)
		}
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel; an empty level means warn
func (c Config) Level() (slog.Level, error) {
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// NewLogger builds a text logger writing to w at the configured level
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.Level()
	if err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
