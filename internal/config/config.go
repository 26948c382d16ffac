// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

// Package config loads the run configuration of the mainloop command, from
// TOML or YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Loop modes.
const (
	ModeFixed = "fixed"
	ModeWait  = "wait"
)

// ErrUnsupportedFormat is returned by [Load] for unrecognised file
// extensions.
var ErrUnsupportedFormat = errors.New("config: unsupported file format")

// Config is the run configuration.
type Config struct {
	// Mode selects the loop strategy, either ModeFixed or ModeWait.
	Mode string `toml:"mode" yaml:"mode"`

	// LogLevel is the minimum level logged, by syslog keyword, e.g. "info".
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// Display is the display to synchronise to, if RefreshRate is set.
	Display uint32 `toml:"display" yaml:"display"`

	// RefreshRate simulates the refresh rate (Hz) of Display. If zero, the
	// default period is used.
	RefreshRate float64 `toml:"refresh_rate" yaml:"refresh_rate"`

	// Period is the default target cycle period.
	Period Duration `toml:"period" yaml:"period"`

	// Work is the simulated work performed by the demo task, each cycle.
	Work Duration `toml:"work" yaml:"work"`

	// Duration stops the loop after the given time, if positive.
	Duration Duration `toml:"duration" yaml:"duration"`

	// Cycles stops the loop after the given number of cycles, if positive.
	Cycles uint64 `toml:"cycles" yaml:"cycles"`

	// BatchSize is the maximum number of events taken at once.
	BatchSize int `toml:"batch_size" yaml:"batch_size"`

	// Metrics enables metrics, which are logged on exit.
	Metrics bool `toml:"metrics" yaml:"metrics"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Mode:      ModeFixed,
		LogLevel:  "info",
		Period:    Duration(time.Second),
		BatchSize: 16,
	}
}

// Load reads the file at path, over the defaults. The format is determined
// by the file extension: ".toml", ".yaml" or ".yml".
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// Validate checks the configuration for invalid values.
func (x Config) Validate() error {
	var errs []error
	if x.Mode != ModeFixed && x.Mode != ModeWait {
		errs = append(errs, fmt.Errorf("config: invalid mode %q", x.Mode))
	}
	if _, err := ParseLevel(x.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if x.RefreshRate < 0 {
		errs = append(errs, fmt.Errorf("config: invalid refresh rate %v", x.RefreshRate))
	}
	if x.Period <= 0 {
		errs = append(errs, fmt.Errorf("config: invalid period %s", x.Period))
	}
	if x.Work < 0 {
		errs = append(errs, fmt.Errorf("config: invalid work %s", x.Work))
	}
	if x.Duration < 0 {
		errs = append(errs, fmt.Errorf("config: invalid duration %s", x.Duration))
	}
	if x.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("config: invalid batch size %d", x.BatchSize))
	}
	return errors.Join(errs...)
}

// ParseLevel parses a log level by its syslog keyword, as per
// [logiface.Level.String].
func ParseLevel(s string) (logiface.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, level := range [...]logiface.Level{
		logiface.LevelDisabled,
		logiface.LevelEmergency,
		logiface.LevelAlert,
		logiface.LevelCritical,
		logiface.LevelError,
		logiface.LevelWarning,
		logiface.LevelNotice,
		logiface.LevelInformational,
		logiface.LevelDebug,
		logiface.LevelTrace,
	} {
		if level.String() == s {
			return level, nil
		}
	}
	switch s {
	case "error":
		return logiface.LevelError, nil
	case "warn":
		return logiface.LevelWarning, nil
	}
	return logiface.LevelDisabled, fmt.Errorf("config: invalid log level %q", s)
}

// Duration is a [time.Duration], encoded as a string, e.g. "16ms".
type Duration time.Duration

// String implements fmt.Stringer.
func (x Duration) String() string { return time.Duration(x).String() }

// MarshalText implements encoding.TextMarshaler.
func (x Duration) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (x *Duration) UnmarshalText(b []byte) error {
	d, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*x = Duration(d)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (x *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("config: line %d: duration must be a scalar", node.Line)
	}
	return x.UnmarshalText([]byte(node.Value))
}
