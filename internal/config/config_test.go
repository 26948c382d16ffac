// Copyright 2026 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault_valid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoad_toml(t *testing.T) {
	path := writeFile(t, "run.toml", `
mode = "fixed"
log_level = "debug"
display = 1
refresh_rate = 60.0
period = "250ms"
work = "2ms"
cycles = 120
batch_size = 8
metrics = true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Mode:        ModeFixed,
		LogLevel:    "debug",
		Display:     1,
		RefreshRate: 60,
		Period:      Duration(250 * time.Millisecond),
		Work:        Duration(2 * time.Millisecond),
		Cycles:      120,
		BatchSize:   8,
		Metrics:     true,
	}, cfg)
}

func TestLoad_yaml(t *testing.T) {
	for _, name := range []string{"run.yaml", "run.YML"} {
		t.Run(name, func(t *testing.T) {
			path := writeFile(t, name, `
mode: wait
duration: 1m30s
`)
			cfg, err := Load(path)
			require.NoError(t, err)
			want := Default()
			want.Mode = ModeWait
			want.Duration = Duration(90 * time.Second)
			assert.Equal(t, want, cfg)
		})
	}
}

func TestLoad_errors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
	t.Run("extension", func(t *testing.T) {
		_, err := Load(writeFile(t, "run.json", `{}`))
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})
	t.Run("toml syntax", func(t *testing.T) {
		_, err := Load(writeFile(t, "run.toml", `mode = `))
		assert.ErrorContains(t, err, "failed to parse")
	})
	t.Run("yaml duration", func(t *testing.T) {
		_, err := Load(writeFile(t, "run.yaml", "period: soon\n"))
		assert.ErrorContains(t, err, "failed to parse")
	})
	t.Run("yaml duration kind", func(t *testing.T) {
		_, err := Load(writeFile(t, "run.yaml", "period: [1]\n"))
		assert.ErrorContains(t, err, "duration must be a scalar")
	})
	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(writeFile(t, "run.toml", `
mode = "sometimes"
batch_size = 0
`))
		assert.ErrorContains(t, err, `invalid mode "sometimes"`)
		assert.ErrorContains(t, err, "invalid batch size 0")
	})
}

func TestConfig_Validate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }, `invalid log level "loud"`},
		{"refresh rate", func(c *Config) { c.RefreshRate = -1 }, "invalid refresh rate"},
		{"period", func(c *Config) { c.Period = 0 }, "invalid period"},
		{"work", func(c *Config) { c.Work = -1 }, "invalid work"},
		{"duration", func(c *Config) { c.Duration = -1 }, "invalid duration"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tc.want)
		})
	}
}

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want logiface.Level
	}{
		{"info", logiface.LevelInformational},
		{" DEBUG ", logiface.LevelDebug},
		{"err", logiface.LevelError},
		{"error", logiface.LevelError},
		{"warn", logiface.LevelWarning},
		{"warning", logiface.LevelWarning},
		{"trace", logiface.LevelTrace},
		{"disabled", logiface.LevelDisabled},
	} {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestDuration_text(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	b, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", string(b))

	var out Duration
	require.NoError(t, out.UnmarshalText(b))
	assert.Equal(t, d, out)
	assert.Error(t, out.UnmarshalText([]byte("x")))
}
