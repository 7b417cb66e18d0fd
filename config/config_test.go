package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "particles.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.MSAA)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 600, cfg.Height)
	assert.Equal(t, validationDefault, cfg.Validation)
}

func TestFlags(t *testing.T) {
	cfg, err := Parse([]string{"--no-msaa", "--validation", "--assets", "/srv/assets", "--verbose"})
	require.NoError(t, err)
	assert.False(t, cfg.MSAA)
	assert.True(t, cfg.Validation)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "/srv/assets", cfg.Assets)
}

func TestBadArguments(t *testing.T) {
	for _, args := range [][]string{
		{"--frobnicate"},
		{"--assets"},
		{"--config"},
		{"--config", filepath.Join(t.TempDir(), "missing.toml")},
	} {
		_, err := Parse(args)
		assert.Error(t, err, "%q", args)
	}

	_, err := Parse([]string{"--no-msaa", "-h"})
	assert.True(t, errors.Is(err, ErrHelp))
}

func TestFileUnderArguments(t *testing.T) {
	path := writeConfig(t, `
title = "fountain"
width = 1280
height = 720
msaa = false
assets = "from-file"

[emitter]
capacity = 64
rate = 10.5
`)

	cfg, err := Parse([]string{"--assets", "from-args", "--config", path})
	require.NoError(t, err)
	assert.Equal(t, "fountain", cfg.Title)
	assert.Equal(t, 1280, cfg.Width)
	assert.Equal(t, 720, cfg.Height)
	assert.False(t, cfg.MSAA)
	assert.Equal(t, "from-args", cfg.Assets)
	assert.Equal(t, 64, cfg.Emitter.Capacity)
	assert.Equal(t, float32(10.5), cfg.Emitter.Rate)
	// Unset keys keep their defaults.
	assert.Equal(t, Default().Emitter.Lifetime, cfg.Emitter.Lifetime)
}

func TestUnknownKeys(t *testing.T) {
	path := writeConfig(t, "widht = 1024\n")
	_, err := Parse([]string{"--config", path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "widht")
}

func TestValidate(t *testing.T) {
	path := writeConfig(t, "width = 0\n")
	_, err := Parse([]string{"--config", path})
	assert.Error(t, err)

	cfg := Default()
	cfg.Emitter.Capacity = 0
	assert.Error(t, cfg.Validate())
	cfg = Default()
	cfg.Emitter.Rate = -1
	assert.Error(t, cfg.Validate())
}

func TestUsage(t *testing.T) {
	var b strings.Builder
	Usage(&b)
	for _, opt := range []string{"--config", "--assets", "--no-msaa", "--validation", "--verbose", "--help"} {
		assert.Contains(t, b.String(), opt)
	}
}
