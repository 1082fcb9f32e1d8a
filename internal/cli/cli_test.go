package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositionalSuitePath(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"./suite.hcl"}, &out)
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "./suite.hcl", cfg.SuitePath)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10, cfg.Workers)
}

func TestParseSuiteFlags(t *testing.T) {
	var out bytes.Buffer
	cfg, _, err := Parse([]string{"-suite", "a.hcl"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "a.hcl", cfg.SuitePath)

	cfg, _, err = Parse([]string{"-s", "b.hcl"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "b.hcl", cfg.SuitePath)
}

func TestParseFlagOverridesEnvDefault(t *testing.T) {
	t.Setenv("PREFLIGHT_SUITE", "/env/suite")
	t.Setenv("PREFLIGHT_WORKERS", "3")

	var out bytes.Buffer
	cfg, exit, err := Parse(nil, &out)
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "/env/suite", cfg.SuitePath)
	assert.Equal(t, 3, cfg.Workers)

	cfg, _, err = Parse([]string{"-suite", "/flag/suite", "-workers", "7"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "/flag/suite", cfg.SuitePath)
	assert.Equal(t, 7, cfg.Workers)
}

func TestParseOptions(t *testing.T) {
	var out bytes.Buffer
	cfg, _, err := Parse([]string{
		"-check", "env.creds",
		"-status-port", "8099",
		"-log-format", "JSON",
		"-log-level", "DEBUG",
		"-watch-interval", "30s",
		"suite.hcl",
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "env.creds", cfg.CheckID)
	assert.Equal(t, 8099, cfg.StatusPort)
	assert.Equal(t, "json", cfg.LogFormat, "format is lowercased")
	assert.Equal(t, "debug", cfg.LogLevel, "level is lowercased")
	assert.Equal(t, 30*time.Second, cfg.WatchInterval)
}

func TestParseNoArgsPrintsUsage(t *testing.T) {
	t.Setenv("PREFLIGHT_SUITE", "")
	var out bytes.Buffer
	cfg, exit, err := Parse(nil, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseHelpFlag(t *testing.T) {
	var out bytes.Buffer
	cfg, exit, err := Parse([]string{"-h"}, &out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
}

func TestParseErrors(t *testing.T) {
	var out bytes.Buffer

	_, _, err := Parse([]string{"-log-format", "xml", "suite.hcl"}, &out)
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Message, "invalid log format")

	_, _, err = Parse([]string{"-log-level", "verbose", "suite.hcl"}, &out)
	require.True(t, errors.As(err, &exitErr))
	assert.Contains(t, exitErr.Message, "invalid log level")

	_, _, err = Parse([]string{"-nope"}, &out)
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
}
