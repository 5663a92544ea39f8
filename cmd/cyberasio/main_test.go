package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberasio/core/pkg/config"
)

func TestParseArgs(t *testing.T) {
	args, err := parseArgs([]string{"--port", "9000", "--static-dir", "/srv/panel", "--log-level", "debug", "--config", "panel.json"})
	require.NoError(t, err)

	require.NotNil(t, args.port)
	assert.Equal(t, 9000, *args.port)
	require.NotNil(t, args.staticDir)
	assert.Equal(t, "/srv/panel", *args.staticDir)
	require.NotNil(t, args.logLevel)
	assert.Equal(t, "debug", *args.logLevel)
	assert.Equal(t, "panel.json", args.configFile)
	assert.False(t, args.help)
}

func TestParseArgsHelp(t *testing.T) {
	for _, form := range []string{"--help", "-h"} {
		args, err := parseArgs([]string{form})
		require.NoError(t, err)
		assert.True(t, args.help)
	}
}

func TestParseArgsIgnoresUnknownTokens(t *testing.T) {
	args, err := parseArgs([]string{"--verbose", "extra", "--port", "8080", "-x"})
	require.NoError(t, err)

	require.NotNil(t, args.port)
	assert.Equal(t, 8080, *args.port)
	assert.Nil(t, args.staticDir)
}

func TestParseArgsErrors(t *testing.T) {
	tests := []struct {
		name string
		argv []string
	}{
		{"port without value", []string{"--port"}},
		{"port not a number", []string{"--port", "abc"}},
		{"static dir without value", []string{"--static-dir"}},
		{"config without value", []string{"--config"}},
		{"log level without value", []string{"--log-level"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseArgs(tt.argv)
			assert.Error(t, err)
		})
	}
}

func TestParseArgsEmpty(t *testing.T) {
	args, err := parseArgs(nil)
	require.NoError(t, err)

	assert.Nil(t, args.port)
	assert.Nil(t, args.staticDir)
	assert.Nil(t, args.logLevel)
	assert.Empty(t, args.configFile)
	assert.False(t, args.help)
}

func TestApplyOverrides(t *testing.T) {
	cfg := &config.Config{Port: 7788, StaticDir: "static", LogLevel: "info"}

	port := 9000
	dir := "/srv/panel"

	args := &cliArgs{port: &port, staticDir: &dir}
	args.apply(cfg)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/srv/panel", cfg.StaticDir)
	assert.Equal(t, "info", cfg.LogLevel, "options not supplied keep their value")
}
