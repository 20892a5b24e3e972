package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{
		"SCALE_READER_LOG_LEVEL",
		"SCALE_READER_LOG_FILE",
		"SCALE_READER_LOG_MAX_SIZE_MB",
		"SCALE_READER_LOG_MAX_BACKUPS",
	} {
		t.Setenv(k, "")
	}
}

func TestRun_MissingPort(t *testing.T) {
	isolateConfig(t)
	var stdout, stderr bytes.Buffer

	code := run(nil, &stdout, &stderr)

	require.Equal(t, 1, code)
	require.Empty(t, stdout.String())
	require.Contains(t, stderr.String(), "Usage:")
	require.Contains(t, stderr.String(), "missing port identifier")
}

func TestRun_ExtraArgsIgnored(t *testing.T) {
	isolateConfig(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"/dev/does-not-exist-scale", "extra"}, &stdout, &stderr)

	require.Equal(t, 0, code)
	require.NotContains(t, stderr.String(), "Usage:")
	require.Contains(t, stderr.String(), "/dev/does-not-exist-scale")
}

func TestRun_UnopenablePortExitsCleanly(t *testing.T) {
	isolateConfig(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"/dev/does-not-exist-scale"}, &stdout, &stderr)

	require.Equal(t, 0, code)
	require.Empty(t, stdout.String())
	require.Contains(t, stderr.String(), "could not open scale port")
	require.Contains(t, stderr.String(), "/dev/does-not-exist-scale")
}

func TestRun_InvalidLogLevel(t *testing.T) {
	isolateConfig(t)
	var stdout, stderr bytes.Buffer

	code := run([]string{"--log-level", "loud", "ttyUSB0"}, &stdout, &stderr)

	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "invalid log level")
}

func TestRun_ConfigFile(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	logFile := filepath.Join(dir, "scale.log")
	cfgFile := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`log_file = "`+logFile+`"`), 0o644))

	var stdout, stderr bytes.Buffer
	code := run([]string{"--config", cfgFile, "/dev/does-not-exist-scale"}, &stdout, &stderr)
	require.Equal(t, 0, code)

	b, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(b), "could not open scale port")
}

func TestRun_BadConfigFile(t *testing.T) {
	isolateConfig(t)
	cfgFile := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("log_level = "), 0o644))

	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, run([]string{"--config", cfgFile, "ttyUSB0"}, &stdout, &stderr))
	require.Contains(t, stderr.String(), "load config")
}
