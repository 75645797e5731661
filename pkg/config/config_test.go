package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/filechanger/filechanger/pkg/errclass"
	"github.com/filechanger/filechanger/pkg/logging"
	"github.com/filechanger/filechanger/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

// clearEnv unsets keys for the duration of the test and restores them after.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

var allEnv = []string{EnvLogLevel, EnvLogFile, EnvLogMaxBytes, EnvLogBackups, EnvLogCompress, EnvStrategy, EnvWorkers}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "INFO", cfg.Log.Level)
	assert.Equal(t, "file_changer.log", cfg.Log.File)
	assert.Equal(t, int64(1<<20), cfg.Log.MaxBytes)
	assert.Equal(t, 5, cfg.Log.Backups)
	assert.False(t, cfg.Log.Compress)
	assert.Equal(t, model.StrategySequential, cfg.Batch.Strategy)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.Batch.Workers)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile_NotExists(t *testing.T) {
	cfg, err := LoadFile(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile_Exists(t *testing.T) {
	dir := t.TempDir()
	content := `
log:
  level: debug
  file: logs/renames.log
  backups: 2
batch:
  strategy: parallel
  workers: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))

	cfg, err := LoadFile(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "logs/renames.log", cfg.Log.File)
	assert.Equal(t, 2, cfg.Log.Backups)
	assert.Equal(t, int64(1<<20), cfg.Log.MaxBytes, "unset keys keep defaults")
	assert.Equal(t, model.StrategyParallel, cfg.Batch.Strategy)
	assert.Equal(t, 3, cfg.Batch.Workers)
}

func TestLoadFile_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("log: [unclosed"), 0644))

	_, err := LoadFile(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, errclass.ErrConfigInvalid)
}

func TestSave_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.Log.Compress = true
	cfg.Batch.FailFast = true
	require.NoError(t, Save(dir, cfg))

	loaded, err := LoadFile(dir)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		EnvLogLevel:    "warning",
		EnvLogFile:     "Custom.log",
		EnvLogMaxBytes: "2048",
		EnvLogBackups:  "9",
		EnvLogCompress: "true",
		EnvStrategy:    "PARALLEL",
		EnvWorkers:     "7",
	}))
	require.NoError(t, err)
	assert.Equal(t, "WARNING", cfg.Log.Level)
	assert.Equal(t, "Custom.log", cfg.Log.File)
	assert.Equal(t, int64(2048), cfg.Log.MaxBytes)
	assert.Equal(t, 9, cfg.Log.Backups)
	assert.True(t, cfg.Log.Compress)
	assert.Equal(t, model.StrategyParallel, cfg.Batch.Strategy)
	assert.Equal(t, 7, cfg.Batch.Workers)
}

func TestApplyEnv_EmptyValuesIgnored(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(envMap(map[string]string{EnvLogFile: ""})))
	assert.Equal(t, DefaultLogFile, cfg.Log.File)
}

func TestApplyEnv_BadNumbers(t *testing.T) {
	for _, key := range []string{EnvLogMaxBytes, EnvLogBackups, EnvWorkers, EnvLogCompress} {
		t.Run(key, func(t *testing.T) {
			err := Default().ApplyEnv(envMap(map[string]string{key: "lots"}))
			assert.ErrorIs(t, err, errclass.ErrConfigInvalid)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty file", func(c *Config) { c.Log.File = "" }},
		{"negative size", func(c *Config) { c.Log.MaxBytes = -1 }},
		{"negative backups", func(c *Config) { c.Log.Backups = -1 }},
		{"unknown strategy", func(c *Config) { c.Batch.Strategy = "forked" }},
		{"zero workers", func(c *Config) { c.Batch.Workers = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), errclass.ErrConfigInvalid)
		})
	}
}

func TestLogLevel_UnknownFallsBackToInfo(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "SHOUTY"
	assert.Equal(t, logging.LevelInfo, cfg.LogLevel())
	cfg.Log.Level = "ERROR"
	assert.Equal(t, logging.LevelError, cfg.LogLevel())
}

func TestLoad_Layering(t *testing.T) {
	clearEnv(t, allEnv...)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("log:\n  level: debug\n  file: from-yaml.log\nbatch:\n  workers: 2\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DotEnvName), []byte("FCLOG_NAME=from-dotenv.log\nFC_WORKERS=4\n"), 0644))
	t.Setenv(EnvWorkers, "6")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level, "yaml overrides default")
	assert.Equal(t, "from-dotenv.log", cfg.Log.File, ".env overrides yaml")
	assert.Equal(t, 6, cfg.Batch.Workers, "real environment beats .env")
}

func TestLoad_LeavesValidationToCaller(t *testing.T) {
	clearEnv(t, allEnv...)
	t.Setenv(EnvWorkers, "0")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.Validate(), errclass.ErrConfigInvalid)

	cfg.Batch.Workers = 4
	assert.NoError(t, cfg.Validate())
}

func TestRotateOptions(t *testing.T) {
	cfg := Default()
	cfg.Log.Compress = true
	opts := cfg.RotateOptions()
	assert.Equal(t, int64(1<<20), opts.MaxSize)
	assert.Equal(t, 5, opts.MaxBackups)
	assert.True(t, opts.Compress)
}
