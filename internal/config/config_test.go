package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 600*time.Second, cfg.LineTimeout.Std())
	assert.Equal(t, 60*time.Second, cfg.Watchdog.Interval.Std())
	assert.Equal(t, 4*time.Minute, cfg.Watchdog.SoftLimit.Std())
	assert.Equal(t, 5*time.Minute, cfg.Watchdog.HardLimit.Std())
	assert.False(t, cfg.Quiet)
	assert.False(t, cfg.NoPush)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".codeup.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
quiet: true
no_push: true
line_timeout: 5m
watchdog:
  soft_limit: 2m
  hard_limit: 3m
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Quiet)
	assert.True(t, cfg.NoPush)
	assert.Equal(t, 5*time.Minute, cfg.LineTimeout.Std())
	assert.Equal(t, 2*time.Minute, cfg.Watchdog.SoftLimit.Std())
	assert.Equal(t, 3*time.Minute, cfg.Watchdog.HardLimit.Std())

	// Unset fields keep their defaults.
	assert.Equal(t, 60*time.Second, cfg.Watchdog.Interval.Std())
	assert.False(t, cfg.NoRebase)
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".codeup.yml")
	require.NoError(t, os.WriteFile(path, []byte("line_timeout: soon\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestDiscover(t *testing.T) {
	t.Run("repo-level file wins", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".codeup.yml"),
			[]byte("no_rebase: true\n"), 0o644))

		cfg, err := Discover(dir)
		require.NoError(t, err)
		assert.True(t, cfg.NoRebase)
	})

	t.Run("missing files fall back to defaults", func(t *testing.T) {
		// Point the user config dir at an empty directory too.
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())

		cfg, err := Discover(t.TempDir())
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("malformed file is an error, not a silent default", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".codeup.yml"),
			[]byte("watchdog: [not, a, mapping]\n"), 0o644))

		_, err := Discover(dir)
		require.Error(t, err)
	})
}

func TestDuration_MarshalYAML(t *testing.T) {
	v, err := Duration(90 * time.Second).MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", v)
}
