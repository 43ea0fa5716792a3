package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 500*time.Millisecond, cfg.AnimationTime)
	require.Equal(t, 110*time.Millisecond, cfg.SafetyMargin)
	require.Zero(t, cfg.LockTimeout)
	require.Equal(t, 3, cfg.ScrambleTurns)
	require.Equal(t, "in_expo", cfg.Easing)
	require.True(t, cfg.Journal)
	require.Equal(t, "cubeturn.db", filepath.Base(cfg.DBPath))
}

func TestLoad_File(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "animation_time: 250ms\nscramble_turns: 12\nseed: 42\njournal: false\neasing: linear\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, cfg.AnimationTime)
	require.Equal(t, 12, cfg.ScrambleTurns)
	require.Equal(t, uint64(42), cfg.Seed)
	require.False(t, cfg.Journal)
	require.Equal(t, "linear", cfg.Easing)
	require.Equal(t, 110*time.Millisecond, cfg.SafetyMargin)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CUBETURN_SCRAMBLE_TURNS", "7")
	t.Setenv("CUBETURN_LOCK_TIMEOUT", "2s")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 7, cfg.ScrambleTurns)
	require.Equal(t, 2*time.Second, cfg.LockTimeout)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	bad := *cfg
	bad.ScrambleTurns = -1
	require.ErrorIs(t, bad.Validate(), ErrInvalid)

	bad = *cfg
	bad.LockTimeout = 100 * time.Millisecond
	require.ErrorIs(t, bad.Validate(), ErrInvalid)

	good := *cfg
	good.LockTimeout = 5 * time.Second
	require.NoError(t, good.Validate())
}
