package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/decipherfst/config"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecFlags(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.Equal(t, 10, cfg.Train.NumIters)
	require.Equal(t, 1, cfg.Train.NumThreads)
	require.Equal(t, 2.5, cfg.Decode.Power)
	require.True(t, cfg.Decode.PruneOutput)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoadMergesPartialFileOverDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "defaults.yaml")
	require.NoError(t, os.WriteFile(path, []byte("train:\n  num_iters: 25\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 25, cfg.Train.NumIters)
	require.Equal(t, 1, cfg.Train.NumThreads) // untouched by the file, stays at default
}

func TestLoadMissingFileErrors(t *testing.T) {
	t.Parallel()

	_, err := config.Load("/nonexistent/defaults.yaml")
	require.Error(t, err)
}
