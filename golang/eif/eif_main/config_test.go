package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarstars/extended_isolation_forest/golang/eif/eifl"
	"github.com/tarstars/extended_isolation_forest/golang/eif/workers"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	fileName := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(fileName, []byte(content), 0o644))
	return fileName
}

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("n-estimators", 100, "")
	flags.String("max-samples", "auto", "")
	flags.Float64("plus", 0, "")
	flags.IntSlice("locked-dims", nil, "")
	flags.Uint64("seed", 0, "")
	flags.String("train", "", "")
	flags.Float64("contamination", 0.1, "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := loadConfig("", testFlags(t, "--train", "x.npy"))
	require.NoError(t, err)

	assert.Equal(t, 100, config.Forest.NEstimators)
	assert.Equal(t, "auto", config.Forest.MaxSamples)
	assert.Equal(t, 1, config.Forest.ThreadsNum)
	assert.Equal(t, "x.npy", config.Data.Train)
	assert.Equal(t, "x.npy", config.Data.Input)
	assert.Equal(t, 0.1, config.Label.Contamination)
	assert.Equal(t, "svg", config.Graph.FigureType)
	assert.Equal(t, "tree", config.Graph.DumpPrefix)
}

func TestLoadConfigFile(t *testing.T) {
	fileName := writeConfig(t, "eif.yaml", `
forest:
  n_estimators: 30
  max_samples: 64
  plus: 0.5
  locked_dims: [0, 2]
  seed: 17
  threads_num: 4
data:
  train: train.npy
  input: test.npy
label:
  contamination: 0.05
`)

	config, err := loadConfig(fileName, testFlags(t))
	require.NoError(t, err)
	assert.Equal(t, 30, config.Forest.NEstimators)
	assert.Equal(t, "64", config.Forest.MaxSamples)
	assert.Equal(t, []int{0, 2}, config.Forest.LockedDims)
	assert.Equal(t, uint64(17), config.Forest.Seed)
	assert.Equal(t, "test.npy", config.Data.Input)
	assert.Equal(t, 0.05, config.Label.Contamination)

	params, err := config.Forest.Params()
	require.NoError(t, err)
	assert.Equal(t, 30, params.NEstimators)
	assert.Equal(t, 64, params.MaxSamples)
	assert.Equal(t, 0.5, params.Plus)
	assert.Equal(t, eifl.LockSubsetDims(0, 2), params.Locked)
	assert.Equal(t, uint64(17), params.Seed)
	require.IsType(t, &workers.Pool{}, params.Scheduler)
	assert.Equal(t, 4, params.Scheduler.(*workers.Pool).Threads())
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	fileName := writeConfig(t, "eif.json", `{"forest": {"n_estimators": 30, "plus": 0.2}, "data": {"train": "train.npy"}}`)

	config, err := loadConfig(fileName, testFlags(t, "--n-estimators", "7", "--seed", "3", "--locked-dims", "1,3"))
	require.NoError(t, err)
	assert.Equal(t, 7, config.Forest.NEstimators)
	assert.Equal(t, 0.2, config.Forest.Plus)
	assert.Equal(t, uint64(3), config.Forest.Seed)
	assert.Equal(t, []int{1, 3}, config.Forest.LockedDims)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := loadConfig("", testFlags(t))
	require.Error(t, err)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), testFlags(t, "--train", "x.npy"))
	require.Error(t, err)
}

func TestForestConfigParams(t *testing.T) {
	params, err := ForestConfig{NEstimators: 10, MaxSamples: "auto", Plus: 0.7, Classic: true, ThreadsNum: 1}.Params()
	require.NoError(t, err)
	assert.Equal(t, 0, params.MaxSamples)
	assert.Equal(t, 0.0, params.Plus)
	assert.Equal(t, eifl.LockAll, params.Locked.Mode)
	assert.Nil(t, params.Scheduler)

	params, err = ForestConfig{NEstimators: 10, LockAll: true, ThreadsNum: 1}.Params()
	require.NoError(t, err)
	assert.Equal(t, eifl.LockAllDims(), params.Locked)

	_, err = ForestConfig{NEstimators: 10, MaxSamples: "lots"}.Params()
	require.ErrorIs(t, err, eifl.ErrInvalidConfiguration)
}
