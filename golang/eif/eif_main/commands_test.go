package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

//writeTrain stores 40 normal rows and one far away row as an npy matrix.
func writeTrain(t *testing.T, dir string) string {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	X := mat.NewDense(41, 2, nil)
	for p := 0; p < 40; p++ {
		X.Set(p, 0, rng.NormFloat64())
		X.Set(p, 1, rng.NormFloat64())
	}
	X.Set(40, 0, 25)
	X.Set(40, 1, -25)

	fileName := filepath.Join(dir, "train.npy")
	f, err := os.Create(fileName)
	require.NoError(t, err)
	require.NoError(t, npyio.Write(f, X))
	require.NoError(t, f.Close())
	return fileName
}

func readVector(t *testing.T, fileName string) []float64 {
	t.Helper()
	f, err := os.Open(fileName)
	require.NoError(t, err)
	defer f.Close()

	var values []float64
	require.NoError(t, npyio.Read(f, &values))
	return values
}

func runRoot(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	train := writeTrain(t, dir)

	scoresFile := filepath.Join(dir, "scores.npy")
	runRoot(t, "score", "--train", train, "--output", scoresFile, "--n-estimators", "50", "--seed", "3")
	scores := readVector(t, scoresFile)
	require.Len(t, scores, 41)
	for p, score := range scores {
		assert.Greater(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
		if p < 40 {
			assert.Greater(t, scores[40], score)
		}
	}

	labelsFile := filepath.Join(dir, "labels.npy")
	runRoot(t, "label", "--train", train, "--output", labelsFile, "--contamination", "0.05", "--seed", "3")
	labels := readVector(t, labelsFile)
	require.Len(t, labels, 41)
	assert.Equal(t, 1.0, labels[40])
	flagged := 0.0
	for _, label := range labels {
		flagged += label
	}
	assert.LessOrEqual(t, flagged, 2.0)

	output := runRoot(t, "paths", "--train", train, "--tree", "1", "--seed", "3")
	scanner := bufio.NewScanner(bytes.NewBufferString(output))
	rows := 0
	for scanner.Scan() {
		var path []int
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &path))
		assert.Equal(t, 0, path[0])
		rows++
	}
	assert.Equal(t, 41, rows)
}

func TestCommandsRejectMissingTrain(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"score", "--train", filepath.Join(t.TempDir(), "missing.npy")})
	require.Error(t, rootCmd.Execute())
}
