package eifl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

//randomMatrix fills an h x w matrix with standard normal values.
func randomMatrix(h, w int, seed uint64) *mat.Dense {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, h*w)
	for ind := range data {
		data[ind] = rng.NormFloat64()
	}
	return mat.NewDense(h, w, data)
}

func checkTreeInvariants(t *testing.T, tree *PartitionTree) {
	t.Helper()

	require.LessOrEqual(t, tree.NodeCount(), 10*tree.psi)
	require.Equal(t, []int{0}, tree.treeNodes[0].PathTo)
	require.Equal(t, tree.psi, tree.treeNodes[0].NumberOfObjects)

	leavesSize := 0
	norm := CNorm(tree.psi)
	if norm == 0 {
		norm = 1
	}
	for ind, node := range tree.treeNodes {
		assert.Equal(t, ind, node.TreeNodeId)
		assert.Len(t, node.PathTo, node.Depth+1)
		assert.Equal(t, ind, node.PathTo[len(node.PathTo)-1])
		assert.InDelta(t, (CNorm(node.NumberOfObjects)+float64(node.Depth+1))/norm, node.CorrectedDepth, 1e-12)
		assert.LessOrEqual(t, float64(node.Depth), math.Ceil(tree.maxDepth))

		if node.IsLeaf() {
			leavesSize += node.NumberOfObjects
			assert.Nil(t, node.Normal)
			continue
		}

		// internal nodes always have both children
		require.NotEqual(t, NoChild, node.LeftIndex)
		require.NotEqual(t, NoChild, node.RightIndex)
		require.Len(t, node.Normal, tree.d)

		left, right := tree.treeNodes[node.LeftIndex], tree.treeNodes[node.RightIndex]
		assert.Equal(t, node.NumberOfObjects, left.NumberOfObjects+right.NumberOfObjects)
		assert.Equal(t, append(append([]int(nil), node.PathTo...), node.LeftIndex), left.PathTo)
		assert.Equal(t, append(append([]int(nil), node.PathTo...), node.RightIndex), right.PathTo)
		assert.Equal(t, node.Depth+1, left.Depth)
		assert.Equal(t, node.Depth+1, right.Depth)
		assert.Greater(t, node.LeftIndex, ind)
		assert.Equal(t, node.LeftIndex+1, node.RightIndex)
	}
	assert.Equal(t, tree.psi, leavesSize)
}

func TestPartitionTreeInvariants(t *testing.T) {
	tests := []struct {
		name   string
		psi    int
		d      int
		params TreeParams
	}{
		{"extended", 256, 3, TreeParams{Plus: 0}},
		{"extended plus", 256, 3, TreeParams{Plus: 1}},
		{"mixed policies", 100, 5, TreeParams{Plus: 0.5}},
		{"classic", 128, 4, TreeParams{Plus: 0, Locked: LockAllDims()}},
		{"partially locked", 64, 4, TreeParams{Plus: 0.3, Locked: LockSubsetDims(0, 2)}},
		{"two points", 2, 2, TreeParams{}},
		{"single point", 1, 2, TreeParams{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := uint64(1); seed <= 5; seed++ {
				sample := randomMatrix(tt.psi, tt.d, seed)
				tree, err := NewPartitionTree(sample, tt.params, rand.NewSource(seed+100))
				require.NoError(t, err)
				assert.Equal(t, tt.psi, tree.psi)
				assert.Equal(t, tt.d, tree.d)
				assert.InDelta(t, math.Log2(float64(tt.psi)), tree.maxDepth, 1e-12)
				checkTreeInvariants(t, tree)
			}
		})
	}
}

func TestPartitionTreeLockedSplitsAreAxisAligned(t *testing.T) {
	sample := randomMatrix(128, 3, 5)
	tree, err := NewPartitionTree(sample, TreeParams{Locked: LockAllDims()}, rand.NewSource(5))
	require.NoError(t, err)

	for _, node := range tree.treeNodes {
		if node.IsLeaf() {
			continue
		}
		nonZero := 0
		for _, w := range node.Normal {
			if w != 0 {
				nonZero++
			}
		}
		assert.Equal(t, 1, nonZero)
	}
}

func TestPartitionTreeIdenticalRows(t *testing.T) {
	data := make([]float64, 32*2)
	for ind := range data {
		data[ind] = 1.5
	}
	tree, err := NewPartitionTree(mat.NewDense(32, 2, data), TreeParams{Plus: 0}, rand.NewSource(1))
	require.NoError(t, err)
	checkTreeInvariants(t, tree)

	// every split sends all points left, the right children are empty leaves
	ind := 0
	for !tree.treeNodes[ind].IsLeaf() {
		right := tree.treeNodes[tree.treeNodes[ind].RightIndex]
		assert.True(t, right.IsLeaf())
		assert.Equal(t, 0, right.NumberOfObjects)
		ind = tree.treeNodes[ind].LeftIndex
		assert.Equal(t, 32, tree.treeNodes[ind].NumberOfObjects)
	}
	assert.Equal(t, 5, tree.treeNodes[ind].Depth)
	assert.Equal(t, 11, tree.NodeCount())
}

func TestPartitionTreeCapacityExceeded(t *testing.T) {
	sample := randomMatrix(64, 2, 3)
	_, err := NewPartitionTree(sample, TreeParams{NodeLimit: 3}, rand.NewSource(3))
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestPartitionTreeInvalidPlus(t *testing.T) {
	_, err := NewPartitionTree(randomMatrix(8, 2, 1), TreeParams{Plus: 1.5}, rand.NewSource(1))
	require.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestPartitionTreeDeterministic(t *testing.T) {
	sample := randomMatrix(200, 3, 9)
	first, err := NewPartitionTree(sample, TreeParams{Plus: 0.5}, rand.NewSource(42))
	require.NoError(t, err)
	second, err := NewPartitionTree(sample, TreeParams{Plus: 0.5}, rand.NewSource(42))
	require.NoError(t, err)
	assert.Equal(t, first.treeNodes, second.treeNodes)
}
