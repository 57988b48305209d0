package eifl

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//LeafIds returns, in row order, the leaf reached by every row of X when following the splits from the root.
//Rows are independent and the tree is only read, so it may be called concurrently.
func (tree *PartitionTree) LeafIds(X mat.Matrix) ([]int, error) {
	h, w := X.Dims()
	if w != tree.d {
		return nil, errors.Wrapf(ErrDimensionMismatch, "batch has %d columns, tree was fitted on %d", w, tree.d)
	}

	leaves := make([]int, h)
	buf := make([]float64, w)
	for p := 0; p < h; p++ {
		x := rowView(X, p, buf)
		ind := 0
		for !tree.treeNodes[ind].IsLeaf() {
			node := &tree.treeNodes[ind]
			if floats.Dot(x, node.Normal) <= node.Intercept {
				ind = node.LeftIndex
			} else {
				ind = node.RightIndex
			}
		}
		leaves[p] = ind
	}
	return leaves, nil
}

//Apply returns the root-to-leaf path of every row of X.
func (tree *PartitionTree) Apply(X mat.Matrix) ([][]int, error) {
	leaves, err := tree.LeafIds(X)
	if err != nil {
		return nil, err
	}
	paths := make([][]int, len(leaves))
	for p, leaf := range leaves {
		paths[p] = append([]int(nil), tree.treeNodes[leaf].PathTo...)
	}
	return paths, nil
}

//Predict returns the corrected depth of the leaf reached by every row of X.
func (tree *PartitionTree) Predict(X mat.Matrix) ([]float64, error) {
	leaves, err := tree.LeafIds(X)
	if err != nil {
		return nil, err
	}
	depths := make([]float64, len(leaves))
	for p, leaf := range leaves {
		depths[p] = tree.treeNodes[leaf].CorrectedDepth
	}
	return depths, nil
}
