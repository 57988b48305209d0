package eifl

import (
	"fmt"
	"math"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

//NoChild is stored in LeftIndex and RightIndex of leaves.
const NoChild = -1

//TreeNode is a node of a partition tree. Tree is stored in an array. LeftIndex and RightIndex are equal to NoChild
//when the current node is a leaf otherwise they contain array indices of children.
//Normal and Intercept describe the splitting hyperplane and are only set for internal nodes.
type TreeNode struct {
	TreeNodeId            int
	Normal                []float64
	Intercept             float64
	LeftIndex, RightIndex int
	NumberOfObjects       int
	Depth                 int
	PathTo                []int // node ids from the root to this node, inclusive
	CorrectedDepth        float64
}

//NewTreeNode creates a leaf at the given depth.
func NewTreeNode(treeNodeId, depth int, pathTo []int) TreeNode {
	return TreeNode{
		TreeNodeId: treeNodeId,
		LeftIndex:  NoChild,
		RightIndex: NoChild,
		Depth:      depth,
		PathTo:     pathTo,
	}
}

//IsLeaf returns whether this node has no children.
func (node TreeNode) IsLeaf() bool {
	return node.LeftIndex == NoChild && node.RightIndex == NoChild
}

//GraphDescription returns the description of a tree node for tree rendering as a graph
func (node TreeNode) GraphDescription() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintln("#", node.NumberOfObjects))
	sb.WriteString(fmt.Sprintln("id: ", node.TreeNodeId))
	sb.WriteString(fmt.Sprintf("depth: %d (%.4f)", node.Depth, node.CorrectedDepth))
	if node.IsLeaf() {
		return sb.String()
	}
	sb.WriteString("\n")
	terms := make([]string, 0, len(node.Normal))
	for q, w := range node.Normal {
		if w != 0 {
			terms = append(terms, fmt.Sprintf("%.3f*f_%d", w, q))
		}
	}
	sb.WriteString(fmt.Sprintf("%s <= %6.5f", strings.Join(terms, " + "), node.Intercept))
	return sb.String()
}

//TreeParams collect arguments required to grow one tree.
type TreeParams struct {
	Plus      float64
	Locked    LockedDims
	NodeLimit int // 0 means 10 nodes per subsample point
}

//PartitionTree is one randomized binary tree of a forest. Its node store is private and only handed out
//as copies, so a tree cannot change once NewPartitionTree returns.
type PartitionTree struct {
	psi       int
	d         int
	maxDepth  float64
	treeNodes []TreeNode
	nodeLimit int
}

//Psi returns the number of points the tree was grown on.
func (tree *PartitionTree) Psi() int {
	return tree.psi
}

//Dim returns the number of features of the points the tree splits.
func (tree *PartitionTree) Dim() int {
	return tree.d
}

//MaxDepth returns the depth bound log2(psi).
func (tree *PartitionTree) MaxDepth() float64 {
	return tree.maxDepth
}

//NodeCount returns the number of nodes of the tree.
func (tree *PartitionTree) NodeCount() int {
	return len(tree.treeNodes)
}

//Node returns a copy of node nodeId. Changing it does not affect the tree.
func (tree *PartitionTree) Node(nodeId int) TreeNode {
	node := tree.treeNodes[nodeId]
	node.Normal = append([]float64(nil), node.Normal...)
	node.PathTo = append([]int(nil), node.PathTo...)
	return node
}

//Nodes returns copies of all nodes in id order.
func (tree *PartitionTree) Nodes() []TreeNode {
	nodes := make([]TreeNode, len(tree.treeNodes))
	for ind := range nodes {
		nodes[ind] = tree.Node(ind)
	}
	return nodes
}

//treeBuilder holds the state that is only needed while a tree grows.
type treeBuilder struct {
	tree    *PartitionTree
	sample  *mat.Dense
	sampler *HyperplaneSampler
	policy  InterceptPolicy
}

//NewPartitionTree grows a tree on the rows of sample. The sample is not retained.
func NewPartitionTree(sample *mat.Dense, params TreeParams, src rand.Source) (*PartitionTree, error) {
	psi, d := sample.Dims()
	if params.Plus < 0 || params.Plus > 1 || math.IsNaN(params.Plus) {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "extension probability %v is outside [0, 1]", params.Plus)
	}
	sampler, err := NewHyperplaneSampler(d, params.Locked, src)
	if err != nil {
		return nil, err
	}

	nodeLimit := params.NodeLimit
	if nodeLimit <= 0 {
		nodeLimit = defaultNodeLimitFactor * psi
	}

	tree := &PartitionTree{
		psi:       psi,
		d:         d,
		maxDepth:  math.Log2(float64(psi)),
		treeNodes: make([]TreeNode, 0, 2*psi),
		nodeLimit: nodeLimit,
	}
	tree.treeNodes = append(tree.treeNodes, NewTreeNode(0, 0, []int{0}))

	builder := &treeBuilder{
		tree:    tree,
		sample:  sample,
		sampler: sampler,
		policy:  NewInterceptPolicy(params.Plus, src),
	}

	rows := make([]int, psi)
	for p := range rows {
		rows[p] = p
	}
	if err := builder.extendTree(0, rows); err != nil {
		return nil, err
	}

	tree.correctDepths()
	return tree, nil
}

//createNewNode appends a child of parentId to the node store.
func (builder *treeBuilder) createNewNode(parentId int) (int, error) {
	tree := builder.tree
	if len(tree.treeNodes) >= tree.nodeLimit {
		return NoChild, errors.Wrapf(ErrCapacityExceeded, "tree over %d points reached its limit of %d nodes", tree.psi, tree.nodeLimit)
	}

	newNodeId := len(tree.treeNodes)
	parent := tree.treeNodes[parentId]
	pathTo := make([]int, len(parent.PathTo)+1)
	copy(pathTo, parent.PathTo)
	pathTo[len(parent.PathTo)] = newNodeId

	tree.treeNodes = append(tree.treeNodes, NewTreeNode(newNodeId, parent.Depth+1, pathTo))
	return newNodeId, nil
}

//extendTree recurrently splits the rows that reached nodeId until the depth bound or a single point is left.
func (builder *treeBuilder) extendTree(nodeId int, rows []int) error {
	tree := builder.tree
	tree.treeNodes[nodeId].NumberOfObjects = len(rows)

	if float64(tree.treeNodes[nodeId].Depth) >= tree.maxDepth || len(rows) <= 1 {
		return nil
	}

	normal := builder.sampler.Sample()
	dist := make([]float64, len(rows))
	for p, row := range rows {
		dist[p] = floats.Dot(builder.sample.RawRowView(row), normal)
	}
	intercept := builder.policy.Choose(dist)

	leftRows := make([]int, 0, len(rows))
	rightRows := make([]int, 0, len(rows))
	for p, row := range rows {
		if dist[p] <= intercept {
			leftRows = append(leftRows, row)
		} else {
			rightRows = append(rightRows, row)
		}
	}

	leftNodeId, err := builder.createNewNode(nodeId)
	if err != nil {
		return err
	}
	rightNodeId, err := builder.createNewNode(nodeId)
	if err != nil {
		return err
	}

	tree.treeNodes[nodeId].Normal = normal
	tree.treeNodes[nodeId].Intercept = intercept
	tree.treeNodes[nodeId].LeftIndex = leftNodeId
	tree.treeNodes[nodeId].RightIndex = rightNodeId

	if err := builder.extendTree(leftNodeId, leftRows); err != nil {
		return err
	}
	return builder.extendTree(rightNodeId, rightRows)
}

//correctDepths blends the path length of every node with the expected depth of its unsplit remainder,
//normalized by the expectation for the whole subsample.
func (tree *PartitionTree) correctDepths() {
	norm := CNorm(tree.psi)
	if norm == 0 {
		norm = 1
	}
	for ind := range tree.treeNodes {
		node := &tree.treeNodes[ind]
		node.CorrectedDepth = (CNorm(node.NumberOfObjects) + float64(len(node.PathTo))) / norm
	}
}
