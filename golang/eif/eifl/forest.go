package eifl

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

var log = logrus.WithField("component", "eifl")

const (
	defaultNEstimators     = 100
	defaultMaxSamples      = 256
	defaultNodeLimitFactor = 10
)

//EForestParams collect arguments required to construct a forest.
type EForestParams struct {
	NEstimators int
	// MaxSamples is the subsample size per tree, 0 stands for "auto" (256).
	MaxSamples int
	// Plus is the probability that a split intercept is drawn from N(mean, 2*std) of the projections.
	Plus   float64
	Locked LockedDims
	Seed   uint64
	// NodeLimitFactor bounds the node store of a tree to NodeLimitFactor*psi nodes, 0 stands for 10.
	NodeLimitFactor int
	// Scheduler runs per-tree jobs, nil stands for Sequential.
	Scheduler Scheduler
}

//DefaultParams returns the parameters of an extended forest with 100 trees on "auto" subsamples.
func DefaultParams() EForestParams {
	return EForestParams{NEstimators: defaultNEstimators}
}

//ClassicParams turns params into the classical isolation forest: every split is a single-feature cut
//and intercepts are always uniform over the observed range.
func ClassicParams(params EForestParams) EForestParams {
	params.Plus = 0
	params.Locked = LockAllDims()
	return params
}

//ParseMaxSamples converts "auto" or a positive integer into the MaxSamples parameter.
func ParseMaxSamples(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "auto") {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, errors.Wrapf(ErrInvalidConfiguration, "max samples must be \"auto\" or a positive integer, got %q", value)
	}
	return n, nil
}

func (params EForestParams) validate() error {
	if params.NEstimators <= 0 {
		return errors.Wrapf(ErrInvalidConfiguration, "number of estimators must be positive, got %d", params.NEstimators)
	}
	if params.MaxSamples < 0 {
		return errors.Wrapf(ErrInvalidConfiguration, "max samples must be positive or 0 for auto, got %d", params.MaxSamples)
	}
	if params.Plus < 0 || params.Plus > 1 || math.IsNaN(params.Plus) {
		return errors.Wrapf(ErrInvalidConfiguration, "extension probability %v is outside [0, 1]", params.Plus)
	}
	if params.NodeLimitFactor < 0 {
		return errors.Wrapf(ErrInvalidConfiguration, "node limit factor must not be negative, got %d", params.NodeLimitFactor)
	}
	switch params.Locked.Mode {
	case LockNone, LockAll, LockSubset:
	default:
		return errors.Wrapf(ErrInvalidConfiguration, "unknown lock mode %d", int(params.Locked.Mode))
	}
	return nil
}

//EForest is the model class. Hyperparameters are fixed at construction, trees are replaced as a whole by Fit.
//Fit must not run concurrently with inference calls on the same forest.
type EForest struct {
	params EForestParams
	trees  []*PartitionTree
	psi    int
	d      int
}

//NewEForest validates params and creates an unfitted forest.
func NewEForest(params EForestParams) (*EForest, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if params.MaxSamples == 0 {
		params.MaxSamples = defaultMaxSamples
	}
	if params.NodeLimitFactor == 0 {
		params.NodeLimitFactor = defaultNodeLimitFactor
	}
	if params.Scheduler == nil {
		params.Scheduler = Sequential{}
	}
	params.Locked.Dims = append([]int(nil), params.Locked.Dims...)
	return &EForest{params: params}, nil
}

//Params returns the hyperparameters of the forest with defaults resolved.
func (forest *EForest) Params() EForestParams {
	params := forest.params
	params.Locked.Dims = append([]int(nil), params.Locked.Dims...)
	return params
}

//IsFitted reports whether the forest holds trees.
func (forest *EForest) IsFitted() bool {
	return len(forest.trees) > 0
}

//SubsampleSize returns the number of points each tree was grown on.
func (forest *EForest) SubsampleSize() int {
	return forest.psi
}

//Trees returns the fitted trees. They must not be modified.
func (forest *EForest) Trees() []*PartitionTree {
	return append([]*PartitionTree(nil), forest.trees...)
}

//Fit grows the forest on X with the locked dimensions of the forest parameters.
func (forest *EForest) Fit(X mat.Matrix) error {
	return forest.FitLocked(X, forest.params.Locked)
}

//FitLocked grows NEstimators trees, each on its own bootstrap subsample of min(MaxSamples, rows) rows of X.
//Every hyperplane of every tree respects locked. On error the forest keeps its previous state.
func (forest *EForest) FitLocked(X mat.Matrix, locked LockedDims) error {
	h, w := X.Dims()
	if h == 0 || w == 0 {
		return errors.Wrapf(ErrInvalidConfiguration, "cannot fit on a %dx%d matrix", h, w)
	}
	if _, err := locked.resolve(w); err != nil {
		return err
	}

	params := forest.params
	psi := params.MaxSamples
	if psi > h {
		psi = h
	}

	// seeds are drawn up front so that the trees do not depend on the scheduling order
	master := rand.New(rand.NewSource(params.Seed))
	seeds := make([]uint64, params.NEstimators)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	treeParams := TreeParams{
		Plus:      params.Plus,
		Locked:    locked,
		NodeLimit: params.NodeLimitFactor * psi,
	}

	trees := make([]*PartitionTree, params.NEstimators)
	err := params.Scheduler.Run(params.NEstimators, func(i int) error {
		rng := rand.New(rand.NewSource(seeds[i]))
		sample := Bootstrap(X, psi, rng)
		tree, err := NewPartitionTree(sample, treeParams, rng)
		if err != nil {
			return errors.Wrapf(err, "tree %d", i)
		}
		trees[i] = tree
		log.Debugf("tree %d: psi=%d nodes=%d", i, tree.Psi(), tree.NodeCount())
		return nil
	})
	if err != nil {
		return err
	}

	forest.trees = trees
	forest.psi = psi
	forest.d = w
	log.Infof("fitted %d trees on %d rows, subsample size %d, lock mode %s", len(trees), h, psi, locked.Mode)
	return nil
}

//checkBatch validates X against the fitted forest and returns its number of rows.
func (forest *EForest) checkBatch(X mat.Matrix) (int, error) {
	if !forest.IsFitted() {
		return 0, ErrNotFitted
	}
	h, w := X.Dims()
	if w != forest.d {
		return 0, errors.Wrapf(ErrDimensionMismatch, "batch has %d columns, forest was fitted on %d", w, forest.d)
	}
	if h == 0 {
		return 0, errors.Wrap(ErrInvalidConfiguration, "empty batch")
	}
	return h, nil
}

//DepthTable returns the corrected depths of every row of X in every tree as a (trees, rows) tensor.
func (forest *EForest) DepthTable(X mat.Matrix) (*tensor.Dense, error) {
	h, err := forest.checkBatch(X)
	if err != nil {
		return nil, err
	}

	nTrees := len(forest.trees)
	backing := make([]float64, nTrees*h)
	err = forest.params.Scheduler.Run(nTrees, func(i int) error {
		depths, err := forest.trees[i].Predict(X)
		if err != nil {
			return err
		}
		copy(backing[i*h:(i+1)*h], depths)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return tensor.New(tensor.WithShape(nTrees, h), tensor.WithBacking(backing)), nil
}

//Score returns the anomaly score 2^(-mean corrected depth) of every row of X, in (0, 1].
//Points isolated quickly score close to 1.
func (forest *EForest) Score(X mat.Matrix) ([]float64, error) {
	table, err := forest.DepthTable(X)
	if err != nil {
		return nil, err
	}
	shape := table.Shape()
	nTrees, h := shape[0], shape[1]
	depths, ok := table.Data().([]float64)
	if !ok {
		return nil, errors.Errorf("depth table holds %T", table.Data())
	}

	// rows of the table are trees, sum them up column-wise
	scores := make([]float64, h)
	for i := 0; i < nTrees; i++ {
		floats.Add(scores, depths[i*h:(i+1)*h])
	}
	for p, sum := range scores {
		scores[p] = math.Pow(2, -sum/float64(nTrees))
	}
	return scores, nil
}

//Label flags the rows of X whose score strictly exceeds the contamination threshold for p,
//so roughly the top p fraction is flagged.
func (forest *EForest) Label(X mat.Matrix, p float64) ([]bool, error) {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "contamination %v is outside [0, 1]", p)
	}
	scores, err := forest.Score(X)
	if err != nil {
		return nil, err
	}

	labels := make([]bool, len(scores))
	threshold := ContaminationThreshold(scores, p)
	for ind, score := range scores {
		labels[ind] = score > threshold
	}
	return labels, nil
}

//Apply returns the root-to-leaf paths of the rows of X in tree treeIndex.
func (forest *EForest) Apply(X mat.Matrix, treeIndex int) ([][]int, error) {
	if !forest.IsFitted() {
		return nil, ErrNotFitted
	}
	if treeIndex < 0 || treeIndex >= len(forest.trees) {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "tree index %d out of range [0, %d)", treeIndex, len(forest.trees))
	}
	return forest.trees[treeIndex].Apply(X)
}

//ContaminationThreshold returns the score found at position int(p*n) of the scores sorted
//in descending order, clamped to the last position.
func ContaminationThreshold(scores []float64, p float64) float64 {
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	ind := int(p * float64(len(sorted)))
	if ind >= len(sorted) {
		ind = len(sorted) - 1
	}
	return sorted[len(sorted)-1-ind]
}
