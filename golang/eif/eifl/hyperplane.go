package eifl

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

//LockMode selects which dimensions are forced to axis-aligned splits.
type LockMode int

const (
	LockNone LockMode = iota
	LockAll
	LockSubset
)

func (mode LockMode) String() string {
	switch mode {
	case LockNone:
		return "none"
	case LockAll:
		return "all"
	case LockSubset:
		return "subset"
	}
	return "unknown"
}

//LockedDims is the set of feature indices on which every hyperplane of a forest is axis-aligned.
//Dims is only read in LockSubset mode.
type LockedDims struct {
	Mode LockMode
	Dims []int
}

//NoLock leaves every hyperplane fully oblique.
func NoLock() LockedDims {
	return LockedDims{Mode: LockNone}
}

//LockAllDims forces every split to be a single-feature cut.
func LockAllDims() LockedDims {
	return LockedDims{Mode: LockAll}
}

//LockSubsetDims locks the given feature indices.
func LockSubsetDims(dims ...int) LockedDims {
	return LockedDims{Mode: LockSubset, Dims: append([]int(nil), dims...)}
}

//resolve returns sorted unique locked indices for a d-dimensional space, nil if nothing is locked.
func (locked LockedDims) resolve(d int) ([]int, error) {
	switch locked.Mode {
	case LockNone:
		return nil, nil
	case LockAll:
		all := make([]int, d)
		for q := range all {
			all[q] = q
		}
		return all, nil
	case LockSubset:
		if len(locked.Dims) == 0 {
			return nil, nil
		}
		dims := append([]int(nil), locked.Dims...)
		sort.Ints(dims)
		unique := dims[:0]
		for ind, q := range dims {
			if q < 0 || q >= d {
				return nil, errors.Wrapf(ErrInvalidConfiguration, "locked dimension %d out of range [0, %d)", q, d)
			}
			if ind == 0 || q != dims[ind-1] {
				unique = append(unique, q)
			}
		}
		return unique, nil
	}
	return nil, errors.Wrapf(ErrInvalidConfiguration, "unknown lock mode %d", int(locked.Mode))
}

//HyperplaneSampler draws normal vectors of splitting hyperplanes.
//It is not safe for concurrent use; every tree owns its own sampler.
type HyperplaneSampler struct {
	d      int
	locked []int
	normal distuv.Normal
}

//NewHyperplaneSampler creates a sampler of d-dimensional normals that draws from src.
func NewHyperplaneSampler(d int, locked LockedDims, src rand.Source) (*HyperplaneSampler, error) {
	if d <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "dimension must be positive, got %d", d)
	}
	dims, err := locked.resolve(d)
	if err != nil {
		return nil, err
	}
	return &HyperplaneSampler{
		d:      d,
		locked: dims,
		normal: distuv.Normal{Mu: 0, Sigma: 1, Src: src},
	}, nil
}

//Sample draws d independent standard normal components. When dimensions are locked,
//the norm of the locked components is moved onto the locked component of the largest
//magnitude and the other locked components are zeroed.
func (s *HyperplaneSampler) Sample() []float64 {
	normal := make([]float64, s.d)
	for q := range normal {
		normal[q] = s.normal.Rand()
	}
	if len(s.locked) == 0 {
		return normal
	}

	restricted := make([]float64, len(s.locked))
	selected := 0
	for ind, q := range s.locked {
		restricted[ind] = normal[q]
		if math.Abs(restricted[ind]) > math.Abs(restricted[selected]) {
			selected = ind
		}
	}
	energy := floats.Norm(restricted, 2)
	for _, q := range s.locked {
		normal[q] = 0
	}
	normal[s.locked[selected]] = energy
	return normal
}
