package eifl

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

//InterceptPolicy chooses where a hyperplane crosses the projections of the points of a node.
//The choice between the two policies is made per split.
type InterceptPolicy struct {
	plus float64
	src  rand.Source
	coin distuv.Uniform
}

//NewInterceptPolicy creates a policy that extends with probability plus.
func NewInterceptPolicy(plus float64, src rand.Source) InterceptPolicy {
	return InterceptPolicy{
		plus: plus,
		src:  src,
		coin: distuv.Uniform{Min: 0, Max: 1, Src: src},
	}
}

//Choose returns the intercept for non-empty projections. With probability plus it is drawn from
//N(mean, 2*std) of the projections, so the split may fall outside the observed range;
//otherwise it is uniform over [min, max].
func (policy InterceptPolicy) Choose(projections []float64) float64 {
	if policy.coin.Rand() < policy.plus {
		mean := stat.Mean(projections, nil)
		spread := math.Sqrt(stat.Moment(2, projections, nil))
		return distuv.Normal{Mu: mean, Sigma: 2 * spread, Src: policy.src}.Rand()
	}
	return distuv.Uniform{Min: floats.Min(projections), Max: floats.Max(projections), Src: policy.src}.Rand()
}
