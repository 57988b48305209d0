package eifl

import "math"

//EulerGamma is the Euler-Mascheroni constant.
const EulerGamma = 0.5772156649

//CNorm returns the average path length of an unsuccessful search in a binary search tree
//built from k points: 2*H(k-1) - 2*(k-1)/k with H(i) approximated by ln(i) + EulerGamma.
//A single point or an empty set needs no further splitting, so CNorm(k) is 0 for k <= 1.
func CNorm(k int) float64 {
	if k <= 1 {
		return 0
	}
	n := float64(k)
	harmonic := math.Log(n-1) + EulerGamma
	return 2*harmonic - 2*(n-1)/n
}
