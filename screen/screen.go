// Package screen implements the marker-Jaccard filter that cheaply rejects
// query/reference pairs before the chainer is invoked.
package screen

import (
	"math"

	"github.com/grailbio/gani/sketch"
)

// LowConfidenceMinMarkers is the reference marker-set size below which the
// Jaccard estimate is considered unreliable; the result is still computed
// but flagged.
const LowConfidenceMinMarkers = 5

// Result is the outcome of screening one query/reference pair.
type Result struct {
	Jaccard       float64
	ANI           float64
	Pass          bool
	LowConfidence bool
}

// Pairwise computes the marker-Jaccard screen for one query against one
// reference sketch. k is the k-mer size used to build both sketches (it must
// match; screening across differing k is a configuration error the caller
// should reject earlier). cutoff is the minimum acceptable Mash-ANI.
func Pairwise(q, r *sketch.Sketch, k int, cutoff float64) Result {
	if len(q.Markers) == 0 || len(r.Markers) == 0 {
		return Result{Jaccard: 0, ANI: 0, Pass: false, LowConfidence: len(r.Markers) < LowConfidenceMinMarkers}
	}
	small, big := q.Markers, r.Markers
	if len(small) > len(big) {
		small, big = big, small
	}
	var shared int
	for h := range small {
		if _, ok := big[h]; ok {
			shared++
		}
	}
	union := len(q.Markers) + len(r.Markers) - shared
	return evaluate(shared, union, len(r.Markers), k, cutoff)
}

// evaluate turns a shared/union marker count into the pass/fail Mash-ANI
// decision shared by both the pairwise and indexed screen paths.
func evaluate(shared, union, refMarkerCount, k int, cutoff float64) Result {
	lowConf := refMarkerCount < LowConfidenceMinMarkers
	if union == 0 || shared == 0 {
		return Result{Jaccard: 0, ANI: 0, Pass: false, LowConfidence: lowConf}
	}
	j := float64(shared) / float64(union)
	a := MashANI(j, k)
	return Result{Jaccard: j, ANI: a, Pass: a >= cutoff, LowConfidence: lowConf}
}

// MashANI converts a marker Jaccard coefficient into the Mash-style ANI
// estimator A = 1 + (1/k)*log(2J/(1+J)).
func MashANI(j float64, k int) float64 {
	if j <= 0 {
		return 0
	}
	if j >= 1 {
		return 1
	}
	return 1 + (1/float64(k))*math.Log(2*j/(1+j))
}
