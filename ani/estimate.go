// Package ani turns a set of colinear anchor chains between two sketches
// into a single ANI/AF estimate, with optional bootstrap confidence
// intervals and a learned regression correction.
package ani

import (
	"math"
	"sort"

	"github.com/grailbio/gani/chain"
)

// Aggregation selects how per-chain identity estimates are combined into one
// ANI value.
type Aggregation int

const (
	// Mean is the default: weighted mean of per-chain identities.
	Mean Aggregation = iota
	// Robust discards chain estimates outside the 10th/90th weighted
	// percentile before averaging.
	Robust
	// Median takes the weighted median instead of the mean.
	Median
)

// ChainEstimate is one chain's identity estimate and the weight (its covered
// query bases) it contributes to the aggregate.
type ChainEstimate struct {
	Identity float64
	Weight   float64 // L_q,i
	QCovered int
	RCovered int
}

// Estimate is the aggregated ANI/AF result for one query/reference pair.
type Estimate struct {
	ANI               float64 // NaN if no chains passed.
	AlignFractionQ    float64
	AlignFractionR    float64
	NumChains         int
	CILow, CIHigh     float64
	HasCI             bool
	RegressionApplied bool
}

// ChainIdentity computes a single chain's identity estimate I = (S/E)^(1/k),
// where E = L_q/c is the expected seed count of the covered query interval
// (spec.md §4.5's Mash-like estimator specialised to one chain).
func ChainIdentity(c chain.Chain, k, seedC int) ChainEstimate {
	qCovered := chain.FootprintLength(c.QPositions(), k)
	rCovered := chain.FootprintLength(c.RPositions(), k)
	s := float64(len(c.Hashes))
	e := float64(qCovered) / float64(seedC)
	var identity float64
	if e <= 0 || s <= 0 {
		identity = 0
	} else {
		ratio := s / e
		if ratio > 1 {
			ratio = 1
		}
		identity = math.Pow(ratio, 1/float64(k))
	}
	return ChainEstimate{
		Identity: identity,
		Weight:   float64(qCovered),
		QCovered: qCovered,
		RCovered: rCovered,
	}
}

// Aggregate combines per-chain estimates plus the two sketches' total
// lengths into a final Estimate. It does not apply bootstrap CI or
// regression correction; see Bootstrap and ApplyRegression.
func Aggregate(estimates []ChainEstimate, totalLenQ, totalLenR uint64, agg Aggregation, minAF float64) Estimate {
	if len(estimates) == 0 {
		return Estimate{ANI: math.NaN(), AlignFractionQ: 0, AlignFractionR: 0}
	}

	var sumQ, sumR int
	for _, e := range estimates {
		sumQ += e.QCovered
		sumR += e.RCovered
	}
	afQ := safeDiv(float64(sumQ), float64(totalLenQ))
	afR := safeDiv(float64(sumR), float64(totalLenR))

	if math.Max(afQ, afR) < minAF {
		return Estimate{ANI: math.NaN(), AlignFractionQ: afQ, AlignFractionR: afR}
	}

	weighted := weightedIdentity(estimates, agg)
	return Estimate{
		ANI:            weighted,
		AlignFractionQ: afQ,
		AlignFractionR: afR,
		NumChains:      len(estimates),
	}
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func weightedIdentity(estimates []ChainEstimate, agg Aggregation) float64 {
	switch agg {
	case Robust:
		return trimmedWeightedMean(estimates, 0.10, 0.90)
	case Median:
		return weightedPercentile(estimates, 0.50)
	default:
		return weightedMean(estimates)
	}
}

func weightedMean(estimates []ChainEstimate) float64 {
	var sumW, sumWI float64
	for _, e := range estimates {
		sumW += e.Weight
		sumWI += e.Weight * e.Identity
	}
	if sumW == 0 {
		return 0
	}
	return sumWI / sumW
}

// trimmedWeightedMean walks the estimates in identity order and discards
// those whose weight lies entirely within the lowest lo or the highest
// (1-hi) fraction of the total weight, then takes the weighted mean of what
// remains.
func trimmedWeightedMean(estimates []ChainEstimate, lo, hi float64) float64 {
	sorted := sortedByIdentity(estimates)
	var total float64
	for _, e := range sorted {
		total += e.Weight
	}
	loCut, hiCut := lo*total, hi*total
	var cum, sumW, sumWI float64
	for _, e := range sorted {
		before := cum
		cum += e.Weight
		if cum <= loCut || before >= hiCut {
			continue
		}
		sumW += e.Weight
		sumWI += e.Weight * e.Identity
	}
	if sumW == 0 {
		return weightedMean(estimates)
	}
	return sumWI / sumW
}

func weightedPercentile(estimates []ChainEstimate, p float64) float64 {
	return weightedPercentileSorted(sortedByIdentity(estimates), p)
}

func sortedByIdentity(estimates []ChainEstimate) []ChainEstimate {
	sorted := append([]ChainEstimate(nil), estimates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Identity < sorted[j].Identity })
	return sorted
}

// weightedPercentileSorted returns the weighted p-quantile of identities
// already sorted ascending, by walking the cumulative weight.
func weightedPercentileSorted(sorted []ChainEstimate, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	var total float64
	for _, e := range sorted {
		total += e.Weight
	}
	if total == 0 {
		return sorted[len(sorted)/2].Identity
	}
	target := p * total
	var cum float64
	for _, e := range sorted {
		cum += e.Weight
		if cum >= target {
			return e.Identity
		}
	}
	return sorted[len(sorted)-1].Identity
}
