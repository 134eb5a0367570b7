package ani

import (
	"math"
	"math/rand"
	"sort"
)

// BootstrapResamples is the fixed resample count spec.md §4.5 specifies.
const BootstrapResamples = 100

// Bootstrap computes a 5%/95% percentile confidence interval for ANI by
// resampling chains with replacement, weighted by each chain's covered-query
// weight, BootstrapResamples times and recomputing the aggregate identity
// each time. Callers own rng so results are reproducible in tests.
func Bootstrap(estimates []ChainEstimate, agg Aggregation, rng *rand.Rand) (ciLow, ciHigh float64, ok bool) {
	if len(estimates) == 0 {
		return 0, 0, false
	}
	cum := make([]float64, len(estimates))
	var total float64
	for i, e := range estimates {
		total += e.Weight
		cum[i] = total
	}
	if total == 0 {
		return 0, 0, false
	}

	samples := make([]float64, BootstrapResamples)
	resample := make([]ChainEstimate, len(estimates))
	for b := 0; b < BootstrapResamples; b++ {
		for i := range resample {
			target := rng.Float64() * total
			idx := sort.Search(len(cum), func(j int) bool { return cum[j] >= target })
			if idx == len(cum) {
				idx = len(cum) - 1
			}
			resample[i] = estimates[idx]
		}
		samples[b] = weightedIdentity(resample, agg)
	}
	sort.Float64s(samples)
	return percentile(samples, 0.05), percentile(samples, 0.95), true
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	idx := int(p * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
