package chain

import (
	"sort"

	"github.com/grailbio/gani/interval"
)

// FootprintLength returns the total bases covered by the union of the
// k-long windows starting at each position, adapted from the teacher's
// BAM-coordinate interval-union bookkeeping (interval.EndpointIndex,
// interval.UnionScanner) to chain anchor-footprint bookkeeping. This is the
// "L_q covers query bases (union of k-mer footprints)" quantity spec.md
// §4.5 defines the per-chain ANI estimator over.
func FootprintLength(positions []uint32, k int) int {
	if len(positions) == 0 {
		return 0
	}
	sorted := append([]uint32(nil), positions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var endpoints []interval.PosType
	curStart := interval.PosType(sorted[0])
	curEnd := curStart + interval.PosType(k)
	for _, p := range sorted[1:] {
		start := interval.PosType(p)
		end := start + interval.PosType(k)
		if start <= curEnd {
			if end > curEnd {
				curEnd = end
			}
			continue
		}
		endpoints = append(endpoints, curStart, curEnd)
		curStart, curEnd = start, end
	}
	endpoints = append(endpoints, curStart, curEnd)

	us := interval.NewUnionScanner(endpoints)
	var total int
	var start, end interval.PosType
	for us.Scan(&start, &end, interval.PosTypeMax) {
		total += int(end - start)
	}
	return total
}
