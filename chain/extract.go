package chain

import (
	"math"
	"sort"
)

// Chain is a maximal colinear run of anchors sharing one contig pair and
// strand orientation.
type Chain struct {
	QContig, RContig uint32
	StrandMatch      uint8
	Anchors          []Anchor // ascending QPos order.
	Score            float64
	NumAnchors       int
	QLo, QHi         uint32
	RLo, RHi         uint32
	Hashes           map[uint64]struct{} // matched k-mer hashes, for CI bootstrap.
}

// QPositions returns the chain's query anchor starts, for footprint coverage.
func (c Chain) QPositions() []uint32 {
	out := make([]uint32, len(c.Anchors))
	for i, a := range c.Anchors {
		out[i] = a.QPos
	}
	return out
}

// RPositions returns the chain's reference anchor starts, for footprint
// coverage.
func (c Chain) RPositions() []uint32 {
	out := make([]uint32, len(c.Anchors))
	for i, a := range c.Anchors {
		out[i] = a.RPos
	}
	return out
}

type groupKey struct {
	QContig, RContig uint32
	Strand           uint8
}

// Extract groups anchors by (q_contig, r_contig, strand), runs the sparse DP
// within each group, and repeatedly pulls the highest-scoring remaining
// chain by backtracking from the current score maximum, removing its
// anchors, until no anchors remain. Chains shorter than opts.MinAnchors or
// scoring below opts.MinScore are discarded (their anchors are still
// removed, since they cannot be reused in a different chain). Chains are
// returned sorted by score, descending.
//
// Extraction itself is O(groupSize) per extracted-or-discarded candidate, so
// worst case (many isolated single anchors in one group) is quadratic in
// that group's size; spec.md §4.4 explicitly allows an O(n²) variant when n
// is small, and the preceding scoreGroup DP is the part that must stay near
// O(n log n).
func Extract(anchors []Anchor, k int, opts Opts) []Chain {
	groups := make(map[groupKey][]int)
	for i, a := range anchors {
		key := groupKey{a.QContig, a.RContig, a.StrandMatch}
		groups[key] = append(groups[key], i)
	}

	var chains []Chain
	for key, idxs := range groups {
		local := make([]Anchor, len(idxs))
		for i, gi := range idxs {
			local[i] = anchors[gi]
		}
		nodes := scoreGroup(local, opts)
		used := make([]bool, len(local))

		for {
			best := -1
			for i := range nodes {
				if used[i] {
					continue
				}
				if best == -1 || nodes[i].score > nodes[best].score {
					best = i
				}
			}
			if best == -1 {
				break
			}

			var backward []int
			cur := best
			for cur != -1 && !used[cur] {
				backward = append(backward, cur)
				used[cur] = true
				cur = nodes[cur].pred
			}
			// backward was collected newest-first; reverse to ascending QPos.
			for l, r := 0, len(backward)-1; l < r; l, r = l+1, r-1 {
				backward[l], backward[r] = backward[r], backward[l]
			}

			if len(backward) < opts.MinAnchors || nodes[best].score < opts.MinScore {
				continue
			}

			chainAnchors := make([]Anchor, len(backward))
			hashes := make(map[uint64]struct{}, len(backward))
			qLo, rLo := uint32(math.MaxUint32), uint32(math.MaxUint32)
			var qHi, rHi uint32
			for i, ci := range backward {
				a := local[ci]
				chainAnchors[i] = a
				hashes[a.Hash] = struct{}{}
				if a.QPos < qLo {
					qLo = a.QPos
				}
				if a.QPos > qHi {
					qHi = a.QPos
				}
				if a.RPos < rLo {
					rLo = a.RPos
				}
				if a.RPos > rHi {
					rHi = a.RPos
				}
			}
			chains = append(chains, Chain{
				QContig:     key.QContig,
				RContig:     key.RContig,
				StrandMatch: key.Strand,
				Anchors:     chainAnchors,
				Score:       nodes[best].score,
				NumAnchors:  len(chainAnchors),
				QLo:         qLo,
				QHi:         qHi + uint32(k),
				RLo:         rLo,
				RHi:         rHi + uint32(k),
				Hashes:      hashes,
			})
		}
	}

	sort.Slice(chains, func(i, j int) bool { return chains[i].Score > chains[j].Score })
	return chains
}
