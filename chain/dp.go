package chain

import "math"

// Opts configures the sparse colinear DP. Defaults are tunables, not laws;
// Band is whatever the caller sets and is not adjusted for c here.
type Opts struct {
	MaxGap     uint32  // bound on both q_gap and r_gap between chained anchors.
	Band       uint32  // max |q_gap - r_gap| allowed between chained anchors.
	MatchScore float64 // flat reward added per anchor.
	MinAnchors int     // minimum anchors for a chain to survive extraction.
	MinScore   float64 // minimum total score for a chain to survive extraction.
}

// DefaultOpts holds the chaining defaults. Band is a fixed 50 for every c;
// it does not follow BandForC (which gives 62 at c=125), and no caller
// derives a c-scaled band.
var DefaultOpts = Opts{
	MaxGap:     1000,
	Band:       50,
	MatchScore: 1.0,
	MinAnchors: 3,
	MinScore:   0,
}

// BandForC scales the colinearity band with the seed compression factor, as
// spec.md §4.4 directs ("BAND scales with c") without pinning an exact
// constant; wider c means sparser seeds means a wider expected gap jitter.
func BandForC(c int) uint32 {
	band := uint32(c / 2)
	if band < 10 {
		band = 10
	}
	return band
}

const (
	gapLinearPenalty = 0.01
	gapLogThreshold  = 64
	gapLogPenalty    = 0.5
)

// gapCost is piecewise linear in the mismatch between the query and
// reference gap, with an additional logarithmic term once either gap grows
// past gapLogThreshold, so that one single large indel doesn't dominate the
// score the way a purely linear penalty would.
func gapCost(qGap, rGap uint32) float64 {
	var diff uint32
	if qGap > rGap {
		diff = qGap - rGap
	} else {
		diff = rGap - qGap
	}
	cost := float64(diff) * gapLinearPenalty
	maxGap := qGap
	if rGap > maxGap {
		maxGap = rGap
	}
	if maxGap > gapLogThreshold {
		cost += math.Log2(float64(maxGap)/float64(gapLogThreshold)) * gapLogPenalty
	}
	return cost
}

// dpNode tracks one anchor's best chain score within its (q_contig, r_contig,
// strand) group.
type dpNode struct {
	score float64
	pred  int // index into the group's anchor slice, or -1.
}

// scoreGroup runs the sparse DP over one colinearity group: all anchors
// sharing (QContig, RContig, StrandMatch), already sorted by QPos. Anchors
// with StrandMatch == 1 are reverse-oriented, so r_pos decreases as q_pos
// increases; gaps are measured accordingly.
func scoreGroup(anchors []Anchor, opts Opts) []dpNode {
	nodes := make([]dpNode, len(anchors))
	win := newPredWindow(64)
	reverse := len(anchors) > 0 && anchors[0].StrandMatch == 1

	for i := range anchors {
		a := anchors[i]
		if a.QPos > opts.MaxGap {
			win.evictBefore(anchors, a.QPos-opts.MaxGap)
		}

		best := dpNode{score: opts.MatchScore, pred: -1}
		win.each(func(pIdx int) {
			p := anchors[pIdx]
			qGap := a.QPos - p.QPos
			if qGap == 0 || qGap > opts.MaxGap {
				return
			}
			var rGap uint32
			var ok bool
			if reverse {
				if p.RPos > a.RPos {
					rGap = p.RPos - a.RPos
					ok = true
				}
			} else {
				if a.RPos > p.RPos {
					rGap = a.RPos - p.RPos
					ok = true
				}
			}
			if !ok || rGap > opts.MaxGap {
				return
			}
			var band uint32
			if qGap > rGap {
				band = qGap - rGap
			} else {
				band = rGap - qGap
			}
			if band > opts.Band {
				return
			}

			cand := nodes[pIdx].score + opts.MatchScore - gapCost(qGap, rGap)
			if cand > best.score || (cand == best.score && best.pred >= 0 && betterTieBreak(anchors, pIdx, best.pred, a)) {
				best = dpNode{score: cand, pred: pIdx}
			}
		})

		nodes[i] = best
		win.push(i)
	}
	return nodes
}

// betterTieBreak implements spec.md §4.4's tie-break rule: prefer the
// predecessor with the smaller |q_gap-r_gap|, then the smaller q_gap.
func betterTieBreak(anchors []Anchor, candIdx, curIdx int, a Anchor) bool {
	cand, cur := anchors[candIdx], anchors[curIdx]
	candQGap := a.QPos - cand.QPos
	curQGap := a.QPos - cur.QPos
	candBand := gapDiff(a, cand)
	curBand := gapDiff(a, cur)
	if candBand != curBand {
		return candBand < curBand
	}
	return candQGap < curQGap
}

func gapDiff(a, p Anchor) uint32 {
	qGap := a.QPos - p.QPos
	var rGap uint32
	if a.RPos > p.RPos {
		rGap = a.RPos - p.RPos
	} else {
		rGap = p.RPos - a.RPos
	}
	if qGap > rGap {
		return qGap - rGap
	}
	return rGap - qGap
}
