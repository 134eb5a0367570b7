// Package job implements the four public command modes (sketch, dist,
// triangle, search) on top of the screen/chain/ani pipeline: parallel
// dispatch across pairs, the keep_refs sketch cache, and per-mode output
// assembly.
package job

import (
	"math"
	"math/rand"

	"github.com/grailbio/gani/ani"
	"github.com/grailbio/gani/chain"
	"github.com/grailbio/gani/internal/config"
	"github.com/grailbio/gani/internal/ioutil"
	"github.com/grailbio/gani/screen"
	"github.com/grailbio/gani/seed"
	"github.com/grailbio/gani/sketch"
)

// CompareOpts bundles the parameters ComparePair needs for every pair in a
// run; it is built once by the driver and shared read-only across workers.
type CompareOpts struct {
	Params      config.Resolved
	ChainOpts   chain.Opts
	Aggregation ani.Aggregation
	RegOpts     ani.RegressionOpts
	// Rng drives bootstrap CI resampling. nil disables CI even when
	// Params.EstCI is set; callers that want --ci pass a seeded *rand.Rand
	// (tests use a fixed seed for reproducibility).
	Rng *rand.Rand
}

// ComparePair runs the full screen -> chain -> estimate -> (optional
// regression/CI) pipeline for one query/reference pair. ok is false when the
// pair should be dropped from output entirely (screened out, either sketch
// below seed.MinSketchSize seeds, or chainless, and detailed output was not
// requested); screen.md §7's Empty-result row
// is what DetailedOut forces ComparePair to still emit.
func ComparePair(q, r *sketch.Sketch, opts CompareOpts) (row ioutil.Row, ok bool) {
	p := opts.Params

	row = ioutil.Row{
		RefFile:   r.FileName,
		QueryFile: q.FileName,
		RefName:   firstOr(r.ContigNames, r.FileName),
		QueryName: firstOr(q.ContigNames, q.FileName),
		ANI:       math.NaN(),
		Detailed:  p.DetailedOut,
	}
	if p.DetailedOut {
		row.N50Ref, row.N50Query = r.N50(), q.N50()
		row.NumContigsR, row.NumContigsQ = r.NumContigs(), q.NumContigs()
	}

	if p.ScreenEnabled {
		sr := screen.Pairwise(q, r, p.K, p.ScreenThreshold)
		if !sr.Pass {
			return row, p.DetailedOut
		}
	}

	if len(q.Seeds) < seed.MinSketchSize || len(r.Seeds) < seed.MinSketchSize {
		return row, p.DetailedOut
	}

	anchors := chain.GenerateAnchors(q, r)
	chains := chain.Extract(anchors, p.K, opts.ChainOpts)
	if len(chains) == 0 {
		return row, p.DetailedOut
	}

	estimates := make([]ani.ChainEstimate, len(chains))
	for i, c := range chains {
		estimates[i] = ani.ChainIdentity(c, p.K, p.C)
	}
	est := ani.Aggregate(estimates, q.TotalLength, r.TotalLength, opts.Aggregation, p.MinAF)
	if math.IsNaN(est.ANI) {
		return row, p.DetailedOut
	}

	finalANI := est.ANI
	if p.LearnedANIEnabled {
		af := math.Max(est.AlignFractionQ, est.AlignFractionR)
		finalANI = ani.ApplyRegression(est.ANI, af, est.NumChains, p.C, opts.RegOpts)
	}
	row.ANI = finalANI
	row.AlignFractionRef = est.AlignFractionR
	row.AlignFractionQuery = est.AlignFractionQ

	if p.EstCI && opts.Rng != nil {
		if lo, hi, haveCI := ani.Bootstrap(estimates, opts.Aggregation, opts.Rng); haveCI {
			row.HasCI, row.CILow, row.CIHigh = true, lo, hi
		}
	}
	return row, true
}

// AggregationFor maps the mutually-exclusive robust/median flags to an
// ani.Aggregation (config.Params.Validate rejects both set at once).
func AggregationFor(p config.Params) ani.Aggregation {
	switch {
	case p.Robust:
		return ani.Robust
	case p.Median:
		return ani.Median
	default:
		return ani.Mean
	}
}

func firstOr(names []string, fallback string) string {
	if len(names) > 0 {
		return names[0]
	}
	return fallback
}
