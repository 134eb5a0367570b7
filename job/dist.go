package job

import (
	"math/rand"

	"github.com/grailbio/gani/ani"
	"github.com/grailbio/gani/chain"
	"github.com/grailbio/gani/internal/config"
	"github.com/grailbio/gani/internal/ioutil"
	"github.com/grailbio/gani/screen"
	"github.com/grailbio/gani/sketch"
)

// Dist implements the "dist" mode: for every query against every reference,
// screen -> chain -> estimate, then sort each query's hits by ANI
// descending and truncate to MaxResults (spec.md §5's ordering guarantee).
// When the reference pool is large enough to warrant it (p.FullIndexEnabled,
// resolved from refCount > 100 or individual_contig_q at driver start), a
// single inverted marker index replaces the O(refs) pairwise screen per
// query (spec.md §4.6).
func Dist(queries, refs []*sketch.Sketch, p config.Resolved, chainOpts chain.Opts) []ioutil.Row {
	sink := ioutil.NewRowSink()
	progress := ioutil.NewProgressCounter("dist")

	var idx *screen.Index
	if p.FullIndexEnabled {
		idx = screen.Build(refs)
	}

	compareOpts := CompareOpts{
		Params:      p,
		ChainOpts:   chainOpts,
		Aggregation: AggregationFor(p.Params),
		RegOpts:     ani.DefaultRegressionOpts,
	}
	if p.EstCI {
		compareOpts.Rng = rand.New(rand.NewSource(1))
	}
	// The index screen already applied the cutoff; don't re-screen pairwise
	// inside ComparePair for index hits.
	noReScreen := compareOpts
	noReScreen.Params.ScreenEnabled = false

	Dispatch(len(queries), p.Threads, sink, progress, func(i int) []ioutil.Row {
		q := queries[i]
		var rows []ioutil.Row
		if idx != nil {
			for _, hit := range idx.Screen(q, p.K, p.ScreenThreshold) {
				if !hit.Result.Pass && !p.DetailedOut {
					continue
				}
				row, ok := ComparePair(q, idx.Ref(hit.RefID), noReScreen)
				if ok {
					rows = append(rows, row)
				}
			}
			return rows
		}
		for _, r := range refs {
			row, ok := ComparePair(q, r, compareOpts)
			if ok {
				rows = append(rows, row)
			}
		}
		return rows
	})

	return ioutil.SortAndTruncate(sink.Rows(), p.MaxResults)
}
