package job

import (
	"math/rand"

	"github.com/grailbio/base/log"
	"github.com/grailbio/gani/ani"
	"github.com/grailbio/gani/chain"
	"github.com/grailbio/gani/internal/config"
	"github.com/grailbio/gani/internal/ioutil"
	"github.com/grailbio/gani/screen"
	"github.com/grailbio/gani/sketch"
)

// Search implements the "search" mode: markerSketches is the marker-only
// database loaded from dbDir's markers.bin; queries are full query sketches
// (built from FASTA or loaded from a .sketch). For each query, the full
// index screens the whole database, then surviving references are lazily
// loaded from their sibling ".sketch" files and cached in RefCache per
// spec.md §4.6/§5's keep_refs design.
func Search(queries, markerSketches []*sketch.Sketch, dbDir string, p config.Resolved, chainOpts chain.Opts) []ioutil.Row {
	sink := ioutil.NewRowSink()
	progress := ioutil.NewProgressCounter("search")
	cache := NewRefCache()

	// search's reference pools are routinely in the thousands, so the full
	// index is always built here rather than re-deriving FullIndexEnabled.
	idx := screen.Build(markerSketches)

	compareOpts := CompareOpts{
		Params:      p,
		ChainOpts:   chainOpts,
		Aggregation: AggregationFor(p.Params),
		RegOpts:     ani.DefaultRegressionOpts,
	}
	if p.EstCI {
		compareOpts.Rng = rand.New(rand.NewSource(1))
	}
	// idx.Screen already applied the cutoff; ComparePair shouldn't re-screen.
	noReScreen := compareOpts
	noReScreen.Params.ScreenEnabled = false

	Dispatch(len(queries), p.Threads, sink, progress, func(i int) []ioutil.Row {
		q := queries[i]
		var rows []ioutil.Row
		for _, hit := range idx.Screen(q, p.K, p.ScreenThreshold) {
			if !hit.Result.Pass && !p.DetailedOut {
				continue
			}
			refFile := idx.Ref(hit.RefID).FileName
			full, err := cache.GetOrLoad(refFile, func(path string) (*sketch.Sketch, error) {
				return LoadFullSketch(dbDir, path)
			})
			if err != nil {
				log.Printf("search: skipping reference %s: %v", refFile, err)
				continue
			}
			row, ok := ComparePair(q, full, noReScreen)
			if !p.KeepRefs {
				cache.Evict(refFile)
			}
			if !ok {
				continue
			}
			rows = append(rows, row)
		}
		return rows
	})

	return ioutil.SortAndTruncate(sink.Rows(), p.MaxResults)
}
