package job

import (
	"math"
	"math/rand"
	"runtime"
	"sync"

	"github.com/grailbio/gani/ani"
	"github.com/grailbio/gani/chain"
	"github.com/grailbio/gani/internal/config"
	"github.com/grailbio/gani/internal/ioutil"
	"github.com/grailbio/gani/sketch"
)

// TriangleResult is the "triangle" mode's output: a dense, percentage-scale
// ANI matrix for PHYLIP-like printing, plus the same comparisons as rows for
// sparse/TSV printing. Matrix cells for pairs that never compared (screened
// out, chainless) are NaN; the diagonal is always 100.
type TriangleResult struct {
	Names []string
	ANI   [][]float64
	Rows  []ioutil.Row
}

type trianglePair struct{ i, j int }

// Triangle implements the "triangle" mode: every unique unordered pair among
// genomes is compared exactly once (spec.md §4.6). Results are written into
// a preallocated, index-addressed matrix and row slice so that output stays
// deterministically ordered by (i, j) regardless of which worker finishes
// first (spec.md §5's "triangle output must be deterministically sorted by
// (i, j) before writing").
func Triangle(genomes []*sketch.Sketch, p config.Resolved, chainOpts chain.Opts) TriangleResult {
	n := len(genomes)
	names := make([]string, n)
	for i, g := range genomes {
		names[i] = firstOr(g.ContigNames, g.FileName)
	}

	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
		for j := range matrix[i] {
			matrix[i][j] = math.NaN()
		}
		matrix[i][i] = 100
	}

	var pairs []trianglePair
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, trianglePair{i, j})
		}
	}
	if len(pairs) == 0 {
		return TriangleResult{Names: names, ANI: matrix}
	}

	type slot struct {
		row ioutil.Row
		ok  bool
	}
	results := make([]slot, len(pairs))

	compareOpts := CompareOpts{
		Params:      p,
		ChainOpts:   chainOpts,
		Aggregation: AggregationFor(p.Params),
		RegOpts:     ani.DefaultRegressionOpts,
	}
	if p.EstCI {
		compareOpts.Rng = rand.New(rand.NewSource(1))
	}
	progress := ioutil.NewProgressCounter("triangle")

	threads := p.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if threads > len(pairs) {
		threads = len(pairs)
	}

	idxCh := make(chan int, len(pairs))
	for k := range pairs {
		idxCh <- k
	}
	close(idxCh)

	var wg sync.WaitGroup
	wg.Add(threads)
	for w := 0; w < threads; w++ {
		go func() {
			defer wg.Done()
			for k := range idxCh {
				pr := pairs[k]
				row, ok := ComparePair(genomes[pr.i], genomes[pr.j], compareOpts)
				results[k] = slot{row, ok}
				progress.Add(1)
			}
		}()
	}
	wg.Wait()

	rows := make([]ioutil.Row, 0, len(pairs))
	for k, pr := range pairs {
		s := results[k]
		if !s.ok {
			continue
		}
		rows = append(rows, s.row)
		if !math.IsNaN(s.row.ANI) {
			matrix[pr.i][pr.j] = s.row.ANI * 100
			matrix[pr.j][pr.i] = matrix[pr.i][pr.j]
		}
	}

	return TriangleResult{Names: names, ANI: matrix, Rows: rows}
}

// Value returns the matrix cell for (i, j), the callback shape
// ioutil.WriteLowerTriangular expects.
func (t TriangleResult) Value(i, j int) float64 { return t.ANI[i][j] }
