package job

import (
	"runtime"
	"sync"

	"github.com/grailbio/gani/internal/ioutil"
)

// Dispatch runs fn(i) for every i in [0, n) across a fixed pool of threads
// goroutines (runtime.NumCPU() if threads <= 0), merging each worker's own
// result rows into sink exactly once at its join point. This is the data-
// parallel-over-pairs scheduling model spec.md §5 describes, grounded on
// cmd/bio-fusion/main.go's processFASTQ request-channel worker pool; unlike
// that donor's generateCandidates, which appends every single result under
// one shared allResultsMu, each worker here accumulates a local []Row and
// calls sink.Merge once, per spec.md §9's "prefer per-worker local vectors
// merged at join time" note.
func Dispatch(n, threads int, sink *ioutil.RowSink, progress *ioutil.ProgressCounter, fn func(i int) []ioutil.Row) {
	if n <= 0 {
		return
	}
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if threads > n {
		threads = n
	}

	idxCh := make(chan int, n)
	for i := 0; i < n; i++ {
		idxCh <- i
	}
	close(idxCh)

	var wg sync.WaitGroup
	wg.Add(threads)
	for w := 0; w < threads; w++ {
		go func() {
			defer wg.Done()
			var local []ioutil.Row
			for i := range idxCh {
				local = append(local, fn(i)...)
				if progress != nil {
					progress.Add(1)
				}
			}
			sink.Merge(local)
		}()
	}
	wg.Wait()
}
