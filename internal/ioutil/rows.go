// Package ioutil holds the job driver's output-side collaborators: the
// per-pair row sink, the triangular matrix writer, and progress logging.
// None of it is core pipeline logic; it exists at the contract spec.md §6
// describes.
package ioutil

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Row is one query/reference comparison result, spec.md §6's TSV schema.
type Row struct {
	RefFile, QueryFile string
	RefName, QueryName string
	ANI                float64 // NaN if screened out or chainless.
	AlignFractionRef   float64
	AlignFractionQuery float64
	HasCI              bool
	CILow, CIHigh      float64
	Detailed           bool
	N50Ref, N50Query   uint32
	NumContigsR        int
	NumContigsQ        int
}

// TSV formats the row per spec.md §6: base columns, then CI columns if
// present, then the detailed columns if requested.
func (r Row) TSV() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%s",
		r.RefFile, r.QueryFile, formatFloat(r.ANI),
		formatFloat(r.AlignFractionRef), formatFloat(r.AlignFractionQuery))
	fmt.Fprintf(&b, "\t%s\t%s", r.RefName, r.QueryName)
	if r.HasCI {
		fmt.Fprintf(&b, "\t%s\t%s", formatFloat(r.CILow), formatFloat(r.CIHigh))
	}
	if r.Detailed {
		fmt.Fprintf(&b, "\t%d\t%d\t%d\t%d", r.N50Ref, r.N50Query, r.NumContigsR, r.NumContigsQ)
	}
	return b.String()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// RowSink accumulates comparison rows across many worker goroutines.
// Workers keep their own local []Row and call Merge exactly once, at their
// join point, so the hot per-pair path touches no shared lock — spec.md §9's
// "prefer per-worker local vectors merged at join time" design note, a
// deliberate departure from the teacher's per-result mutex-guarded append
// (cmd/bio-fusion/main.go's generateCandidates/allResultsMu).
type RowSink struct {
	mu   sync.Mutex
	rows []Row
}

// NewRowSink returns an empty sink.
func NewRowSink() *RowSink { return &RowSink{} }

// Merge appends a worker's local result buffer. Call once per worker, not
// per row.
func (s *RowSink) Merge(local []Row) {
	if len(local) == 0 {
		return
	}
	s.mu.Lock()
	s.rows = append(s.rows, local...)
	s.mu.Unlock()
}

// Rows returns the accumulated rows. Call only after all workers have
// joined.
func (s *RowSink) Rows() []Row { return s.rows }

// SortAndTruncate groups rows by QueryFile, sorts each group by ANI
// descending, and truncates each group to maxResults (0 means unlimited).
// This implements the "dist and search sort each query's hits by ANI
// descending, then truncate" ordering guarantee (spec.md §5).
func SortAndTruncate(rows []Row, maxResults int) []Row {
	byQuery := make(map[string][]Row)
	var order []string
	for _, r := range rows {
		if _, ok := byQuery[r.QueryFile]; !ok {
			order = append(order, r.QueryFile)
		}
		byQuery[r.QueryFile] = append(byQuery[r.QueryFile], r)
	}

	out := make([]Row, 0, len(rows))
	for _, q := range order {
		group := byQuery[q]
		sort.SliceStable(group, func(i, j int) bool {
			return higherANI(group[i].ANI, group[j].ANI)
		})
		if maxResults > 0 && len(group) > maxResults {
			group = group[:maxResults]
		}
		out = append(out, group...)
	}
	return out
}

// higherANI orders NaN (screened-out) rows last.
func higherANI(a, b float64) bool {
	aNaN, bNaN := a != a, b != b
	if aNaN != bNaN {
		return !aNaN
	}
	return a > b
}

// WriteTSV writes a header-free TSV, one row per line.
func WriteTSV(w io.Writer, rows []Row) error {
	for _, r := range rows {
		if _, err := io.WriteString(w, r.TSV()+"\n"); err != nil {
			return err
		}
	}
	return nil
}
