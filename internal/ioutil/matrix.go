package ioutil

import (
	"fmt"
	"io"
	"strconv"
)

// WriteLowerTriangular writes spec.md §6's PHYLIP-like matrix: first line is
// the integer genome count, then one line per genome — its name followed by
// i floating point values (the comparisons against every earlier genome), or
// all N values when full is true. values(i, j) must be symmetric in the
// sense that the caller supplies ANI(i,j); when distance is true each value
// is reported as 100-ANI instead.
func WriteLowerTriangular(w io.Writer, names []string, values func(i, j int) float64, full, distance bool) error {
	n := len(names)
	if _, err := fmt.Fprintf(w, "%d\n", n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		limit := i
		if full {
			limit = n
		}
		if _, err := io.WriteString(w, names[i]); err != nil {
			return err
		}
		for j := 0; j < limit; j++ {
			v := values(i, j)
			if distance {
				v = 100 - v
			}
			if _, err := io.WriteString(w, "\t"+strconv.FormatFloat(v, 'f', 4, 64)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}
