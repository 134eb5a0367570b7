package screen

import (
	"testing"

	"github.com/grailbio/gani/sketch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func markerSketch(markers ...uint64) *sketch.Sketch {
	m := make(map[uint64]struct{}, len(markers))
	for _, h := range markers {
		m[h] = struct{}{}
	}
	return &sketch.Sketch{MarkerOnly: true, Markers: m}
}

func TestPairwiseIdenticalMarkersIsFullJaccard(t *testing.T) {
	q := markerSketch(1, 2, 3, 4, 5, 6, 7, 8)
	r := markerSketch(1, 2, 3, 4, 5, 6, 7, 8)
	res := Pairwise(q, r, 15, 0.8)
	assert.InDelta(t, 1.0, res.Jaccard, 1e-9)
	assert.InDelta(t, 1.0, res.ANI, 1e-9)
	assert.True(t, res.Pass)
}

func TestPairwiseEmptyMarkersRejects(t *testing.T) {
	q := markerSketch()
	r := markerSketch(1, 2, 3)
	res := Pairwise(q, r, 15, 0.8)
	assert.False(t, res.Pass)
	assert.Equal(t, 0.0, res.Jaccard)
}

func TestPairwiseLowConfidenceFlag(t *testing.T) {
	q := markerSketch(1, 2)
	r := markerSketch(1, 2)
	res := Pairwise(q, r, 15, 0.5)
	assert.True(t, res.LowConfidence)
}

func TestMashANIMonotonicInJaccard(t *testing.T) {
	low := MashANI(0.1, 15)
	high := MashANI(0.9, 15)
	assert.Less(t, low, high)
	assert.InDelta(t, 1.0, MashANI(1.0, 15), 1e-9)
}

func TestIndexAgreesWithPairwise(t *testing.T) {
	refs := []*sketch.Sketch{
		markerSketch(1, 2, 3, 4),
		markerSketch(1, 2, 5, 6),
		markerSketch(100, 200),
	}
	idx := Build(refs)
	q := markerSketch(1, 2, 3, 9)

	hits := idx.Screen(q, 15, 0.0)
	require.Len(t, hits, 2) // ref 2 (100,200) shares nothing, never touched.

	byRef := map[int]Result{}
	for _, h := range hits {
		byRef[h.RefID] = h.Result
	}
	for i, r := range refs {
		if i == 2 {
			continue
		}
		want := Pairwise(q, r, 15, 0.0)
		got, ok := byRef[i]
		require.True(t, ok)
		assert.InDelta(t, want.Jaccard, got.Jaccard, 1e-9)
		assert.InDelta(t, want.ANI, got.ANI, 1e-9)
	}
}

func TestIndexScreenMonotonicityWithPairwise(t *testing.T) {
	// Testable property #5: if pairwise rejects at cutoff a, the indexed
	// screen also rejects at cutoff a.
	refs := []*sketch.Sketch{markerSketch(1, 2, 3, 4, 5)}
	idx := Build(refs)
	q := markerSketch(1, 2)

	cutoff := 0.99
	pw := Pairwise(q, refs[0], 15, cutoff)
	hits := idx.Screen(q, 15, cutoff)
	require.Len(t, hits, 1)
	assert.Equal(t, pw.Pass, hits[0].Result.Pass)
}
