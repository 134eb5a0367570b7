package job

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/grailbio/gani/chain"
	"github.com/grailbio/gani/internal/config"
	"github.com/grailbio/gani/sketch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchFindsExactMatchAsTopHit(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(11))

	targetSeq := randomDNA(rng, 4000)
	refPaths := []string{writeTestFasta(t, dir, "target.fasta", targetSeq)}
	for i := 0; i < 5; i++ {
		refPaths = append(refPaths, writeTestFasta(t, dir, "decoy"+string(rune('a'+i))+".fasta", randomDNA(rng, 4000)))
	}

	dbDir := filepath.Join(dir, "db")
	params := baseParams()
	refs, err := SketchAll(refPaths, dbDir, params)
	require.NoError(t, err)
	require.Len(t, refs, 6)

	markers, err := LoadMarkersFile(dbDir)
	require.NoError(t, err)
	require.Len(t, markers, 6)

	query := buildSketch("query.fasta", targetSeq, baseOpts())
	p := config.Resolve(params, len(markers), 4000)

	rows := Search([]*sketch.Sketch{query}, markers, dbDir, p, chain.DefaultOpts)
	require.NotEmpty(t, rows)
	assert.Equal(t, refPaths[0], rows[0].RefFile)
	assert.InDelta(t, 1.0, rows[0].ANI, 1e-6)
}

func TestSearchWithKeepRefsScoresEveryQuery(t *testing.T) {
	dir := t.TempDir()
	rng := rand.New(rand.NewSource(21))

	refSeq := randomDNA(rng, 4000)
	refPath := writeTestFasta(t, dir, "ref.fasta", refSeq)

	dbDir := filepath.Join(dir, "db")
	params := baseParams()
	params.KeepRefs = true
	_, err := SketchAll([]string{refPath}, dbDir, params)
	require.NoError(t, err)

	markers, err := LoadMarkersFile(dbDir)
	require.NoError(t, err)

	q1 := buildSketch("q1.fasta", refSeq, baseOpts())
	q2 := buildSketch("q2.fasta", refSeq, baseOpts())
	p := config.Resolve(params, len(markers), 4000)

	rows := Search([]*sketch.Sketch{q1, q2}, markers, dbDir, p, chain.DefaultOpts)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.InDelta(t, 1.0, r.ANI, 1e-6)
	}
}
