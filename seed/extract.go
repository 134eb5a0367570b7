package seed

import (
	"sort"

	"github.com/grailbio/base/log"
)

// MinSketchSize is the minimum number of retained seeds an assembly must
// produce before downstream comparisons involving it are considered
// reliable; sketches below this size yield NaN ANI (see job.ComparePair).
const MinSketchSize = 50

// DefaultRepetitiveKmerThreshold is the default multiplicity at or above
// which a k-mer hash is suppressed as an anchor. The value is carried over from the
// reference implementation with no documented rationale; treat it as a
// tunable, not a law of nature.
const DefaultRepetitiveKmerThreshold = 30

// Opts configures the seed extractor.
type Opts struct {
	K       int
	C       int // seed compression factor.
	MarkerC int // marker compression factor; must be >= C.
	UseAA   bool
	// SyncmerD is the open-syncmer downsample factor used in AA mode instead
	// of the modular seed filter (see original_source/src/main.rs's "-d"
	// flag, folded in here as SPEC_FULL.md §9 describes).
	SyncmerD int
	// RepetitiveKmerThreshold is the multiplicity at or above which a k-mer
	// is suppressed as an anchor candidate.
	RepetitiveKmerThreshold int
}

// DefaultOpts mirrors the reference tool's built-in defaults.
var DefaultOpts = Opts{
	K:                       15,
	C:                       125,
	MarkerC:                 1000,
	UseAA:                   false,
	SyncmerD:                0,
	RepetitiveKmerThreshold: DefaultRepetitiveKmerThreshold,
}

// Seed is a canonicalised, retained k-mer occurrence.
type Seed struct {
	Hash     uint64
	ContigID uint32
	Position uint32
	Strand   uint8
}

// Position is a single occurrence of a hash within a sketch, as stored in
// the dense inverted index.
type Position struct {
	ContigID uint32
	Pos      uint32
	Strand   uint8
}

// Result is the output of a Builder: the full seed/marker/repetitive sets
// for one assembly, ready to become a sketch.Sketch.
type Result struct {
	Seeds           []Seed
	Markers         map[uint64]struct{}
	Repetitive      map[uint64]struct{}
	KmerToPositions map[uint64][]Position
}

// Builder accumulates seeds across the contigs of one assembly.
type Builder struct {
	opts   Opts
	kz     *kmerizer
	seeds  []Seed
	marker map[uint64]struct{}
	counts map[uint64]uint32
}

// NewBuilder creates a Builder for one assembly.
func NewBuilder(opts Opts) *Builder {
	return &Builder{
		opts:   opts,
		kz:     newKmerizer(opts.K),
		marker: make(map[uint64]struct{}),
		counts: make(map[uint64]uint32),
	}
}

func seedMask(c int) (mask uint64, pow2 bool) {
	if c <= 1 {
		return 0, true
	}
	if c&(c-1) == 0 {
		return uint64(c - 1), true
	}
	return 0, false
}

func (b *Builder) keepAsSeed(h uint64) bool {
	if mask, pow2 := seedMask(b.opts.C); pow2 {
		return h&mask == 0
	}
	return h%uint64(b.opts.C) == 0
}

func (b *Builder) keepAsMarker(h uint64) bool {
	if mask, pow2 := seedMask(b.opts.MarkerC); pow2 {
		return h&mask == 0
	}
	return h%uint64(b.opts.MarkerC) == 0
}

// AddContig extracts seeds from one contig's sequence. contigID indexes into
// the assembly's contig list. Contigs shorter than k produce no seeds.
func (b *Builder) AddContig(contigID uint32, contigName string, seq string) {
	if len(seq) < b.opts.K {
		log.Debugf("seed: contig %s shorter than k=%d, no seeds extracted", contigName, b.opts.K)
		return
	}
	b.kz.reset(seq)
	for b.kz.scan() {
		cur := b.kz.get()
		canon := cur.canonical()
		h := Hash64(canon)
		if !b.keepAsSeed(h) {
			continue
		}
		b.seeds = append(b.seeds, Seed{
			Hash:     h,
			ContigID: contigID,
			Position: cur.pos,
			Strand:   cur.strand(),
		})
		b.counts[h]++
		if b.keepAsMarker(h) {
			b.marker[h] = struct{}{}
		}
	}
}

// Finalize computes the repetitive set, builds the dense inverted index, and
// returns the completed Result. The Builder must not be reused afterward.
func (b *Builder) Finalize() *Result {
	sort.Slice(b.seeds, func(i, j int) bool {
		if b.seeds[i].ContigID != b.seeds[j].ContigID {
			return b.seeds[i].ContigID < b.seeds[j].ContigID
		}
		return b.seeds[i].Position < b.seeds[j].Position
	})

	threshold := b.opts.RepetitiveKmerThreshold
	if threshold <= 0 {
		threshold = DefaultRepetitiveKmerThreshold
	}
	repetitive := make(map[uint64]struct{})
	for h, n := range b.counts {
		if n >= uint32(threshold) {
			repetitive[h] = struct{}{}
		}
	}

	kmerToPositions := make(map[uint64][]Position, len(b.counts)-len(repetitive))
	for _, s := range b.seeds {
		if _, rep := repetitive[s.Hash]; rep {
			continue
		}
		kmerToPositions[s.Hash] = append(kmerToPositions[s.Hash], Position{
			ContigID: s.ContigID,
			Pos:      s.Position,
			Strand:   s.Strand,
		})
	}

	if len(b.seeds) < MinSketchSize {
		log.Printf("seed: assembly produced only %d seeds (< %d); comparisons against it will return NaN ANI", len(b.seeds), MinSketchSize)
	}

	return &Result{
		Seeds:           b.seeds,
		Markers:         b.marker,
		Repetitive:      repetitive,
		KmerToPositions: kmerToPositions,
	}
}
