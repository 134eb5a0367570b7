// Package sketch holds the immutable, persistable Sketch entity produced by
// the seed extractor, plus its binary on-disk format.
package sketch

import (
	"github.com/grailbio/gani/seed"
	"github.com/pkg/errors"
)

// Sketch is an immutable summary of one genome assembly: its seeds, its
// sparser marker sub-sample, and the metadata needed to report results
// against it. A Sketch is safe for concurrent read access once constructed.
type Sketch struct {
	FileName      string
	ContigNames   []string
	ContigLengths []uint32
	TotalLength   uint64

	K, C, MarkerC int
	UseAA         bool

	// MarkerOnly sketches (as loaded from markers.bin) carry Markers and
	// Repetitive but not Seeds/KmerToPositions; they cannot be chained against
	// directly and must be upgraded by loading the full .sketch file.
	MarkerOnly bool

	Seeds           []seed.Seed
	KmerToPositions map[uint64][]seed.Position
	Markers         map[uint64]struct{}
	Repetitive      map[uint64]struct{}
}

// New builds a full Sketch from one assembly's extracted seeds.
func New(fileName string, contigNames []string, contigLengths []uint32, res *seed.Result, opts seed.Opts) *Sketch {
	var total uint64
	for _, l := range contigLengths {
		total += uint64(l)
	}
	return &Sketch{
		FileName:        fileName,
		ContigNames:     contigNames,
		ContigLengths:   contigLengths,
		TotalLength:     total,
		K:               opts.K,
		C:               opts.C,
		MarkerC:         opts.MarkerC,
		UseAA:           opts.UseAA,
		Seeds:           res.Seeds,
		KmerToPositions: res.KmerToPositions,
		Markers:         res.Markers,
		Repetitive:      res.Repetitive,
	}
}

// NumContigs returns the number of contigs in the assembly.
func (s *Sketch) NumContigs() int { return len(s.ContigNames) }

// N50 returns the contig-length N50 statistic: the length L such that
// contigs of length >= L cover at least half the total assembly length.
func (s *Sketch) N50() uint32 {
	if len(s.ContigLengths) == 0 {
		return 0
	}
	lengths := append([]uint32(nil), s.ContigLengths...)
	// Sort descending (insertion sort is fine; contig counts are small
	// relative to seed counts in practice, and this runs once per sketch).
	for i := 1; i < len(lengths); i++ {
		for j := i; j > 0 && lengths[j] > lengths[j-1]; j-- {
			lengths[j], lengths[j-1] = lengths[j-1], lengths[j]
		}
	}
	var total uint64
	for _, l := range lengths {
		total += uint64(l)
	}
	half := total / 2
	var cum uint64
	for _, l := range lengths {
		cum += uint64(l)
		if cum >= half {
			return l
		}
	}
	return lengths[len(lengths)-1]
}

// Validate checks the structural invariants SPEC_FULL.md §3 demands. It is
// used by tests and may also be called defensively after a load.
func (s *Sketch) Validate() error {
	if s.MarkerOnly {
		for h := range s.Markers {
			if s.MarkerC == 0 || h%uint64(s.MarkerC) != 0 {
				// Power-of-two marker_c is also allowed; only reject when neither
				// the modular nor the mask form holds.
				if s.MarkerC&(s.MarkerC-1) != 0 || h&uint64(s.MarkerC-1) != 0 {
					return errors.Errorf("sketch %s: marker hash %d does not pass the marker filter", s.FileName, h)
				}
			}
		}
		return nil
	}
	seedHashes := make(map[uint64]struct{}, len(s.Seeds))
	for _, sd := range s.Seeds {
		seedHashes[sd.Hash] = struct{}{}
	}
	for m := range s.Markers {
		if _, ok := seedHashes[m]; !ok {
			return errors.Errorf("sketch %s: marker hash %d is not a seed hash", s.FileName, m)
		}
	}
	if len(s.Markers) > len(s.Seeds) {
		return errors.Errorf("sketch %s: more markers (%d) than seeds (%d)", s.FileName, len(s.Markers), len(s.Seeds))
	}
	for h := range s.KmerToPositions {
		if _, rep := s.Repetitive[h]; rep {
			return errors.Errorf("sketch %s: repetitive hash %d present in kmer_to_positions", s.FileName, h)
		}
	}
	return nil
}
