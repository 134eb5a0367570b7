// Package chain implements the sparse colinear-chaining dynamic program that
// turns two sketches' shared, non-repetitive seed hashes into runs of
// colinear anchors.
package chain

import (
	"sort"

	"github.com/grailbio/gani/sketch"
)

// Anchor is one shared, non-repetitive k-mer occurrence between a query and
// a reference sketch.
type Anchor struct {
	Hash        uint64
	QContig     uint32
	QPos        uint32
	RContig     uint32
	RPos        uint32
	StrandMatch uint8 // 0: same canonical strand in both sketches, 1: opposite
}

func strandMatch(qStrand, rStrand uint8) uint8 {
	if qStrand == rStrand {
		return 0
	}
	return 1
}

// GenerateAnchors emits every anchor shared between q and r: for each hash
// present (non-repetitively) in both sketches' dense inverted indexes, every
// combination of query/reference occurrence. The smaller sketch's index is
// walked to minimize lookups into the larger one, matching spec.md §4.4's
// "iterate the smaller sketch" rule; the result is independent of which side
// was walked. Anchors are returned sorted by (q_contig, q_pos).
func GenerateAnchors(q, r *sketch.Sketch) []Anchor {
	small, big := q, r
	swapped := false
	if len(small.KmerToPositions) > len(big.KmerToPositions) {
		small, big = big, small
		swapped = true
	}

	anchors := make([]Anchor, 0, len(small.KmerToPositions))
	for h, smallPositions := range small.KmerToPositions {
		bigPositions, ok := big.KmerToPositions[h]
		if !ok {
			continue
		}
		for _, sp := range smallPositions {
			for _, bp := range bigPositions {
				qp, rp := sp, bp
				if swapped {
					qp, rp = bp, sp
				}
				anchors = append(anchors, Anchor{
					Hash:        h,
					QContig:     qp.ContigID,
					QPos:        qp.Pos,
					RContig:     rp.ContigID,
					RPos:        rp.Pos,
					StrandMatch: strandMatch(qp.Strand, rp.Strand),
				})
			}
		}
	}

	sort.Slice(anchors, func(i, j int) bool {
		if anchors[i].QContig != anchors[j].QContig {
			return anchors[i].QContig < anchors[j].QContig
		}
		return anchors[i].QPos < anchors[j].QPos
	})
	return anchors
}
