package screen

import (
	"github.com/grailbio/gani/sketch"
)

// nShards mirrors the 256-way hash-table sharding idea: the upper 8 bits of
// the marker's hash select a shard, keeping any one shard's map small. Unlike
// the donor implementation this index uses plain Go maps rather than a
// hand-rolled mmap'd open-addressed table — see DESIGN.md for why.
const nShards = 256

// Index is an inverted marker index over a fixed set of reference sketches,
// built once and read only afterward. It is safe for concurrent reads by
// many screening workers.
type Index struct {
	shards      [nShards]map[uint64][]int32
	refs        []*sketch.Sketch
	markerCount []int
}

func shardFor(h uint64) uint64 { return h >> 56 }

// rehash re-derives the stable marker hash's shard/bucket split; markers are
// already farm-hashed k-mer values (see seed.Hash64), so no further hashing
// is needed here. The name documents the origin of the bit split.
func rehash(h uint64) uint64 { return h }

// Build constructs a full inverted index from the marker sets of refs.
// Activate this automatically when len(refs) > 100 or individual_contig_q is
// set (see config.Resolve), and otherwise prefer Pairwise.
func Build(refs []*sketch.Sketch) *Index {
	idx := &Index{
		refs:        refs,
		markerCount: make([]int, len(refs)),
	}
	for s := range idx.shards {
		idx.shards[s] = make(map[uint64][]int32)
	}
	for refID, r := range refs {
		idx.markerCount[refID] = len(r.Markers)
		for h := range r.Markers {
			h = rehash(h)
			shard := idx.shards[shardFor(h)]
			shard[h] = append(shard[h], int32(refID))
		}
	}
	return idx
}

// Hit is one reference that shares at least one marker with a screened
// query.
type Hit struct {
	RefID  int
	Result Result
}

// Screen runs the full-index screen for one query sketch, returning a hit
// for every reference sharing at least one marker, regardless of whether it
// passes the cutoff; callers filter on Result.Pass.
func (idx *Index) Screen(q *sketch.Sketch, k int, cutoff float64) []Hit {
	hits := make([]int32, len(idx.refs))
	touched := make([]int32, 0, len(q.Markers))
	for h := range q.Markers {
		h = rehash(h)
		shard := idx.shards[shardFor(h)]
		for _, refID := range shard[h] {
			if hits[refID] == 0 {
				touched = append(touched, refID)
			}
			hits[refID]++
		}
	}
	results := make([]Hit, 0, len(touched))
	for _, refID := range touched {
		shared := int(hits[refID])
		union := len(q.Markers) + idx.markerCount[refID] - shared
		results = append(results, Hit{
			RefID:  int(refID),
			Result: evaluate(shared, union, idx.markerCount[refID], k, cutoff),
		})
	}
	return results
}

// Ref returns the reference sketch at position refID, as passed to Build.
func (idx *Index) Ref(refID int) *sketch.Sketch { return idx.refs[refID] }

// Len returns the number of references held by the index.
func (idx *Index) Len() int { return len(idx.refs) }
