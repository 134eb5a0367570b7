package config

import "github.com/grailbio/gani/ani"

// Resolved pairs a validated Params with the one-time evaluation of its
// tri-state decisions, so the rest of the driver reads plain booleans
// instead of re-deciding "auto" on every pair (spec.md §9's reproducibility
// requirement).
type Resolved struct {
	Params
	LearnedANIEnabled bool
	FullIndexEnabled  bool
}

// Resolve evaluates p's tri-state fields once, given the shape of the run:
// refCount is the number of reference sketches involved, and
// estimatedAlignedBases is a size estimate (e.g. the smaller total_len of
// the query/reference pool) used to gate the learned-ANI auto-decision.
func Resolve(p Params, refCount int, estimatedAlignedBases uint64) Resolved {
	r := Resolved{Params: p}

	switch p.LearnedANI {
	case TriOn:
		r.LearnedANIEnabled = true
	case TriOff:
		r.LearnedANIEnabled = false
	default: // TriAuto
		r.LearnedANIEnabled = ani.ShouldAutoApply(p.C, estimatedAlignedBases)
	}

	switch p.FullIndex {
	case TriOn:
		r.FullIndexEnabled = true
	case TriOff:
		r.FullIndexEnabled = false
	default: // TriAuto
		r.FullIndexEnabled = refCount > 100 || p.IndividualContigQ
	}

	return r
}
