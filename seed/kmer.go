// Package seed turns a genomic sequence into the sub-sampled k-mer seeds and
// sparser marker seeds that a Sketch is built from.
package seed

import (
	farm "github.com/dgryski/go-farm"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/gani/biosimd"
)

const invalidKmerBits = uint8(255)

var (
	asciiToKmerMap                  [256]uint8
	asciiToReverseComplementKmerMap [256]uint8
)

func init() {
	for i := range asciiToKmerMap {
		asciiToKmerMap[i] = invalidKmerBits
		asciiToReverseComplementKmerMap[i] = invalidKmerBits
	}
	asciiToKmerMap['A'] = 0
	asciiToKmerMap['a'] = 0
	asciiToKmerMap['C'] = 1
	asciiToKmerMap['c'] = 1
	asciiToKmerMap['G'] = 2
	asciiToKmerMap['g'] = 2
	asciiToKmerMap['T'] = 3
	asciiToKmerMap['t'] = 3

	asciiToReverseComplementKmerMap['A'] = 3
	asciiToReverseComplementKmerMap['a'] = 3
	asciiToReverseComplementKmerMap['C'] = 2
	asciiToReverseComplementKmerMap['c'] = 2
	asciiToReverseComplementKmerMap['G'] = 1
	asciiToReverseComplementKmerMap['g'] = 1
	asciiToReverseComplementKmerMap['T'] = 0
	asciiToReverseComplementKmerMap['t'] = 0
}

// Kmer is a compact 2-bit-per-base encoding of a DNA subsequence, up to 32
// bases long.
type Kmer uint64

// invalidKmer marks a window that contained an ambiguous base (anything but
// A/C/G/T).
const invalidKmer = Kmer(0xffffffffffffffff)

// Hash64 returns the stable 64-bit hash used to decide seed/marker
// membership and to key the inverted screen index. It must never change
// across releases, since it determines whether on-disk sketch files remain
// compatible.
func Hash64(k Kmer) uint64 {
	return farm.Hash64WithSeed(nil, uint64(k))
}

type kmerAtPos struct {
	pos                        uint32
	forward, reverseComplement Kmer
}

func (k kmerAtPos) canonical() Kmer {
	if k.forward < k.reverseComplement {
		return k.forward
	}
	return k.reverseComplement
}

// strand returns 0 if the forward encoding was chosen as canonical, 1
// otherwise.
func (k kmerAtPos) strand() uint8 {
	if k.forward <= k.reverseComplement {
		return 0
	}
	return 1
}

// kmerizer incrementally scans a DNA sequence, producing a canonicalised
// k-mer at every valid window. It is not safe for concurrent use.
type kmerizer struct {
	k      int
	mask   Kmer // low 2k bits set
	tmpSeq []byte

	seq string
	si  int
	cur kmerAtPos
}

func newKmerizer(k int) *kmerizer {
	return &kmerizer{
		k:    k,
		mask: ^(Kmer(0xffffffffffffffff) << Kmer(k*2)),
	}
}

func asciiToKmer(seq string) Kmer {
	var k Kmer
	for _, ch := range []byte(seq) {
		b := asciiToKmerMap[ch]
		if b == invalidKmerBits {
			return invalidKmer
		}
		k = (k << 2) | Kmer(b)
	}
	return k
}

func nextAmbiguousPosition(seq string, si int) int {
	for i := si; i < len(seq); i++ {
		if asciiToKmerMap[seq[i]] == invalidKmerBits {
			return i
		}
	}
	return len(seq)
}

func (kz *kmerizer) reset(seq string) {
	kz.seq = seq
	kz.si = 0
}

// scan advances to the next valid window, returning false once the sequence
// is exhausted. It skips windows containing ambiguous bases.
func (kz *kmerizer) scan() bool {
	if kz.si > 0 && kz.si+kz.k <= len(kz.seq) {
		nextCh := kz.seq[kz.si+kz.k-1]
		if bits := asciiToKmerMap[nextCh]; bits != invalidKmerBits {
			kz.cur.pos = uint32(kz.si)
			kz.cur.forward = ((kz.cur.forward << 2) | Kmer(bits)) & kz.mask
			shift := (Kmer(kz.k) - 1) * 2
			kz.cur.reverseComplement = (kz.cur.reverseComplement >> 2) | (Kmer(asciiToReverseComplementKmerMap[nextCh]) << shift)
			kz.si++
			return true
		}
	}
	for kz.si+kz.k <= len(kz.seq) {
		forwardStr := kz.seq[kz.si : kz.si+kz.k]
		forwardKmer := asciiToKmer(forwardStr)
		if forwardKmer == invalidKmer {
			kz.si = nextAmbiguousPosition(kz.seq, kz.si) + 1
			continue
		}
		if cap(kz.tmpSeq) < kz.k {
			kz.tmpSeq = make([]byte, kz.k)
		}
		kz.tmpSeq = kz.tmpSeq[:kz.k]
		biosimd.ReverseComp8NoValidate(kz.tmpSeq, gunsafe.StringToBytes(forwardStr))
		reverseKmer := asciiToKmer(gunsafe.BytesToString(kz.tmpSeq))
		if reverseKmer == invalidKmer {
			panic("reverse complement of a valid forward k-mer must be valid")
		}
		kz.cur = kmerAtPos{pos: uint32(kz.si), forward: forwardKmer, reverseComplement: reverseKmer}
		kz.si++
		return true
	}
	return false
}

func (kz *kmerizer) get() kmerAtPos { return kz.cur }

// asciiKmerAA encodes a length-k amino-acid window as an opaque, stable
// 64-bit value by hashing its raw bytes; there is no reverse complement in
// AA space. This is used only for the open-syncmer selection path (AA
// mode), where no canonicalisation step is required.
func asciiKmerAA(seq string) Kmer {
	return Kmer(farm.Hash64WithSeed(gunsafe.StringToBytes(seq), 0))
}
