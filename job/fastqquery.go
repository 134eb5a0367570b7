package job

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/gani/encoding/fastq"
	"github.com/grailbio/gani/seed"
	"github.com/grailbio/gani/sketch"
	"github.com/pkg/errors"
)

// IsFastqPath reports whether path names a FASTQ query file by its
// extension ("-q" accepts .fa/.fasta or .fastq/.fq per SPEC_FULL.md §9's
// supplemented FASTQ query input, and the compressed variants of both).
func IsFastqPath(path string) bool {
	base := strings.ToLower(path)
	for _, ext := range []string{".gz", ".zst", ".bz2"} {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.HasSuffix(base, ".fastq") || strings.HasSuffix(base, ".fq")
}

// SketchFastqReads parses a FASTQ query file into one pseudo-assembly
// sketch per read, each a single-contig sketch named "<path>#<read ID>".
// This mirrors original_source/src/search.rs's fastx_to_multiple_sketch /
// individual_contig_q behavior (SPEC_FULL.md §9's "FASTQ query input"
// supplement): a FASTQ file is screened/compared read-by-read rather than
// as one concatenated assembly.
func SketchFastqReads(path string, opts seed.Opts) ([]*sketch.Sketch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "sketch: open input-file")
	}
	defer f.Close()

	var reader io.Reader = f
	if u := compress.NewReaderPath(reader, path); u != nil {
		reader = u
	}

	sc := fastq.NewScanner(reader, fastq.ID|fastq.Seq)
	var out []*sketch.Sketch
	var read fastq.Read
	n := 0
	for sc.Scan(&read) {
		n++
		id := strings.TrimPrefix(read.ID, "@")
		if id == "" {
			id = strconv.Itoa(n)
		}
		b := seed.NewBuilder(opts)
		b.AddContig(0, id, read.Seq)
		res := b.Finalize()
		name := fmt.Sprintf("%s#%s", path, id)
		out = append(out, sketch.New(name, []string{id}, []uint32{uint32(len(read.Seq))}, res, opts))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "sketch: parse FASTQ")
	}
	if len(out) == 0 {
		return nil, errors.Errorf("sketch: %s produced no reads", path)
	}
	return out, nil
}

// LoadQuerySketches builds query sketches from path, dispatching to FASTA
// (one sketch for the whole assembly, or one per contig when
// individualContig is set) or FASTQ (one sketch per read, SketchFastqReads)
// by extension.
func LoadQuerySketches(path string, opts seed.Opts, individualContig bool) ([]*sketch.Sketch, error) {
	if IsFastqPath(path) {
		return SketchFastqReads(path, opts)
	}
	if individualContig {
		return SketchContigs(path, opts)
	}
	s, err := SketchOne(path, opts)
	if err != nil {
		return nil, err
	}
	return []*sketch.Sketch{s}, nil
}
