package job

import (
	"io"
	"os"
	"path/filepath"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/log"
	"github.com/grailbio/gani/encoding/fasta"
	"github.com/grailbio/gani/internal/config"
	"github.com/grailbio/gani/seed"
	"github.com/grailbio/gani/sketch"
	"github.com/pkg/errors"
)

// SketchOne parses one FASTA file and extracts its seeds, producing the
// in-memory Sketch that SketchAll then persists. Exported separately from
// SketchAll so search's on-the-fly query sketching can reuse it.
func SketchOne(path string, opts seed.Opts) (*sketch.Sketch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "sketch: open input-file")
	}
	defer f.Close()

	var reader io.Reader = f
	if u := compress.NewReaderPath(reader, path); u != nil {
		reader = u
	}

	fa, err := fasta.New(reader)
	if err != nil {
		return nil, errors.Wrap(err, "sketch: parse FASTA")
	}

	names := fa.SeqNames()
	lengths := make([]uint32, len(names))
	b := seed.NewBuilder(opts)
	contigID := uint32(0)
	err = fasta.ForEachContig(fa, func(name, seq string, length uint64) error {
		lengths[contigID] = uint32(length)
		b.AddContig(contigID, name, seq)
		contigID++
		return nil
	})
	if err != nil {
		return nil, err
	}
	res := b.Finalize()
	return sketch.New(path, names, lengths, res, opts), nil
}

// SketchContigs parses one FASTA file into one single-contig pseudo-assembly
// sketch per contig, for the "individual_contig" query/reference mode
// (spec.md §6's `-i`/`--qi`/`--ri` flags): each contig is screened and
// compared on its own rather than as part of one combined assembly sketch.
// Mirrors SketchFastqReads' per-read sketching, grounded on the same
// original_source/src/search.rs individual_contig_q behavior.
func SketchContigs(path string, opts seed.Opts) ([]*sketch.Sketch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "sketch: open input-file")
	}
	defer f.Close()

	var reader io.Reader = f
	if u := compress.NewReaderPath(reader, path); u != nil {
		reader = u
	}
	fa, err := fasta.New(reader)
	if err != nil {
		return nil, errors.Wrap(err, "sketch: parse FASTA")
	}

	var out []*sketch.Sketch
	err = fasta.ForEachContig(fa, func(name, seq string, length uint64) error {
		b := seed.NewBuilder(opts)
		b.AddContig(0, name, seq)
		res := b.Finalize()
		sketchName := path + "#" + name
		out = append(out, sketch.New(sketchName, []string{name}, []uint32{uint32(length)}, res, opts))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.Errorf("sketch: %s has no contigs", path)
	}
	return out, nil
}

// SketchAll implements the "sketch" mode: parse every input FASTA, write one
// "<name>.sketch" per file plus an aggregate "markers.bin", per spec.md
// §4.6/§6. Unreadable files are skipped with a warning (spec.md §7's
// Input-file policy) rather than aborting the whole run.
func SketchAll(paths []string, outDir string, p config.Params) ([]*sketch.Sketch, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "sketch: create output directory")
	}

	opts := seed.Opts{
		K:                       p.K,
		C:                       p.C,
		MarkerC:                 p.MarkerC,
		UseAA:                   p.UseAA,
		SyncmerD:                p.SyncmerD,
		RepetitiveKmerThreshold: seed.DefaultRepetitiveKmerThreshold,
	}

	var sketches []*sketch.Sketch
	for _, path := range paths {
		s, err := SketchOne(path, opts)
		if err != nil {
			log.Printf("sketch: skipping %s: %v", path, err)
			continue
		}
		outPath := filepath.Join(outDir, filepath.Base(path)+".sketch")
		if err := writeSketchFile(outPath, s); err != nil {
			log.Printf("sketch: skipping %s: could not write %s: %v", path, outPath, err)
			continue
		}
		sketches = append(sketches, s)
	}
	if len(sketches) == 0 {
		return nil, errors.New("sketch: no input file produced a usable sketch")
	}

	markersPath := filepath.Join(outDir, "markers.bin")
	mf, err := os.Create(markersPath)
	if err != nil {
		return nil, errors.Wrap(err, "sketch: create markers.bin")
	}
	defer mf.Close()
	if err := sketch.WriteMarkersFile(mf, sketches); err != nil {
		return nil, errors.Wrap(err, "sketch: write markers.bin")
	}
	return sketches, nil
}

func writeSketchFile(path string, s *sketch.Sketch) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return sketch.WriteFull(f, s)
}

// LoadMarkersFile reads a "markers.bin" aggregate written by SketchAll,
// returning its marker-only sketches in file order (spec.md §7's
// Index-missing row: the caller treats a read failure here as fatal).
func LoadMarkersFile(dir string) ([]*sketch.Sketch, error) {
	path := filepath.Join(dir, "markers.bin")
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "sketch: markers.bin not found in %s", dir)
	}
	defer f.Close()
	return sketch.ReadFile(f, path)
}

// LoadFullSketch reads a single reference's full ".sketch" file, resolved
// relative to dir (the folder containing markers.bin), per spec.md §6's
// "screener resolves each hit's full-sketch path relative to the folder of
// markers.bin".
func LoadFullSketch(dir, fileName string) (*sketch.Sketch, error) {
	path := filepath.Join(dir, filepath.Base(fileName)+".sketch")
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "sketch: open full sketch")
	}
	defer f.Close()
	sketches, err := sketch.ReadFile(f, path)
	if err != nil {
		return nil, err
	}
	if len(sketches) != 1 {
		return nil, errors.Errorf("sketch: %s contains %d sketches, want 1", path, len(sketches))
	}
	return sketches[0], nil
}
