package sketch

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/compress"
	"github.com/grailbio/gani/seed"
	"github.com/pkg/errors"
)

// magic identifies a gani sketch file. version allows the binary layout to
// evolve; a file whose version this build doesn't recognise is a load
// failure for that file only (SPEC_FULL.md §7, Sketch-version row).
var magic = [8]byte{'G', 'A', 'N', 'I', 's', 'k', '0', '1'}

const formatVersion uint32 = 1

// ErrBadMagic is returned when a file does not begin with the expected
// magic bytes.
var ErrBadMagic = errors.New("sketch: bad magic, not a gani sketch file")

// ErrVersionMismatch is returned when a file's version is not supported by
// this build.
var ErrVersionMismatch = errors.New("sketch: unsupported sketch file version")

// ErrChecksum is returned when a sketch record's trailing checksum does not
// match its contents, indicating truncation or corruption.
var ErrChecksum = errors.New("sketch: checksum mismatch, file is corrupt or truncated")

// WriteFull writes a single full sketch (used for the per-reference
// "<name>.sketch" artifact) to w.
func WriteFull(w io.Writer, s *Sketch) error {
	return writeFile(w, []*Sketch{s})
}

// WriteMarkersFile writes the marker-only concatenation of many sketches
// (the "markers.bin" artifact) to w. Only the marker set, repetitive set (for
// round-trip fidelity) and contig metadata are retained; Seeds and
// KmerToPositions are dropped.
func WriteMarkersFile(w io.Writer, sketches []*Sketch) error {
	markerOnly := make([]*Sketch, len(sketches))
	for i, s := range sketches {
		cp := *s
		cp.MarkerOnly = true
		cp.Seeds = nil
		cp.KmerToPositions = nil
		markerOnly[i] = &cp
	}
	return writeFile(w, markerOnly)
}

func writeFile(w io.Writer, sketches []*Sketch) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(magic[:]); err != nil {
		return errors.Wrap(err, "sketch: write magic")
	}
	if err := binary.Write(bw, binary.LittleEndian, formatVersion); err != nil {
		return errors.Wrap(err, "sketch: write version")
	}
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(sketches))); err != nil {
		return errors.Wrap(err, "sketch: write sketch count")
	}
	for _, s := range sketches {
		if err := writeOne(bw, s); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeOne(w io.Writer, s *Sketch) error {
	var buf bytes.Buffer
	writeString := func(v string) error {
		if err := binary.Write(&buf, binary.LittleEndian, uint32(len(v))); err != nil {
			return err
		}
		_, err := buf.WriteString(v)
		return err
	}
	writeBool := func(v bool) error {
		b := uint8(0)
		if v {
			b = 1
		}
		return binary.Write(&buf, binary.LittleEndian, b)
	}

	if err := writeString(s.FileName); err != nil {
		return errors.Wrap(err, "sketch: write file name")
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(s.K)); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(s.C)); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(s.MarkerC)); err != nil {
		return err
	}
	if err := writeBool(s.UseAA); err != nil {
		return err
	}
	if err := writeBool(s.MarkerOnly); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.LittleEndian, s.TotalLength); err != nil {
		return err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(s.ContigNames))); err != nil {
		return err
	}
	for _, name := range s.ContigNames {
		if err := writeString(name); err != nil {
			return err
		}
	}
	for _, l := range s.ContigLengths {
		if err := binary.Write(&buf, binary.LittleEndian, l); err != nil {
			return err
		}
	}

	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(s.Seeds))); err != nil {
		return err
	}
	for _, sd := range s.Seeds {
		if err := binary.Write(&buf, binary.LittleEndian, sd.Hash); err != nil {
			return err
		}
		if err := binary.Write(&buf, binary.LittleEndian, sd.ContigID); err != nil {
			return err
		}
		if err := binary.Write(&buf, binary.LittleEndian, sd.Position); err != nil {
			return err
		}
		if err := binary.Write(&buf, binary.LittleEndian, sd.Strand); err != nil {
			return err
		}
	}

	markers := sortedKeys(s.Markers)
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(markers))); err != nil {
		return err
	}
	for _, h := range markers {
		if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
			return err
		}
	}

	repetitive := sortedKeys(s.Repetitive)
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(repetitive))); err != nil {
		return err
	}
	for _, h := range repetitive {
		if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
			return err
		}
	}

	h := seahash.New()
	if _, err := h.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "sketch: checksum")
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return errors.Wrap(err, "sketch: write body")
	}
	return binary.Write(w, binary.LittleEndian, h.Sum64())
}

func sortedKeys(m map[uint64]struct{}) []uint64 {
	out := make([]uint64, 0, len(m))
	for h := range m {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ReadFile reads a gani sketch file (either a per-reference ".sketch" or a
// concatenated "markers.bin"), transparently decompressing if name has a
// recognised compressed extension.
func ReadFile(r io.Reader, name string) ([]*Sketch, error) {
	if dr := compress.NewReaderPath(r, name); dr != nil {
		r = dr
	}
	return Read(r)
}

// Read parses a gani sketch file from an already-decompressed reader.
func Read(r io.Reader) ([]*Sketch, error) {
	br := bufio.NewReader(r)
	var gotMagic [8]byte
	if _, err := io.ReadFull(br, gotMagic[:]); err != nil {
		return nil, errors.Wrap(err, "sketch: read magic")
	}
	if gotMagic != magic {
		return nil, ErrBadMagic
	}
	var version uint32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, errors.Wrap(err, "sketch: read version")
	}
	if version != formatVersion {
		return nil, ErrVersionMismatch
	}
	var count uint64
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return nil, errors.Wrap(err, "sketch: read sketch count")
	}
	out := make([]*Sketch, 0, count)
	for i := uint64(0); i < count; i++ {
		s, err := readOne(br)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func readOne(r io.Reader) (*Sketch, error) {
	var buf bytes.Buffer
	teed := io.TeeReader(r, &buf)

	readString := func() (string, error) {
		var n uint32
		if err := binary.Read(teed, binary.LittleEndian, &n); err != nil {
			return "", err
		}
		b := make([]byte, n)
		if _, err := io.ReadFull(teed, b); err != nil {
			return "", err
		}
		return string(b), nil
	}
	readBool := func() (bool, error) {
		var b uint8
		if err := binary.Read(teed, binary.LittleEndian, &b); err != nil {
			return false, err
		}
		return b != 0, nil
	}

	s := &Sketch{}
	var err error
	if s.FileName, err = readString(); err != nil {
		return nil, errors.Wrap(err, "sketch: truncated file name")
	}
	var k, c, markerC uint32
	if err = binary.Read(teed, binary.LittleEndian, &k); err != nil {
		return nil, errors.Wrap(err, "sketch: truncated record")
	}
	if err = binary.Read(teed, binary.LittleEndian, &c); err != nil {
		return nil, errors.Wrap(err, "sketch: truncated record")
	}
	if err = binary.Read(teed, binary.LittleEndian, &markerC); err != nil {
		return nil, errors.Wrap(err, "sketch: truncated record")
	}
	s.K, s.C, s.MarkerC = int(k), int(c), int(markerC)
	if s.UseAA, err = readBool(); err != nil {
		return nil, errors.Wrap(err, "sketch: truncated record")
	}
	if s.MarkerOnly, err = readBool(); err != nil {
		return nil, errors.Wrap(err, "sketch: truncated record")
	}
	if err = binary.Read(teed, binary.LittleEndian, &s.TotalLength); err != nil {
		return nil, errors.Wrap(err, "sketch: truncated record")
	}
	var contigCount uint32
	if err = binary.Read(teed, binary.LittleEndian, &contigCount); err != nil {
		return nil, errors.Wrap(err, "sketch: truncated record")
	}
	s.ContigNames = make([]string, contigCount)
	for i := range s.ContigNames {
		if s.ContigNames[i], err = readString(); err != nil {
			return nil, errors.Wrap(err, "sketch: truncated contig name")
		}
	}
	s.ContigLengths = make([]uint32, contigCount)
	for i := range s.ContigLengths {
		if err = binary.Read(teed, binary.LittleEndian, &s.ContigLengths[i]); err != nil {
			return nil, errors.Wrap(err, "sketch: truncated contig length")
		}
	}

	var seedCount uint32
	if err = binary.Read(teed, binary.LittleEndian, &seedCount); err != nil {
		return nil, errors.Wrap(err, "sketch: truncated record")
	}
	if seedCount > 0 {
		s.Seeds = make([]seed.Seed, seedCount)
	}
	for i := range s.Seeds {
		sd := &s.Seeds[i]
		if err = binary.Read(teed, binary.LittleEndian, &sd.Hash); err != nil {
			return nil, errors.Wrap(err, "sketch: truncated seed")
		}
		if err = binary.Read(teed, binary.LittleEndian, &sd.ContigID); err != nil {
			return nil, errors.Wrap(err, "sketch: truncated seed")
		}
		if err = binary.Read(teed, binary.LittleEndian, &sd.Position); err != nil {
			return nil, errors.Wrap(err, "sketch: truncated seed")
		}
		if err = binary.Read(teed, binary.LittleEndian, &sd.Strand); err != nil {
			return nil, errors.Wrap(err, "sketch: truncated seed")
		}
	}

	var markerCount uint32
	if err = binary.Read(teed, binary.LittleEndian, &markerCount); err != nil {
		return nil, errors.Wrap(err, "sketch: truncated record")
	}
	s.Markers = make(map[uint64]struct{}, markerCount)
	for i := uint32(0); i < markerCount; i++ {
		var h uint64
		if err = binary.Read(teed, binary.LittleEndian, &h); err != nil {
			return nil, errors.Wrap(err, "sketch: truncated marker")
		}
		s.Markers[h] = struct{}{}
	}

	var repCount uint32
	if err = binary.Read(teed, binary.LittleEndian, &repCount); err != nil {
		return nil, errors.Wrap(err, "sketch: truncated record")
	}
	s.Repetitive = make(map[uint64]struct{}, repCount)
	for i := uint32(0); i < repCount; i++ {
		var h uint64
		if err = binary.Read(teed, binary.LittleEndian, &h); err != nil {
			return nil, errors.Wrap(err, "sketch: truncated repetitive hash")
		}
		s.Repetitive[h] = struct{}{}
	}

	if len(s.Seeds) > 0 {
		s.KmerToPositions = make(map[uint64][]seed.Position, len(s.Seeds))
		for _, sd := range s.Seeds {
			if _, rep := s.Repetitive[sd.Hash]; rep {
				continue
			}
			s.KmerToPositions[sd.Hash] = append(s.KmerToPositions[sd.Hash], seed.Position{
				ContigID: sd.ContigID,
				Pos:      sd.Position,
				Strand:   sd.Strand,
			})
		}
	}

	var wantSum uint64
	if err = binary.Read(r, binary.LittleEndian, &wantSum); err != nil {
		return nil, errors.Wrap(err, "sketch: truncated checksum")
	}
	h := seahash.New()
	if _, err := h.Write(buf.Bytes()); err != nil {
		return nil, errors.Wrap(err, "sketch: checksum")
	}
	if h.Sum64() != wantSum {
		return nil, ErrChecksum
	}
	return s, nil
}
