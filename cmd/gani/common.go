// Command gani estimates Average Nucleotide Identity and Aligned Fraction
// between genome assemblies via the sketch/dist/triangle/search pipeline.
package main

import (
	"bufio"
	"os"

	"github.com/grailbio/gani/internal/config"
	"github.com/grailbio/gani/internal/ioutil"
	"github.com/pkg/errors"
)

// applyPreset maps the mutually exclusive --slow/--medium/--fast flags onto
// p.C, matching spec.md §6's preset table (slow=30, medium=70, fast=200).
func applyPreset(p *config.Params, slow, medium, fast bool) error {
	set := 0
	for _, b := range []bool{slow, medium, fast} {
		if b {
			set++
		}
	}
	if set > 1 {
		return errors.New("only one of --slow, --medium, --fast may be given")
	}
	switch {
	case slow:
		config.PresetSlow.Apply(p)
	case medium:
		config.PresetMedium.Apply(p)
	case fast:
		config.PresetFast.Apply(p)
	}
	return nil
}

// readListFile reads a "-l"-style file of newline-separated paths, the same
// list-file convention spec.md §6 uses for sketch/dist/triangle.
func readListFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read list file %s", path)
	}
	defer f.Close()

	var paths []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		paths = append(paths, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "read list file %s", path)
	}
	return paths, nil
}

// resolvePaths combines positional args with an optional list-file's
// contents, matching the "<fastas...> | -l list_file" alternative spec.md
// §6 allows on every subcommand.
func resolvePaths(argv []string, listFile string) ([]string, error) {
	paths := append([]string{}, argv...)
	if listFile != "" {
		fromList, err := readListFile(listFile)
		if err != nil {
			return nil, err
		}
		paths = append(paths, fromList...)
	}
	return paths, nil
}

// selfRows builds the ANI=100 self-comparison rows triangle's --diagonal
// flag adds to sparse TSV output.
func selfRows(names []string) []ioutil.Row {
	rows := make([]ioutil.Row, len(names))
	for i, name := range names {
		rows[i] = ioutil.Row{
			RefFile: name, QueryFile: name,
			RefName: name, QueryName: name,
			ANI: 1.0, AlignFractionRef: 1.0, AlignFractionQuery: 1.0,
		}
	}
	return rows
}

func openOutput(path string) (*os.File, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "create output file %s", path)
	}
	return f, f.Close, nil
}
