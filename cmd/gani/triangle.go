package main

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/gani/chain"
	"github.com/grailbio/gani/internal/config"
	"github.com/grailbio/gani/internal/ioutil"
	"github.com/grailbio/gani/job"
	"github.com/grailbio/gani/seed"
	"v.io/x/lib/cmdline"
)

type triangleFlags struct {
	listFile                    *string
	outPath                     *string
	fullMatrix, diagonal        *bool
	sparse                      *bool
	distance                    *bool
	minAF                       *float64
	estCI, detailed             *bool
	slow, medium, fast          *bool
	c, markerC                  *int
	robust, median              *bool
	noLearnedANI, noMarkerIndex *bool
	threads                     *int
}

func newCmdTriangle() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "triangle",
		Short:    "Compute an all-pairs ANI matrix over a genome set",
		ArgsName: "fastas...",
	}
	flags := triangleFlags{
		listFile:      cmd.Flags.String("l", "", "File listing genome FASTA paths, one per line"),
		outPath:       cmd.Flags.String("o", "", "Output path (default stdout)"),
		fullMatrix:    cmd.Flags.Bool("full-matrix", false, "Print the full N x N matrix instead of the lower triangle"),
		diagonal:      cmd.Flags.Bool("diagonal", false, "Include the (always-100) diagonal in sparse/TSV output"),
		sparse:        cmd.Flags.Bool("sparse", false, "Print per-pair TSV rows instead of a matrix"),
		distance:      cmd.Flags.Bool("distance", false, "Report 100-ANI distances instead of ANI"),
		minAF:         cmd.Flags.Float64("min-af", config.DefaultMinAF, "Minimum aligned fraction to report a result"),
		estCI:         cmd.Flags.Bool("ci", false, "Estimate a bootstrap confidence interval (sparse output only)"),
		detailed:      cmd.Flags.Bool("detailed", false, "Include N50/contig-count columns and screened-out rows (sparse output only)"),
		slow:          cmd.Flags.Bool("slow", false, "Preset: c=30"),
		medium:        cmd.Flags.Bool("medium", false, "Preset: c=70"),
		fast:          cmd.Flags.Bool("fast", false, "Preset: c=200"),
		c:             cmd.Flags.Int("c", config.DefaultC, "Seed subsampling compression factor"),
		markerC:       cmd.Flags.Int("m", config.DefaultMarkerC, "Marker subsampling compression factor"),
		robust:        cmd.Flags.Bool("robust", false, "Use robust (trimmed-mean) aggregation"),
		median:        cmd.Flags.Bool("median", false, "Use median aggregation"),
		noLearnedANI:  cmd.Flags.Bool("no-learned-ani", false, "Disable the learned ANI regression correction"),
		noMarkerIndex: cmd.Flags.Bool("no-marker-index", false, "(accepted for CLI-surface parity; triangle never builds the full index)"),
		threads:       cmd.Flags.Int("t", config.DefaultThreads, "Worker thread count"),
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return runTriangle(flags, argv)
	})
	return cmd
}

func runTriangle(flags triangleFlags, argv []string) error {
	paths, err := resolvePaths(argv, *flags.listFile)
	if err != nil {
		return err
	}
	if len(paths) < 2 {
		return fmt.Errorf("triangle: at least two genomes are required, got %d", len(paths))
	}

	p := config.Default(config.ModeTriangle)
	p.C = *flags.c
	p.MarkerC = *flags.markerC
	if err := applyPreset(&p, *flags.slow, *flags.medium, *flags.fast); err != nil {
		return err
	}
	p.MinAF = *flags.minAF
	p.EstCI = *flags.estCI
	p.DetailedOut = *flags.detailed
	p.Robust = *flags.robust
	p.Median = *flags.median
	p.Threads = *flags.threads
	if *flags.noLearnedANI {
		p.LearnedANI = config.TriOff
	}
	if *flags.noMarkerIndex {
		p.FullIndex = config.TriOff
	}
	if err := p.Validate(); err != nil {
		return err
	}

	opts := seed.Opts{K: p.K, C: p.C, MarkerC: p.MarkerC, UseAA: p.UseAA, SyncmerD: p.SyncmerD, RepetitiveKmerThreshold: seed.DefaultRepetitiveKmerThreshold}
	genomes, totalLen, err := loadQuerySketchSet(paths, opts, false)
	if err != nil {
		return err
	}

	resolved := config.Resolve(p, len(genomes), totalLen)
	result := job.Triangle(genomes, resolved, chain.DefaultOpts)

	out, closeFn, err := openOutput(*flags.outPath)
	if err != nil {
		return err
	}
	defer closeFn()

	if *flags.sparse {
		rows := result.Rows
		if *flags.diagonal {
			rows = append(append([]ioutil.Row{}, rows...), selfRows(result.Names)...)
		}
		return ioutil.WriteTSV(out, rows)
	}
	return ioutil.WriteLowerTriangular(out, result.Names, result.Value, *flags.fullMatrix, *flags.distance)
}
