package main

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/gani/chain"
	"github.com/grailbio/gani/internal/config"
	"github.com/grailbio/gani/internal/ioutil"
	"github.com/grailbio/gani/job"
	"github.com/grailbio/gani/seed"
	"github.com/grailbio/gani/sketch"
	"v.io/x/lib/cmdline"
)

type distFlags struct {
	queryList, refList          *string
	queryIndividual, refIndiv   *bool
	outPath                     *string
	minAF                       *float64
	maxResults                  *int
	estCI, detailed             *bool
	slow, medium, fast          *bool
	c, markerC                  *int
	robust, median              *bool
	noLearnedANI, noMarkerIndex *bool
	threads                     *int
}

func newCmdDist() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "dist",
		Short:    "Estimate ANI/AF between a query set and a reference set",
		ArgsName: "query ref...",
	}
	flags := distFlags{
		queryList:     cmd.Flags.String("ql", "", "File listing query FASTA/FASTQ paths, one per line"),
		refList:       cmd.Flags.String("rl", "", "File listing reference FASTA paths, one per line"),
		queryIndividual: cmd.Flags.Bool("qi", false, "Treat each query contig as its own pseudo-assembly"),
		refIndiv:      cmd.Flags.Bool("ri", false, "Treat each reference contig as its own pseudo-assembly"),
		outPath:       cmd.Flags.String("o", "", "Output TSV path (default stdout)"),
		minAF:         cmd.Flags.Float64("min-af", config.DefaultMinAF, "Minimum aligned fraction to report a result"),
		maxResults:    cmd.Flags.Int("n", 0, "Max results per query (0 = unlimited)"),
		estCI:         cmd.Flags.Bool("ci", false, "Estimate a bootstrap confidence interval"),
		detailed:      cmd.Flags.Bool("detailed", false, "Include N50/contig-count columns and screened-out rows"),
		slow:          cmd.Flags.Bool("slow", false, "Preset: c=30"),
		medium:        cmd.Flags.Bool("medium", false, "Preset: c=70"),
		fast:          cmd.Flags.Bool("fast", false, "Preset: c=200"),
		c:             cmd.Flags.Int("c", config.DefaultC, "Seed subsampling compression factor"),
		markerC:       cmd.Flags.Int("m", config.DefaultMarkerC, "Marker subsampling compression factor"),
		robust:        cmd.Flags.Bool("robust", false, "Use robust (trimmed-mean) aggregation"),
		median:        cmd.Flags.Bool("median", false, "Use median aggregation"),
		noLearnedANI:  cmd.Flags.Bool("no-learned-ani", false, "Disable the learned ANI regression correction"),
		noMarkerIndex: cmd.Flags.Bool("no-marker-index", false, "Disable the full inverted marker index"),
		threads:       cmd.Flags.Int("t", config.DefaultThreads, "Worker thread count"),
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return runDist(flags, argv)
	})
	return cmd
}

func runDist(flags distFlags, argv []string) error {
	if len(argv) == 0 && *flags.queryList == "" {
		return fmt.Errorf("dist: a query path or -ql is required")
	}
	var queryArg string
	refArgv := argv
	if len(argv) > 0 && *flags.queryList == "" {
		queryArg = argv[0]
		refArgv = argv[1:]
	}

	p := config.Default(config.ModeDist)
	p.C = *flags.c
	p.MarkerC = *flags.markerC
	if err := applyPreset(&p, *flags.slow, *flags.medium, *flags.fast); err != nil {
		return err
	}
	p.MinAF = *flags.minAF
	p.MaxResults = *flags.maxResults
	p.EstCI = *flags.estCI
	p.DetailedOut = *flags.detailed
	p.Robust = *flags.robust
	p.Median = *flags.median
	p.IndividualContigQ = *flags.queryIndividual
	p.IndividualContigR = *flags.refIndiv
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

	var queryPaths []string
	if *flags.queryList != "" {
		fromList, err := readListFile(*flags.queryList)
		if err != nil {
			return err
		}
		queryPaths = fromList
	} else {
		queryPaths = []string{queryArg}
	}

	queries, totalQueryLen, err := loadQuerySketchSet(queryPaths, opts, p.IndividualContigQ)
	if err != nil {
		return err
	}

	refPaths, err := resolvePaths(refArgv, *flags.refList)
	if err != nil {
		return err
	}
	if len(refPaths) == 0 {
		return fmt.Errorf("dist: no reference FASTA files given")
	}
	refs, _, err := loadQuerySketchSet(refPaths, opts, p.IndividualContigR)
	if err != nil {
		return err
	}

	resolved := config.Resolve(p, len(refs), totalQueryLen)
	rows := job.Dist(queries, refs, resolved, chain.DefaultOpts)

	out, closeFn, err := openOutput(*flags.outPath)
	if err != nil {
		return err
	}
	defer closeFn()
	return ioutil.WriteTSV(out, rows)
}

// loadQuerySketchSet loads every path in paths into sketches (one file may
// expand into several sketches, e.g. a FASTQ query's per-read sketches or an
// individual-contig assembly's per-contig sketches), returning the
// flattened list and the combined total sequence length.
func loadQuerySketchSet(paths []string, opts seed.Opts, individualContig bool) ([]*sketch.Sketch, uint64, error) {
	var out []*sketch.Sketch
	var totalLen uint64
	for _, path := range paths {
		sketches, err := job.LoadQuerySketches(path, opts, individualContig)
		if err != nil {
			return nil, 0, err
		}
		for _, s := range sketches {
			totalLen += s.TotalLength
		}
		out = append(out, sketches...)
	}
	return out, totalLen, nil
}
