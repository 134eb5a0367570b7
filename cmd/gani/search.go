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

type searchFlags struct {
	dbDir              *string
	queryList          *string
	queryIndividual    *bool
	outPath            *string
	minAF              *float64
	maxResults         *int
	estCI, detailed    *bool
	keepRefs           *bool
	noMarkerIndex      *bool
	robust, median     *bool
	noLearnedANI       *bool
	c, markerC         *int
	threads            *int
}

func newCmdSearch() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "search",
		Short:    "Search a sketched reference database for close matches to a query",
		ArgsName: "queries...",
	}
	flags := searchFlags{
		dbDir:           cmd.Flags.String("d", "", "Sketched database directory, as written by 'gani sketch' (required)"),
		queryList:       cmd.Flags.String("ql", "", "File listing query FASTA/FASTQ paths, one per line"),
		queryIndividual: cmd.Flags.Bool("qi", false, "Treat each query contig as its own pseudo-assembly"),
		outPath:         cmd.Flags.String("o", "", "Output TSV path (default stdout)"),
		minAF:           cmd.Flags.Float64("min-af", config.DefaultMinAF, "Minimum aligned fraction to report a result"),
		maxResults:      cmd.Flags.Int("n", 0, "Max results per query (0 = unlimited)"),
		estCI:           cmd.Flags.Bool("ci", false, "Estimate a bootstrap confidence interval"),
		detailed:        cmd.Flags.Bool("detailed", false, "Include N50/contig-count columns and screened-out rows"),
		keepRefs:        cmd.Flags.Bool("keep-refs", false, "Keep every loaded reference sketch cached for the rest of the run"),
		noMarkerIndex:   cmd.Flags.Bool("no-marker-index", false, "(accepted for CLI-surface parity; search always uses the full index)"),
		robust:          cmd.Flags.Bool("robust", false, "Use robust (trimmed-mean) aggregation"),
		median:          cmd.Flags.Bool("median", false, "Use median aggregation"),
		noLearnedANI:    cmd.Flags.Bool("no-learned-ani", false, "Disable the learned ANI regression correction"),
		c:               cmd.Flags.Int("c", config.DefaultC, "Seed subsampling compression factor"),
		markerC:         cmd.Flags.Int("m", config.DefaultMarkerC, "Marker subsampling compression factor"),
		threads:         cmd.Flags.Int("t", config.DefaultThreads, "Worker thread count"),
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return runSearch(flags, argv)
	})
	return cmd
}

func runSearch(flags searchFlags, argv []string) error {
	if *flags.dbDir == "" {
		return fmt.Errorf("search: -d sketched database directory is required")
	}
	queryPaths, err := resolvePaths(argv, *flags.queryList)
	if err != nil {
		return err
	}
	if len(queryPaths) == 0 {
		return fmt.Errorf("search: no query files given")
	}

	p := config.Default(config.ModeSearch)
	p.C = *flags.c
	p.MarkerC = *flags.markerC
	p.MinAF = *flags.minAF
	p.MaxResults = *flags.maxResults
	p.EstCI = *flags.estCI
	p.DetailedOut = *flags.detailed
	p.KeepRefs = *flags.keepRefs
	p.Robust = *flags.robust
	p.Median = *flags.median
	p.IndividualContigQ = *flags.queryIndividual
	p.Threads = *flags.threads
	if *flags.noLearnedANI {
		p.LearnedANI = config.TriOff
	}
	if err := p.Validate(); err != nil {
		return err
	}

	markers, err := job.LoadMarkersFile(*flags.dbDir)
	if err != nil {
		return err
	}

	opts := seed.Opts{K: p.K, C: p.C, MarkerC: p.MarkerC, UseAA: p.UseAA, SyncmerD: p.SyncmerD, RepetitiveKmerThreshold: seed.DefaultRepetitiveKmerThreshold}
	queries, totalQueryLen, err := loadQuerySketchSet(queryPaths, opts, p.IndividualContigQ)
	if err != nil {
		return err
	}

	resolved := config.Resolve(p, len(markers), totalQueryLen)
	rows := job.Search(queries, markers, *flags.dbDir, resolved, chain.DefaultOpts)

	out, closeFn, err := openOutput(*flags.outPath)
	if err != nil {
		return err
	}
	defer closeFn()
	return ioutil.WriteTSV(out, rows)
}
