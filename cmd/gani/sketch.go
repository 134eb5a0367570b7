package main

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/gani/internal/config"
	"github.com/grailbio/gani/job"
	"v.io/x/lib/cmdline"
)

type sketchFlags struct {
	outDir           *string
	c                *int
	markerC          *int
	k                *int
	listFile         *string
	individualContig *bool
	threads          *int
}

func newCmdSketch() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "sketch",
		Short:    "Sketch FASTA assemblies into a reference database",
		ArgsName: "fastas...",
	}
	flags := sketchFlags{
		outDir:           cmd.Flags.String("o", "", "Output directory for markers.bin and per-file .sketch files (required)"),
		c:                cmd.Flags.Int("c", config.DefaultC, "Seed subsampling compression factor"),
		markerC:          cmd.Flags.Int("m", config.DefaultMarkerC, "Marker subsampling compression factor"),
		k:                cmd.Flags.Int("k", config.DefaultK, "K-mer size"),
		listFile:         cmd.Flags.String("l", "", "File listing one input FASTA path per line, in addition to positional args"),
		individualContig: cmd.Flags.Bool("i", false, "Sketch each contig as its own pseudo-assembly"),
		threads:          cmd.Flags.Int("t", config.DefaultThreads, "Worker thread count"),
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return runSketch(flags, argv)
	})
	return cmd
}

func runSketch(flags sketchFlags, argv []string) error {
	if *flags.outDir == "" {
		return fmt.Errorf("sketch: -o output directory is required")
	}
	paths, err := resolvePaths(argv, *flags.listFile)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("sketch: no input FASTA files given")
	}

	p := config.Default(config.ModeSketch)
	p.C = *flags.c
	p.MarkerC = *flags.markerC
	p.K = *flags.k
	p.IndividualContigQ = *flags.individualContig
	p.Threads = *flags.threads
	if err := p.Validate(); err != nil {
		return err
	}

	_, err = job.SketchAll(paths, *flags.outDir, p)
	return err
}
