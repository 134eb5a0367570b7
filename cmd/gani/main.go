package main

import (
	"log"

	"v.io/x/lib/cmdline"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "gani",
			Short:    "Estimate genome Average Nucleotide Identity and Aligned Fraction",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdSketch(),
				newCmdDist(),
				newCmdTriangle(),
				newCmdSearch(),
			},
		})
}
