package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pandemic-sim/pandemic-sim/sim"
)

func worldPresetNames() []string {
	names := make([]string, 0, len(sim.WorldPresets))
	for n := range sim.WorldPresets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func printWorldPresets(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRESET\tPERSONS\tLOCATIONS\tJOBS\tHOSPITAL BEDS\t")
	for _, name := range worldPresetNames() {
		cfg := sim.WorldPresets[name]()
		locations, jobs := 0, 0
		for _, lc := range cfg.Locations {
			locations += lc.Num
			if lc.NumAssignees > 0 {
				jobs += lc.Num * lc.NumAssignees
			}
		}
		beds := "unlimited"
		if c := cfg.MaxHospitalCapacity(); c >= 0 {
			beds = humanize.Comma(int64(c))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", name, humanize.Comma(int64(cfg.NumPersons)),
			humanize.Comma(int64(locations)), humanize.Comma(int64(jobs)), beds)
	}
	tw.Flush()
}

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in world presets",
	Run: func(cmd *cobra.Command, args []string) {
		printWorldPresets(os.Stdout)
	},
}
