package cmd

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pandemic-sim/pandemic-sim/sim"
)

// printReport writes the end-of-run summary.
func printReport(w io.Writer, r *runReport) {
	last := r.Episode.Last()
	peak, peakHour := r.Episode.PeakInfected()

	fmt.Fprintf(w, "=== Simulation Summary ===\n")
	fmt.Fprintf(w, "Persons:        %s\n", humanize.Comma(int64(r.Persons)))
	fmt.Fprintf(w, "Simulated:      %s hours (%d of %d days)\n", humanize.Comma(int64(last.Hours)), last.Hours/sim.HoursPerDay, r.Days)
	fmt.Fprintf(w, "Wall time:      %s\n", r.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Peak infected:  %s on day %d\n", humanize.Comma(int64(peak)), peakHour/sim.HoursPerDay)
	fmt.Fprintf(w, "Tests run:      %s\n", humanize.Comma(int64(last.NumTests)))
	fmt.Fprintf(w, "Total reward:   %s\n", humanize.FormatFloat("#,###.###", r.Rewards))
	if r.Done {
		fmt.Fprintf(w, "Stopped early:  critical cases exceeded hospital capacity\n")
	}
	if r.Recorded != "" {
		fmt.Fprintf(w, "Recorded to:    %s\n", r.Recorded)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nSUMMARY\tTRUE\tOBSERVED\t")
	for i, s := range sim.InfectionSummaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", s, humanize.Comma(int64(last.Infection[i])), humanize.Comma(int64(last.Observed[i])))
	}
	tw.Flush()

	if r.Trace != nil && (r.Trace.TotalAttempts > 0 || r.Trace.RegulationChanges > 0) {
		fmt.Fprintf(w, "\n=== Decision Trace ===\n")
		fmt.Fprintf(w, "Entry attempts: %s (%s admitted, %s denied)\n", humanize.Comma(int64(r.Trace.TotalAttempts)),
			humanize.Comma(int64(r.Trace.AdmittedCount)), humanize.Comma(int64(r.Trace.DeniedCount)))
		fmt.Fprintf(w, "Regulation changes: %d over %d stages\n", r.Trace.RegulationChanges, r.Trace.StagesVisited)
		reasons := make([]string, 0, len(r.Trace.DenialReasons))
		for k := range r.Trace.DenialReasons {
			reasons = append(reasons, k)
		}
		sort.Strings(reasons)
		for _, k := range reasons {
			fmt.Fprintf(w, "  denied %-24s %s\n", k, humanize.Comma(int64(r.Trace.DenialReasons[k])))
		}
	}
}
