package main

import (
	"fmt"
	"io"

	m4amp3 "github.com/Adam-226/m4a-mp3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// printSummary writes the final batch report: one counts line, then the
// failure list. On a terminal the failures render as a table; otherwise as
// plain lines so the output stays pipe-friendly.
func printSummary(w io.Writer, summary m4amp3.BatchSummary, pretty bool) {
	fmt.Fprintf(w, "Done: %d succeeded, %d failed, %d total\n",
		summary.Succeeded, summary.Failed, summary.TotalFound)

	if len(summary.Failures) == 0 {
		return
	}

	if pretty {
		fmt.Fprintln(w, renderFailureTable(summary.Failures))
		return
	}
	for _, f := range summary.Failures {
		fmt.Fprintf(w, "FAILED %s: %s\n", f.Path, f.Detail)
	}
}

func renderFailureTable(failures []m4amp3.Failure) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"File", "Error"})
	for _, f := range failures {
		tw.AppendRow(table.Row{f.Path, f.Detail})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: 80},
	})
	return tw.Render()
}
