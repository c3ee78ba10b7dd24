// Package txt renders session transcripts for the terminal.
package txt

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"node.town/asrstream/stt"
)

var titleStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)

// WriteSummary prints one row per final transcript.
func WriteSummary(w io.Writer, title string, results []stt.Result) {
	fmt.Fprintln(w, titleStyle.Render(title))

	if len(results) == 0 {
		fmt.Fprintln(w, "No final transcripts.")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Offset", "Kind", "Confidence", "Transcript"})
	table.SetBorder(false)
	table.SetCenterSeparator("|")
	table.SetColumnSeparator("|")
	table.SetRowSeparator("-")
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)

	for i, r := range results {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			FormatOffset(r.Offset.Seconds()),
			string(r.Kind),
			fmt.Sprintf("%.2f", r.Confidence),
			r.Text,
		})
	}

	table.Render()
}

// FormatOffset renders seconds as mm:ss.mmm.
func FormatOffset(seconds float64) string {
	ms := int64(seconds*1000 + 0.5)
	return fmt.Sprintf("%02d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}
