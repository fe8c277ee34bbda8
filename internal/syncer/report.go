package syncer

import (
	"fmt"
	"io"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
)

var reportHeader = []string{"COLUMN", "AIRTABLE", "WAREHOUSE", "RECONCILED"}

// WriteReport renders the plan's column type diff as an aligned table followed
// by the row counts. With useColor, columns whose types changed are highlighted.
func WriteReport(w io.Writer, plan *Plan, useColor bool) error {
	rows := make([][]string, 0, len(plan.Diff))
	for _, d := range plan.Diff {
		sink := "-"
		if d.InSink {
			sink = d.Sink.String()
		}
		rows = append(rows, []string{d.Column, sink, d.Before.String(), d.After.String()})
	}

	widths := make([]int, len(reportHeader))
	for i, h := range reportHeader {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	header := formatReportLine(reportHeader, widths)
	if useColor {
		header = color.Bold.Sprint(header)
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	for i, row := range rows {
		line := formatReportLine(row, widths)
		if useColor && plan.Diff[i].Changed() {
			line = color.Yellow.Sprint(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\nrows: %d total, %d to update, %d to insert\n",
		plan.Reconciled.Len(), plan.Update.Len(), plan.Insert.Len())
	return err
}

func formatReportLine(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		if i == len(cells)-1 {
			padded[i] = cell
			continue
		}
		padded[i] = runewidth.FillRight(cell, widths[i])
	}
	return strings.Join(padded, "  ")
}
