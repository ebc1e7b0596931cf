package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/alexandrut83/alerimpool/dashboard"
	"github.com/alexandrut83/alerimpool/pool"
)

// writeTable prints rows under the table's data columns. Action columns
// only exist on the web dashboard.
func writeTable(w io.Writer, table dashboard.Table, rows []dashboard.Row) error {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	columns := make([]dashboard.Column, 0, len(table.Columns))
	for _, col := range table.Columns {
		if col.Action == "" {
			columns = append(columns, col)
		}
	}

	labels := make([]string, len(columns))
	for i, col := range columns {
		labels[i] = col.Label
	}
	if _, err := fmt.Fprintln(tw, strings.Join(labels, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = row[col.DataKey]
		}
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func writeFailures(w io.Writer, failures []*pool.Failure) {
	for _, f := range failures {
		fmt.Fprintln(w, color.YellowString("skipped: %v", f))
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func statusColor(status pool.Status) func(format string, a ...interface{}) string {
	switch status {
	case pool.StatusMiner:
		return color.GreenString
	case pool.StatusWaiting, pool.StatusPending:
		return color.YellowString
	}
	return color.New(color.Faint).Sprintf
}
