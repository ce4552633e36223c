package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/seuros/sleepboard/internal/dataset"
)

var summaryFormat string

var summaryCmd = &cobra.Command{
	Use:   "summary [--format table|json|csv]",
	Short: "Describe the numeric columns of the dataset",
	Long: `Print count, min, max, mean and standard deviation for every numeric
column of the configured dataset.

Supported formats:
  table  - Human-readable table (default)
  json   - JSON object format
  csv    - Comma-separated values`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		table, err := dataset.Load(cfg.DataFile)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		return writeSummary(out, summaryFormat, table, isTerminal(out))
	},
}

type summaryOutput struct {
	Rows    int                     `json:"rows"`
	Columns []dataset.ColumnSummary `json:"columns"`
}

func writeSummary(w io.Writer, format string, t *dataset.Table, colour bool) error {
	switch format {
	case "json":
		return outputSummaryJSON(w, t)
	case "csv":
		return outputSummaryCSV(w, t)
	case "table", "":
		return outputSummaryTable(w, t, colour)
	default:
		return fmt.Errorf("unknown format %q (want table, json or csv)", format)
	}
}

func outputSummaryJSON(w io.Writer, t *dataset.Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaryOutput{Rows: t.Len(), Columns: t.Summary()})
}

func outputSummaryCSV(w io.Writer, t *dataset.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"column", "count", "min", "max", "mean", "std"}); err != nil {
		return err
	}
	for _, s := range t.Summary() {
		if err := cw.Write([]string{
			s.Column,
			strconv.Itoa(s.Count),
			formatStat(s.Min),
			formatStat(s.Max),
			formatStat(s.Mean),
			formatStat(s.Std),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func outputSummaryTable(w io.Writer, t *dataset.Table, colour bool) error {
	header := color.New(color.Bold, color.FgCyan)
	muted := color.New(color.Faint)
	if !colour {
		header.DisableColor()
		muted.DisableColor()
	}

	if t.Len() == 0 {
		_, err := muted.Fprintln(w, "No rows loaded")
		return err
	}

	if _, err := header.Fprintf(w, "Dataset summary (%d rows)\n\n", t.Len()); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "COLUMN\tCOUNT\tMIN\tMAX\tMEAN\tSTD")
	for _, s := range t.Summary() {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n",
			s.Column, s.Count,
			formatStat(s.Min), formatStat(s.Max), formatStat(s.Mean), formatStat(s.Std))
	}
	return tw.Flush()
}

func formatStat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func init() {
	summaryCmd.Flags().StringVarP(&summaryFormat, "format", "f", "table", "output format (table, json, csv)")
	RootCmd.AddCommand(summaryCmd)
}
