package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/seuros/sleepboard/internal/config"
	"github.com/seuros/sleepboard/internal/dashboard"
	"github.com/seuros/sleepboard/internal/dataset"
)

var errChecksFailed = errors.New("doctor checks failed")

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks on the Sleepboard setup",
	Long: `Run health checks on the Sleepboard setup.

Checks performed:
  - Data file readable
  - Dataset has every required column with numeric values
  - Variant exists and validates
  - Every panel of the variant builds
  - Port is valid

Example:
  sleepboard doctor
  sleepboard doctor --json`,
	RunE: runDoctor,
}

type CheckResult struct {
	Name       string `json:"name"`
	Pass       bool   `json:"pass"`
	Error      string `json:"error,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	Details    string `json:"details,omitempty"`
}

func checkDataFile(cfg *config.Config) CheckResult {
	info, err := os.Stat(cfg.DataFile)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{
				Name:       "Data File",
				Pass:       false,
				Error:      cfg.DataFile + " not found",
				Suggestion: "Set DATA_FILE or pass --data with the survey CSV path",
			}
		}
		return CheckResult{Name: "Data File", Pass: false, Error: err.Error()}
	}
	if info.IsDir() {
		return CheckResult{
			Name:       "Data File",
			Pass:       false,
			Error:      cfg.DataFile + " is a directory",
			Suggestion: "Point DATA_FILE at the CSV file itself",
		}
	}
	return CheckResult{
		Name:    "Data File",
		Pass:    true,
		Details: fmt.Sprintf("%.1f KB", float64(info.Size())/1024),
	}
}

func checkDataset(cfg *config.Config) (*dataset.Table, CheckResult) {
	table, err := dataset.Load(cfg.DataFile)
	if err != nil {
		res := CheckResult{Name: "Dataset Columns", Pass: false, Error: err.Error()}
		switch {
		case errors.Is(err, dataset.ErrMissingColumn):
			res.Suggestion = "The CSV needs Sleep Duration, Quality of Sleep, Stress Level and Physical Activity Level"
		case errors.Is(err, dataset.ErrInvalidValue):
			res.Suggestion = "Fix the non-numeric cell reported above"
		case errors.Is(err, dataset.ErrNoRows):
			res.Suggestion = "The CSV has a header but no survey rows"
		}
		return nil, res
	}
	return table, CheckResult{
		Name:    "Dataset Columns",
		Pass:    true,
		Details: fmt.Sprintf("%d rows, %d columns", table.Len(), len(table.Columns())),
	}
}

func checkVariant(cfg *config.Config) CheckResult {
	v, err := dashboard.LoadVariant(cfg.Variant)
	if err != nil {
		return CheckResult{
			Name:       "Variant",
			Pass:       false,
			Error:      err.Error(),
			Suggestion: "Run `sleepboard variants` to list the available variants",
		}
	}
	return CheckResult{Name: "Variant", Pass: true, Details: v.Name}
}

func checkPanels(table *dataset.Table, cfg *config.Config) CheckResult {
	dash, err := dashboard.New(table, cfg.Variant)
	if err != nil {
		return CheckResult{Name: "Panels", Pass: false, Error: err.Error()}
	}

	empty := 0
	for _, p := range dash.Panels() {
		fig, err := dash.Figure(p.ID, dataset.Predicates{})
		if err != nil {
			return CheckResult{Name: "Panels", Pass: false, Error: err.Error()}
		}
		if fig.Empty() {
			empty++
		}
	}
	if empty > 0 {
		return CheckResult{
			Name:       "Panels",
			Pass:       false,
			Error:      fmt.Sprintf("%d of %d panels have no data", empty, len(dash.Panels())),
			Suggestion: "Check that the dataset has rows",
		}
	}
	return CheckResult{
		Name:    "Panels",
		Pass:    true,
		Details: fmt.Sprintf("%d panels built", len(dash.Panels())),
	}
}

func checkPort(cfg *config.Config) CheckResult {
	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port < 1 || port > 65535 {
		return CheckResult{
			Name:       "Listen Port",
			Pass:       false,
			Error:      fmt.Sprintf("invalid port %q", cfg.Port),
			Suggestion: "Use a port between 1 and 65535",
		}
	}
	return CheckResult{Name: "Listen Port", Pass: true, Details: cfg.Addr()}
}

// runChecks runs every check; dataset-dependent checks are skipped when the
// dataset cannot be loaded.
func runChecks(cfg *config.Config) []CheckResult {
	results := []CheckResult{checkDataFile(cfg)}

	table, res := checkDataset(cfg)
	results = append(results, res)
	results = append(results, checkVariant(cfg))
	if table != nil {
		results = append(results, checkPanels(table, cfg))
	}
	results = append(results, checkPort(cfg))
	return results
}

func runDoctor(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "✗ Configuration Error: %v\n", err)
		return err
	}

	results := runChecks(cfg)

	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := outputDoctorJSON(out, results); err != nil {
			return err
		}
	} else {
		outputDoctorHuman(out, results, isTerminal(out))
	}

	for _, r := range results {
		if !r.Pass {
			return errChecksFailed
		}
	}
	return nil
}

func outputDoctorHuman(w io.Writer, results []CheckResult, colour bool) {
	pass := color.New(color.FgGreen)
	fail := color.New(color.FgRed)
	if !colour {
		pass.DisableColor()
		fail.DisableColor()
	}

	_, _ = fmt.Fprintln(w, "\nSleepboard Health Check")

	passed := 0
	for _, r := range results {
		if r.Pass {
			passed++
			_, _ = pass.Fprint(w, "✓ ")
		} else {
			_, _ = fail.Fprint(w, "✗ ")
		}

		_, _ = fmt.Fprint(w, r.Name)
		if r.Details != "" {
			_, _ = fmt.Fprintf(w, " (%s)", r.Details)
		}
		_, _ = fmt.Fprintln(w)

		if !r.Pass {
			if r.Error != "" {
				_, _ = fmt.Fprintf(w, "  Error: %s\n", r.Error)
			}
			if r.Suggestion != "" {
				_, _ = fmt.Fprintf(w, "  Hint: %s\n", r.Suggestion)
			}
		}
	}

	_, _ = fmt.Fprintf(w, "\n%d/%d checks passed\n\n", passed, len(results))
}

func outputDoctorJSON(w io.Writer, results []CheckResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func init() {
	doctorCmd.Flags().Bool("json", false, "Output results as JSON")
	RootCmd.AddCommand(doctorCmd)
}
