package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seuros/sleepboard/internal/dashboard"
	"github.com/seuros/sleepboard/internal/dataset"
	"github.com/seuros/sleepboard/internal/figure"
	"github.com/seuros/sleepboard/internal/logging"
	"github.com/seuros/sleepboard/internal/render"
)

var (
	exportDir    string
	exportWidth  int
	exportHeight int
)

var exportCmd = &cobra.Command{
	Use:   "export [--out dir]",
	Short: "Render every panel of a variant to SVG",
	Long: `Render every panel of the configured variant, unfiltered, to
<out>/<panel>.svg.

Example:
  sleepboard export --variant correlation --out ./charts`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dash, err := loadDashboard(cfg)
		if err != nil {
			return err
		}

		written, err := exportPanels(dash, exportDir, render.Options{Width: exportWidth, Height: exportHeight})
		if err != nil {
			return err
		}
		for _, path := range written {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), path)
		}
		return nil
	},
}

// exportPanels writes one SVG per panel into dir and returns the paths.
func exportPanels(dash *dashboard.Dashboard, dir string, opts render.Options) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	var written []string
	for _, panel := range dash.Panels() {
		fig, err := dash.Figure(panel.ID, dataset.Predicates{})
		if err != nil {
			return written, err
		}

		path := filepath.Join(dir, panel.ID+".svg")
		if err := writeSVG(path, fig, opts); err != nil {
			return written, fmt.Errorf("export %s: %w", panel.ID, err)
		}
		logging.L().Debug("exported panel", zap.String("panel", panel.ID), zap.String("path", path))
		written = append(written, path)
	}
	return written, nil
}

func writeSVG(path string, fig figure.Figure, opts render.Options) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return render.SVG(f, fig, opts)
}

func init() {
	exportCmd.Flags().StringVarP(&exportDir, "out", "o", "charts", "directory to write SVG files into")
	exportCmd.Flags().IntVar(&exportWidth, "width", render.DefaultOptions.Width, "image width in pixels")
	exportCmd.Flags().IntVar(&exportHeight, "height", render.DefaultOptions.Height, "image height in pixels")
	RootCmd.AddCommand(exportCmd)
}
