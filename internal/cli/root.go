package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/seuros/sleepboard/internal/config"
	"github.com/seuros/sleepboard/internal/dashboard"
	"github.com/seuros/sleepboard/internal/dataset"
	"github.com/seuros/sleepboard/internal/handlers"
)

var Version string

// Embedded assets passed from main
var Assets handlers.Assets

// Global flags shared by every command
var (
	dataFileFlag string
	hostFlag     string
	portFlag     string
	variantFlag  string
)

// RootCmd represents the root command
var RootCmd = &cobra.Command{
	Use:   "sleepboard",
	Short: "Interactive sleep and lifestyle dashboard",
	Long: `Sleepboard - explore how sleep relates to stress and activity.

Sleepboard loads the Sleep Health and Lifestyle survey once and serves an
interactive dashboard: filters on sleep duration, stress level and physical
activity level recompute every chart on the page.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Default to serve command if no subcommand provided
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runServe(cmd.Context())
		}
		return cmd.Help()
	},
}

// Execute is called by main
func Execute(version string, assets handlers.Assets) error {
	Version = version
	Assets = assets
	RootCmd.Version = version

	return RootCmd.Execute()
}

// loadConfig merges the global flags over file, env and defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadWithOverrides(config.Overrides{
		DataFile: dataFileFlag,
		Host:     hostFlag,
		Port:     portFlag,
		Variant:  variantFlag,
	})
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// loadDashboard reads the dataset and binds it to the configured variant.
func loadDashboard(cfg *config.Config, opts ...dashboard.Option) (*dashboard.Dashboard, error) {
	table, err := dataset.Load(cfg.DataFile)
	if err != nil {
		return nil, err
	}
	return dashboard.New(table, cfg.Variant, opts...)
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringVar(&dataFileFlag, "data", "", "path to the sleep survey CSV (env DATA_FILE)")
	flags.StringVar(&hostFlag, "host", "", "listen host (env HOST)")
	flags.StringVar(&portFlag, "port", "", "listen port (env PORT)")
	flags.StringVar(&variantFlag, "variant", "", "dashboard variant (env VARIANT)")
}
