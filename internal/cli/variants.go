package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/seuros/sleepboard/internal/dashboard"
)

var variantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "List the built-in dashboard variants",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return outputVariants(cmd.OutOrStdout(), cfg.Variant)
	},
}

// outputVariants lists every variant, marking the configured one with '*'.
func outputVariants(w io.Writer, current string) error {
	variants, err := dashboard.Variants()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "\tNAME\tPANELS\tCALLBACKS\tTITLE")
	for _, v := range variants {
		marker := ""
		if v.Name == current {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", marker, v.Name, len(v.Panels), len(v.Callbacks), v.Title)
	}
	return tw.Flush()
}

func init() {
	RootCmd.AddCommand(variantsCmd)
}
