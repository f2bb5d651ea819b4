package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kaushalya4s5s7/Axiom/pkg/report"
)

var diffCmd = &cobra.Command{
	Use:   "diff <baseline.json> <current.json>",
	Short: "Compare two exported reports (new, fixed and unchanged issues)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseline, err := report.LoadFile(args[0])
		if err != nil {
			return err
		}
		current, err := report.LoadFile(args[1])
		if err != nil {
			return err
		}
		d := report.Compare(baseline, current)
		logger.Debug("compared reports", "new", len(d.New), "fixed", len(d.Fixed), "unchanged", len(d.Unchanged))
		return report.WriteDiff(cmd.OutOrStdout(), d, filepath.Base(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
}
