package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kaushalya4s5s7/Axiom/pkg/store"
)

var ingestFlags pipelineFlags

var ingestCmd = &cobra.Command{
	Use:   "ingest [report-file|-]",
	Short: "Parse, classify and score a raw audit report",
	Long: `Reads a raw report produced by an analysis engine (JSON or plain text)
from a file or stdin and prints the scored audit report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(cmd, args)
		if err != nil {
			return err
		}

		s, release, err := newStore(runtimeCfg, &ingestFlags)
		if err != nil {
			return err
		}
		defer release()

		var opts []store.IngestOption
		if ingestFlags.contractHash != "" {
			opts = append(opts, store.WithContractHash(ingestFlags.contractHash))
		}
		if err := s.Ingest(raw, opts...); err != nil {
			return fmt.Errorf("unexpected report format: %w", err)
		}
		return emit(cmd.OutOrStdout(), cmd.ErrOrStderr(), runtimeCfg, &ingestFlags, s.State())
	},
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}

func addPipelineFlags(cmd *cobra.Command, f *pipelineFlags) {
	cmd.Flags().StringVar(&f.policyFile, "policy", "", "Scoring policy YAML (weights and keywords)")
	cmd.Flags().StringVar(&f.templatesDir, "templates", "", "Directory of remediation templates")
	cmd.Flags().BoolVarP(&f.export, "export", "e", false, "Write the export document to a file")
	cmd.Flags().StringVarP(&f.exportDir, "out", "o", "", "Export directory (default from config)")
	cmd.Flags().BoolVar(&f.printJSON, "json", false, "Print the export document instead of the summary")
	cmd.Flags().BoolVar(&f.noEvents, "no-events", false, "Do not publish ingest events")
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFlags.contractHash, "contract-hash", "", "Contract hash recorded in the report")
	addPipelineFlags(ingestCmd, &ingestFlags)
	rootCmd.AddCommand(ingestCmd)
}
