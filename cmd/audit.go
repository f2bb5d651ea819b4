package cmd

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/sha3"

	"github.com/kaushalya4s5s7/Axiom/pkg/adk"
	"github.com/kaushalya4s5s7/Axiom/pkg/store"
)

var (
	auditFlags   pipelineFlags
	auditTimeout time.Duration
	auditRawOut  string
)

var auditCmd = &cobra.Command{
	Use:   "audit <contract-file>",
	Short: "Run the configured analysis engine on a contract and score its report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		hash := contractHash(source)

		cfg := runtimeCfg
		provider := firstNonEmpty(cfg.SelectedProvider, "gemini")
		ctx, cancel := withTimeout(auditTimeout)
		defer cancel()

		analyzer, err := adk.NewAnalyzer(ctx, provider, cfg.GetAPIKey(provider), cfg.SelectedModel)
		if err != nil {
			return fmt.Errorf("error initializing provider: %w", err)
		}
		if c, ok := analyzer.(interface{ Close() }); ok {
			defer c.Close()
		}

		logger.Info("running analysis", "provider", provider, "model", cfg.SelectedModel, "contract", hash)
		raw, err := analyzer.Analyze(ctx, adk.AuditRequest{
			ContractName: filepath.Base(args[0]),
			Source:       string(source),
		})
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		if auditRawOut != "" {
			if err := os.WriteFile(auditRawOut, []byte(raw), 0644); err != nil {
				return err
			}
		}

		s, release, err := newStore(cfg, &auditFlags)
		if err != nil {
			return err
		}
		defer release()

		if err := s.Ingest(raw, store.WithContractHash(hash)); err != nil {
			return fmt.Errorf("unexpected report format: %w", err)
		}
		return emit(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, &auditFlags, s.State())
	},
}

// contractHash identifies the audited source the way Ethereum tooling does:
// 0x-prefixed Keccak-256.
func contractHash(source []byte) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(source)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}

func init() {
	auditCmd.Flags().DurationVar(&auditTimeout, "timeout", 5*time.Minute, "Timeout for the analysis request")
	auditCmd.Flags().StringVar(&auditRawOut, "save-raw", "", "Also write the raw engine report to this file")
	addPipelineFlags(auditCmd, &auditFlags)
	rootCmd.AddCommand(auditCmd)
}
