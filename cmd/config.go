package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kaushalya4s5s7/Axiom/pkg/adk"
	"github.com/kaushalya4s5s7/Axiom/pkg/engine"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration (providers, models, keys, policy)",
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Set the API key for an analysis provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		key, _ := cmd.Flags().GetString("key")
		if provider == "" || key == "" {
			return fmt.Errorf("--provider and --key are required")
		}

		cfg, err := loadFileConfig()
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		cfg.SetAPIKey(strings.ToLower(provider), key)
		if err := saveFileConfig(cfg); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "API key saved for provider: %s\n", provider)
		return nil
	},
}

var setModelCmd = &cobra.Command{
	Use:   "set-model",
	Short: "Set the active provider and model",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		model, _ := cmd.Flags().GetString("model")

		cfg, err := loadFileConfig()
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		if provider != "" {
			cfg.SelectedProvider = strings.ToLower(provider)
		}
		if model != "" {
			cfg.SelectedModel = model
		}
		if err := saveFileConfig(cfg); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Active configuration updated: Provider=%s, Model=%s\n", cfg.SelectedProvider, cfg.SelectedModel)
		return nil
	},
}

var setPolicyCmd = &cobra.Command{
	Use:   "set-policy <policy.yaml>",
	Short: "Validate a scoring policy and make it the default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := engine.LoadPolicy(args[0])
		if err != nil {
			return err
		}
		cfg, err := loadFileConfig()
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		cfg.PolicyFile = args[0]
		if err := saveFileConfig(cfg); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}
		w := p.Weights
		fmt.Fprintf(cmd.OutOrStdout(), "Policy saved: critical=%d high=%d medium=%d low=%d unknown=%d\n",
			w.Critical, w.High, w.Medium, w.Low, w.Unknown)
		return nil
	},
}

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List available models from the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := runtimeCfg
		provider := cfg.SelectedProvider
		if provider == "" {
			return fmt.Errorf("no provider selected, run 'axiom config setup'")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Fetching models for %s...\n", provider)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		a, err := adk.NewAnalyzer(ctx, provider, cfg.GetAPIKey(provider), "")
		if err != nil {
			return fmt.Errorf("error initializing provider: %w", err)
		}
		if c, ok := a.(interface{ Close() }); ok {
			defer c.Close()
		}

		models, err := a.ListModels(ctx)
		if err != nil {
			return fmt.Errorf("error fetching models: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\nAvailable Models (%s):\n", provider)
		for _, m := range models {
			mark := " "
			if m == cfg.SelectedModel {
				mark = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, m)
		}
		return nil
	},
}

var listTemplatesCmd = &cobra.Command{
	Use:   "list-templates",
	Short: "List remediation templates (built-in and from the templates directory)",
	RunE: func(cmd *cobra.Command, args []string) error {
		rec := engine.DefaultRemediationEngine()
		dir, _ := cmd.Flags().GetString("templates")
		if dir = firstNonEmpty(dir, runtimeCfg.TemplatesDir); dir != "" {
			if err := rec.LoadTemplates(dir); err != nil {
				return fmt.Errorf("failed to load remediation templates: %w", err)
			}
		}

		fmt.Fprintln(cmd.OutOrStdout(), "Remediation templates:")
		for _, t := range rec.ListTemplates() {
			fmt.Fprintf(cmd.OutOrStdout(), "- %s\n", t)
		}
		return nil
	},
}

func init() {
	setKeyCmd.Flags().StringP("provider", "p", "", "Provider (gemini, openai, anthropic)")
	setKeyCmd.Flags().StringP("key", "k", "", "API Key")

	setModelCmd.Flags().StringP("provider", "p", "", "Provider (gemini, openai, anthropic)")
	setModelCmd.Flags().StringP("model", "m", "", "Model name")

	configCmd.AddCommand(setKeyCmd)
	configCmd.AddCommand(setModelCmd)
	configCmd.AddCommand(setPolicyCmd)
	configCmd.AddCommand(listModelsCmd)
	listTemplatesCmd.Flags().String("templates", "", "Directory of remediation templates")
	configCmd.AddCommand(listTemplatesCmd)
	rootCmd.AddCommand(configCmd)
}
