package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kaushalya4s5s7/Axiom/pkg/adk"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		out := cmd.OutOrStdout()
		ask := func(prompt string) string {
			fmt.Fprint(out, prompt)
			scanner.Scan()
			return strings.TrimSpace(scanner.Text())
		}

		fmt.Fprintln(out, "Welcome to the Axiom Setup Wizard")
		fmt.Fprintln(out, "---------------------------------")

		fmt.Fprintln(out, "Step 1: Choose the analysis provider")
		fmt.Fprintln(out, "1. Gemini (Google)")
		fmt.Fprintln(out, "2. OpenAI")
		fmt.Fprintln(out, "3. Anthropic")
		var provider string
		switch strings.ToLower(ask("Enter number or name > ")) {
		case "1", "gemini":
			provider = "gemini"
		case "2", "openai":
			provider = "openai"
		case "3", "anthropic":
			provider = "anthropic"
		default:
			return fmt.Errorf("invalid provider choice")
		}

		fmt.Fprintf(out, "\nStep 2: Enter API Key for %s\n", provider)
		apiKey := ask("> ")
		if apiKey == "" {
			return fmt.Errorf("API key cannot be empty")
		}

		fmt.Fprintln(out, "\nStep 3: Validating key and fetching available models...")
		selectedModel := chooseModel(out, ask, provider, apiKey)

		fmt.Fprintln(out, "\nStep 4: Event bus (optional)")
		natsURL := ask("NATS URL for ingest events, empty to skip > ")

		cfg, err := loadFileConfig()
		if err != nil {
			return fmt.Errorf("error loading config: %w", err)
		}
		cfg.SelectedProvider = provider
		cfg.SelectedModel = selectedModel
		cfg.SetAPIKey(provider, apiKey)
		if natsURL != "" {
			cfg.Events.NatsURL = natsURL
		}
		if err := saveFileConfig(cfg); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}

		fmt.Fprintln(out, "---------------------------------")
		fmt.Fprintln(out, "Setup Complete!")
		fmt.Fprintf(out, "Provider: %s\n", provider)
		fmt.Fprintf(out, "Model:    %s\n", selectedModel)
		fmt.Fprintln(out, "You can now run 'axiom audit <contract.sol>'")
		return nil
	},
}

func chooseModel(out io.Writer, ask func(string) string, provider, apiKey string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var models []string
	a, err := adk.NewAnalyzer(ctx, provider, apiKey, "")
	if err == nil {
		if c, ok := a.(interface{ Close() }); ok {
			defer c.Close()
		}
		models, err = a.ListModels(ctx)
	}
	if err != nil || len(models) == 0 {
		if err != nil {
			fmt.Fprintf(out, "Warning: Could not fetch models from API: %v\n", err)
		}
		return ask("Enter model name manually (e.g. 'gemini-1.5-flash', 'gpt-4o') > ")
	}

	fmt.Fprintf(out, "Successfully retrieved %d models.\n", len(models))
	for i, m := range models {
		fmt.Fprintf(out, "%d. %s\n", i+1, m)
	}
	idx, err := strconv.Atoi(ask("Select Model (number) > "))
	if err != nil || idx < 1 || idx > len(models) {
		fmt.Fprintln(out, "Invalid selection. Using first available model.")
		return models[0]
	}
	return models[idx-1]
}

func init() {
	configCmd.AddCommand(setupCmd)
}
