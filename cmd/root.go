package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kaushalya4s5s7/Axiom/pkg/config"
	"github.com/kaushalya4s5s7/Axiom/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "axiom",
	Short: "Smart contract audit report pipeline",
	Long: `Axiom turns the raw output of a smart-contract analysis engine into a
severity-classified, scored audit report that can be exported and compared.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadDotEnv(".env")
		cfg, err := loadFileConfig()
		if err != nil {
			return err
		}
		cfg.ApplyEnv()

		level := cfg.Logging.Level
		if DebugMode {
			level = "debug"
		}
		logger = logging.Init(cfg.Logging.Format, level, cmd.ErrOrStderr())
		runtimeCfg = cfg
		return nil
	},
}

var (
	DebugMode  bool
	cfgFile    string
	runtimeCfg *config.Config
	logger     = slog.Default()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.axiom/config.yaml)")
}

func loadFileConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadConfigFrom(cfgFile)
	}
	return config.LoadConfig()
}

func saveFileConfig(cfg *config.Config) error {
	if cfgFile != "" {
		return config.SaveConfigTo(cfgFile, cfg)
	}
	return config.SaveConfig(cfg)
}
