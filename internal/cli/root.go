package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"beautyrec/config"
	"beautyrec/internal/logging"
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "beautyrec",
	Short: "Hybrid beauty product recommender",
	Long: `beautyrec recommends alternative beauty products. Candidates come from a
FAISS similarity index, are re-scored by an SVM satisfaction classifier and
blended into a hybrid score (0.6 * similarity + 0.4 * probability). A Gemini
model can explain the top pick.

Example usage:
  beautyrec fetch                          # Download and cache the model artifacts
  beautyrec serve                          # Start the web app on :8080
  beautyrec recommend -p "Rose Toner"      # Print recommendations
  beautyrec explain -p "Rose Toner"        # Explain the top recommendation`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./beautyrec.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "working directory for relative artifact paths and the cache (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
