package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"beautyrec/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config to .beautyrec/config.yaml",
	Long: `Write the default configuration to .beautyrec/config.yaml in the working
directory so artifact URLs, the explanation provider and server settings can be
edited in place.

Examples:
  beautyrec init
  beautyrec init --force   # overwrite an existing file`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path, err := writeDefaultConfig(GetRootDir(), initForce)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}

func writeDefaultConfig(dir string, force bool) (string, error) {
	path := filepath.Join(dir, ".beautyrec", "config.yaml")
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists, use --force to overwrite", path)
	}
	if err := config.EnsureDataDir(path); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
