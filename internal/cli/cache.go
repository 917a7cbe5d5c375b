package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"beautyrec/internal/adapter/store"
)

var cacheMatch string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the artifact cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached artifacts",
	Long: `List cached artifacts with their source URL, size and checksum.

Examples:
  beautyrec cache list
  beautyrec cache list --match "prod*"`,
	Args: cobra.NoArgs,
	RunE: runCacheList,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached artifact",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

var cacheDeleteCmd = &cobra.Command{
	Use:   "delete NAME...",
	Short: "Remove cached artifacts by name or glob pattern",
	Long: `Remove cached artifacts so the next run fetches them again.

Examples:
  beautyrec cache delete index
  beautyrec cache delete "prod*" classifier`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCacheDelete,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd, cacheDeleteCmd)
	cacheListCmd.Flags().StringVar(&cacheMatch, "match", "", "only artifacts whose name matches this glob pattern")
}

func runCacheList(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	dbPath := cfg.CacheDBPath(GetRootDir())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("no artifact cache found. Run 'beautyrec fetch' first")
	}

	st, err := openCache(cfg, GetRootDir())
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.List(cacheMatch)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No cached artifacts.")
		return nil
	}

	for _, e := range entries {
		fmt.Printf("%s\n", e.Name)
		fmt.Printf("  URL:     %s\n", e.URL)
		fmt.Printf("  Size:    %d bytes\n", e.Size)
		fmt.Printf("  SHA256:  %s\n", e.SHA256)
		fmt.Printf("  Fetched: %s\n", e.FetchedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	st, err := openCache(cfg, GetRootDir())
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Printf("Cleared %s\n", cfg.CacheDBPath(GetRootDir()))
	return nil
}

func runCacheDelete(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	st, err := openCache(cfg, GetRootDir())
	if err != nil {
		return err
	}
	defer st.Close()

	deleted, err := deleteCached(st, args)
	if err != nil {
		return err
	}
	if len(deleted) == 0 {
		fmt.Println("No matching cached artifacts.")
		return nil
	}
	for _, name := range deleted {
		fmt.Printf("Deleted %s\n", name)
	}
	return nil
}

// deleteCached removes every artifact matching one of patterns and returns
// the removed names.
func deleteCached(st *store.BoltStore, patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var deleted []string
	for _, pattern := range patterns {
		entries, err := st.List(pattern)
		if err != nil {
			return deleted, err
		}
		for _, e := range entries {
			if seen[e.Name] {
				continue
			}
			seen[e.Name] = true
			if err := st.Delete(e.Name); err != nil {
				return deleted, fmt.Errorf("failed to delete %s: %w", e.Name, err)
			}
			deleted = append(deleted, e.Name)
		}
	}
	return deleted, nil
}
