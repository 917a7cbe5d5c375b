package cli

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	productsJSON  bool
	productsMatch string
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List product names",
	Long: `List the unique product names of the loaded table, sorted.

Examples:
  beautyrec products
  beautyrec products --match "*Serum*" --json`,
	Args: cobra.NoArgs,
	RunE: runProducts,
}

func init() {
	rootCmd.AddCommand(productsCmd)
	productsCmd.Flags().BoolVar(&productsJSON, "json", false, "output as JSON")
	productsCmd.Flags().StringVar(&productsMatch, "match", "", "only names matching this glob pattern")
}

func runProducts(cmd *cobra.Command, args []string) error {
	if productsMatch != "" && !doublestar.ValidatePattern(productsMatch) {
		return fmt.Errorf("invalid pattern: %s", productsMatch)
	}

	rec, err := loadRecommender(cmd.Context())
	if err != nil {
		return err
	}

	names := rec.Products()
	if productsMatch != "" {
		filtered := names[:0]
		for _, n := range names {
			if ok, _ := doublestar.Match(productsMatch, n); ok {
				filtered = append(filtered, n)
			}
		}
		names = filtered
	}

	if productsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(names)
	}

	for _, n := range names {
		fmt.Println(n)
	}
	fmt.Printf("\n%d products\n", len(names))
	return nil
}
