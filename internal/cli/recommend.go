package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"beautyrec/internal/domain"
	"beautyrec/internal/port"
	"beautyrec/internal/usecase"
)

var (
	recProduct string
	recJSON    bool
	recOrder   string
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Print alternatives to a product",
	Long: `Retrieve the products most similar to the given one, score them with the
classifier and print the top results with their hybrid score.

Examples:
  beautyrec recommend -p "Rose Toner"
  beautyrec recommend -p "Rose Toner" --order hybrid --json`,
	Args: cobra.NoArgs,
	RunE: runRecommend,
}

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().StringVarP(&recProduct, "product", "p", "", "product name, exact match (required)")
	recommendCmd.Flags().BoolVar(&recJSON, "json", false, "output as JSON")
	recommendCmd.Flags().StringVar(&recOrder, "order", "", "ranking order: similarity or hybrid (default from config)")
	recommendCmd.MarkFlagRequired("product")
}

// loadRecommender loads artifacts through the cache and wires a recommender.
func loadRecommender(ctx context.Context) (*usecase.Recommender, error) {
	cfg := GetConfig()
	rootDir := GetRootDir()

	var arts *usecase.Artifacts
	err := withCache(cfg, rootDir, func(cache port.ArtifactCache) error {
		var err error
		arts, err = newLoader(cfg, rootDir, cache).Load(ctx, false)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load artifacts: %w", err)
	}
	return newRecommender(cfg, arts)
}

func runRecommend(cmd *cobra.Command, args []string) error {
	if recOrder != "" {
		GetConfig().Rank.Order = recOrder
	}
	rec, err := loadRecommender(cmd.Context())
	if err != nil {
		return err
	}

	sess := domain.NewSession("cli")
	cs, err := rec.Recommend(cmd.Context(), sess, recProduct)
	if err != nil {
		return err
	}
	rows := cs.Head(rec.DisplayLimit())

	if recJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Query      string             `json:"query"`
			Candidates []domain.Candidate `json:"candidates"`
		}{cs.QueryName, rows})
	}

	printCandidates(cs.QueryName, rows)
	return nil
}

func printCandidates(query string, rows []domain.Candidate) {
	if len(rows) == 0 {
		fmt.Printf("No alternatives found for %q.\n", query)
		return
	}

	fmt.Printf("Similar products to %q (top %d):\n\n", query, len(rows))
	fmt.Printf("  %-3s %-48s %9s %9s %9s %9s\n", "#", "item_reviewed", "sentiment", "faiss_sim", "prob_svm", "hybrid")
	for i, c := range rows {
		fmt.Printf("  %-3d %-48s %9.4f %9.4f %9.4f %9.4f\n", i+1, truncate(c.Name, 48), c.Sentiment, c.FaissSim, c.ProbSVM, c.HybridScore)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
