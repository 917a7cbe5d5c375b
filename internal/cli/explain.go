package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"beautyrec/internal/domain"
)

var (
	explainProduct string
	explainKey     string
)

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Explain why the top alternative fits",
	Long: `Recommend alternatives to a product, then ask the language model why the
top one is a good substitute. The API key is read from the environment variable
named by explain.api_key_env (GEMINI_API_KEY by default) or from --api-key.

Examples:
  GEMINI_API_KEY=... beautyrec explain -p "Rose Toner"`,
	Args: cobra.NoArgs,
	RunE: runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
	explainCmd.Flags().StringVarP(&explainProduct, "product", "p", "", "product name, exact match (required)")
	explainCmd.Flags().StringVar(&explainKey, "api-key", "", "API key used when the environment does not provide one")
	explainCmd.MarkFlagRequired("product")
}

func runExplain(cmd *cobra.Command, args []string) error {
	rec, err := loadRecommender(cmd.Context())
	if err != nil {
		return err
	}

	sess := domain.NewSession("cli")
	cs, err := rec.Recommend(cmd.Context(), sess, explainProduct)
	if err != nil {
		return err
	}
	printCandidates(cs.QueryName, cs.Head(rec.DisplayLimit()))

	exp, err := rec.Explain(cmd.Context(), sess, explainKey)
	switch {
	case errors.Is(err, domain.ErrNoCandidates):
		fmt.Println("\nNothing to explain.")
		return nil
	case errors.Is(err, domain.ErrMissingCredential):
		return fmt.Errorf("%w: set %s or pass --api-key", err, rec.Credentials().EnvVar())
	case err != nil:
		return err
	}

	fmt.Printf("\nWhy %s (%s):\n\n%s\n", exp.Top, exp.Model, exp.Text)
	return nil
}
