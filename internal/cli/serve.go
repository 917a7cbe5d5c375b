package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"beautyrec/internal/adapter/session"
	"beautyrec/internal/logging"
	"beautyrec/internal/port"
	"beautyrec/internal/server"
	"beautyrec/internal/usecase"
)

var (
	serveAddr    string
	serveRefresh bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web app",
	Long: `Load the model artifacts and serve the recommendation pages and JSON API.
Artifact loading failures are fatal.

Examples:
  beautyrec serve
  beautyrec serve --addr :9000 --refresh`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveRefresh, "refresh", false, "re-download artifacts instead of using the cache")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	rootDir := GetRootDir()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var arts *usecase.Artifacts
	err := withCache(cfg, rootDir, func(cache port.ArtifactCache) error {
		var err error
		arts, err = newLoader(cfg, rootDir, cache).Load(ctx, serveRefresh)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to load artifacts: %w", err)
	}

	rec, err := newRecommender(cfg, arts)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.NewServer(rec, session.NewStore(cfg.Session.MaxSessions, cfg.Session.TTL), server.Options{
		Mode:       cfg.Server.Mode,
		Model:      cfg.Explain.Model,
		SessionTTL: cfg.Session.TTL,
	})

	logging.Info().
		Str("addr", addr).
		Int("products", len(rec.Products())).
		Str("order", cfg.Rank.Order).
		Msg("starting server")

	return srv.Run(ctx, addr)
}

