// Package server is the web front end: HTML pages for the recommendation
// workflow plus a small JSON API over the same sessions.
package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"beautyrec/internal/adapter/session"
	"beautyrec/internal/logging"
	"beautyrec/internal/usecase"
)

// SessionCookie names the cookie carrying the session ID.
const SessionCookie = "beautyrec_session"

//go:embed templates/*.html
var templatesFS embed.FS

// Options tunes the server.
type Options struct {
	// Mode is the gin mode: debug, release or test.
	Mode string

	// Model is shown on the pages next to the explanation button.
	Model string

	// SessionTTL sets the cookie lifetime.
	SessionTTL time.Duration

	// SecureCookie sets the Secure flag on the session cookie.
	SecureCookie bool
}

// Server is the HTTP front end.
type Server struct {
	router   *gin.Engine
	rec      *usecase.Recommender
	sessions *session.Store
	opts     Options
	logger   zerolog.Logger
	http     *http.Server
}

// NewServer builds the router.
func NewServer(rec *usecase.Recommender, sessions *session.Store, opts Options) *Server {
	if opts.Mode != "" {
		gin.SetMode(opts.Mode)
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}

	s := &Server{
		router:   gin.New(),
		rec:      rec,
		sessions: sessions,
		opts:     opts,
		logger:   logging.With().Str("component", "server").Logger(),
	}

	tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html"))
	s.router.SetHTMLTemplate(tmpl)

	s.router.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	pages := s.router.Group("/")
	pages.Use(s.sessionMiddleware())
	pages.GET("/", s.handleDashboard)
	pages.GET("/recommend", s.handleRecommendPage)
	pages.POST("/recommend", s.handleRecommendForm)
	pages.POST("/explain", s.handleExplainForm)
	pages.GET("/about", s.handleAbout)

	v1 := s.router.Group("/api/v1")
	v1.Use(s.sessionMiddleware())
	v1.GET("/products", s.handleProducts)
	v1.POST("/recommend", s.handleRecommend)
	v1.POST("/explain", s.handleExplain)
	v1.GET("/session", s.handleSession)
	v1.DELETE("/session", s.handleResetSession)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("listening")
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info().Msg("shutting down")
	return s.http.Shutdown(shutdownCtx)
}
