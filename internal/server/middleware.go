package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"beautyrec/internal/domain"
)

const sessionKey = "session"

// sessionMiddleware attaches the caller's session, creating one and setting
// the cookie when the request carries none or an expired one.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(SessionCookie)
		sess, created := s.sessions.GetOrCreate(id)
		if created {
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     SessionCookie,
				Value:    sess.ID,
				Path:     "/",
				MaxAge:   int(s.opts.SessionTTL.Seconds()),
				HttpOnly: true,
				Secure:   s.opts.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
			s.logger.Debug().Str("session", sess.ID).Msg("session created")
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func sessionFrom(c *gin.Context) *domain.Session {
	return c.MustGet(sessionKey).(*domain.Session)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := s.logger.Info()
		switch {
		case status >= 500:
			ev = s.logger.Error()
		case status >= 400:
			ev = s.logger.Warn()
		case c.Request.URL.Path == "/healthz" || c.Request.URL.Path == "/metrics":
			ev = s.logger.Debug()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request")
	}
}
