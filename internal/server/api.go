package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"beautyrec/internal/domain"
)

type recommendRequest struct {
	Product string `json:"product" binding:"required"`
}

type explainRequest struct {
	APIKey string `json:"api_key"`
}

type recommendResponse struct {
	Query      string             `json:"query"`
	Candidates []domain.Candidate `json:"candidates"`
}

type sessionResponse struct {
	ID         string             `json:"id"`
	State      string             `json:"state"`
	Query      string             `json:"query,omitempty"`
	Candidates []domain.Candidate `json:"candidates"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "products": len(s.rec.Products())})
}

// GET /api/v1/products
func (s *Server) handleProducts(c *gin.Context) {
	products := s.rec.Products()
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// POST /api/v1/recommend
func (s *Server) handleRecommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	cs, err := s.rec.Recommend(c.Request.Context(), sessionFrom(c), req.Product)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, recommendResponse{
		Query:      cs.QueryName,
		Candidates: cs.Head(s.rec.DisplayLimit()),
	})
}

// POST /api/v1/explain
func (s *Server) handleExplain(c *gin.Context) {
	var req explainRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	exp, err := s.rec.Explain(c.Request.Context(), sessionFrom(c), req.APIKey)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, exp)
}

// GET /api/v1/session
func (s *Server) handleSession(c *gin.Context) {
	sess := sessionFrom(c)
	state, cs := sess.Snapshot()

	resp := sessionResponse{ID: sess.ID, State: state.String(), Candidates: []domain.Candidate{}}
	if cs != nil {
		resp.Query = cs.QueryName
		resp.Candidates = cs.Head(s.rec.DisplayLimit())
	}
	c.JSON(http.StatusOK, resp)
}

// DELETE /api/v1/session
func (s *Server) handleResetSession(c *gin.Context) {
	sess := sessionFrom(c)
	s.sessions.Delete(sess.ID)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookie,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	s.logger.Debug().Str("session", sess.ID).Msg("session reset")
	c.Status(http.StatusNoContent)
}
