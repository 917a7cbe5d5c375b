package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"beautyrec/internal/domain"
	"beautyrec/internal/usecase"
)

var templateFuncs = template.FuncMap{
	"score": func(v float64) string { return fmt.Sprintf("%.4f", v) },
	"mask":  usecase.MaskSecret,
}

// pageData feeds every HTML template.
type pageData struct {
	Title    string
	Subtitle string
	Active   string

	Products   []string
	Selected   string
	Candidates []domain.Candidate
	Order      string

	Explanation *usecase.Explanation
	EnvKey      bool
	EnvVar      string
	MaskedKey   string
	Model       string

	Notice      string
	Warning     string
	Error       string
	ErrorDetail string
}

func (s *Server) handleDashboard(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard.html", pageData{
		Title:    "AI Beauty Recommendation Dashboard",
		Subtitle: "Beauty recommendations from hybrid AI: semantic search, sentiment analysis, SVM prediction and explainable AI.",
		Active:   "dashboard",
	})
}

func (s *Server) handleAbout(c *gin.Context) {
	c.HTML(http.StatusOK, "about.html", pageData{
		Title:    "About",
		Subtitle: "How the recommender works",
		Active:   "about",
		Model:    s.opts.Model,
	})
}

// recommendPage fills the workflow page from the session's held Candidate Set.
func (s *Server) recommendPage(sess *domain.Session) pageData {
	creds := s.rec.Credentials()
	data := pageData{
		Title:    "Beauty AI Recommender",
		Subtitle: "Hybrid semantic, sentiment, prediction and explainable AI",
		Active:   "recommend",
		Products: s.rec.Products(),
		EnvKey:   creds.FromEnv(),
		EnvVar:   creds.EnvVar(),
		Model:    s.opts.Model,
	}

	_, cs := sess.Snapshot()
	if cs != nil {
		data.Selected = cs.QueryName
		data.Candidates = cs.Head(s.rec.DisplayLimit())
	}
	return data
}

func (s *Server) handleRecommendPage(c *gin.Context) {
	data := s.recommendPage(sessionFrom(c))
	if p := c.Query("product"); p != "" {
		data.Selected = p
	}
	c.HTML(http.StatusOK, "recommend.html", data)
}

func (s *Server) handleRecommendForm(c *gin.Context) {
	sess := sessionFrom(c)
	product := c.PostForm("product")

	_, err := s.rec.Recommend(c.Request.Context(), sess, product)
	data := s.recommendPage(sess)
	data.Selected = product
	if err != nil {
		s.renderError(c, "recommend.html", data, err)
		return
	}
	data.Notice = "Recommendations are ready."
	c.HTML(http.StatusOK, "recommend.html", data)
}

func (s *Server) handleExplainForm(c *gin.Context) {
	sess := sessionFrom(c)
	key := c.PostForm("api_key")

	exp, err := s.rec.Explain(c.Request.Context(), sess, key)
	data := s.recommendPage(sess)
	if key != "" && !data.EnvKey {
		data.MaskedKey = usecase.MaskSecret(key)
	}
	if err != nil {
		s.renderError(c, "recommend.html", data, err)
		return
	}
	data.Explanation = exp
	c.HTML(http.StatusOK, "recommend.html", data)
}

func (s *Server) renderError(c *gin.Context, name string, data pageData, err error) {
	status := statusFor(err)
	if errors.Is(err, domain.ErrNoCandidates) {
		data.Warning = userMessage(err)
	} else {
		data.Error = userMessage(err)
	}
	if errors.Is(err, domain.ErrCollaboratorFailure) {
		data.ErrorDetail = err.Error()
	}
	c.HTML(status, name, data)
}
