package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beautyrec/internal/adapter/faiss"
	"beautyrec/internal/adapter/session"
	"beautyrec/internal/adapter/svm"
	"beautyrec/internal/domain"
	"beautyrec/internal/port"
	"beautyrec/internal/usecase"
)

const testKeyEnv = "BEAUTYREC_SERVER_TEST_KEY"

type stubLLM struct {
	reply string
	err   error
}

func (l *stubLLM) Generate(ctx context.Context, prompt string) (string, error) { return l.reply, l.err }
func (l *stubLLM) ModelName() string                                           { return "stub" }

type stubFactory struct {
	mu    sync.Mutex
	llm   *stubLLM
	calls int
}

func (f *stubFactory) New(ctx context.Context, apiKey string) (port.LLM, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.llm, nil
}

func newTestServer(t *testing.T, llm *stubLLM) (*Server, *stubFactory) {
	t.Helper()

	products := make([]domain.Product, 8)
	vectors := make([][]float32, len(products))
	for i := range products {
		emb := []float32{float32(i + 1), 1, float32(i % 2)}
		products[i] = domain.Product{Name: fmt.Sprintf("Serum %d", i), SentimentScore: 0.25 * float64(i%4), Embedding: emb}
		v := append([]float32(nil), emb...)
		faiss.NormalizeL2(v)
		vectors[i] = v
	}
	catalog, err := domain.NewCatalog(products)
	require.NoError(t, err)
	idx, err := faiss.NewFlatIndex(faiss.MetricInnerProduct, vectors)
	require.NoError(t, err)
	clf, err := svm.New(svm.Model{Kernel: svm.KernelLinear, Coef: []float64{0.2, -0.1, 0.3}, ProbA: -1, ProbB: 0})
	require.NoError(t, err)

	arts, err := usecase.NewArtifacts(catalog, idx, clf)
	require.NoError(t, err)

	factory := &stubFactory{llm: llm}
	rec := usecase.NewRecommender(arts, nil, factory, usecase.NewCredentialResolver(testKeyEnv))
	srv := NewServer(rec, session.NewStore(100, time.Hour), Options{Mode: "test", Model: "stub"})
	return srv, factory
}

type client struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func (c *client) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.h.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == SessionCookie {
			c.cookie = ck
		}
	}
	return w
}

func (c *client) json(method, path, body string) *httptest.ResponseRecorder {
	return c.do(method, path, "application/json", body)
}

func (c *client) form(path string, values url.Values) *httptest.ResponseRecorder {
	return c.do(http.MethodPost, path, "application/x-www-form-urlencoded", values.Encode())
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	c := &client{t: t, h: srv.Handler()}

	w := c.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"products":8`)
	assert.Nil(t, c.cookie, "health checks must not create sessions")

	c.json(http.MethodPost, "/api/v1/recommend", `{"product":"Serum 1"}`)
	w = c.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "beautyrec_recommendations_total")
}

func TestPages(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	c := &client{t: t, h: srv.Handler()}

	for path, want := range map[string]string{
		"/":          "AI Beauty Recommendation Dashboard",
		"/recommend": "Show recommendations",
		"/about":     "0.6 &times; faiss_sim",
	} {
		w := c.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), want, path)
	}
	require.NotNil(t, c.cookie)
	assert.True(t, c.cookie.HttpOnly)
}

func TestAPI_Products(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	c := &client{t: t, h: srv.Handler()}

	w := c.json(http.MethodGet, "/api/v1/products", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Products []string `json:"products"`
		Count    int      `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 8, resp.Count)
	assert.Equal(t, "Serum 0", resp.Products[0])
}

func TestAPI_RecommendFlow(t *testing.T) {
	srv, factory := newTestServer(t, &stubLLM{reply: "Same texture, better value."})
	c := &client{t: t, h: srv.Handler()}

	w := c.json(http.MethodPost, "/api/v1/explain", `{"api_key":"k-123"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, factory.calls)

	w = c.json(http.MethodPost, "/api/v1/recommend", `{"product":"Serum 3"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var rec struct {
		Query      string `json:"query"`
		Candidates []struct {
			Name        string  `json:"item_reviewed"`
			FaissSim    float64 `json:"faiss_sim"`
			ProbSVM     float64 `json:"prob_svm"`
			HybridScore float64 `json:"hybrid_score"`
		} `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "Serum 3", rec.Query)
	require.Len(t, rec.Candidates, 5)
	for _, cand := range rec.Candidates {
		assert.NotEqual(t, "Serum 3", cand.Name)
		assert.InDelta(t, 0.6*cand.FaissSim+0.4*cand.ProbSVM, cand.HybridScore, 1e-9)
	}

	w = c.json(http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"ready"`)
	assert.Contains(t, w.Body.String(), `"query":"Serum 3"`)

	w = c.json(http.MethodPost, "/api/v1/explain", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, factory.calls)

	w = c.json(http.MethodPost, "/api/v1/explain", `{"api_key":"k-123"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Same texture, better value.")
	assert.Contains(t, w.Body.String(), `"query":"Serum 3"`)
	assert.Equal(t, 1, factory.calls)
}

func TestAPI_RecommendErrors(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	c := &client{t: t, h: srv.Handler()}

	w := c.json(http.MethodPost, "/api/v1/recommend", `{"product":"Nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = c.json(http.MethodPost, "/api/v1/recommend", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPI_ExplainCollaboratorFailure(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{err: fmt.Errorf("API key not valid. Please pass a valid API key.")})
	c := &client{t: t, h: srv.Handler()}

	c.json(http.MethodPost, "/api/v1/recommend", `{"product":"Serum 1"}`)
	w := c.json(http.MethodPost, "/api/v1/explain", `{"api_key":"bad"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "API key not valid")

	w = c.json(http.MethodGet, "/api/v1/session", "")
	assert.Contains(t, w.Body.String(), `"state":"ready"`)
}

func TestAPI_SessionsAreIsolated(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	alice := &client{t: t, h: srv.Handler()}
	bob := &client{t: t, h: srv.Handler()}

	alice.json(http.MethodPost, "/api/v1/recommend", `{"product":"Serum 1"}`)
	w := bob.json(http.MethodGet, "/api/v1/session", "")
	assert.Contains(t, w.Body.String(), `"state":"idle"`)
	assert.Contains(t, w.Body.String(), `"candidates":[]`)
	assert.NotEqual(t, alice.cookie.Value, bob.cookie.Value)
}

func TestAPI_ResetSession(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	c := &client{t: t, h: srv.Handler()}

	w := c.json(http.MethodPost, "/api/v1/recommend", `{"product":"Serum 2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	old := c.cookie.Value
	assert.Equal(t, 1, srv.sessions.Size())

	w = c.json(http.MethodDelete, "/api/v1/session", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, srv.sessions.Size())
	_, ok := srv.sessions.Get(old)
	assert.False(t, ok)

	w = c.json(http.MethodGet, "/api/v1/session", "")
	assert.Contains(t, w.Body.String(), `"state":"idle"`)
	assert.NotEqual(t, old, c.cookie.Value)
}

func TestForms_RecommendAndExplain(t *testing.T) {
	srv, _ := newTestServer(t, &stubLLM{reply: "Gentle and hydrating."})
	c := &client{t: t, h: srv.Handler()}

	w := c.form("/explain", url.Values{"api_key": {"secret-key"}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "Show recommendations first.")

	w = c.form("/recommend", url.Values{"product": {"Serum 2"}})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Recommendations are ready.")
	assert.Contains(t, body, "<td>Serum")
	assert.Contains(t, body, `<option value="Serum 2" selected>`)

	w = c.form("/explain", url.Values{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Enter an API key first.")

	w = c.form("/explain", url.Values{"api_key": {"secret-key"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Gentle and hydrating.")
	assert.Contains(t, w.Body.String(), "******-key")
	assert.NotContains(t, w.Body.String(), "secret-key")
}

func TestForms_EnvironmentKey(t *testing.T) {
	t.Setenv(testKeyEnv, "from-env")
	srv, factory := newTestServer(t, &stubLLM{reply: "ok"})
	c := &client{t: t, h: srv.Handler()}

	w := c.do(http.MethodGet, "/recommend", "", "")
	assert.Contains(t, w.Body.String(), "API key detected from "+testKeyEnv)
	assert.NotContains(t, w.Body.String(), `type="password"`)

	c.form("/recommend", url.Values{"product": {"Serum 2"}})
	w = c.form("/explain", url.Values{})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, factory.calls)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(fmt.Errorf("x: %w", domain.ErrNotFound)))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(domain.ErrIndexUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(domain.ErrScorerUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusFor(fmt.Errorf("other")))
}
