package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"beautyrec/internal/domain"
	"beautyrec/internal/logging"
	"beautyrec/internal/metrics"
	"beautyrec/internal/port"
)

// DefaultDisplayLimit is how many candidates the presentation layer shows.
const DefaultDisplayLimit = 5

// Explanation is the generated justification for the top candidate.
type Explanation struct {
	Top    string           `json:"top"`
	Query  string           `json:"query"`
	Text   string           `json:"text"`
	Model  string           `json:"model"`
	Source CredentialSource `json:"credential_source"`
}

// Recommender drives the per-session workflow:
//
//	Idle -> Retrieving -> Scoring -> Ready -> Explaining -> Ready
//
// Every step holds the session lock, so concurrent requests on one session
// run one after another while different sessions proceed in parallel.
type Recommender struct {
	catalog   *domain.Catalog
	retriever *RetrieveUseCase
	scorer    *ScoreUseCase
	ranker    *Ranker
	llms      port.LLMFactory
	creds     *CredentialResolver

	k            int
	displayLimit int
	logger       zerolog.Logger
}

// NewRecommender wires the workflow over loaded artifacts. llms may be nil
// when explanations are disabled; Explain then reports a collaborator failure.
func NewRecommender(arts *Artifacts, ranker *Ranker, llms port.LLMFactory, creds *CredentialResolver) *Recommender {
	if ranker == nil {
		ranker = &Ranker{order: OrderSimilarity}
	}
	if creds == nil {
		creds = NewCredentialResolver("")
	}
	return &Recommender{
		catalog:      arts.Catalog,
		retriever:    NewRetrieveUseCase(arts.Catalog, arts.Index),
		scorer:       NewScoreUseCase(arts.Classifier),
		ranker:       ranker,
		llms:         llms,
		creds:        creds,
		k:            DefaultK,
		displayLimit: DefaultDisplayLimit,
		logger:       logging.With().Str("component", "recommender").Logger(),
	}
}

// WithK overrides the number of neighbors requested, self-match included.
func (r *Recommender) WithK(k int) *Recommender {
	if k > 0 {
		r.k = k
	}
	return r
}

// WithDisplayLimit overrides how many candidates are shown.
func (r *Recommender) WithDisplayLimit(n int) *Recommender {
	if n > 0 {
		r.displayLimit = n
	}
	return r
}

// Products returns the sorted unique product names for selection.
func (r *Recommender) Products() []string {
	return r.catalog.Names()
}

func (r *Recommender) DisplayLimit() int { return r.displayLimit }

// Credentials returns the resolver used by Explain.
func (r *Recommender) Credentials() *CredentialResolver { return r.creds }

// Recommend retrieves, scores and ranks alternatives to productName and stores
// the result in sess, replacing any earlier Candidate Set. On failure the
// session keeps its previous state and Candidate Set.
func (r *Recommender) Recommend(ctx context.Context, sess *domain.Session, productName string) (*domain.CandidateSet, error) {
	start := time.Now()

	sess.Lock()
	defer sess.Unlock()

	prev := sess.State()
	cs, err := r.recommend(ctx, sess, productName)
	if err != nil {
		sess.SetState(prev)
		outcome := metrics.OutcomeError
		if errors.Is(err, domain.ErrNotFound) {
			outcome = metrics.OutcomeRefused
		}
		metrics.RecommendationsTotal.WithLabelValues(outcome).Inc()
		r.logger.Warn().Err(err).Str("session", sess.ID).Str("product", productName).Msg("recommendation failed")
		return nil, err
	}

	sess.SetCandidates(cs)
	sess.SetState(domain.StateReady)

	metrics.RecommendationsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	r.logger.Info().
		Str("session", sess.ID).
		Str("product", productName).
		Int("candidates", len(cs.Candidates)).
		Dur("elapsed", time.Since(start)).
		Msg("recommendations ready")

	return cs, nil
}

func (r *Recommender) recommend(ctx context.Context, sess *domain.Session, productName string) (*domain.CandidateSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess.SetState(domain.StateRetrieving)
	query, neighbors, err := r.retriever.RetrieveByName(productName, r.k)
	if err != nil {
		return nil, err
	}

	// The first hit is the query itself.
	if len(neighbors) > 0 {
		neighbors = neighbors[1:]
	}

	sess.SetState(domain.StateScoring)
	products := make([]domain.Product, 0, len(neighbors))
	embeddings := make([][]float32, 0, len(neighbors))
	for _, n := range neighbors {
		p, err := r.catalog.At(n.Index)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
		embeddings = append(embeddings, p.Embedding)
	}

	probs, err := r.scorer.Score(embeddings)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.Candidate, len(neighbors))
	for i, n := range neighbors {
		candidates[i] = domain.Candidate{
			Product:   products[i],
			Name:      products[i].Name,
			Sentiment: products[i].SentimentScore,
			FaissSim:  n.Similarity,
			ProbSVM:   probs[i],
		}
	}

	return &domain.CandidateSet{
		Query:      query,
		QueryName:  query.Name,
		Candidates: r.ranker.Rank(candidates),
	}, nil
}

// Explain asks the language model why the top candidate suits the query
// product. It refuses without calling the model when the session holds no
// candidates or no API key is available. The session is Ready afterwards
// whatever the outcome.
func (r *Recommender) Explain(ctx context.Context, sess *domain.Session, userKey string) (*Explanation, error) {
	sess.Lock()
	defer sess.Unlock()

	cs := sess.Candidates()
	top, ok := cs.Top()
	if sess.State() != domain.StateReady || !ok {
		metrics.ExplanationsTotal.WithLabelValues(metrics.OutcomeRefused).Inc()
		return nil, domain.ErrNoCandidates
	}

	key, source := r.creds.Resolve(userKey)
	if key == "" {
		metrics.ExplanationsTotal.WithLabelValues(metrics.OutcomeRefused).Inc()
		return nil, domain.ErrMissingCredential
	}

	sess.SetState(domain.StateExplaining)
	defer sess.SetState(domain.StateReady)

	exp, err := r.explain(ctx, top.Name, cs.QueryName, key)
	if err != nil {
		metrics.ExplanationsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		r.logger.Error().Err(err).Str("session", sess.ID).Str("top", top.Name).Msg("explanation failed")
		return nil, err
	}
	exp.Source = source

	metrics.ExplanationsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	r.logger.Info().Str("session", sess.ID).Str("top", top.Name).Str("model", exp.Model).Msg("explanation generated")
	return exp, nil
}

func (r *Recommender) explain(ctx context.Context, top, query, key string) (*Explanation, error) {
	if r.llms == nil {
		return nil, fmt.Errorf("%w: no explanation provider configured", domain.ErrCollaboratorFailure)
	}
	prompt, err := RenderExplainPrompt(top, query)
	if err != nil {
		return nil, err
	}

	llm, err := r.llms.New(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCollaboratorFailure, err)
	}
	text, err := llm.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCollaboratorFailure, err)
	}

	return &Explanation{Top: top, Query: query, Text: text, Model: llm.ModelName()}, nil
}
