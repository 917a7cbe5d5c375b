package usecase

import (
	"fmt"

	"beautyrec/internal/domain"
	"beautyrec/internal/port"
)

// positiveClass is the column of the probability matrix that holds the
// "recommended" class.
const positiveClass = 1

// ScoreUseCase estimates how likely each candidate is to be recommended.
type ScoreUseCase struct {
	classifier port.Classifier
}

// NewScoreUseCase creates a scorer. classifier may be nil, in which case every
// call fails with ErrScorerUnavailable.
func NewScoreUseCase(classifier port.Classifier) *ScoreUseCase {
	return &ScoreUseCase{classifier: classifier}
}

// Score returns the positive-class probability of each embedding, in input order.
func (u *ScoreUseCase) Score(embeddings [][]float32) ([]float64, error) {
	if u.classifier == nil {
		return nil, domain.ErrScorerUnavailable
	}
	if len(embeddings) == 0 {
		return []float64{}, nil
	}

	dim := u.classifier.Dimension()
	for i, e := range embeddings {
		if len(e) != dim {
			return nil, fmt.Errorf("%w: row %d has %d features, expected %d", domain.ErrScorerUnavailable, i, len(e), dim)
		}
	}

	proba, err := u.classifier.PredictProba(embeddings)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrScorerUnavailable, err)
	}
	if len(proba) != len(embeddings) {
		return nil, fmt.Errorf("%w: classifier returned %d rows for %d inputs", domain.ErrScorerUnavailable, len(proba), len(embeddings))
	}

	out := make([]float64, len(proba))
	for i, row := range proba {
		if len(row) <= positiveClass {
			return nil, fmt.Errorf("%w: probability row %d has %d classes", domain.ErrScorerUnavailable, i, len(row))
		}
		out[i] = row[positiveClass]
	}
	return out, nil
}
