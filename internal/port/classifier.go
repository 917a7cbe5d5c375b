package port

// Classifier is a pretrained binary classifier with probability estimates.
type Classifier interface {
	// PredictProba returns one probability row per input, ordered by class label.
	PredictProba(rows [][]float32) ([][]float64, error)

	// Dimension returns the expected feature width.
	Dimension() int
}
