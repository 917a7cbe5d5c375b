package domain

import "errors"

var (
	// ErrNotFound is returned when a product name or row does not exist in the table.
	ErrNotFound = errors.New("product not found")

	// ErrArtifactUnavailable is returned when a startup artifact cannot be fetched or decoded.
	ErrArtifactUnavailable = errors.New("artifact unavailable")

	// ErrIndexUnavailable is returned when the similarity index is not loaded.
	ErrIndexUnavailable = errors.New("similarity index unavailable")

	// ErrScorerUnavailable is returned when the classifier is not loaded or rejects its input.
	ErrScorerUnavailable = errors.New("classifier unavailable")

	// ErrMissingCredential is returned when an explanation is requested without an API key.
	ErrMissingCredential = errors.New("missing API key")

	// ErrNoCandidates is returned when an explanation is requested before any recommendation.
	ErrNoCandidates = errors.New("no recommendations yet")

	// ErrCollaboratorFailure wraps errors raised by the explanation service.
	ErrCollaboratorFailure = errors.New("explanation service failed")
)
