package server

import (
	"errors"
	"net/http"

	"beautyrec/internal/domain"
)

// statusFor maps workflow errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoCandidates):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMissingCredential):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCollaboratorFailure):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrIndexUnavailable), errors.Is(err, domain.ErrScorerUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the short text shown on the pages.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "Product not found."
	case errors.Is(err, domain.ErrNoCandidates):
		return "Show recommendations first."
	case errors.Is(err, domain.ErrMissingCredential):
		return "Enter an API key first."
	case errors.Is(err, domain.ErrCollaboratorFailure):
		return "An error occurred:"
	case errors.Is(err, domain.ErrIndexUnavailable), errors.Is(err, domain.ErrScorerUnavailable):
		return "The recommendation models are not available."
	default:
		return "Unexpected error."
	}
}
