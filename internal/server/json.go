package server

import (
	"encoding/json"
	"errors"
	"net/http"

	stemerrors "github.com/deidaraiorek/snowstem/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to an HTTP status by code, then by category.
func statusFor(err error) int {
	switch {
	case errors.Is(err, stemerrors.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, stemerrors.ErrFileRead):
		return http.StatusBadRequest
	case errors.Is(err, stemerrors.ErrStorageFailed):
		return http.StatusServiceUnavailable
	}

	switch stemerrors.GetCategory(err) {
	case stemerrors.CategoryConfig:
		return http.StatusBadRequest
	case stemerrors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case stemerrors.CategoryCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
