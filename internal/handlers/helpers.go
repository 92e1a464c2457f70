package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/crewsync/crewsync/pkg/apperrors"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondServiceError maps a service error to its HTTP status. The error
// text is safe to surface: services phrase their errors for the caller.
func respondServiceError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), apperrors.HTTPStatus(err))
}
