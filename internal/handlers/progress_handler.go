package handlers

import (
	"net/http"

	"github.com/crewsync/crewsync/internal/services"
	"github.com/crewsync/crewsync/pkg/middleware"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgressHandler exposes the per-user completed-task counters.
type ProgressHandler struct {
	Service *services.ProgressService
}

func NewProgressHandler(service *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{Service: service}
}

// GetProgressHandler returns the caller's progress counters. An absent
// progress document reads as zero, never as an error.
func (h *ProgressHandler) GetProgressHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusInternalServerError)
		return
	}

	progress, err := h.Service.GetProgress(r.Context(), userID)
	if err != nil {
		logrus.WithError(err).WithField("userID", claims.UserID).Error("Failed to fetch progress")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, progress)
}
