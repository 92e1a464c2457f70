package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/crewsync/crewsync/internal/services"
	"github.com/crewsync/crewsync/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskHandler handles HTTP requests for the task lifecycle: assignment,
// completion submission and admin review.
type TaskHandler struct {
	Service *services.TaskService
}

// NewTaskHandler creates a new instance of TaskHandler.
func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{Service: service}
}

// AssignTaskHandler appends a new task to a group. Admin only.
func (h *TaskHandler) AssignTaskHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		logrus.Warn("Unauthorized task assignment attempt")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	groupID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid group ID", http.StatusBadRequest)
		return
	}
	callerID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusInternalServerError)
		return
	}

	var input services.TaskInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		logrus.WithError(err).Warn("Invalid task payload")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	task, err := h.Service.AssignTask(r.Context(), groupID, callerID, input)
	if err != nil {
		logrus.WithError(err).WithField("groupID", groupID.Hex()).Warn("Failed to assign task")
		respondServiceError(w, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"groupID": groupID.Hex(),
		"taskID":  task.ID,
	}).Info("Task assigned")
	respondJSON(w, http.StatusCreated, task)
}

// SubmitCompletionHandler records the caller's claim that the task is done.
func (h *TaskHandler) SubmitCompletionHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	groupID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid group ID", http.StatusBadRequest)
		return
	}
	memberID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusInternalServerError)
		return
	}

	req, err := h.Service.SubmitCompletion(r.Context(), groupID, memberID, vars["taskId"])
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"groupID": groupID.Hex(),
			"taskID":  vars["taskId"],
		}).Warn("Failed to submit completion")
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, req)
}

// ReviewCompletionHandler is the admin disposition of a pending request.
func (h *TaskHandler) ReviewCompletionHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	groupID, err := primitive.ObjectIDFromHex(vars["id"])
	if err != nil {
		http.Error(w, "Invalid group ID", http.StatusBadRequest)
		return
	}
	callerID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusInternalServerError)
		return
	}

	var payload struct {
		MemberID string `json:"member_id"`
		Status   string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	memberID, err := primitive.ObjectIDFromHex(payload.MemberID)
	if err != nil {
		http.Error(w, "Invalid member ID", http.StatusBadRequest)
		return
	}

	if err := h.Service.ReviewCompletion(r.Context(), groupID, callerID, memberID, vars["taskId"], payload.Status); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"groupID": groupID.Hex(),
			"taskID":  vars["taskId"],
			"status":  payload.Status,
		}).Warn("Failed to review completion")
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListGroupRequestsHandler lists a group's completion requests for the
// admin dashboard. Supports ?status=pending filtering.
func (h *TaskHandler) ListGroupRequestsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	groupID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid group ID", http.StatusBadRequest)
		return
	}
	callerID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusInternalServerError)
		return
	}

	requests, err := h.Service.ListGroupRequests(r.Context(), groupID, callerID, r.URL.Query().Get("status"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if requests == nil {
		requests = []models.CompletionRequest{}
	}

	respondJSON(w, http.StatusOK, requests)
}

// ListMyRequestsHandler lists the caller's own submissions.
func (h *TaskHandler) ListMyRequestsHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	memberID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusInternalServerError)
		return
	}

	requests, err := h.Service.ListMemberRequests(r.Context(), memberID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if requests == nil {
		requests = []models.CompletionRequest{}
	}

	respondJSON(w, http.StatusOK, requests)
}
