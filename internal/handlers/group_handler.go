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

// GroupHandler handles HTTP requests related to groups and membership.
type GroupHandler struct {
	Service *services.GroupService
}

// NewGroupHandler creates a new instance of GroupHandler.
func NewGroupHandler(service *services.GroupService) *GroupHandler {
	return &GroupHandler{Service: service}
}

// CreateGroupHandler handles the creation of a new group. The caller
// becomes the group's admin and its first member.
func (h *GroupHandler) CreateGroupHandler(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetUserFromContext(r.Context())
	if claims == nil {
		logrus.Warn("Unauthorized access attempt during group creation")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var payload struct {
		Name           string                `json:"name"`
		Description    string                `json:"description"`
		ProjectDetails models.ProjectDetails `json:"project_details"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logrus.WithError(err).Warn("Invalid request payload during group creation")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	adminID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		logrus.WithError(err).Error("Failed to convert user ID")
		http.Error(w, "Invalid user ID", http.StatusInternalServerError)
		return
	}

	group, err := h.Service.CreateGroup(r.Context(), adminID, payload.Name, payload.Description, payload.ProjectDetails)
	if err != nil {
		logrus.WithError(err).Error("Failed to create group")
		respondServiceError(w, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"userID":  claims.UserID,
		"groupID": group.ID.Hex(),
	}).Info("Group successfully created")
	respondJSON(w, http.StatusCreated, group)
}

// GetGroupHandler fetches a single group visible to the caller.
func (h *GroupHandler) GetGroupHandler(w http.ResponseWriter, r *http.Request) {
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

	group, err := h.Service.GetGroup(r.Context(), groupID, callerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, group)
}

// ListGroupsHandler returns every group the caller belongs to.
func (h *GroupHandler) ListGroupsHandler(w http.ResponseWriter, r *http.Request) {
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

	groups, err := h.Service.ListGroups(r.Context(), userID)
	if err != nil {
		logrus.WithError(err).Error("Failed to list groups")
		respondServiceError(w, err)
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}

	respondJSON(w, http.StatusOK, groups)
}

// EditGroupHandler applies a partial metadata update. Admin only.
func (h *GroupHandler) EditGroupHandler(w http.ResponseWriter, r *http.Request) {
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

	var patch services.GroupPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		logrus.WithError(err).Warn("Invalid group patch payload")
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.Service.EditGroup(r.Context(), groupID, callerID, patch); err != nil {
		respondServiceError(w, err)
		return
	}

	logrus.WithField("groupID", groupID.Hex()).Info("Group edited")
	w.WriteHeader(http.StatusNoContent)
}

// DeleteGroupHandler removes a group. Admin only; no cascade.
func (h *GroupHandler) DeleteGroupHandler(w http.ResponseWriter, r *http.Request) {
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

	if err := h.Service.DeleteGroup(r.Context(), groupID, callerID); err != nil {
		respondServiceError(w, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"userID":  claims.UserID,
		"groupID": groupID.Hex(),
	}).Info("Group deleted")
	w.WriteHeader(http.StatusNoContent)
}

// AddMemberHandler adds a user to the group. Admin only.
func (h *GroupHandler) AddMemberHandler(w http.ResponseWriter, r *http.Request) {
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

	var payload struct {
		MemberID string `json:"member_id"`
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

	if err := h.Service.AddMember(r.Context(), groupID, callerID, memberID); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"groupID":  groupID.Hex(),
			"memberID": memberID.Hex(),
		}).Warn("Failed to add member")
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveMemberHandler removes a user from the group. Admin only.
func (h *GroupHandler) RemoveMemberHandler(w http.ResponseWriter, r *http.Request) {
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
	memberID, err := primitive.ObjectIDFromHex(vars["memberId"])
	if err != nil {
		http.Error(w, "Invalid member ID", http.StatusBadRequest)
		return
	}
	callerID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusInternalServerError)
		return
	}

	if err := h.Service.RemoveMember(r.Context(), groupID, callerID, memberID); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
