package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/crewsync/crewsync/internal/services"
	"github.com/crewsync/crewsync/pkg/apperrors"
	jwtutil "github.com/crewsync/crewsync/pkg/jwt"
	"github.com/crewsync/crewsync/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memoryGroupStore struct {
	groups map[primitive.ObjectID]*models.Group
}

func newMemoryGroupStore(groups ...*models.Group) *memoryGroupStore {
	s := &memoryGroupStore{groups: make(map[primitive.ObjectID]*models.Group)}
	for _, g := range groups {
		s.groups[g.ID] = g
	}
	return s
}

func (s *memoryGroupStore) CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error) {
	group.ID = primitive.NewObjectID()
	s.groups[group.ID] = group
	return group, nil
}

func (s *memoryGroupStore) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	group, ok := s.groups[id]
	if !ok {
		return nil, apperrors.NotFoundf("group %s", id.Hex())
	}
	return group, nil
}

func (s *memoryGroupStore) UpdateGroupFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	return nil
}

func (s *memoryGroupStore) DeleteGroup(ctx context.Context, id primitive.ObjectID) error {
	delete(s.groups, id)
	return nil
}

func (s *memoryGroupStore) AddMember(ctx context.Context, groupID, memberID primitive.ObjectID) error {
	group := s.groups[groupID]
	if !group.HasMember(memberID) {
		group.Members = append(group.Members, memberID)
	}
	return nil
}

func (s *memoryGroupStore) RemoveMember(ctx context.Context, groupID, memberID primitive.ObjectID) error {
	group := s.groups[groupID]
	kept := group.Members[:0]
	for _, m := range group.Members {
		if m != memberID {
			kept = append(kept, m)
		}
	}
	group.Members = kept
	return nil
}

func (s *memoryGroupStore) AppendTask(ctx context.Context, groupID primitive.ObjectID, task models.Task) error {
	s.groups[groupID].Tasks = append(s.groups[groupID].Tasks, task)
	return nil
}

func (s *memoryGroupStore) UpdateTaskFlags(ctx context.Context, groupID primitive.ObjectID, taskID string, completed, approved bool) error {
	return nil
}

func (s *memoryGroupStore) ListGroupsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error) {
	var out []models.Group
	for _, g := range s.groups {
		if g.HasMember(userID) {
			out = append(out, *g)
		}
	}
	return out, nil
}

func claimsFor(userID primitive.ObjectID) *jwtutil.Claims {
	return &jwtutil.Claims{UserID: userID.Hex(), Email: "user@example.com", Role: "member"}
}

func TestCreateGroupHandler(t *testing.T) {
	store := newMemoryGroupStore()
	handler := NewGroupHandler(services.NewGroupService(store))
	admin := primitive.NewObjectID()

	body := strings.NewReader(`{"name":"Sprint Crew","description":"weekly sprint group"}`)
	req := middleware.WithTestUser(httptest.NewRequest(http.MethodPost, "/groups", body), claimsFor(admin))
	rec := httptest.NewRecorder()
	handler.CreateGroupHandler(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var group models.Group
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&group))
	assert.Equal(t, "Sprint Crew", group.Name)
	assert.Equal(t, admin, group.AdminID)
	require.Len(t, group.Members, 1)
	assert.Equal(t, admin, group.Members[0])
}

func TestCreateGroupHandler_EmptyNameIsBadRequest(t *testing.T) {
	handler := NewGroupHandler(services.NewGroupService(newMemoryGroupStore()))

	body := strings.NewReader(`{"name":""}`)
	req := middleware.WithTestUser(httptest.NewRequest(http.MethodPost, "/groups", body), claimsFor(primitive.NewObjectID()))
	rec := httptest.NewRecorder()
	handler.CreateGroupHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetGroupHandler_NonMemberForbidden(t *testing.T) {
	admin := primitive.NewObjectID()
	group := &models.Group{
		ID:      primitive.NewObjectID(),
		Name:    "Private",
		AdminID: admin,
		Members: []primitive.ObjectID{admin},
	}
	handler := NewGroupHandler(services.NewGroupService(newMemoryGroupStore(group)))

	router := mux.NewRouter()
	router.HandleFunc("/groups/{id}", handler.GetGroupHandler).Methods("GET")

	req := middleware.WithTestUser(
		httptest.NewRequest(http.MethodGet, "/groups/"+group.ID.Hex(), nil),
		claimsFor(primitive.NewObjectID()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetGroupHandler_UnknownGroupNotFound(t *testing.T) {
	handler := NewGroupHandler(services.NewGroupService(newMemoryGroupStore()))

	router := mux.NewRouter()
	router.HandleFunc("/groups/{id}", handler.GetGroupHandler).Methods("GET")

	req := middleware.WithTestUser(
		httptest.NewRequest(http.MethodGet, "/groups/"+primitive.NewObjectID().Hex(), nil),
		claimsFor(primitive.NewObjectID()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddMemberHandler(t *testing.T) {
	admin := primitive.NewObjectID()
	newcomer := primitive.NewObjectID()
	group := &models.Group{
		ID:      primitive.NewObjectID(),
		AdminID: admin,
		Members: []primitive.ObjectID{admin},
	}
	store := newMemoryGroupStore(group)
	handler := NewGroupHandler(services.NewGroupService(store))

	router := mux.NewRouter()
	router.HandleFunc("/groups/{id}/members", handler.AddMemberHandler).Methods("POST")

	body := strings.NewReader(`{"member_id":"` + newcomer.Hex() + `"}`)
	req := middleware.WithTestUser(
		httptest.NewRequest(http.MethodPost, "/groups/"+group.ID.Hex()+"/members", body),
		claimsFor(admin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, store.groups[group.ID].HasMember(newcomer))
}

func TestRemoveMemberHandler_AdminRemovalRejected(t *testing.T) {
	admin := primitive.NewObjectID()
	group := &models.Group{
		ID:      primitive.NewObjectID(),
		AdminID: admin,
		Members: []primitive.ObjectID{admin},
	}
	store := newMemoryGroupStore(group)
	handler := NewGroupHandler(services.NewGroupService(store))

	router := mux.NewRouter()
	router.HandleFunc("/groups/{id}/members/{memberId}", handler.RemoveMemberHandler).Methods("DELETE")

	req := middleware.WithTestUser(
		httptest.NewRequest(http.MethodDelete, "/groups/"+group.ID.Hex()+"/members/"+admin.Hex(), nil),
		claimsFor(admin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, store.groups[group.ID].HasMember(admin))
}

func TestListGroupsHandler_EmptyListIsJSONArray(t *testing.T) {
	handler := NewGroupHandler(services.NewGroupService(newMemoryGroupStore()))

	req := middleware.WithTestUser(httptest.NewRequest(http.MethodGet, "/groups", nil), claimsFor(primitive.NewObjectID()))
	rec := httptest.NewRecorder()
	handler.ListGroupsHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestCreateGroupHandler_MissingClaimsUnauthorized(t *testing.T) {
	handler := NewGroupHandler(services.NewGroupService(newMemoryGroupStore()))

	req := httptest.NewRequest(http.MethodPost, "/groups", strings.NewReader(`{"name":"x"}`))
	rec := httptest.NewRecorder()
	handler.CreateGroupHandler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
