package services

import (
	"context"
	"testing"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/crewsync/crewsync/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateGroup_AdminIsFirstMember(t *testing.T) {
	store := newFakeGroupStore()
	service := NewGroupService(store)
	admin := primitive.NewObjectID()

	group, err := service.CreateGroup(context.Background(), admin, "Sprint Crew", "weekly sprint group", models.ProjectDetails{})
	require.NoError(t, err)

	assert.Equal(t, admin, group.AdminID)
	require.Len(t, group.Members, 1)
	assert.Equal(t, admin, group.Members[0])
	assert.NotNil(t, group.Tasks)
}

func TestCreateGroup_EmptyNameRejected(t *testing.T) {
	service := NewGroupService(newFakeGroupStore())

	_, err := service.CreateGroup(context.Background(), primitive.NewObjectID(), "", "", models.ProjectDetails{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestGetGroup_NonMemberDenied(t *testing.T) {
	admin := primitive.NewObjectID()
	group := &models.Group{
		ID:      primitive.NewObjectID(),
		Name:    "Private",
		AdminID: admin,
		Members: []primitive.ObjectID{admin},
	}
	service := NewGroupService(newFakeGroupStore(group))

	_, err := service.GetGroup(context.Background(), group.ID, primitive.NewObjectID())
	assert.True(t, apperrors.IsAuthorization(err))
}

func TestAddMember_NonAdminDeniedWithoutMutation(t *testing.T) {
	admin := primitive.NewObjectID()
	outsider := primitive.NewObjectID()
	group := &models.Group{
		ID:      primitive.NewObjectID(),
		AdminID: admin,
		Members: []primitive.ObjectID{admin},
	}
	store := newFakeGroupStore(group)
	service := NewGroupService(store)

	err := service.AddMember(context.Background(), group.ID, outsider, primitive.NewObjectID())
	assert.True(t, apperrors.IsAuthorization(err))
	assert.Len(t, store.groups[group.ID].Members, 1, "denied call must not change the member set")
}

func TestAddMember_AdminAddsMember(t *testing.T) {
	admin := primitive.NewObjectID()
	newcomer := primitive.NewObjectID()
	group := &models.Group{
		ID:      primitive.NewObjectID(),
		AdminID: admin,
		Members: []primitive.ObjectID{admin},
	}
	store := newFakeGroupStore(group)
	service := NewGroupService(store)

	require.NoError(t, service.AddMember(context.Background(), group.ID, admin, newcomer))
	assert.True(t, store.groups[group.ID].HasMember(newcomer))

	// Adding the same member again is a set operation, not an append.
	require.NoError(t, service.AddMember(context.Background(), group.ID, admin, newcomer))
	assert.Len(t, store.groups[group.ID].Members, 2)
}

func TestRemoveMember_AdminCannotBeRemoved(t *testing.T) {
	admin := primitive.NewObjectID()
	group := &models.Group{
		ID:      primitive.NewObjectID(),
		AdminID: admin,
		Members: []primitive.ObjectID{admin},
	}
	store := newFakeGroupStore(group)
	service := NewGroupService(store)

	err := service.RemoveMember(context.Background(), group.ID, admin, admin)
	assert.True(t, apperrors.IsValidation(err))
	assert.True(t, store.groups[group.ID].HasMember(admin))
}

func TestRemoveMember_AdminRemovesMember(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()
	group := &models.Group{
		ID:      primitive.NewObjectID(),
		AdminID: admin,
		Members: []primitive.ObjectID{admin, member},
	}
	store := newFakeGroupStore(group)
	service := NewGroupService(store)

	require.NoError(t, service.RemoveMember(context.Background(), group.ID, admin, member))
	assert.False(t, store.groups[group.ID].HasMember(member))
}

func TestEditGroup_PartialPatch(t *testing.T) {
	admin := primitive.NewObjectID()
	group := &models.Group{
		ID:          primitive.NewObjectID(),
		Name:        "Old name",
		Description: "unchanged",
		AdminID:     admin,
		Members:     []primitive.ObjectID{admin},
	}
	store := newFakeGroupStore(group)
	service := NewGroupService(store)

	name := "New name"
	require.NoError(t, service.EditGroup(context.Background(), group.ID, admin, GroupPatch{Name: &name}))

	assert.Equal(t, "New name", store.groups[group.ID].Name)
	assert.Equal(t, "unchanged", store.groups[group.ID].Description)
}

func TestEditGroup_EmptyPatchRejected(t *testing.T) {
	admin := primitive.NewObjectID()
	group := &models.Group{
		ID:      primitive.NewObjectID(),
		AdminID: admin,
		Members: []primitive.ObjectID{admin},
	}
	service := NewGroupService(newFakeGroupStore(group))

	err := service.EditGroup(context.Background(), group.ID, admin, GroupPatch{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestDeleteGroup_NonAdminDenied(t *testing.T) {
	admin := primitive.NewObjectID()
	group := &models.Group{
		ID:      primitive.NewObjectID(),
		AdminID: admin,
		Members: []primitive.ObjectID{admin},
	}
	store := newFakeGroupStore(group)
	service := NewGroupService(store)

	err := service.DeleteGroup(context.Background(), group.ID, primitive.NewObjectID())
	assert.True(t, apperrors.IsAuthorization(err))
	assert.Contains(t, store.groups, group.ID)

	require.NoError(t, service.DeleteGroup(context.Background(), group.ID, admin))
	assert.NotContains(t, store.groups, group.ID)
}

func TestGetGroup_UnknownGroupNotFound(t *testing.T) {
	service := NewGroupService(newFakeGroupStore())

	_, err := service.GetGroup(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	assert.True(t, apperrors.IsNotFound(err))
}
