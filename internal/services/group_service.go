package services

import (
	"context"
	"fmt"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/crewsync/crewsync/pkg/apperrors"
	"github.com/crewsync/crewsync/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupStore is the persistence surface for groups and their embedded
// tasks. It is satisfied by repository.GroupRepository.
type GroupStore interface {
	CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error)
	GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error)
	UpdateGroupFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error
	DeleteGroup(ctx context.Context, id primitive.ObjectID) error
	AddMember(ctx context.Context, groupID, memberID primitive.ObjectID) error
	RemoveMember(ctx context.Context, groupID, memberID primitive.ObjectID) error
	AppendTask(ctx context.Context, groupID primitive.ObjectID, task models.Task) error
	UpdateTaskFlags(ctx context.Context, groupID primitive.ObjectID, taskID string, completed, approved bool) error
	ListGroupsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error)
}

// GroupService owns group documents and enforces the admin-only rule for
// membership and metadata mutations. The same rule must be enforced again
// server-side by the store's access layer; checks here are the
// authoritative path for this process but advisory for the store.
type GroupService struct {
	groups GroupStore
}

func NewGroupService(groups GroupStore) *GroupService {
	return &GroupService{groups: groups}
}

// GroupPatch is the admin-editable subset of a group. Members and tasks are
// deliberately not patchable through this path so the membership invariants
// stay enforceable.
type GroupPatch struct {
	Name           *string                `json:"name,omitempty"`
	Description    *string                `json:"description,omitempty"`
	ProjectDetails *models.ProjectDetails `json:"project_details,omitempty"`
}

// CreateGroup creates a new group with the admin as its only member.
func (s *GroupService) CreateGroup(ctx context.Context, adminID primitive.ObjectID, name, description string, details models.ProjectDetails) (*models.Group, error) {
	if name == "" {
		logger.Log.Warn("Group name is empty during creation")
		return nil, apperrors.Validationf("group name is required")
	}

	group := &models.Group{
		Name:           name,
		Description:    description,
		AdminID:        adminID,
		CreatedBy:      adminID,
		Members:        []primitive.ObjectID{adminID},
		Tasks:          []models.Task{},
		ProjectDetails: details,
	}

	created, err := s.groups.CreateGroup(ctx, group)
	if err != nil {
		logger.Log.WithError(err).Error("Service failed to create group")
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	logger.Log.WithField("group_id", created.ID.Hex()).Info("Group created in service layer")
	return created, nil
}

// GetGroup fetches a group visible to the caller (member or admin).
func (s *GroupService) GetGroup(ctx context.Context, groupID, callerID primitive.ObjectID) (*models.Group, error) {
	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(callerID) {
		return nil, apperrors.Authorizationf("user %s is not a member of group %s", callerID.Hex(), groupID.Hex())
	}
	return group, nil
}

// ListGroups returns every group the user belongs to.
func (s *GroupService) ListGroups(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error) {
	return s.groups.ListGroupsForUser(ctx, userID)
}

// AddMember adds a user to the group. Admin only. The group_joined
// notification fanout happens in the membership watcher, which diffs the
// member sets, so a multi-member update still notifies everyone added.
func (s *GroupService) AddMember(ctx context.Context, groupID, callerID, memberID primitive.ObjectID) error {
	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.AdminID != callerID {
		return apperrors.Authorizationf("only the admin can add members")
	}

	return s.groups.AddMember(ctx, groupID, memberID)
}

// RemoveMember removes a user from the group. Admin only. Removing the
// admin would break the adminId-in-members invariant and is rejected.
func (s *GroupService) RemoveMember(ctx context.Context, groupID, callerID, memberID primitive.ObjectID) error {
	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.AdminID != callerID {
		return apperrors.Authorizationf("only the admin can remove members")
	}
	if memberID == group.AdminID {
		return apperrors.Validationf("the admin cannot be removed from the group")
	}

	return s.groups.RemoveMember(ctx, groupID, memberID)
}

// EditGroup applies a partial update to a group's metadata. Admin only.
func (s *GroupService) EditGroup(ctx context.Context, groupID, callerID primitive.ObjectID, patch GroupPatch) error {
	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.AdminID != callerID {
		return apperrors.Authorizationf("only the admin can edit the group")
	}

	fields := bson.M{}
	if patch.Name != nil {
		if *patch.Name == "" {
			return apperrors.Validationf("group name cannot be empty")
		}
		fields["name"] = *patch.Name
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.ProjectDetails != nil {
		fields["project_details"] = *patch.ProjectDetails
	}
	if len(fields) == 0 {
		return apperrors.Validationf("empty group patch")
	}

	return s.groups.UpdateGroupFields(ctx, groupID, fields)
}

// DeleteGroup removes the group document. Admin only. There is no cascade:
// completion requests and notifications keep their now-dangling group ids
// and readers skip references that no longer resolve.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID, callerID primitive.ObjectID) error {
	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.AdminID != callerID {
		return apperrors.Authorizationf("only the admin can delete the group")
	}

	if err := s.groups.DeleteGroup(ctx, groupID); err != nil {
		return err
	}

	logger.Log.WithField("group_id", groupID.Hex()).Info("Group deleted in service layer")
	return nil
}
