package repository

import (
	"context"
	"errors"
	"time"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/crewsync/crewsync/pkg/apperrors"
	"github.com/crewsync/crewsync/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GroupRepository handles database operations related to groups.
type GroupRepository struct {
	collection *mongo.Collection
}

// NewGroupRepository creates a new instance of GroupRepository.
func NewGroupRepository(db *mongo.Database) *GroupRepository {
	return &GroupRepository{
		collection: db.Collection("groups"),
	}
}

// CreateGroup inserts a new group into the database.
func (r *GroupRepository) CreateGroup(ctx context.Context, group *models.Group) (*models.Group, error) {
	group.CreatedAt = time.Now()
	group.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, group)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to insert group")
		return nil, apperrors.Transientf("failed to insert group: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logger.Log.Error("Failed to cast inserted group ID")
		return nil, errors.New("failed to cast inserted ID")
	}
	group.ID = insertedID

	logger.Log.WithField("group_id", group.ID.Hex()).Info("Group created successfully")
	return group, nil
}

// GetGroupByID fetches a group by its ID.
func (r *GroupRepository) GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error) {
	var group models.Group

	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&group)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("group %s", id.Hex())
		}
		logger.Log.WithError(err).WithField("group_id", id.Hex()).Error("Failed to find group by ID")
		return nil, apperrors.Transientf("failed to find group: %v", err)
	}

	return &group, nil
}

// UpdateGroupFields applies a partial $set update to a group.
func (r *GroupRepository) UpdateGroupFields(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		logger.Log.WithError(err).WithField("group_id", id.Hex()).Error("Failed to update group")
		return apperrors.Transientf("failed to update group: %v", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFoundf("group %s", id.Hex())
	}

	logger.Log.WithField("group_id", id.Hex()).Info("Group updated successfully")
	return nil
}

// DeleteGroup deletes a group from the database by its ID. Dependent
// completion requests and notifications are intentionally left in place.
func (r *GroupRepository) DeleteGroup(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.Log.WithError(err).WithField("group_id", id.Hex()).Error("Failed to delete group")
		return apperrors.Transientf("failed to delete group: %v", err)
	}
	if result.DeletedCount == 0 {
		return apperrors.NotFoundf("group %s", id.Hex())
	}

	logger.Log.WithField("group_id", id.Hex()).Info("Group deleted successfully")
	return nil
}

// AddMember adds a member to the group using an atomic set union.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, memberID primitive.ObjectID) error {
	update := bson.M{
		"$addToSet": bson.M{"members": memberID}, // Prevents duplicates
		"$set":      bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": groupID}, update)
	if err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"group_id":  groupID.Hex(),
			"member_id": memberID.Hex(),
		}).Error("Failed to add member to group")
		return apperrors.Transientf("failed to add member: %v", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFoundf("group %s", groupID.Hex())
	}

	logger.Log.WithFields(map[string]interface{}{
		"group_id":  groupID.Hex(),
		"member_id": memberID.Hex(),
	}).Info("Member added to group")
	return nil
}

// RemoveMember removes a member from the group using an atomic pull.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, memberID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"members": memberID},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": groupID}, update)
	if err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"group_id":  groupID.Hex(),
			"member_id": memberID.Hex(),
		}).Error("Failed to remove member from group")
		return apperrors.Transientf("failed to remove member: %v", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFoundf("group %s", groupID.Hex())
	}

	return nil
}

// AppendTask appends a task to the group's task list atomically, so two
// concurrent assignments never overwrite each other.
func (r *GroupRepository) AppendTask(ctx context.Context, groupID primitive.ObjectID, task models.Task) error {
	update := bson.M{
		"$push": bson.M{"tasks": task},
		"$set":  bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": groupID}, update)
	if err != nil {
		logger.Log.WithError(err).WithField("group_id", groupID.Hex()).Error("Failed to append task")
		return apperrors.Transientf("failed to append task: %v", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFoundf("group %s", groupID.Hex())
	}

	logger.Log.WithFields(map[string]interface{}{
		"group_id": groupID.Hex(),
		"task_id":  task.ID,
	}).Info("Task appended to group")
	return nil
}

// UpdateTaskFlags sets the completed/approved flags on a single embedded
// task via an array filter, leaving the rest of the list untouched.
func (r *GroupRepository) UpdateTaskFlags(ctx context.Context, groupID primitive.ObjectID, taskID string, completed, approved bool) error {
	update := bson.M{
		"$set": bson.M{
			"tasks.$[t].completed": completed,
			"tasks.$[t].approved":  approved,
			"updated_at":           time.Now(),
		},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"t.id": taskID}},
	})

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": groupID}, update, opts)
	if err != nil {
		logger.Log.WithError(err).WithFields(map[string]interface{}{
			"group_id": groupID.Hex(),
			"task_id":  taskID,
		}).Error("Failed to update task flags")
		return apperrors.Transientf("failed to update task flags: %v", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFoundf("group %s", groupID.Hex())
	}

	return nil
}

// Collection exposes the underlying collection for change stream watchers.
func (r *GroupRepository) Collection() *mongo.Collection {
	return r.collection
}

// ListGroupsForUser fetches every group the user belongs to.
func (r *GroupRepository) ListGroupsForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"members": userID})
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to fetch groups for user")
		return nil, apperrors.Transientf("failed to fetch groups: %v", err)
	}
	defer cursor.Close(ctx)

	var groups []models.Group
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, apperrors.Transientf("failed to decode groups: %v", err)
	}
	return groups, nil
}

// ListAllGroups fetches all groups, used by the membership watcher to seed
// its before-state and by background scans.
func (r *GroupRepository) ListAllGroups(ctx context.Context, limit int64) ([]models.Group, error) {
	findOptions := options.Find().SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to fetch all groups")
		return nil, apperrors.Transientf("failed to fetch groups: %v", err)
	}
	defer cursor.Close(ctx)

	var groups []models.Group
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, apperrors.Transientf("failed to decode groups: %v", err)
	}
	return groups, nil
}
