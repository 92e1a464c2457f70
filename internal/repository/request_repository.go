package repository

import (
	"context"
	"errors"
	"time"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/crewsync/crewsync/pkg/apperrors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RequestRepository handles the append-only completion request queue.
type RequestRepository struct {
	collection *mongo.Collection
}

func NewRequestRepository(db *mongo.Database) *RequestRepository {
	return &RequestRepository{
		collection: db.Collection("completion_requests"),
	}
}

// CreateRequest inserts a new pending completion request.
func (r *RequestRepository) CreateRequest(ctx context.Context, req *models.CompletionRequest) (*models.CompletionRequest, error) {
	req.Status = models.RequestStatusPending
	req.SubmittedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, req)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert completion request")
		return nil, apperrors.Transientf("failed to create completion request: %v", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logrus.Error("Failed to cast inserted request ID")
		return nil, errors.New("failed to cast inserted ID")
	}
	req.ID = insertedID

	logrus.WithFields(logrus.Fields{
		"request_id": req.ID.Hex(),
		"group_id":   req.GroupID.Hex(),
		"task_id":    req.TaskID,
	}).Info("Completion request created")
	return req, nil
}

// GetRequestByID fetches a completion request by its ID.
func (r *RequestRepository) GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.CompletionRequest, error) {
	var req models.CompletionRequest
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("completion request %s", id.Hex())
		}
		return nil, apperrors.Transientf("failed to find completion request: %v", err)
	}
	return &req, nil
}

// FindPending returns the pending request for (group, task, member), if any.
func (r *RequestRepository) FindPending(ctx context.Context, groupID primitive.ObjectID, taskID string, memberID primitive.ObjectID) (*models.CompletionRequest, error) {
	filter := bson.M{
		"group_id":  groupID,
		"task_id":   taskID,
		"member_id": memberID,
		"status":    models.RequestStatusPending,
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "submitted_at", Value: -1}})

	var req models.CompletionRequest
	err := r.collection.FindOne(ctx, filter, opts).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFoundf("pending request for task %s", taskID)
		}
		return nil, apperrors.Transientf("failed to find pending request: %v", err)
	}
	return &req, nil
}

// UpdateStatus transitions a request out of pending. The pending guard in
// the filter makes the transition atomic: a concurrent reviewer loses the
// race and observes NotFound.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	filter := bson.M{"_id": id, "status": models.RequestStatusPending}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		logrus.WithError(err).WithField("request_id", id.Hex()).Error("Failed to update request status")
		return apperrors.Transientf("failed to update request status: %v", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.NotFoundf("pending completion request %s", id.Hex())
	}

	logrus.WithFields(logrus.Fields{
		"request_id": id.Hex(),
		"status":     status,
	}).Info("Completion request status updated")
	return nil
}

// ListByGroup returns requests for a group, optionally filtered by status.
func (r *RequestRepository) ListByGroup(ctx context.Context, groupID primitive.ObjectID, status string) ([]models.CompletionRequest, error) {
	filter := bson.M{"group_id": groupID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Transientf("failed to fetch requests: %v", err)
	}
	defer cursor.Close(ctx)

	var requests []models.CompletionRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, apperrors.Transientf("failed to decode requests: %v", err)
	}
	return requests, nil
}

// ListByMember returns the member's own requests, newest first.
func (r *RequestRepository) ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]models.CompletionRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"member_id": memberID}, opts)
	if err != nil {
		return nil, apperrors.Transientf("failed to fetch requests: %v", err)
	}
	defer cursor.Close(ctx)

	var requests []models.CompletionRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, apperrors.Transientf("failed to decode requests: %v", err)
	}
	return requests, nil
}

// Collection exposes the underlying collection for change stream watchers.
func (r *RequestRepository) Collection() *mongo.Collection {
	return r.collection
}

// ListByStatus returns requests in the given status across all groups,
// used by the reconciliation job.
func (r *RequestRepository) ListByStatus(ctx context.Context, status string, limit int64) ([]models.CompletionRequest, error) {
	opts := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "submitted_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, apperrors.Transientf("failed to fetch requests: %v", err)
	}
	defer cursor.Close(ctx)

	var requests []models.CompletionRequest
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, apperrors.Transientf("failed to decode requests: %v", err)
	}
	return requests, nil
}
