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

// ProgressRepository maintains the per-user progress counters.
type ProgressRepository struct {
	collection *mongo.Collection
}

func NewProgressRepository(db *mongo.Database) *ProgressRepository {
	return &ProgressRepository{
		collection: db.Collection("progress"),
	}
}

// CreditApproval increments the member's completed-task counter for the
// given request, exactly once. The filter excludes documents that already
// carry the request id in their processed set, so the increment and the
// idempotency marker land in one atomic update. Returns false when the
// request was already credited.
func (r *ProgressRepository) CreditApproval(ctx context.Context, memberID, requestID primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"_id":       memberID,
		"processed": bson.M{"$ne": requestID},
	}
	update := bson.M{
		"$inc":      bson.M{"completed_tasks": 1},
		"$addToSet": bson.M{"processed": requestID},
		"$set":      bson.M{"last_updated": time.Now()},
	}
	opts := options.Update().SetUpsert(true)

	result, err := r.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		// A duplicate-key error means the document exists but was excluded
		// by the processed guard: the request was already credited and the
		// upsert collided with the existing _id.
		if mongo.IsDuplicateKeyError(err) {
			logrus.WithFields(logrus.Fields{
				"member_id":  memberID.Hex(),
				"request_id": requestID.Hex(),
			}).Info("Approval already credited, skipping")
			return false, nil
		}
		logrus.WithError(err).WithField("member_id", memberID.Hex()).Error("Failed to credit approval")
		return false, apperrors.Transientf("failed to credit approval: %v", err)
	}

	credited := result.ModifiedCount > 0 || result.UpsertedCount > 0
	if credited {
		logrus.WithFields(logrus.Fields{
			"member_id":  memberID.Hex(),
			"request_id": requestID.Hex(),
		}).Info("Progress counter incremented")
	}
	return credited, nil
}

// GetProgress fetches the user's progress document. An absent document is
// returned as the zero-valued counter, not an error.
func (r *ProgressRepository) GetProgress(ctx context.Context, userID primitive.ObjectID) (*models.Progress, error) {
	var progress models.Progress
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&progress)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &models.Progress{UserID: userID}, nil
		}
		return nil, apperrors.Transientf("failed to fetch progress: %v", err)
	}
	return &progress, nil
}

// IsCredited reports whether the request id is already in the member's
// processed set. Used by the reconciler to detect missed increments.
func (r *ProgressRepository) IsCredited(ctx context.Context, memberID, requestID primitive.ObjectID) (bool, error) {
	filter := bson.M{"_id": memberID, "processed": requestID}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return false, apperrors.Transientf("failed to check processed set: %v", err)
	}
	return count > 0, nil
}
