package repository

import (
	"context"
	"time"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/crewsync/crewsync/pkg/apperrors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{
		collection: db.Collection("notifications"),
	}
}

// CreateNotification inserts a new notification
func (r *NotificationRepository) CreateNotification(ctx context.Context, notif *models.Notification) error {
	notif.CreatedAt = time.Now()
	notif.ExpiresAt = notif.CreatedAt.Add(7 * 24 * time.Hour)

	_, err := r.collection.InsertOne(ctx, notif)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert notification")
		return apperrors.Transientf("failed to create notification: %v", err)
	}
	return nil
}

// GetUserNotifications returns all live notifications for a user
func (r *NotificationRepository) GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	filter := bson.M{
		"user_id":    userID,
		"expires_at": bson.M{"$gt": time.Now()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Transientf("failed to fetch notifications: %v", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, apperrors.Transientf("failed to decode notifications: %v", err)
	}
	return notifications, nil
}

// MarkAsRead sets notification's Read to true
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return apperrors.Transientf("failed to mark notification read: %v", err)
	}
	return nil
}

// MarkAllRead flips every unread notification of the user to read.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	filter := bson.M{"user_id": userID, "read": false}
	result, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return apperrors.Transientf("failed to mark notifications read: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID.Hex(),
		"count":   result.ModifiedCount,
	}).Info("Notifications marked read")
	return nil
}

// CountUnread returns the number of unread notifications for a user.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
	if err != nil {
		return 0, apperrors.Transientf("failed to count notifications: %v", err)
	}
	return count, nil
}

// DeleteExpiredNotifications prunes notifications past their TTL.
func (r *NotificationRepository) DeleteExpiredNotifications(ctx context.Context) error {
	filter := bson.M{"expires_at": bson.M{"$lte": time.Now()}}
	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return apperrors.Transientf("failed to delete expired notifications: %v", err)
	}
	logrus.Infof("Deleted %d expired notifications", result.DeletedCount)
	return nil
}

// Collection exposes the underlying collection for change stream watchers.
func (r *NotificationRepository) Collection() *mongo.Collection {
	return r.collection
}
