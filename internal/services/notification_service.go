package services

import (
	"context"

	"github.com/crewsync/crewsync/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationStore is the persistence surface the service needs.
type NotificationStore interface {
	CreateNotification(ctx context.Context, notif *models.Notification) error
	GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID primitive.ObjectID) error
	CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error)
	DeleteExpiredNotifications(ctx context.Context) error
}

// Notifier is the fanout surface other services and the background
// watchers depend on. Fanout is 1:1: a group-wide event produces one
// notification document per affected member.
type Notifier interface {
	Send(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, groupID *primitive.ObjectID, taskID string) error
}

// NotificationService creates and manages in-app notifications. Push
// delivery is not performed here; the notification watcher picks up every
// created document and pushes best-effort on its own schedule.
type NotificationService struct {
	repo NotificationStore
}

func NewNotificationService(repo NotificationStore) *NotificationService {
	return &NotificationService{repo: repo}
}

// Send creates exactly one notification document for the recipient.
func (s *NotificationService) Send(ctx context.Context, userID primitive.ObjectID, notifType, title, message string, groupID *primitive.ObjectID, taskID string) error {
	notif := &models.Notification{
		UserID:  userID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Read:    false,
		GroupID: groupID,
		TaskID:  taskID,
	}
	return s.repo.CreateNotification(ctx, notif)
}

// GetUserNotifications returns all notifications for a user
func (s *NotificationService) GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	return s.repo.GetUserNotifications(ctx, userID)
}

// MarkNotificationAsRead sets the "read" status of a notification to true
func (s *NotificationService) MarkNotificationAsRead(ctx context.Context, notifID primitive.ObjectID) error {
	return s.repo.MarkAsRead(ctx, notifID)
}

// MarkAllRead flips every unread notification of the user. Idempotent.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID primitive.ObjectID) error {
	return s.repo.MarkAllRead(ctx, userID)
}

// CountUnread returns the user's unread notification count.
func (s *NotificationService) CountUnread(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// DeleteExpiredNotifications is called periodically by cron.
func (s *NotificationService) DeleteExpiredNotifications(ctx context.Context) error {
	return s.repo.DeleteExpiredNotifications(ctx)
}
