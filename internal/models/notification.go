package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationTaskAssigned = "task_assigned"
	NotificationTaskApproved = "task_approved"
	NotificationTaskRejected = "task_rejected"
	NotificationGroupJoined  = "group_joined"
	NotificationCompletion   = "completion"
)

type Notification struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Type      string              `bson:"type" json:"type"`       // e.g. "task_assigned", "group_joined"
	Title     string              `bson:"title" json:"title"`     // Short headline
	Message   string              `bson:"message" json:"message"` // Descriptive content
	Read      bool                `bson:"read" json:"read"`       // True if user viewed it
	GroupID   *primitive.ObjectID `bson:"group_id,omitempty" json:"group_id,omitempty"`
	TaskID    string              `bson:"task_id,omitempty" json:"task_id,omitempty"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time           `bson:"expires_at" json:"expires_at"` // For auto-deletion after 7 days
}
