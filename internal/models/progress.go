package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Progress tracks the per-user completed-task counter. Processed holds the
// ids of the completion requests already credited, so an at-least-once
// delivered approval event can never increment the counter twice.
type Progress struct {
	UserID         primitive.ObjectID   `bson:"_id" json:"user_id"`
	CompletedTasks int64                `bson:"completed_tasks" json:"completed_tasks"`
	Streak         int64                `bson:"streak" json:"streak"`
	Processed      []primitive.ObjectID `bson:"processed,omitempty" json:"-"`
	LastUpdated    time.Time            `bson:"last_updated" json:"last_updated"`
}
