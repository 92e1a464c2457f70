package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusRejected = "rejected"
)

// CompletionRequest is a member's claim that a task is done, awaiting admin
// disposition. Requests are never deleted; they form the audit trail, and a
// groupId may dangle after the group itself is removed.
type CompletionRequest struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID     primitive.ObjectID `bson:"group_id" json:"group_id"`
	TaskID      string             `bson:"task_id" json:"task_id"`
	MemberID    primitive.ObjectID `bson:"member_id" json:"member_id"`
	Status      string             `bson:"status" json:"status"` // "pending", "approved", "rejected"
	SubmittedAt time.Time          `bson:"submitted_at" json:"submitted_at"`
}
