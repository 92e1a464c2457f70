package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskState is the derived lifecycle state of an embedded task.
type TaskState string

const (
	TaskStateOpen          TaskState = "open"
	TaskStatePendingReview TaskState = "pending_review"
	TaskStateApproved      TaskState = "approved"
)

// Task is a unit of work assigned to one member, embedded in Group.Tasks.
type Task struct {
	ID          string             `bson:"id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	AssignedTo  primitive.ObjectID `bson:"assigned_to" json:"assigned_to"`
	DueDate     time.Time          `bson:"due_date,omitempty" json:"due_date,omitempty"`
	Completed   bool               `bson:"completed" json:"completed"`
	Approved    bool               `bson:"approved" json:"approved"`
}

// State derives the lifecycle state from the persisted flags. A rejected
// submission reverts the flags to Open; the rejection itself stays visible
// on the completion request, which is the audit record.
func (t Task) State() TaskState {
	switch {
	case t.Approved:
		return TaskStateApproved
	case t.Completed:
		return TaskStatePendingReview
	default:
		return TaskStateOpen
	}
}

// ProjectDetails is free-form overview text attached to a group.
type ProjectDetails struct {
	Overview string `bson:"overview" json:"overview"`
	Goal     string `bson:"goal" json:"goal"`
	Duration string `bson:"duration" json:"duration"`
}

// Group represents a project group with a single admin and a member set.
// Invariant: AdminID is always contained in Members.
type Group struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name           string               `bson:"name" json:"name"`
	Description    string               `bson:"description" json:"description"`
	AdminID        primitive.ObjectID   `bson:"admin_id" json:"admin_id"`
	CreatedBy      primitive.ObjectID   `bson:"created_by" json:"created_by"`
	Members        []primitive.ObjectID `bson:"members" json:"members"`
	Tasks          []Task               `bson:"tasks" json:"tasks"`
	ProjectDetails ProjectDetails       `bson:"project_details" json:"project_details"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
}

// HasMember reports whether the user belongs to the group.
func (g *Group) HasMember(userID primitive.ObjectID) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// FindTask returns the embedded task with the given id.
func (g *Group) FindTask(taskID string) (Task, bool) {
	for _, t := range g.Tasks {
		if t.ID == taskID {
			return t, true
		}
	}
	return Task{}, false
}
