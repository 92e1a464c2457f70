package services

import (
	"context"
	"fmt"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/crewsync/crewsync/pkg/apperrors"
	"github.com/crewsync/crewsync/pkg/logger"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStore is the persistence surface for the completion request
// queue. It is satisfied by repository.RequestRepository.
type RequestStore interface {
	CreateRequest(ctx context.Context, req *models.CompletionRequest) (*models.CompletionRequest, error)
	GetRequestByID(ctx context.Context, id primitive.ObjectID) (*models.CompletionRequest, error)
	FindPending(ctx context.Context, groupID primitive.ObjectID, taskID string, memberID primitive.ObjectID) (*models.CompletionRequest, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) error
	ListByGroup(ctx context.Context, groupID primitive.ObjectID, status string) ([]models.CompletionRequest, error)
	ListByMember(ctx context.Context, memberID primitive.ObjectID) ([]models.CompletionRequest, error)
}

// TaskService drives the task lifecycle:
//
//	Open --submit--> PendingReview --approve--> Approved (terminal)
//	                               --reject---> Open (resubmission allowed)
//
// Submission and review span the group document and the request queue with
// no cross-document transaction; the request is always written first so
// the audit record exists, and a failed follow-up write on the group is
// surfaced as a partial write for the reconciler.
type TaskService struct {
	groups        GroupStore
	requests      RequestStore
	notifications Notifier
}

func NewTaskService(groups GroupStore, requests RequestStore, notifications Notifier) *TaskService {
	return &TaskService{
		groups:        groups,
		requests:      requests,
		notifications: notifications,
	}
}

// TaskInput carries the admin-supplied fields of a new task.
type TaskInput struct {
	Title       string             `json:"title"`
	Description string             `json:"description"`
	AssignedTo  primitive.ObjectID `json:"assigned_to"`
	DueDate     string             `json:"due_date,omitempty"`
}

// AssignTask appends a new task to the group and notifies the assignee.
// Admin only; the assignee must be a member at assignment time (membership
// shrinking later does not retroactively invalidate the assignment).
func (s *TaskService) AssignTask(ctx context.Context, groupID, callerID primitive.ObjectID, input TaskInput) (*models.Task, error) {
	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.AdminID != callerID {
		return nil, apperrors.Authorizationf("only the admin can assign tasks")
	}
	if input.Title == "" {
		return nil, apperrors.Validationf("task title is required")
	}
	if !group.HasMember(input.AssignedTo) {
		return nil, apperrors.Validationf("assignee %s is not a member of the group", input.AssignedTo.Hex())
	}

	task := models.Task{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		AssignedTo:  input.AssignedTo,
		Completed:   false,
		Approved:    false,
	}

	if err := s.groups.AppendTask(ctx, groupID, task); err != nil {
		return nil, fmt.Errorf("failed to assign task: %w", err)
	}

	message := input.Description
	if message == "" {
		message = fmt.Sprintf("A new task was assigned to you in %s.", group.Name)
	}
	if err := s.notifications.Send(ctx, input.AssignedTo, models.NotificationTaskAssigned,
		fmt.Sprintf("New task: %s", input.Title), message, &groupID, task.ID); err != nil {
		logrus.WithError(err).Warn("Failed to send task assigned notification")
	}

	logger.Log.WithFields(map[string]interface{}{
		"group_id": groupID.Hex(),
		"task_id":  task.ID,
		"assignee": input.AssignedTo.Hex(),
	}).Info("Task assigned")
	return &task, nil
}

// SubmitCompletion records a member's claim that a task is done. It creates
// the pending completion request (the audit record) and then marks the
// embedded task as awaiting review so the admin dashboard state is
// accurate. A pending request for the same (group, task, member) blocks a
// duplicate submission.
func (s *TaskService) SubmitCompletion(ctx context.Context, groupID, memberID primitive.ObjectID, taskID string) (*models.CompletionRequest, error) {
	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(memberID) {
		return nil, apperrors.Authorizationf("user %s is not a member of group %s", memberID.Hex(), groupID.Hex())
	}

	task, ok := group.FindTask(taskID)
	if !ok {
		return nil, apperrors.NotFoundf("task %s in group %s", taskID, groupID.Hex())
	}
	if task.Approved {
		return nil, apperrors.Validationf("task %s is already approved", taskID)
	}

	existing, err := s.requests.FindPending(ctx, groupID, taskID, memberID)
	if err != nil && !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("failed to check pending requests: %w", err)
	}
	if existing != nil {
		return nil, apperrors.Validationf("a pending submission for task %s already exists", taskID)
	}

	req, err := s.requests.CreateRequest(ctx, &models.CompletionRequest{
		GroupID:  groupID,
		TaskID:   taskID,
		MemberID: memberID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit completion: %w", err)
	}

	// The request is committed; a failure here leaves the task flags stale
	// but the review flow still works off the request, and approval resets
	// the flags anyway.
	if err := s.groups.UpdateTaskFlags(ctx, groupID, taskID, true, false); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"group_id": groupID.Hex(),
			"task_id":  taskID,
		}).Warn("Submission recorded but task flags not updated")
	}

	if err := s.notifications.Send(ctx, group.AdminID, models.NotificationCompletion,
		"Task completion submitted",
		fmt.Sprintf("A member submitted a task for review in %s.", group.Name),
		&groupID, taskID); err != nil {
		logrus.WithError(err).Warn("Failed to notify admin of submission")
	}

	return req, nil
}

// ReviewCompletion is the admin disposition of a pending request. On
// approval the embedded task is flagged completed+approved; on rejection
// the task reverts to Open so the member can resubmit. The request status
// is written first; if the follow-up task write fails the error is a
// partial write, repaired by the reconciliation job.
func (s *TaskService) ReviewCompletion(ctx context.Context, groupID, callerID, memberID primitive.ObjectID, taskID, verdict string) error {
	if verdict != models.RequestStatusApproved && verdict != models.RequestStatusRejected {
		return apperrors.Validationf("invalid verdict %q", verdict)
	}

	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.AdminID != callerID {
		return apperrors.Authorizationf("only the admin can approve or reject submissions")
	}

	req, err := s.requests.FindPending(ctx, groupID, taskID, memberID)
	if err != nil {
		return err
	}

	if err := s.requests.UpdateStatus(ctx, req.ID, verdict); err != nil {
		return err
	}

	if verdict == models.RequestStatusApproved {
		if err := s.groups.UpdateTaskFlags(ctx, groupID, taskID, true, true); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"request_id": req.ID.Hex(),
				"group_id":   groupID.Hex(),
				"task_id":    taskID,
			}).Error("Request approved but task flags not written")
			return apperrors.PartialWritef("request %s approved but task %s not flagged: %v", req.ID.Hex(), taskID, err)
		}
	} else {
		// Revert to Open so a new submission is possible. Failure here is
		// cosmetic: resubmission is gated on the request queue, not on the
		// embedded flags.
		if err := s.groups.UpdateTaskFlags(ctx, groupID, taskID, false, false); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"group_id": groupID.Hex(),
				"task_id":  taskID,
			}).Warn("Rejected request but task flags not reverted")
		}
	}

	notifType := models.NotificationTaskApproved
	title := "Task approved"
	message := "Your task submission has been approved!"
	if verdict == models.RequestStatusRejected {
		notifType = models.NotificationTaskRejected
		title = "Task rejected"
		message = "Your task submission was rejected. Please update and resubmit."
	}
	if err := s.notifications.Send(ctx, memberID, notifType, title, message, &groupID, taskID); err != nil {
		logrus.WithError(err).Warn("Failed to send review notification")
	}

	logger.Log.WithFields(map[string]interface{}{
		"request_id": req.ID.Hex(),
		"group_id":   groupID.Hex(),
		"task_id":    taskID,
		"verdict":    verdict,
	}).Info("Completion request reviewed")
	return nil
}

// ListGroupRequests returns a group's completion requests for the admin
// dashboard, optionally filtered by status.
func (s *TaskService) ListGroupRequests(ctx context.Context, groupID, callerID primitive.ObjectID, status string) ([]models.CompletionRequest, error) {
	group, err := s.groups.GetGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.AdminID != callerID {
		return nil, apperrors.Authorizationf("only the admin can list completion requests")
	}
	return s.requests.ListByGroup(ctx, groupID, status)
}

// ListMemberRequests returns the caller's own submissions across groups.
// Requests whose group has since been deleted are kept: the audit trail
// outlives the group and readers tolerate the dangling reference.
func (s *TaskService) ListMemberRequests(ctx context.Context, memberID primitive.ObjectID) ([]models.CompletionRequest, error) {
	return s.requests.ListByMember(ctx, memberID)
}
