package services

import (
	"context"
	"fmt"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgressStore is satisfied by repository.ProgressRepository.
type ProgressStore interface {
	CreditApproval(ctx context.Context, memberID, requestID primitive.ObjectID) (bool, error)
	GetProgress(ctx context.Context, userID primitive.ObjectID) (*models.Progress, error)
	IsCredited(ctx context.Context, memberID, requestID primitive.ObjectID) (bool, error)
}

// ProgressService aggregates per-user progress from approved completion
// requests. It is driven by the request watcher (at-least-once) and by the
// reconciliation job, so every effect must be idempotent on the request id.
type ProgressService struct {
	progress      ProgressStore
	notifications Notifier
}

func NewProgressService(progress ProgressStore, notifications Notifier) *ProgressService {
	return &ProgressService{
		progress:      progress,
		notifications: notifications,
	}
}

// CreditApproval increments the member's counter for the approved request
// and notifies the member. A duplicate delivery of the same request is a
// no-op: the store refuses the increment and no notification is sent.
func (s *ProgressService) CreditApproval(ctx context.Context, req *models.CompletionRequest) (bool, error) {
	credited, err := s.progress.CreditApproval(ctx, req.MemberID, req.ID)
	if err != nil {
		return false, fmt.Errorf("failed to credit approval: %w", err)
	}
	if !credited {
		return false, nil
	}

	if err := s.notifications.Send(ctx, req.MemberID, models.NotificationTaskApproved,
		"Task approved",
		"Your recent task was approved and progress updated!",
		&req.GroupID, req.TaskID); err != nil {
		logrus.WithError(err).Warn("Failed to send progress notification")
	}

	logrus.WithFields(logrus.Fields{
		"member_id":  req.MemberID.Hex(),
		"request_id": req.ID.Hex(),
	}).Info("Progress credited for approved request")
	return true, nil
}

// GetProgress returns the user's counters, zero-valued when absent.
func (s *ProgressService) GetProgress(ctx context.Context, userID primitive.ObjectID) (*models.Progress, error) {
	return s.progress.GetProgress(ctx, userID)
}

// IsCredited reports whether a request has already been counted.
func (s *ProgressService) IsCredited(ctx context.Context, memberID, requestID primitive.ObjectID) (bool, error) {
	return s.progress.IsCredited(ctx, memberID, requestID)
}
