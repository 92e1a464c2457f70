package jobs

import (
	"context"
	"fmt"

	"github.com/crewsync/crewsync/internal/models"
	"github.com/crewsync/crewsync/internal/services"
	"github.com/crewsync/crewsync/pkg/apperrors"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestSource lists completion requests by status.
type RequestSource interface {
	ListByStatus(ctx context.Context, status string, limit int64) ([]models.CompletionRequest, error)
}

// GroupRepairer reads groups and rewrites embedded task flags.
type GroupRepairer interface {
	GetGroupByID(ctx context.Context, id primitive.ObjectID) (*models.Group, error)
	UpdateTaskFlags(ctx context.Context, groupID primitive.ObjectID, taskID string, completed, approved bool) error
}

// Reconciler repairs the fallout of the approval flow's two-document
// write. An approval touches the request document and then the group's
// embedded task with no transaction between them; a crash in the gap
// leaves an approved request whose task is not flagged, or an approval the
// progress trigger never observed. Each scan finds both cases and settles
// them idempotently.
type Reconciler struct {
	requests RequestSource
	groups   GroupRepairer
	progress *services.ProgressService
	batch    int64
}

func NewReconciler(requests RequestSource, groups GroupRepairer, progress *services.ProgressService) *Reconciler {
	return &Reconciler{
		requests: requests,
		groups:   groups,
		progress: progress,
		batch:    500,
	}
}

// Run performs one reconciliation pass over approved requests.
func (r *Reconciler) Run(ctx context.Context) error {
	requests, err := r.requests.ListByStatus(ctx, models.RequestStatusApproved, r.batch)
	if err != nil {
		return fmt.Errorf("failed to list approved requests: %v", err)
	}

	var repairedFlags, creditedLate int
	for i := range requests {
		req := &requests[i]

		flagged, err := r.repairTaskFlags(ctx, req)
		if err != nil {
			logrus.WithError(err).WithField("request_id", req.ID.Hex()).Error("Failed to repair task flags")
		} else if flagged {
			repairedFlags++
		}

		credited, err := r.progress.CreditApproval(ctx, req)
		if err != nil {
			logrus.WithError(err).WithField("request_id", req.ID.Hex()).Error("Failed to credit approval during reconciliation")
			continue
		}
		if credited {
			creditedLate++
		}
	}

	logrus.WithFields(logrus.Fields{
		"scanned":       len(requests),
		"repaired":      repairedFlags,
		"credited_late": creditedLate,
	}).Info("Reconciliation pass completed")
	return nil
}

// repairTaskFlags flags the task of an approved request when the second
// write of the approval never landed. Orphaned requests (group deleted,
// or task no longer embedded) are tolerated and skipped.
func (r *Reconciler) repairTaskFlags(ctx context.Context, req *models.CompletionRequest) (bool, error) {
	group, err := r.groups.GetGroupByID(ctx, req.GroupID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			logrus.WithFields(logrus.Fields{
				"request_id": req.ID.Hex(),
				"group_id":   req.GroupID.Hex(),
			}).Debug("Approved request references a deleted group, skipping")
			return false, nil
		}
		return false, err
	}

	task, ok := group.FindTask(req.TaskID)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"request_id": req.ID.Hex(),
			"task_id":    req.TaskID,
		}).Debug("Approved request references an unknown task, skipping")
		return false, nil
	}
	if task.Approved {
		return false, nil
	}

	if err := r.groups.UpdateTaskFlags(ctx, req.GroupID, req.TaskID, true, true); err != nil {
		return false, err
	}

	logrus.WithFields(logrus.Fields{
		"request_id": req.ID.Hex(),
		"group_id":   req.GroupID.Hex(),
		"task_id":    req.TaskID,
	}).Warn("Repaired task flags for approved request")
	return true, nil
}
