package scheduler

import (
	"context"

	"github.com/crewsync/crewsync/internal/jobs"
	"github.com/crewsync/crewsync/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartCronJobs schedules the reconciliation pass and notification expiry.
func StartCronJobs(reconciler *jobs.Reconciler, notificationService *services.NotificationService) *cron.Cron {
	c := cron.New()

	// Repair partial approval writes and missed progress credits
	c.AddFunc("@every 5m", func() {
		if err := reconciler.Run(context.Background()); err != nil {
			logrus.WithError(err).Error("Reconciliation run failed")
		}
	})

	// Prune expired notifications
	c.AddFunc("@hourly", func() {
		if err := notificationService.DeleteExpiredNotifications(context.Background()); err != nil {
			logrus.WithError(err).Error("DeleteExpiredNotifications failed")
		}
	})

	c.Start()
	return c
}
