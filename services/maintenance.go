package services

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// MaintenanceScheduler runs background housekeeping jobs on a cron schedule
type MaintenanceScheduler struct {
	cron       *cron.Cron
	logService *LogArchiveService
}

// NewMaintenanceScheduler creates a scheduler with all jobs registered
func NewMaintenanceScheduler() *MaintenanceScheduler {
	return &MaintenanceScheduler{
		cron:       cron.New(),
		logService: NewLogArchiveService(),
	}
}

// Start registers and starts the maintenance jobs
func (ms *MaintenanceScheduler) Start() {
	// Flush cached activity logs to the database every hour
	ms.cron.AddFunc("@hourly", func() {
		if err := ms.logService.FlushCachedLogsToDatabase(); err != nil {
			logrus.WithError(err).Error("Log flush job failed")
		}
	})

	// Close out approved substitutions whose date has passed, nightly at 01:00
	ms.cron.AddFunc("0 1 * * *", func() {
		closed, err := CloseExpiredSubstitutions(time.Now())
		if err != nil {
			logrus.WithError(err).Error("Substitution close-out job failed")
			return
		}
		if closed > 0 {
			logrus.Infof("Closed %d expired substitution requests", closed)
		}
	})

	// Archive activity logs older than 90 days, weekly on Sunday at 02:00
	ms.cron.AddFunc("0 2 * * 0", func() {
		if err := ms.logService.ArchiveOldLogs(90); err != nil {
			logrus.WithError(err).Error("Log archive job failed")
		}
	})

	ms.cron.Start()
	logrus.Info("Maintenance scheduler started")
}

// Stop stops the scheduler, waiting for running jobs to finish
func (ms *MaintenanceScheduler) Stop() {
	ctx := ms.cron.Stop()
	<-ctx.Done()
}
