package calendar

import (
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher re-fetches the calendar on a cron schedule so the cache stays
// warm between user requests.
type Refresher struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// NewRefresher registers the refresh job. Schedule accepts standard cron
// expressions and descriptors like "@hourly".
func NewRefresher(schedule string, svc *Service, logger *zap.Logger) (*Refresher, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if err := svc.Refresh(); err != nil {
			logger.Warn("Scheduled calendar refresh failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, err
	}
	return &Refresher{cron: c, logger: logger}, nil
}

// Start starts the schedule.
func (r *Refresher) Start() {
	r.cron.Start()
	r.logger.Info("Calendar refresher started")
}

// Stop stops the schedule and waits for a running job to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("Calendar refresher stopped")
}
