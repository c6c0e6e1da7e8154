package view

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultRefreshSpec fires one second after midnight, once cache entries
// written the previous day have expired.
const DefaultRefreshSpec = "1 0 0 * * *"

// Refresher runs tasks on a cron schedule evaluated in the cache's
// reference zone.
type Refresher struct {
	cron   *cron.Cron
	logger *zap.Logger
}

func NewRefresher(loc *time.Location, logger *zap.Logger) *Refresher {
	return &Refresher{
		cron:   cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		logger: logger,
	}
}

// Register adds task under a six-field (seconds-first) cron spec.
func (r *Refresher) Register(spec string, task func()) error {
	if spec == "" {
		spec = DefaultRefreshSpec
	}
	if _, err := r.cron.AddFunc(spec, task); err != nil {
		return fmt.Errorf("register refresh task %q: %w", spec, err)
	}
	return nil
}

// Next returns when the first registered task fires next.
func (r *Refresher) Next() time.Time {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (r *Refresher) Start() {
	r.cron.Start()
	r.logger.Info("refresher started", zap.Time("next", r.Next()))
}

// Stop halts the schedule and waits for a running task to finish.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("refresher stopped")
}
