// Package schedule triggers the daily crawl on a cron expression.
package schedule

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/citypulse/event-scraper/internal/orchestrator"
	"github.com/citypulse/event-scraper/internal/scraper"
)

// Trigger starts a crawl run. It matches orchestrator.Runner.Run.
type Trigger interface {
	Run(ctx context.Context, cities []string, perCityLimit int) (scraper.RunSummary, error)
}

// Scheduler fires the crawl trigger according to a cron expression.
type Scheduler struct {
	cron   *cron.Cron
	logger *zap.Logger
}

// New validates spec and registers the trigger on it. Standard five-field
// cron expressions are accepted, e.g. "0 3 * * *" for a daily 03:00 run.
func New(spec string, trigger Trigger, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		// Empty cities and a zero limit mean the configured defaults.
		summary, runErr := trigger.Run(context.Background(), nil, 0)
		switch {
		case errors.Is(runErr, orchestrator.ErrRunInProgress):
			logger.Warn("scheduled crawl skipped, previous run still active")
		case runErr != nil:
			logger.Error("scheduled crawl failed", zap.Error(runErr))
		default:
			logger.Info("scheduled crawl finished",
				zap.String("run_id", summary.RunID),
				zap.Int("total_scraped", summary.TotalScraped),
				zap.Int("total_saved", summary.TotalSaved))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return &Scheduler{cron: c, logger: logger}, nil
}

// Start begins firing on schedule. It returns immediately.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("crawl scheduler started")
}

// Stop cancels future firings and waits for an in-flight trigger callback
// to return.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("crawl scheduler stopped")
}
