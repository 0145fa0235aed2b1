package cronrunner

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runner schedules the maintenance jobs: funding window pruning, funding
// backfill healing and alert trail cleanup. Jobs run with the process
// context so an in-flight job observes shutdown.
type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

func (r *Runner) Add(spec, name string, job func(context.Context) error) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		ctx := r.baseCtx
		if ctx == nil {
			ctx = context.Background()
		}
		start := time.Now()
		err := job(ctx)
		if err != nil {
			if r.logger != nil {
				r.logger.Warn("cron job failed",
					zap.String("job", name),
					zap.Duration("took", time.Since(start)),
					zap.Error(err))
			}
			return
		}
		if r.logger != nil {
			r.logger.Info("cron job done",
				zap.String("job", name),
				zap.Duration("took", time.Since(start)))
		}
	})
}

func (r *Runner) Start() {
	if r.logger != nil {
		r.logger.Info("cron started")
	}
	r.cron.Start()
}

func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	if r.logger != nil {
		r.logger.Info("cron stopped")
	}
}
