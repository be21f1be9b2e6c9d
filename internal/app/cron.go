package app

import (
	"context"
	"fmt"
	"time"

	"github.com/nohatek/autoblog/internal/modules/trending"
	pkgcron "github.com/nohatek/autoblog/internal/pkg/cron"
)

// PublishJobName is the scheduled content run; it can also be fired through
// POST /cron/:name/run.
const PublishJobName = "content_publish"

func (a *App) registerCronJobs(trends *trending.Service) error {
	job := pkgcron.Job{
		Name:        PublishJobName,
		Description: "generate and publish one article",
		Fn: func(ctx context.Context) error {
			return a.runner.RunWithRetry(ctx)
		},
	}

	if len(a.cfg.Publish.At) > 0 {
		for _, raw := range a.cfg.Publish.At {
			at, err := pkgcron.ParseClockTime(raw)
			if err != nil {
				return fmt.Errorf("publish.at: %w", err)
			}
			job.At = append(job.At, at)
		}
	} else {
		job.Interval = time.Duration(a.cfg.Publish.IntervalHours) * time.Hour
	}
	a.sched.Register(job)

	if trends != nil {
		a.sched.Register(pkgcron.Job{
			Name:        "trending_refresh",
			Description: "refresh the trending topics cache",
			Interval:    time.Hour,
			Fn: func(ctx context.Context) error {
				_, err := trends.Topics(ctx, 0)
				return err
			},
		})
	}
	return nil
}
