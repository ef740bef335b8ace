// services/scheduler.go
package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartPublishScheduler publishes scheduled templates every interval.
// The caller owns the returned scheduler and must Shutdown it.
func (s *TemplatePublisher) StartPublishScheduler(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			n, err := s.PublishDue(ctx)
			if err != nil {
				s.log.Error("[Scheduler] DB error", "error", err)
				return
			}
			if n > 0 {
				s.log.Info("[Scheduler] Published scheduled templates", "count", n)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}

// ScheduleSessionEviction adds a job to sched that drops sessions idle for
// longer than idle. It runs every idle/2.
func ScheduleSessionEviction(sched gocron.Scheduler, repo *ProgressRepository, idle time.Duration) error {
	_, err := sched.NewJob(
		gocron.DurationJob(idle/2),
		gocron.NewTask(func() {
			if n := repo.EvictIdle(idle); n > 0 {
				repo.log.Info("[Scheduler] Evicted idle sessions", "count", n, "remaining", repo.Sessions())
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}
