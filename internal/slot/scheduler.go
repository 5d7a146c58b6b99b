package slot

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartHorizonScheduler runs GenerateHorizon on the cron expression, in the temple time zone.
// The caller owns Shutdown.
func StartHorizonScheduler(svc Service, cronExpr string, loc *time.Location) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			results, err := svc.GenerateHorizon(ctx)
			if err != nil {
				log.Printf("❌ slot horizon job failed: %v", err)
				return
			}
			created := 0
			for _, r := range results {
				created += r.Created
			}
			log.Printf("🗓️ slot horizon job: %d services, %d slots created", len(results), created)
		}),
		gocron.WithName("slot-horizon"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}
