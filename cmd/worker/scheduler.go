package main

import (
	"encoding/json"
	"log"
	"time"

	snapshotJob "barcatalog-backend/internal/domains/snapshot/job"
	"barcatalog-backend/internal/shared"
	"barcatalog-backend/pkg/container"

	"github.com/hibiken/asynq"
)

// asynqScheduler wraps asynq.Scheduler with additional functionality
type asynqScheduler struct {
	*asynq.Scheduler
}

// setupScheduler registers the periodic publish job and starts the
// scheduler
func setupScheduler(c *container.Container) *asynqScheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     c.Config.Redis.Addr,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	if err := registerPublishSnapshotJob(scheduler, c.Config.Job.PublishCron); err != nil {
		log.Fatalf("[Scheduler] Failed to register: %v", err)
	}

	go func() {
		log.Println("[Scheduler] Starting...")
		if err := scheduler.Run(); err != nil {
			log.Fatalf("[Scheduler] Failed: %v", err)
		}
	}()

	return &asynqScheduler{Scheduler: scheduler}
}

func registerPublishSnapshotJob(scheduler *asynq.Scheduler, cronSpec string) error {
	payload, err := json.Marshal(snapshotJob.PublishSnapshotPayload{})
	if err != nil {
		return err
	}

	task := asynq.NewTask(shared.TypePublishSnapshot, payload)

	_, err = scheduler.Register(
		cronSpec,
		task,
		asynq.Queue(shared.QueueSnapshot),
		asynq.MaxRetry(1),
		// the fetch stage alone walks 26 paced partitions, so the
		// budget is generous
		asynq.Timeout(time.Hour),
	)
	if err != nil {
		return err
	}

	log.Printf("[Scheduler] Registered PublishSnapshot: cron %q", cronSpec)
	return nil
}

// Shutdown gracefully shuts down the scheduler
func (s *asynqScheduler) Shutdown() {
	log.Println("[Scheduler] Shutting down...")
	s.Scheduler.Shutdown()
	log.Println("[Scheduler] Stopped")
}
