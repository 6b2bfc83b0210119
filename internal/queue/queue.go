package queue

import (
	"errors"
	"log"
	"time"

	"github.com/hibiken/asynq"
)

// EnqueuePublishCycle schedules one publication cycle run. Uniqueness is
// held slightly under the cron period so overlapping cron fires collapse
// into a single queued run.
func EnqueuePublishCycle(asynqClient *asynq.Client) error {
	task := asynq.NewTask(TaskTypePublishCycle, nil)

	_, err := asynqClient.Enqueue(task, asynq.Unique(4*time.Minute))
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			log.Println("publish cycle already queued, skipping")
			return nil
		}
		return err
	}
	return nil
}

func EnqueueAutoSchedule(asynqClient *asynq.Client) error {
	task := asynq.NewTask(TaskTypeAutoSchedule, nil)

	_, err := asynqClient.Enqueue(task, asynq.Unique(time.Hour))
	if err != nil {
		if errors.Is(err, asynq.ErrDuplicateTask) {
			log.Println("auto-schedule already queued, skipping")
			return nil
		}
		return err
	}
	return nil
}
