package queue

import (
	"context"
	"log"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandlePublishCycleTask(ctx context.Context, task *asynq.Task) error {
	return q.publisher.Run(ctx)
}

func (q *Queue) HandleAutoScheduleTask(ctx context.Context, task *asynq.Task) error {
	scheduled, err := q.scheduler.AutoScheduleDrafts(ctx)
	if err != nil {
		return err
	}

	log.Printf("auto-schedule: %d drafts scheduled", scheduled)
	return nil
}
