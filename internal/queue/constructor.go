package queue

import (
	job "github.com/topcx/autoposter/internal/jobs"
	"github.com/topcx/autoposter/internal/service"
)

type Queue struct {
	publisher *job.PublisherJob
	scheduler service.SchedulerService
}

func NewQueue(publisher *job.PublisherJob, scheduler service.SchedulerService) *Queue {
	return &Queue{
		publisher: publisher,
		scheduler: scheduler,
	}
}

const (
	TaskTypePublishCycle = "publish:cycle"
	TaskTypeAutoSchedule = "schedule:drafts"
)
