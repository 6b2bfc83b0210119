package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/topcx/autoposter/internal/repository"
)

// slotHorizonDays bounds how far ahead slot search looks.
const slotHorizonDays = 14

type SchedulerService interface {
	NextAvailableSlots(ctx context.Context, count int) ([]time.Time, error)
	AutoScheduleDrafts(ctx context.Context) (int, error)
}

type schedulerService struct {
	pr  repository.PostRepository
	ss  SettingsService
	now func() time.Time
}

func NewSchedulerService(pr repository.PostRepository, ss SettingsService) SchedulerService {
	return &schedulerService{
		pr:  pr,
		ss:  ss,
		now: time.Now,
	}
}

// NextAvailableSlots walks the calendar from today up to the horizon and
// collects configured slots that are strictly in the future and not
// already taken by a scheduled post with the same exact timestamp. It
// returns fewer than count slots when the horizon runs out.
func (s *schedulerService) NextAvailableSlots(ctx context.Context, count int) ([]time.Time, error) {
	settings, err := s.ss.GetScheduleSettings(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	slots := make([]time.Time, 0, count)

	for offset := 0; offset < slotHorizonDays; offset++ {
		date := now.AddDate(0, 0, offset)
		day, ok := settings.Schedule[strings.ToLower(date.Weekday().String())]
		if !ok || !day.Enabled {
			continue
		}

		for _, slot := range day.Slots {
			slotTime := time.Date(date.Year(), date.Month(), date.Day(), slot.Hour, slot.Minute, 0, 0, time.UTC)
			if !slotTime.After(now) {
				continue
			}

			taken, err := s.pr.CountScheduledAt(ctx, slotTime)
			if err != nil {
				return nil, err
			}
			if taken > 0 {
				continue
			}

			slots = append(slots, slotTime)
			if len(slots) >= count {
				return slots, nil
			}
		}
	}

	return slots, nil
}

// AutoScheduleDrafts assigns slots to unscheduled drafts in queue order,
// bounded by the daily cap. Drafts beyond the available slots stay
// drafts; posts that already carry a scheduled time are never touched.
func (s *schedulerService) AutoScheduleDrafts(ctx context.Context) (int, error) {
	settings, err := s.ss.GetScheduleSettings(ctx)
	if err != nil {
		return 0, err
	}

	drafts, err := s.pr.ListUnscheduledDrafts(ctx, settings.DailyCap)
	if err != nil {
		return 0, err
	}
	if len(drafts) == 0 {
		return 0, nil
	}

	slots, err := s.NextAvailableSlots(ctx, len(drafts))
	if err != nil {
		return 0, err
	}

	scheduled := 0
	for i, slot := range slots {
		if err := s.pr.Schedule(ctx, drafts[i].ID, slot); err != nil {
			slog.Info(err.Error())
			return scheduled, err
		}
		scheduled++
	}

	return scheduled, nil
}
