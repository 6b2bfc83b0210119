package service

import (
	"context"
	"testing"
	"time"

	"github.com/topcx/autoposter/internal/models"
)

// Sunday evening; default settings have Monday through Friday enabled
// with 09:00 and 12:30 slots.
var sundayEvening = time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)

func newTestScheduler(pr *fakePostRepository, settings models.ScheduleSettings, now time.Time) *schedulerService {
	return &schedulerService{
		pr:  pr,
		ss:  &fakeSettingsService{schedule: settings},
		now: func() time.Time { return now },
	}
}

func TestNextAvailableSlots(t *testing.T) {
	singleSlot := models.ScheduleSettings{
		Timezone: "UTC",
		DailyCap: 10,
		Schedule: map[string]models.DaySchedule{
			"monday": {Enabled: true, Slots: []models.TimeSlot{{Hour: 9, Minute: 0}}},
		},
	}
	disabled := models.ScheduleSettings{
		Timezone: "UTC",
		DailyCap: 10,
		Schedule: map[string]models.DaySchedule{
			"monday": {Enabled: false, Slots: []models.TimeSlot{{Hour: 9, Minute: 0}}},
		},
	}

	tests := []struct {
		name     string
		settings models.ScheduleSettings
		now      time.Time
		taken    []time.Time
		count    int
		want     []time.Time
	}{
		{
			name:     "sunday evening rolls into monday slots",
			settings: models.DefaultScheduleSettings(),
			now:      sundayEvening,
			count:    3,
			want: []time.Time{
				time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
				time.Date(2025, 6, 2, 12, 30, 0, 0, time.UTC),
				time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC),
			},
		},
		{
			name:     "slot at the current instant is excluded",
			settings: models.DefaultScheduleSettings(),
			now:      time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
			count:    1,
			want: []time.Time{
				time.Date(2025, 6, 2, 12, 30, 0, 0, time.UTC),
			},
		},
		{
			name:     "occupied slot is skipped",
			settings: models.DefaultScheduleSettings(),
			now:      sundayEvening,
			taken:    []time.Time{time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)},
			count:    2,
			want: []time.Time{
				time.Date(2025, 6, 2, 12, 30, 0, 0, time.UTC),
				time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC),
			},
		},
		{
			name:     "horizon caps the slot count",
			settings: singleSlot,
			now:      sundayEvening,
			count:    5,
			want: []time.Time{
				time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
				time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC),
			},
		},
		{
			name:     "all days disabled yields nothing",
			settings: disabled,
			now:      sundayEvening,
			count:    3,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakePostRepository()
			for _, slot := range tt.taken {
				repo.scheduledAt[slot] = 1
			}

			s := newTestScheduler(repo, tt.settings, tt.now)
			got, err := s.NextAvailableSlots(context.Background(), tt.count)
			if err != nil {
				t.Fatalf("NextAvailableSlots() error = %v", err)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("NextAvailableSlots() returned %d slots, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !got[i].Equal(tt.want[i]) {
					t.Errorf("slot[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestAutoScheduleDrafts(t *testing.T) {
	t.Run("assigns slots in queue order", func(t *testing.T) {
		repo := newFakePostRepository()
		first := repo.add(&models.Post{Content: "a", Status: models.PostStatusDraft, QueueOrder: 1})
		second := repo.add(&models.Post{Content: "b", Status: models.PostStatusDraft, QueueOrder: 2})

		s := newTestScheduler(repo, models.DefaultScheduleSettings(), sundayEvening)
		scheduled, err := s.AutoScheduleDrafts(context.Background())
		if err != nil {
			t.Fatalf("AutoScheduleDrafts() error = %v", err)
		}
		if scheduled != 2 {
			t.Fatalf("AutoScheduleDrafts() = %d, want 2", scheduled)
		}

		if !first.ScheduledTime.Time.Equal(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)) {
			t.Errorf("first draft scheduled at %v, want monday 09:00", first.ScheduledTime.Time)
		}
		if !second.ScheduledTime.Time.Equal(time.Date(2025, 6, 2, 12, 30, 0, 0, time.UTC)) {
			t.Errorf("second draft scheduled at %v, want monday 12:30", second.ScheduledTime.Time)
		}
		if first.Status != models.PostStatusScheduled || second.Status != models.PostStatusScheduled {
			t.Errorf("drafts not promoted to scheduled: %s, %s", first.Status, second.Status)
		}
	})

	t.Run("excess drafts stay drafts", func(t *testing.T) {
		settings := models.ScheduleSettings{
			Timezone: "UTC",
			DailyCap: 10,
			Schedule: map[string]models.DaySchedule{
				"monday": {Enabled: true, Slots: []models.TimeSlot{{Hour: 9, Minute: 0}}},
			},
		}

		repo := newFakePostRepository()
		repo.add(&models.Post{Content: "a", Status: models.PostStatusDraft, QueueOrder: 1})
		repo.add(&models.Post{Content: "b", Status: models.PostStatusDraft, QueueOrder: 2})
		third := repo.add(&models.Post{Content: "c", Status: models.PostStatusDraft, QueueOrder: 3})

		s := newTestScheduler(repo, settings, sundayEvening)
		scheduled, err := s.AutoScheduleDrafts(context.Background())
		if err != nil {
			t.Fatalf("AutoScheduleDrafts() error = %v", err)
		}
		if scheduled != 2 {
			t.Fatalf("AutoScheduleDrafts() = %d, want 2", scheduled)
		}
		if third.Status != models.PostStatusDraft {
			t.Errorf("third draft promoted to %s, want draft", third.Status)
		}
	})

	t.Run("second run schedules nothing new", func(t *testing.T) {
		repo := newFakePostRepository()
		repo.add(&models.Post{Content: "a", Status: models.PostStatusDraft, QueueOrder: 1})
		repo.add(&models.Post{Content: "b", Status: models.PostStatusDraft, QueueOrder: 2})

		s := newTestScheduler(repo, models.DefaultScheduleSettings(), sundayEvening)
		first, err := s.AutoScheduleDrafts(context.Background())
		if err != nil {
			t.Fatalf("AutoScheduleDrafts() error = %v", err)
		}
		second, err := s.AutoScheduleDrafts(context.Background())
		if err != nil {
			t.Fatalf("AutoScheduleDrafts() second run error = %v", err)
		}
		if first != 2 || second != 0 {
			t.Errorf("runs scheduled %d then %d, want 2 then 0", first, second)
		}
	})

	t.Run("nothing to schedule", func(t *testing.T) {
		repo := newFakePostRepository()
		s := newTestScheduler(repo, models.DefaultScheduleSettings(), sundayEvening)

		scheduled, err := s.AutoScheduleDrafts(context.Background())
		if err != nil {
			t.Fatalf("AutoScheduleDrafts() error = %v", err)
		}
		if scheduled != 0 {
			t.Errorf("AutoScheduleDrafts() = %d, want 0", scheduled)
		}
	})

	t.Run("posts with a time already set are untouched", func(t *testing.T) {
		repo := newFakePostRepository()
		pinned := repo.add(&models.Post{Content: "a", Status: models.PostStatusDraft, QueueOrder: 1})
		pinned.ScheduledTime.Time = time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)
		pinned.ScheduledTime.Valid = true

		s := newTestScheduler(repo, models.DefaultScheduleSettings(), sundayEvening)
		scheduled, err := s.AutoScheduleDrafts(context.Background())
		if err != nil {
			t.Fatalf("AutoScheduleDrafts() error = %v", err)
		}
		if scheduled != 0 {
			t.Errorf("AutoScheduleDrafts() = %d, want 0", scheduled)
		}
		if !pinned.ScheduledTime.Time.Equal(time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)) {
			t.Errorf("pinned time changed to %v", pinned.ScheduledTime.Time)
		}
	})
}
