package models

type TimeSlot struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

type DaySchedule struct {
	Enabled bool       `json:"enabled"`
	Slots   []TimeSlot `json:"slots"`
}

// ScheduleSettings is the weekly posting template. Days are keyed by
// lowercase English weekday names.
type ScheduleSettings struct {
	Timezone string                 `json:"timezone"`
	DailyCap int                    `json:"daily_cap"`
	Schedule map[string]DaySchedule `json:"schedule"`
}

type AISettings struct {
	Provider        string `json:"provider"`
	DefaultTone     string `json:"default_tone"`
	DefaultPostType string `json:"default_post_type"`
}

const (
	SettingKeySchedule = "schedule"
	SettingKeyAI       = "ai"
)

var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func DefaultScheduleSettings() ScheduleSettings {
	weekday := DaySchedule{
		Enabled: true,
		Slots: []TimeSlot{
			{Hour: 9, Minute: 0},
			{Hour: 12, Minute: 30},
		},
	}
	weekend := DaySchedule{Enabled: false, Slots: []TimeSlot{}}

	return ScheduleSettings{
		Timezone: "UTC",
		DailyCap: 10,
		Schedule: map[string]DaySchedule{
			"monday":    weekday,
			"tuesday":   weekday,
			"wednesday": weekday,
			"thursday":  weekday,
			"friday":    weekday,
			"saturday":  weekend,
			"sunday":    weekend,
		},
	}
}

func DefaultAISettings() AISettings {
	return AISettings{
		Provider:        "openai",
		DefaultTone:     "professional",
		DefaultPostType: "text",
	}
}
