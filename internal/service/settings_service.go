package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/topcx/autoposter/internal/apperrors"
	"github.com/topcx/autoposter/internal/models"
	"github.com/topcx/autoposter/internal/repository"
)

type SettingsService interface {
	GetScheduleSettings(ctx context.Context) (models.ScheduleSettings, error)
	UpdateScheduleSettings(ctx context.Context, settings models.ScheduleSettings) error
	GetAISettings(ctx context.Context) (models.AISettings, error)
	UpdateAISettings(ctx context.Context, settings models.AISettings) error
}

type settingsService struct {
	sr repository.SettingsRepository
}

func NewSettingsService(sr repository.SettingsRepository) SettingsService {
	return &settingsService{sr: sr}
}

func (s *settingsService) GetScheduleSettings(ctx context.Context) (models.ScheduleSettings, error) {
	settings := models.DefaultScheduleSettings()

	value, found, err := s.sr.Get(ctx, models.SettingKeySchedule)
	if err != nil {
		return settings, err
	}
	if !found {
		return settings, nil
	}

	if err := json.Unmarshal(value, &settings); err != nil {
		slog.Info(err.Error())
		return models.DefaultScheduleSettings(), err
	}
	return settings, nil
}

func (s *settingsService) UpdateScheduleSettings(ctx context.Context, settings models.ScheduleSettings) error {
	if err := validateScheduleSettings(settings); err != nil {
		return err
	}

	value, err := json.Marshal(settings)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return s.sr.Set(ctx, models.SettingKeySchedule, value)
}

func (s *settingsService) GetAISettings(ctx context.Context) (models.AISettings, error) {
	settings := models.DefaultAISettings()

	value, found, err := s.sr.Get(ctx, models.SettingKeyAI)
	if err != nil {
		return settings, err
	}
	if !found {
		return settings, nil
	}

	if err := json.Unmarshal(value, &settings); err != nil {
		slog.Info(err.Error())
		return models.DefaultAISettings(), err
	}
	return settings, nil
}

func (s *settingsService) UpdateAISettings(ctx context.Context, settings models.AISettings) error {
	switch settings.Provider {
	case "openai", "anthropic":
	default:
		return apperrors.Validation("unknown AI provider: %s", settings.Provider)
	}

	value, err := json.Marshal(settings)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return s.sr.Set(ctx, models.SettingKeyAI, value)
}

func validateScheduleSettings(settings models.ScheduleSettings) error {
	if settings.DailyCap < 1 || settings.DailyCap > 50 {
		return apperrors.Validation("daily_cap must be between 1 and 50")
	}
	if settings.Timezone == "" {
		return apperrors.Validation("timezone must not be empty")
	}

	known := make(map[string]struct{}, len(models.Weekdays))
	for _, day := range models.Weekdays {
		known[day] = struct{}{}
	}

	for day, schedule := range settings.Schedule {
		if _, ok := known[day]; !ok {
			return apperrors.Validation("unknown weekday: %s", day)
		}
		for _, slot := range schedule.Slots {
			if slot.Hour < 0 || slot.Hour > 23 {
				return apperrors.Validation("slot hour out of range: %d", slot.Hour)
			}
			if slot.Minute < 0 || slot.Minute > 59 {
				return apperrors.Validation("slot minute out of range: %d", slot.Minute)
			}
		}
	}
	return nil
}
