package repository

import (
	"context"
	"database/sql"
	"log/slog"
)

type SettingsRepository interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query := `SELECT value FROM settings WHERE setting_key = $1`

	var value []byte
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Info(err.Error())
		return nil, false, err
	}

	return value, true, nil
}

func (r *settingsRepository) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO settings (setting_key, value)
		VALUES ($1, $2)
		ON CONFLICT (setting_key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query, key, value)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
