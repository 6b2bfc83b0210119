package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/topcx/autoposter/internal/models"
)

type LinkedinAccountRepository interface {
	Get(ctx context.Context) (*models.LinkedinAccount, error)
	Upsert(ctx context.Context, acc *models.LinkedinAccount) error
	UpdateTokens(ctx context.Context, personURN, accessToken, refreshToken string, expiresAt time.Time) error
	RemoveAll(ctx context.Context) error
}

type linkedinAccountRepository struct {
	db *sql.DB
}

func NewLinkedinAccountRepository(db *sql.DB) LinkedinAccountRepository {
	return &linkedinAccountRepository{db: db}
}

// Get returns the single stored account, or nil when none is connected.
func (r *linkedinAccountRepository) Get(ctx context.Context) (*models.LinkedinAccount, error) {
	query := `SELECT person_urn, access_token, refresh_token, token_expires_at,
		profile_name, profile_email, profile_picture_url, created_at, updated_at
		FROM linkedin_accounts LIMIT 1`

	var acc models.LinkedinAccount
	err := r.db.QueryRowContext(ctx, query).Scan(
		&acc.PersonURN,
		&acc.AccessToken,
		&acc.RefreshToken,
		&acc.TokenExpiresAt,
		&acc.ProfileName,
		&acc.ProfileEmail,
		&acc.ProfilePicture,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &acc, nil
}

func (r *linkedinAccountRepository) Upsert(ctx context.Context, acc *models.LinkedinAccount) error {
	query := `
		INSERT INTO linkedin_accounts (
			person_urn, access_token, refresh_token, token_expires_at,
			profile_name, profile_email, profile_picture_url
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (person_urn) DO UPDATE
		SET access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			profile_name = EXCLUDED.profile_name,
			profile_email = EXCLUDED.profile_email,
			profile_picture_url = EXCLUDED.profile_picture_url,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.ExecContext(ctx, query,
		acc.PersonURN,
		acc.AccessToken,
		acc.RefreshToken,
		acc.TokenExpiresAt,
		acc.ProfileName,
		acc.ProfileEmail,
		acc.ProfilePicture,
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// UpdateTokens updates tokens in place after a refresh. An empty refresh
// token keeps the existing one.
func (r *linkedinAccountRepository) UpdateTokens(ctx context.Context, personURN, accessToken, refreshToken string, expiresAt time.Time) error {
	query := `
		UPDATE linkedin_accounts
		SET access_token = $2,
			refresh_token = COALESCE(NULLIF($3, ''), refresh_token),
			token_expires_at = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE person_urn = $1
	`
	_, err := r.db.ExecContext(ctx, query, personURN, accessToken, refreshToken, expiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *linkedinAccountRepository) RemoveAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM linkedin_accounts`)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
