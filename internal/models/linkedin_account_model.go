package models

import (
	"time"
)

// LinkedinAccount holds the single connected account's OAuth tokens.
// Token fields are stored encrypted; repositories never see plaintext.
type LinkedinAccount struct {
	PersonURN      string    `db:"person_urn" json:"person_urn"`
	AccessToken    string    `db:"access_token" json:"-"`
	RefreshToken   string    `db:"refresh_token" json:"-"`
	TokenExpiresAt time.Time `db:"token_expires_at" json:"token_expires_at"`
	ProfileName    string    `db:"profile_name" json:"profile_name"`
	ProfileEmail   string    `db:"profile_email" json:"profile_email"`
	ProfilePicture string    `db:"profile_picture_url" json:"profile_picture"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
