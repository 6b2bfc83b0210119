package models

import (
	"database/sql"
	"time"
)

type Post struct {
	ID               int64        `db:"id" json:"id"`
	Content          string       `db:"content" json:"content"`
	PostType         string       `db:"post_type" json:"post_type"`
	Status           string       `db:"status" json:"status"`
	ScheduledTime    sql.NullTime `db:"scheduled_time" json:"scheduled_time"`
	QueueOrder       int          `db:"queue_order" json:"queue_order"`
	ImageKey         string       `db:"image_key" json:"-"`
	ImageContentType string       `db:"image_content_type" json:"-"`
	ImageURN         string       `db:"image_urn" json:"image_urn,omitempty"`
	LinkedinPostID   string       `db:"linkedin_post_id" json:"linkedin_post_id,omitempty"`
	Error            string       `db:"error" json:"error,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updated_at"`
	PublishedAt      sql.NullTime `db:"published_at" json:"published_at"`
}

const (
	PostStatusDraft      = "draft"
	PostStatusScheduled  = "scheduled"
	PostStatusPublishing = "publishing"
	PostStatusPublished  = "published"
	PostStatusFailed     = "failed"
)

const (
	PostTypeText  = "text"
	PostTypeImage = "image"
)

// HasImage reports whether an image binary is still attached or the post
// already carries a platform media reference.
func (p *Post) HasImage() bool {
	return p.ImageKey != "" || p.ImageURN != ""
}

func ValidPostStatus(status string) bool {
	switch status {
	case PostStatusDraft, PostStatusScheduled, PostStatusPublishing, PostStatusPublished, PostStatusFailed:
		return true
	}
	return false
}

func ValidPostType(postType string) bool {
	return postType == PostTypeText || postType == PostTypeImage
}
