package transfer

import (
	"database/sql"
	"time"

	"github.com/topcx/autoposter/internal/models"
)

type PostCreation struct {
	Content       string `json:"content"`
	PostType      string `json:"post_type"`
	Status        string `json:"status"`
	ScheduledTime string `json:"scheduled_time"`
}

// PostUpdate carries a partial update; nil fields are left untouched.
type PostUpdate struct {
	Content       *string `json:"content"`
	PostType      *string `json:"post_type"`
	Status        *string `json:"status"`
	ScheduledTime *string `json:"scheduled_time"`
}

type PostReorder struct {
	PostIDs []int64 `json:"post_ids"`
}

// PostView is the serialized form of a post. The image binary never
// leaves storage; callers only see HasImage.
type PostView struct {
	ID             int64   `json:"id"`
	Content        string  `json:"content"`
	PostType       string  `json:"post_type"`
	Status         string  `json:"status"`
	ScheduledTime  *string `json:"scheduled_time"`
	QueueOrder     int     `json:"queue_order"`
	HasImage       bool    `json:"has_image"`
	LinkedinPostID string  `json:"linkedin_post_id,omitempty"`
	Error          string  `json:"error,omitempty"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
	PublishedAt    *string `json:"published_at"`
}

type HistoryPage struct {
	Posts []*PostView `json:"posts"`
	Total int         `json:"total"`
}

func ToPostView(p *models.Post) *PostView {
	return &PostView{
		ID:             p.ID,
		Content:        p.Content,
		PostType:       p.PostType,
		Status:         p.Status,
		ScheduledTime:  formatNullTime(p.ScheduledTime),
		QueueOrder:     p.QueueOrder,
		HasImage:       p.HasImage(),
		LinkedinPostID: p.LinkedinPostID,
		Error:          p.Error,
		CreatedAt:      p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:      p.UpdatedAt.UTC().Format(time.RFC3339),
		PublishedAt:    formatNullTime(p.PublishedAt),
	}
}

func ToPostViews(posts []*models.Post) []*PostView {
	views := make([]*PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, ToPostView(p))
	}
	return views
}

func formatNullTime(t sql.NullTime) *string {
	if !t.Valid {
		return nil
	}
	s := t.Time.UTC().Format(time.RFC3339)
	return &s
}
