package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/topcx/autoposter/internal/apperrors"
	"github.com/topcx/autoposter/internal/models"
)

// PostPatch is a partial update; nil fields are left unchanged.
// ScheduledTime distinguishes "not supplied" (nil outer pointer) from
// "clear the value" (pointer to nil).
type PostPatch struct {
	Content       *string
	PostType      *string
	Status        *string
	ScheduledTime **time.Time
}

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	Update(ctx context.Context, id int64, patch *PostPatch) error
	Remove(ctx context.Context, id int64) error
	ListActive(ctx context.Context) ([]*models.Post, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error)
	ListHistory(ctx context.Context, skip, limit int) ([]*models.Post, int, error)
	ListUnscheduledDrafts(ctx context.Context, limit int) ([]*models.Post, error)
	CountPublishedSince(ctx context.Context, since time.Time) (int, error)
	CountScheduledAt(ctx context.Context, slot time.Time) (int, error)
	NextQueueOrder(ctx context.Context) (int, error)
	Reorder(ctx context.Context, ids []int64) error
	Schedule(ctx context.Context, id int64, slot time.Time) error
	MarkPublishing(ctx context.Context, id int64, fromStatuses []string) error
	MarkPublished(ctx context.Context, id int64, linkedinPostID string) error
	MarkFailed(ctx context.Context, id int64, message string) error
	SetImage(ctx context.Context, id int64, key, contentType string) error
	ClearImage(ctx context.Context, id int64) error
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = `id, content, post_type, status, scheduled_time, queue_order, image_key, image_content_type, image_urn, linkedin_post_id, error, created_at, updated_at, published_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	err := row.Scan(
		&post.ID,
		&post.Content,
		&post.PostType,
		&post.Status,
		&post.ScheduledTime,
		&post.QueueOrder,
		&post.ImageKey,
		&post.ImageContentType,
		&post.ImageURN,
		&post.LinkedinPostID,
		&post.Error,
		&post.CreatedAt,
		&post.UpdatedAt,
		&post.PublishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) collect(rows *sql.Rows) ([]*models.Post, error) {
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (int64, error) {
	query := `
		INSERT INTO posts (content, post_type, status, scheduled_time, queue_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		post.Content, post.PostType, post.Status, post.ScheduledTime, post.QueueOrder,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) Update(ctx context.Context, id int64, patch *PostPatch) error {
	query := `
		UPDATE posts
		SET content = COALESCE($2, content),
			post_type = COALESCE($3, post_type),
			status = COALESCE($4, status),
			scheduled_time = CASE WHEN $5 THEN $6 ELSE scheduled_time END,
			updated_at = $7
		WHERE id = $1
	`

	var scheduledTime sql.NullTime
	setScheduled := patch.ScheduledTime != nil
	if setScheduled && *patch.ScheduledTime != nil {
		scheduledTime = sql.NullTime{Time: **patch.ScheduledTime, Valid: true}
	}

	result, err := r.db.ExecContext(ctx, query,
		id, patch.Content, patch.PostType, patch.Status, setScheduled, scheduledTime, time.Now().UTC(),
	)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *postRepository) Remove(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *postRepository) ListActive(ctx context.Context) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE status IN ($1, $2)
		ORDER BY queue_order ASC`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusDraft, models.PostStatusScheduled)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return r.collect(rows)
}

func (r *postRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE status = $1 AND scheduled_time <= $2
		ORDER BY scheduled_time ASC
		LIMIT $3`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusScheduled, now, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return r.collect(rows)
}

func (r *postRepository) ListHistory(ctx context.Context, skip, limit int) ([]*models.Post, int, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE status IN ($1, $2)
		ORDER BY published_at DESC NULLS LAST
		OFFSET $3 LIMIT $4`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusPublished, models.PostStatusFailed, skip, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, 0, err
	}

	posts, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM posts WHERE status IN ($1, $2)`
	err = r.db.QueryRowContext(ctx, countQuery, models.PostStatusPublished, models.PostStatusFailed).Scan(&total)
	if err != nil {
		slog.Info(err.Error())
		return nil, 0, err
	}

	return posts, total, nil
}

func (r *postRepository) ListUnscheduledDrafts(ctx context.Context, limit int) ([]*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts
		WHERE status = $1 AND scheduled_time IS NULL
		ORDER BY queue_order ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, models.PostStatusDraft, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return r.collect(rows)
}

func (r *postRepository) CountPublishedSince(ctx context.Context, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM posts WHERE status = $1 AND published_at >= $2`

	var count int
	err := r.db.QueryRowContext(ctx, query, models.PostStatusPublished, since).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *postRepository) CountScheduledAt(ctx context.Context, slot time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM posts WHERE status = $1 AND scheduled_time = $2`

	var count int
	err := r.db.QueryRowContext(ctx, query, models.PostStatusScheduled, slot).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *postRepository) NextQueueOrder(ctx context.Context) (int, error) {
	query := `SELECT COALESCE(MAX(queue_order), 0) + 1 FROM posts WHERE status IN ($1, $2)`

	var next int
	err := r.db.QueryRowContext(ctx, query, models.PostStatusDraft, models.PostStatusScheduled).Scan(&next)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return next, nil
}

// Reorder renumbers the supplied posts 1..N by position. Posts outside
// the set keep their order values.
func (r *postRepository) Reorder(ctx context.Context, ids []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer tx.Rollback()

	query := `UPDATE posts SET queue_order = $1, updated_at = $2 WHERE id = $3`
	now := time.Now().UTC()
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, query, i+1, now, id); err != nil {
			slog.Info(err.Error())
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) Schedule(ctx context.Context, id int64, slot time.Time) error {
	query := `
		UPDATE posts
		SET status = $2, scheduled_time = $3, updated_at = $4
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, models.PostStatusScheduled, slot, time.Now().UTC())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// MarkPublishing claims a post for an outbound attempt. The transition is
// a conditional update so a cron cycle and a manual publish-now can never
// both claim the same post.
func (r *postRepository) MarkPublishing(ctx context.Context, id int64, fromStatuses []string) error {
	query := `
		UPDATE posts
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = ANY($4)
	`
	result, err := r.db.ExecContext(ctx, query, id, models.PostStatusPublishing, time.Now().UTC(), pq.Array(fromStatuses))
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return apperrors.ErrStatusConflict
	}
	return nil
}

// MarkPublished records a successful publish and drops the image
// reference so the stored binary can be discarded.
func (r *postRepository) MarkPublished(ctx context.Context, id int64, linkedinPostID string) error {
	now := time.Now().UTC()
	query := `
		UPDATE posts
		SET status = $2,
			linkedin_post_id = $3,
			published_at = $4,
			error = '',
			image_key = '',
			updated_at = $4
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, models.PostStatusPublished, linkedinPostID, now)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) MarkFailed(ctx context.Context, id int64, message string) error {
	query := `
		UPDATE posts
		SET status = $2, error = $3, updated_at = $4
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, id, models.PostStatusFailed, message, time.Now().UTC())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postRepository) SetImage(ctx context.Context, id int64, key, contentType string) error {
	query := `
		UPDATE posts
		SET image_key = $2, image_content_type = $3, post_type = $4, updated_at = $5
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, key, contentType, models.PostTypeImage, time.Now().UTC())
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *postRepository) ClearImage(ctx context.Context, id int64) error {
	query := `
		UPDATE posts
		SET image_key = '', image_content_type = '', image_urn = '', post_type = $2, updated_at = $3
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, models.PostTypeText, time.Now().UTC())
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
