package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/topcx/autoposter/internal/apperrors"
	"github.com/topcx/autoposter/internal/models"
	"github.com/topcx/autoposter/internal/repository"
	"github.com/topcx/autoposter/internal/transfer"
)

const (
	maxContentLength = 3000
	maxImageSize     = 10 * 1024 * 1024
)

type PostService interface {
	CreatePost(ctx context.Context, pc *transfer.PostCreation) (*models.Post, error)
	ListQueue(ctx context.Context) ([]*models.Post, error)
	UpdatePost(ctx context.Context, id int64, pu *transfer.PostUpdate) (*models.Post, error)
	RemovePost(ctx context.Context, id int64) error
	Reorder(ctx context.Context, ids []int64) error
	AttachImage(ctx context.Context, id int64, data []byte) error
	DetachImage(ctx context.Context, id int64) error
	PublishNow(ctx context.Context, id int64) (*transfer.PublishResult, error)
	ExecutePublish(ctx context.Context, post *models.Post, cred *Credential) (*transfer.PublishResult, error)
	History(ctx context.Context, skip, limit int) (*transfer.HistoryPage, error)
}

type postService struct {
	pr    repository.PostRepository
	ls    LinkedinService
	pub   PublishService
	media MediaStorage
}

func NewPostService(pr repository.PostRepository, ls LinkedinService, pub PublishService, media MediaStorage) PostService {
	return &postService{
		pr:    pr,
		ls:    ls,
		pub:   pub,
		media: media,
	}
}

func validateContent(content string) error {
	if len(content) == 0 {
		return apperrors.Validation("content must not be empty")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return apperrors.Validation("content exceeds %d characters", maxContentLength)
	}
	return nil
}

func parseScheduledTime(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, apperrors.Validation("invalid scheduled_time format: %s", value)
	}
	return parsed.UTC(), nil
}

func (s *postService) CreatePost(ctx context.Context, pc *transfer.PostCreation) (*models.Post, error) {
	if err := validateContent(pc.Content); err != nil {
		return nil, err
	}

	postType := pc.PostType
	if postType == "" {
		postType = models.PostTypeText
	}
	if !models.ValidPostType(postType) {
		return nil, apperrors.Validation("unknown post_type: %s", postType)
	}

	status := pc.Status
	if status == "" {
		status = models.PostStatusDraft
	}
	if status != models.PostStatusDraft && status != models.PostStatusScheduled {
		return nil, apperrors.Validation("initial status must be draft or scheduled")
	}

	post := &models.Post{
		Content:  pc.Content,
		PostType: postType,
		Status:   status,
	}

	// A caller-supplied time promotes the post straight to scheduled.
	if pc.ScheduledTime != "" {
		scheduledTime, err := parseScheduledTime(pc.ScheduledTime)
		if err != nil {
			return nil, err
		}
		post.ScheduledTime.Time = scheduledTime
		post.ScheduledTime.Valid = true
		post.Status = models.PostStatusScheduled
	} else if status == models.PostStatusScheduled {
		return nil, apperrors.Validation("scheduled posts require a scheduled_time")
	}

	order, err := s.pr.NextQueueOrder(ctx)
	if err != nil {
		return nil, err
	}
	post.QueueOrder = order

	id, err := s.pr.Create(ctx, post)
	if err != nil {
		return nil, err
	}

	created, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, apperrors.ErrNotFound
	}
	return created, nil
}

func (s *postService) ListQueue(ctx context.Context) ([]*models.Post, error) {
	return s.pr.ListActive(ctx)
}

func (s *postService) UpdatePost(ctx context.Context, id int64, pu *transfer.PostUpdate) (*models.Post, error) {
	if pu.Content == nil && pu.PostType == nil && pu.Status == nil && pu.ScheduledTime == nil {
		return nil, apperrors.Validation("no fields to update")
	}

	patch := &repository.PostPatch{
		Content:  pu.Content,
		PostType: pu.PostType,
		Status:   pu.Status,
	}

	if pu.Content != nil {
		if err := validateContent(*pu.Content); err != nil {
			return nil, err
		}
	}
	if pu.PostType != nil && !models.ValidPostType(*pu.PostType) {
		return nil, apperrors.Validation("unknown post_type: %s", *pu.PostType)
	}
	if pu.Status != nil && !models.ValidPostStatus(*pu.Status) {
		return nil, apperrors.Validation("unknown status: %s", *pu.Status)
	}

	if pu.ScheduledTime != nil {
		if *pu.ScheduledTime == "" {
			var cleared *time.Time
			patch.ScheduledTime = &cleared
		} else {
			scheduledTime, err := parseScheduledTime(*pu.ScheduledTime)
			if err != nil {
				return nil, err
			}
			ptr := &scheduledTime
			patch.ScheduledTime = &ptr
		}
	}

	if err := s.pr.Update(ctx, id, patch); err != nil {
		return nil, err
	}

	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperrors.ErrNotFound
	}
	return post, nil
}

func (s *postService) RemovePost(ctx context.Context, id int64) error {
	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post == nil {
		return apperrors.ErrNotFound
	}

	if post.ImageKey != "" {
		if err := s.media.Remove(ctx, post.ImageKey); err != nil {
			slog.Info("failed to remove image object: " + err.Error())
		}
	}

	return s.pr.Remove(ctx, id)
}

func (s *postService) Reorder(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return apperrors.Validation("post_ids must not be empty")
	}
	return s.pr.Reorder(ctx, ids)
}

func (s *postService) AttachImage(ctx context.Context, id int64, data []byte) error {
	if len(data) == 0 {
		return apperrors.Validation("image payload is empty")
	}
	if len(data) > maxImageSize {
		return apperrors.Validation("image too large (max 10 MB)")
	}

	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post == nil {
		return apperrors.ErrNotFound
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return apperrors.Validation("unsupported file type")
	}
	switch kind.Extension {
	case "jpg", "png", "gif", "webp":
	default:
		return apperrors.Validation("unsupported image type: %s", kind.Extension)
	}

	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	key = fmt.Sprintf("posts/%d/%s.%s", id, key, kind.Extension)

	if err := s.media.Upload(ctx, key, data, kind.MIME.Value); err != nil {
		return err
	}

	if err := s.pr.SetImage(ctx, id, key, kind.MIME.Value); err != nil {
		return err
	}

	// Replacing an image leaves the old object orphaned otherwise.
	if post.ImageKey != "" && post.ImageKey != key {
		if err := s.media.Remove(ctx, post.ImageKey); err != nil {
			slog.Info("failed to remove replaced image object: " + err.Error())
		}
	}

	return nil
}

func (s *postService) DetachImage(ctx context.Context, id int64) error {
	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post == nil {
		return apperrors.ErrNotFound
	}

	if post.ImageKey != "" {
		if err := s.media.Remove(ctx, post.ImageKey); err != nil {
			slog.Info("failed to remove image object: " + err.Error())
		}
	}

	return s.pr.ClearImage(ctx, id)
}

// PublishNow drives a single post through the publish state machine
// synchronously. Posts already publishing or published are rejected
// before any outbound call.
func (s *postService) PublishNow(ctx context.Context, id int64) (*transfer.PublishResult, error) {
	post, err := s.pr.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, apperrors.ErrNotFound
	}
	if post.Status == models.PostStatusPublishing || post.Status == models.PostStatusPublished {
		return nil, fmt.Errorf("%w: post is already %s", apperrors.ErrStatusConflict, post.Status)
	}

	cred, err := s.ls.Credential(ctx)
	if err != nil {
		return nil, err
	}

	err = s.pr.MarkPublishing(ctx, id, []string{
		models.PostStatusDraft,
		models.PostStatusScheduled,
		models.PostStatusFailed,
	})
	if err != nil {
		return nil, err
	}

	return s.ExecutePublish(ctx, post, cred)
}

// ExecutePublish performs the outbound call for a post already marked
// publishing and records the terminal transition. On success the stored
// image binary is discarded; on failure it is kept for resubmission.
func (s *postService) ExecutePublish(ctx context.Context, post *models.Post, cred *Credential) (*transfer.PublishResult, error) {
	var result *transfer.PublishResult
	var err error

	if post.ImageKey != "" {
		var image []byte
		image, err = s.media.Download(ctx, post.ImageKey)
		if err == nil {
			result, err = s.pub.PublishImage(ctx, cred, post.Content, image, post.ImageContentType)
		}
	} else {
		result, err = s.pub.PublishText(ctx, cred, post.Content)
	}

	if err != nil {
		if markErr := s.pr.MarkFailed(ctx, post.ID, err.Error()); markErr != nil {
			slog.Info(markErr.Error())
		}
		return nil, err
	}

	if err := s.pr.MarkPublished(ctx, post.ID, result.PostID); err != nil {
		return nil, err
	}

	if post.ImageKey != "" {
		if err := s.media.Remove(ctx, post.ImageKey); err != nil {
			slog.Info("failed to remove published image object: " + err.Error())
		}
	}

	return result, nil
}

func (s *postService) History(ctx context.Context, skip, limit int) (*transfer.HistoryPage, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	posts, total, err := s.pr.ListHistory(ctx, skip, limit)
	if err != nil {
		return nil, err
	}

	return &transfer.HistoryPage{
		Posts: transfer.ToPostViews(posts),
		Total: total,
	}, nil
}
