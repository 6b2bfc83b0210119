package service

import (
	"context"
	"sort"
	"time"

	"github.com/topcx/autoposter/internal/apperrors"
	"github.com/topcx/autoposter/internal/models"
	"github.com/topcx/autoposter/internal/repository"
	"github.com/topcx/autoposter/internal/transfer"
)

// fakePostRepository is an in-memory PostRepository with enough real
// behavior to drive the services under test.
type fakePostRepository struct {
	posts       map[int64]*models.Post
	nextID      int64
	scheduledAt map[time.Time]int
	scheduled   []int64
}

func newFakePostRepository() *fakePostRepository {
	return &fakePostRepository{
		posts:       make(map[int64]*models.Post),
		scheduledAt: make(map[time.Time]int),
	}
}

func (f *fakePostRepository) add(post *models.Post) *models.Post {
	f.nextID++
	post.ID = f.nextID
	f.posts[post.ID] = post
	return post
}

func (f *fakePostRepository) Create(_ context.Context, post *models.Post) (int64, error) {
	copied := *post
	return f.add(&copied).ID, nil
}

func (f *fakePostRepository) GetByID(_ context.Context, id int64) (*models.Post, error) {
	post, ok := f.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *post
	return &copied, nil
}

func (f *fakePostRepository) Update(_ context.Context, id int64, patch *repository.PostPatch) error {
	post, ok := f.posts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}
	if patch.PostType != nil {
		post.PostType = *patch.PostType
	}
	if patch.Status != nil {
		post.Status = *patch.Status
	}
	if patch.ScheduledTime != nil {
		if *patch.ScheduledTime == nil {
			post.ScheduledTime.Valid = false
		} else {
			post.ScheduledTime.Time = **patch.ScheduledTime
			post.ScheduledTime.Valid = true
		}
	}
	return nil
}

func (f *fakePostRepository) Remove(_ context.Context, id int64) error {
	if _, ok := f.posts[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(f.posts, id)
	return nil
}

func (f *fakePostRepository) active() []*models.Post {
	var posts []*models.Post
	for _, post := range f.posts {
		if post.Status == models.PostStatusDraft || post.Status == models.PostStatusScheduled {
			posts = append(posts, post)
		}
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].QueueOrder < posts[j].QueueOrder })
	return posts
}

func (f *fakePostRepository) ListActive(_ context.Context) ([]*models.Post, error) {
	return f.active(), nil
}

func (f *fakePostRepository) ListDue(_ context.Context, now time.Time, limit int) ([]*models.Post, error) {
	var due []*models.Post
	for _, post := range f.posts {
		if post.Status == models.PostStatusScheduled && post.ScheduledTime.Valid && !post.ScheduledTime.Time.After(now) {
			due = append(due, post)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledTime.Time.Before(due[j].ScheduledTime.Time) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (f *fakePostRepository) ListHistory(_ context.Context, skip, limit int) ([]*models.Post, int, error) {
	var history []*models.Post
	for _, post := range f.posts {
		if post.Status == models.PostStatusPublished || post.Status == models.PostStatusFailed {
			history = append(history, post)
		}
	}
	total := len(history)
	if skip > len(history) {
		skip = len(history)
	}
	history = history[skip:]
	if len(history) > limit {
		history = history[:limit]
	}
	return history, total, nil
}

func (f *fakePostRepository) ListUnscheduledDrafts(_ context.Context, limit int) ([]*models.Post, error) {
	var drafts []*models.Post
	for _, post := range f.posts {
		if post.Status == models.PostStatusDraft && !post.ScheduledTime.Valid {
			drafts = append(drafts, post)
		}
	}
	sort.Slice(drafts, func(i, j int) bool { return drafts[i].QueueOrder < drafts[j].QueueOrder })
	if len(drafts) > limit {
		drafts = drafts[:limit]
	}
	return drafts, nil
}

func (f *fakePostRepository) CountPublishedSince(_ context.Context, since time.Time) (int, error) {
	count := 0
	for _, post := range f.posts {
		if post.Status == models.PostStatusPublished && post.PublishedAt.Valid && !post.PublishedAt.Time.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakePostRepository) CountScheduledAt(_ context.Context, slot time.Time) (int, error) {
	return f.scheduledAt[slot], nil
}

func (f *fakePostRepository) NextQueueOrder(_ context.Context) (int, error) {
	next := 1
	for _, post := range f.active() {
		if post.QueueOrder >= next {
			next = post.QueueOrder + 1
		}
	}
	return next, nil
}

func (f *fakePostRepository) Reorder(_ context.Context, ids []int64) error {
	for i, id := range ids {
		if post, ok := f.posts[id]; ok {
			post.QueueOrder = i + 1
		}
	}
	return nil
}

func (f *fakePostRepository) Schedule(_ context.Context, id int64, slot time.Time) error {
	post, ok := f.posts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	post.Status = models.PostStatusScheduled
	post.ScheduledTime.Time = slot
	post.ScheduledTime.Valid = true
	f.scheduledAt[slot]++
	f.scheduled = append(f.scheduled, id)
	return nil
}

func (f *fakePostRepository) MarkPublishing(_ context.Context, id int64, fromStatuses []string) error {
	post, ok := f.posts[id]
	if !ok {
		return apperrors.ErrStatusConflict
	}
	for _, status := range fromStatuses {
		if post.Status == status {
			post.Status = models.PostStatusPublishing
			return nil
		}
	}
	return apperrors.ErrStatusConflict
}

func (f *fakePostRepository) MarkPublished(_ context.Context, id int64, linkedinPostID string) error {
	post, ok := f.posts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	post.Status = models.PostStatusPublished
	post.LinkedinPostID = linkedinPostID
	post.Error = ""
	post.ImageKey = ""
	post.PublishedAt.Time = time.Now().UTC()
	post.PublishedAt.Valid = true
	return nil
}

func (f *fakePostRepository) MarkFailed(_ context.Context, id int64, message string) error {
	post, ok := f.posts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	post.Status = models.PostStatusFailed
	post.Error = message
	return nil
}

func (f *fakePostRepository) SetImage(_ context.Context, id int64, key, contentType string) error {
	post, ok := f.posts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	post.ImageKey = key
	post.ImageContentType = contentType
	post.PostType = models.PostTypeImage
	return nil
}

func (f *fakePostRepository) ClearImage(_ context.Context, id int64) error {
	post, ok := f.posts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	post.ImageKey = ""
	post.ImageContentType = ""
	post.ImageURN = ""
	post.PostType = models.PostTypeText
	return nil
}

type fakeSettingsRepository struct {
	values map[string][]byte
}

func newFakeSettingsRepository() *fakeSettingsRepository {
	return &fakeSettingsRepository{values: make(map[string][]byte)}
}

func (f *fakeSettingsRepository) Get(_ context.Context, key string) ([]byte, bool, error) {
	value, ok := f.values[key]
	return value, ok, nil
}

func (f *fakeSettingsRepository) Set(_ context.Context, key string, value []byte) error {
	f.values[key] = value
	return nil
}

type fakeSettingsService struct {
	schedule models.ScheduleSettings
	ai       models.AISettings
}

func (f *fakeSettingsService) GetScheduleSettings(context.Context) (models.ScheduleSettings, error) {
	return f.schedule, nil
}

func (f *fakeSettingsService) UpdateScheduleSettings(_ context.Context, settings models.ScheduleSettings) error {
	f.schedule = settings
	return nil
}

func (f *fakeSettingsService) GetAISettings(context.Context) (models.AISettings, error) {
	return f.ai, nil
}

func (f *fakeSettingsService) UpdateAISettings(_ context.Context, settings models.AISettings) error {
	f.ai = settings
	return nil
}

type fakeLinkedinService struct {
	cred    *Credential
	credErr error
}

func (f *fakeLinkedinService) AuthURL() (string, error) { return "", nil }

func (f *fakeLinkedinService) HandleCallback(context.Context, string, string) error { return nil }

func (f *fakeLinkedinService) ConnectionStatus(context.Context) (*transfer.ConnectionStatus, error) {
	return &transfer.ConnectionStatus{Connected: f.cred != nil}, nil
}

func (f *fakeLinkedinService) Disconnect(context.Context) error { return nil }

func (f *fakeLinkedinService) Credential(context.Context) (*Credential, error) {
	if f.credErr != nil {
		return nil, f.credErr
	}
	return f.cred, nil
}

func (f *fakeLinkedinService) Refresh(_ context.Context, cred *Credential) (*Credential, error) {
	return cred, nil
}

type publishCall struct {
	content     string
	imageSize   int
	contentType string
}

type fakePublishService struct {
	result *transfer.PublishResult
	err    error
	calls  []publishCall
}

func (f *fakePublishService) PublishText(_ context.Context, _ *Credential, content string) (*transfer.PublishResult, error) {
	f.calls = append(f.calls, publishCall{content: content})
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakePublishService) PublishImage(_ context.Context, _ *Credential, content string, image []byte, contentType string) (*transfer.PublishResult, error) {
	f.calls = append(f.calls, publishCall{content: content, imageSize: len(image), contentType: contentType})
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeMediaStorage struct {
	objects     map[string][]byte
	removed     []string
	downloadErr error
}

func newFakeMediaStorage() *fakeMediaStorage {
	return &fakeMediaStorage{objects: make(map[string][]byte)}
}

func (f *fakeMediaStorage) Upload(_ context.Context, key string, data []byte, _ string) error {
	f.objects[key] = data
	return nil
}

func (f *fakeMediaStorage) Download(_ context.Context, key string) ([]byte, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	return f.objects[key], nil
}

func (f *fakeMediaStorage) Remove(_ context.Context, key string) error {
	delete(f.objects, key)
	f.removed = append(f.removed, key)
	return nil
}
