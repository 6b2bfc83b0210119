package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/topcx/autoposter/internal/apperrors"
	"github.com/topcx/autoposter/internal/models"
	"github.com/topcx/autoposter/internal/repository"
	"github.com/topcx/autoposter/internal/service"
)

// refreshWindow is how close to expiry the access token may get before a
// cycle tries a proactive refresh.
const refreshWindow = 7 * 24 * time.Hour

// PublisherJob is one publication cycle: enforce the daily cap, ensure a
// usable credential, and drive every due post through the publish state
// machine with per-post failure isolation.
type PublisherJob struct {
	pr  repository.PostRepository
	ls  service.LinkedinService
	ps  service.PostService
	ss  service.SettingsService
	now func() time.Time
}

func NewPublisherJob(
	pr repository.PostRepository,
	ls service.LinkedinService,
	ps service.PostService,
	ss service.SettingsService) *PublisherJob {
	return &PublisherJob{
		pr:  pr,
		ls:  ls,
		ps:  ps,
		ss:  ss,
		now: time.Now,
	}
}

func (j *PublisherJob) Run(ctx context.Context) error {
	now := j.now().UTC()

	settings, err := j.ss.GetScheduleSettings(ctx)
	if err != nil {
		return err
	}
	dailyCap := settings.DailyCap

	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	publishedToday, err := j.pr.CountPublishedSince(ctx, todayStart)
	if err != nil {
		return err
	}
	if publishedToday >= dailyCap {
		slog.Info(fmt.Sprintf("daily cap reached (%d/%d), skipping cycle", publishedToday, dailyCap))
		return nil
	}

	cred, err := j.ls.Credential(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotConnected) {
			slog.Info("no linkedin credential stored, skipping cycle")
			return nil
		}
		return err
	}

	cred = j.refreshIfNeeded(ctx, cred)

	due, err := j.pr.ListDue(ctx, now, dailyCap-publishedToday)
	if err != nil {
		return err
	}

	published := 0
	for _, post := range due {
		// Claiming the post first makes a crash mid-cycle visible as a
		// stuck publishing row instead of a silent stall.
		err := j.pr.MarkPublishing(ctx, post.ID, []string{models.PostStatusScheduled})
		if err != nil {
			slog.Info(fmt.Sprintf("skipping post %d: %v", post.ID, err))
			continue
		}

		result, err := j.ps.ExecutePublish(ctx, post, cred)
		if err != nil {
			slog.Info(fmt.Sprintf("failed to publish post %d: %v", post.ID, err))
			continue
		}

		published++
		slog.Info(fmt.Sprintf("published post %d -> %s", post.ID, result.PostID))
	}

	slog.Info(fmt.Sprintf("cycle complete: %d posts published", published))
	return nil
}

// refreshIfNeeded proactively refreshes a token expiring within the
// refresh window. Refresh failure is non-fatal; the cycle continues with
// the existing token.
func (j *PublisherJob) refreshIfNeeded(ctx context.Context, cred *service.Credential) *service.Credential {
	if cred.RefreshToken == "" || cred.ExpiresAt.IsZero() {
		return cred
	}
	if cred.ExpiresAt.Sub(j.now()) > refreshWindow {
		return cred
	}

	slog.Info(fmt.Sprintf("token expires at %s, refreshing", cred.ExpiresAt.UTC().Format(time.RFC3339)))
	refreshed, err := j.ls.Refresh(ctx, cred)
	if err != nil {
		slog.Info("token refresh failed: " + err.Error())
		return cred
	}
	return refreshed
}
