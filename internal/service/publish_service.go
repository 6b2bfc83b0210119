package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/topcx/autoposter/internal/apperrors"
	"github.com/topcx/autoposter/internal/transfer"
)

const (
	linkedinPostsURL  = "https://api.linkedin.com/rest/posts"
	linkedinImagesURL = "https://api.linkedin.com/rest/images?action=initializeUpload"

	linkedinVersion = "202601"
)

// PublishService is the stateless LinkedIn publish client. It performs
// no retries; retry policy belongs to the caller.
type PublishService interface {
	PublishText(ctx context.Context, cred *Credential, content string) (*transfer.PublishResult, error)
	PublishImage(ctx context.Context, cred *Credential, content string, image []byte, contentType string) (*transfer.PublishResult, error)
}

type publishService struct {
	client       *http.Client
	uploadClient *http.Client
}

func NewPublishService() PublishService {
	return &publishService{
		client:       &http.Client{Timeout: 30 * time.Second},
		uploadClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func restHeaders(req *http.Request, accessToken string) {
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("LinkedIn-Version", linkedinVersion)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
}

func postBody(personURN, content string) map[string]any {
	return map[string]any{
		"author":     "urn:li:person:" + personURN,
		"commentary": content,
		"visibility": "PUBLIC",
		"distribution": map[string]any{
			"feedDistribution":               "MAIN_FEED",
			"targetEntities":                 []any{},
			"thirdPartyDistributionChannels": []any{},
		},
		"lifecycleState": "PUBLISHED",
	}
}

func (s *publishService) PublishText(ctx context.Context, cred *Credential, content string) (*transfer.PublishResult, error) {
	return s.createPost(ctx, cred, postBody(cred.PersonURN, content))
}

// PublishImage runs the strict three-step protocol: initialize the
// upload, transfer the binary, create the post referencing the media
// URN. Any step failing aborts the whole publish.
func (s *publishService) PublishImage(ctx context.Context, cred *Credential, content string, image []byte, contentType string) (*transfer.PublishResult, error) {
	init, err := s.initializeUpload(ctx, cred)
	if err != nil {
		return nil, err
	}

	if err := s.uploadBinary(ctx, cred, init.Value.UploadURL, image, contentType); err != nil {
		return nil, err
	}

	body := postBody(cred.PersonURN, content)
	body["content"] = map[string]any{
		"media": map[string]any{
			"title": "Image",
			"id":    init.Value.Image,
		},
	}

	return s.createPost(ctx, cred, body)
}

func (s *publishService) createPost(ctx context.Context, cred *Credential, body map[string]any) (*transfer.PublishResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, linkedinPostsURL, bytes.NewReader(payload))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	restHeaders(req, cred.AccessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, &apperrors.PublishError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, publishErrorFrom(resp)
	}

	return &transfer.PublishResult{PostID: resp.Header.Get("x-restli-id")}, nil
}

func (s *publishService) initializeUpload(ctx context.Context, cred *Credential) (*transfer.InitUploadResponse, error) {
	body := map[string]any{
		"initializeUploadRequest": map[string]any{
			"owner": "urn:li:person:" + cred.PersonURN,
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, linkedinImagesURL, bytes.NewReader(payload))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	restHeaders(req, cred.AccessToken)

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, &apperrors.PublishError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, publishErrorFrom(resp)
	}

	var init transfer.InitUploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&init); err != nil {
		slog.Info(err.Error())
		return nil, &apperrors.PublishError{Message: "invalid initializeUpload response: " + err.Error()}
	}

	return &init, nil
}

func (s *publishService) uploadBinary(ctx context.Context, cred *Credential, uploadURL string, image []byte, contentType string) error {
	if contentType == "" {
		contentType = "image/jpeg"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(image))
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Content-Type", contentType)

	resp, err := s.uploadClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return &apperrors.PublishError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return publishErrorFrom(resp)
	}

	return nil
}

func publishErrorFrom(resp *http.Response) *apperrors.PublishError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	err := &apperrors.PublishError{
		StatusCode: resp.StatusCode,
		Message:    string(body),
	}
	slog.Info(err.Error())
	return err
}
