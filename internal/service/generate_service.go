package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	config "github.com/topcx/autoposter/configs"
	"github.com/topcx/autoposter/internal/apperrors"
	"github.com/topcx/autoposter/internal/transfer"
)

const systemPrompt = `You are an expert LinkedIn content writer. You create engaging, professional posts that drive engagement and grow personal brand visibility.

Guidelines:
- Keep posts concise (under 3000 characters)
- Use line breaks for readability
- Include a hook in the first line to stop the scroll
- End with a call-to-action or thought-provoking question
- Use relevant hashtags (3-5 max) at the end
- Do NOT use markdown formatting (no bold, italic, headers) - LinkedIn doesn't render it
- Use emojis sparingly and only when appropriate for the tone`

const maxVariants = 3

type GenerateService interface {
	Generate(ctx context.Context, req *transfer.GenerateRequest) ([]string, error)
	Improve(ctx context.Context, req *transfer.ImproveRequest) (string, error)
}

type generateService struct {
	cfg    config.Config
	ss     SettingsService
	client *http.Client
}

func NewGenerateService(cfg config.Config, ss SettingsService) GenerateService {
	return &generateService{
		cfg:    cfg,
		ss:     ss,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func toneInstruction(tone string) string {
	switch tone {
	case "casual":
		return "Use a conversational, approachable tone. Write like you're talking to a friend."
	case "thought-leadership":
		return "Use a visionary, forward-thinking tone. Share unique insights and challenge conventional thinking."
	case "storytelling":
		return "Use a narrative, story-driven tone. Start with a personal anecdote or scenario."
	default:
		return "Use a professional, authoritative tone. Back claims with data or experience."
	}
}

func typeInstruction(postType string) string {
	switch postType {
	case "insight":
		return "Share a specific insight or lesson learned. Start with the key takeaway."
	case "article_share":
		return "Write a post that introduces and comments on an article or trend. Frame why it matters."
	case "poll_intro":
		return "Write an engaging intro for a LinkedIn poll. Pose the question clearly and explain why it matters."
	default:
		return "Write a standard text post."
	}
}

func (s *generateService) Generate(ctx context.Context, req *transfer.GenerateRequest) ([]string, error) {
	if req.Topic == "" {
		return nil, apperrors.Validation("topic must not be empty")
	}

	parts := []string{
		"Topic: " + req.Topic,
		"Tone: " + toneInstruction(req.Tone),
		"Type: " + typeInstruction(req.PostType),
	}
	if req.AdditionalContext != "" {
		parts = append(parts, "Additional context: "+req.AdditionalContext)
	}
	parts = append(parts, fmt.Sprintf("Generate %d different LinkedIn post variants. Separate each variant with '---'.", maxVariants))

	raw, err := s.complete(ctx, strings.Join(parts, "\n\n"))
	if err != nil {
		return nil, err
	}

	var variants []string
	for _, v := range strings.Split(raw, "---") {
		if v = strings.TrimSpace(v); v != "" {
			variants = append(variants, v)
		}
	}
	if len(variants) < 2 {
		variants = []string{strings.TrimSpace(raw)}
	}
	if len(variants) > maxVariants {
		variants = variants[:maxVariants]
	}
	return variants, nil
}

func (s *generateService) Improve(ctx context.Context, req *transfer.ImproveRequest) (string, error) {
	if req.Content == "" {
		return "", apperrors.Validation("content must not be empty")
	}

	parts := []string{
		"Improve the following LinkedIn post. Make it more engaging, clearer, and better structured.",
		"Original post:\n" + req.Content,
	}
	if req.Instructions != "" {
		parts = append(parts, "Specific instructions: "+req.Instructions)
	}
	parts = append(parts, "Return the improved version only. Do not include explanations.")

	improved, err := s.complete(ctx, strings.Join(parts, "\n\n"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(improved), nil
}

// complete dispatches to the configured provider. Transient provider
// failures (rate limits, 5xx, network errors) are retried a few times.
func (s *generateService) complete(ctx context.Context, prompt string) (string, error) {
	settings, err := s.ss.GetAISettings(ctx)
	if err != nil {
		slog.Info(err.Error())
	}

	provider := settings.Provider
	if provider == "" {
		provider = s.cfg.AIProvider
	}

	var result string
	err = retry.Do(
		func() error {
			var callErr error
			if provider == "anthropic" {
				result, callErr = s.completeAnthropic(ctx, prompt)
			} else {
				result, callErr = s.completeOpenAI(ctx, prompt)
			}
			return callErr
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.MaxDelay(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			slog.Info(fmt.Sprintf("AI generation attempt %d failed: %v", n+1, err))
		}),
		retry.RetryIf(func(err error) bool {
			var transient *transientError
			return errors.As(err, &transient)
		}),
	)
	if err != nil {
		return "", err
	}
	return result, nil
}

type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func (s *generateService) completeOpenAI(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model": "gpt-4o",
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": prompt},
		},
		"temperature": 0.8,
		"max_tokens":  4000,
	}

	respBody, err := s.post(ctx, "https://api.openai.com/v1/chat/completions", body, map[string]string{
		"Authorization": "Bearer " + s.cfg.OpenAIKey,
	})
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		slog.Info(err.Error())
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (s *generateService) completeAnthropic(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":      "claude-sonnet-4-5",
		"max_tokens": 4000,
		"system":     systemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	respBody, err := s.post(ctx, "https://api.anthropic.com/v1/messages", body, map[string]string{
		"x-api-key":         s.cfg.AnthropicKey,
		"anthropic-version": "2023-06-01",
	})
	if err != nil {
		return "", err
	}

	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		slog.Info(err.Error())
		return "", err
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("empty completion response")
	}
	return parsed.Content[0].Text, nil
}

func (s *generateService) post(ctx context.Context, url string, body map[string]any, headers map[string]string) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &transientError{err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &transientError{err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &transientError{err: fmt.Errorf("provider returned %d: %s", resp.StatusCode, respBody)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, respBody)
	}

	return respBody, nil
}
