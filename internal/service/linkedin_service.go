package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	config "github.com/topcx/autoposter/configs"
	"github.com/topcx/autoposter/internal/apperrors"
	"github.com/topcx/autoposter/internal/models"
	"github.com/topcx/autoposter/internal/repository"
	"github.com/topcx/autoposter/internal/transfer"
	"github.com/topcx/autoposter/pkg/utils"
	"golang.org/x/oauth2"
)

const (
	linkedinAuthURL     = "https://www.linkedin.com/oauth/v2/authorization"
	linkedinTokenURL    = "https://www.linkedin.com/oauth/v2/accessToken"
	linkedinUserInfoURL = "https://api.linkedin.com/v2/userinfo"

	oauthStateTTL = 10 * time.Minute

	// LinkedIn access tokens default to 60 days when the token endpoint
	// omits an expiry.
	defaultTokenLifetime = 60 * 24 * time.Hour
)

// Credential is a decrypted, ready-to-use token set for outbound calls.
type Credential struct {
	PersonURN    string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

type LinkedinService interface {
	AuthURL() (string, error)
	HandleCallback(ctx context.Context, code, state string) error
	ConnectionStatus(ctx context.Context) (*transfer.ConnectionStatus, error)
	Disconnect(ctx context.Context) error
	Credential(ctx context.Context) (*Credential, error)
	Refresh(ctx context.Context, cred *Credential) (*Credential, error)
}

type linkedinService struct {
	cfg   config.Config
	oauth *oauth2.Config
	ar    repository.LinkedinAccountRepository

	mu     sync.Mutex
	states map[string]time.Time
}

func NewLinkedinService(cfg config.Config, ar repository.LinkedinAccountRepository) LinkedinService {
	return &linkedinService{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.LinkedinClientID,
			ClientSecret: cfg.LinkedinClientSecret,
			RedirectURL:  cfg.LinkedinRedirectURI,
			Scopes:       []string{"openid", "profile", "email", "w_member_social"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  linkedinAuthURL,
				TokenURL: linkedinTokenURL,
			},
		},
		ar:     ar,
		states: make(map[string]time.Time),
	}
}

// AuthURL returns the authorization URL with a fresh state parameter.
// States expire after ten minutes; callbacks carrying an unknown or
// expired state are rejected.
func (s *linkedinService) AuthURL() (string, error) {
	state, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}

	s.mu.Lock()
	now := time.Now()
	for k, issued := range s.states {
		if now.Sub(issued) > oauthStateTTL {
			delete(s.states, k)
		}
	}
	s.states[state] = now
	s.mu.Unlock()

	return s.oauth.AuthCodeURL(state), nil
}

func (s *linkedinService) consumeState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	issued, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return time.Since(issued) <= oauthStateTTL
}

func (s *linkedinService) HandleCallback(ctx context.Context, code, state string) error {
	if code == "" {
		return apperrors.Validation("code is empty")
	}
	if !s.consumeState(state) {
		return apperrors.Validation("invalid or expired OAuth state")
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("code exchange failed: %w", err)
	}

	userInfo, err := s.fetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		return err
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return err
	}

	encryptedRefreshToken := ""
	if token.RefreshToken != "" {
		encryptedRefreshToken, err = utils.Encrypt([]byte(token.RefreshToken), []byte(s.cfg.SecretKey))
		if err != nil {
			return err
		}
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(defaultTokenLifetime)
	}

	account := &models.LinkedinAccount{
		PersonURN:      userInfo.Sub,
		AccessToken:    encryptedAccessToken,
		RefreshToken:   encryptedRefreshToken,
		TokenExpiresAt: expiresAt,
		ProfileName:    userInfo.Name,
		ProfileEmail:   userInfo.Email,
		ProfilePicture: userInfo.Picture,
	}

	return s.ar.Upsert(ctx, account)
}

func (s *linkedinService) fetchUserInfo(ctx context.Context, accessToken string) (*transfer.UserInfoResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, linkedinUserInfoURL, nil)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = errors.New("userinfo endpoint returned non-200 status")
		slog.Info(err.Error())
		return nil, err
	}

	var userInfo transfer.UserInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &userInfo, nil
}

func (s *linkedinService) ConnectionStatus(ctx context.Context) (*transfer.ConnectionStatus, error) {
	account, err := s.ar.Get(ctx)
	if err != nil {
		return nil, err
	}
	if account == nil || account.AccessToken == "" {
		return &transfer.ConnectionStatus{Connected: false}, nil
	}

	return &transfer.ConnectionStatus{
		Connected: true,
		PersonURN: account.PersonURN,
		Profile: &transfer.ProfileInfo{
			Name:    account.ProfileName,
			Email:   account.ProfileEmail,
			Picture: account.ProfilePicture,
		},
		ExpiresAt: account.TokenExpiresAt.UTC().Format(time.RFC3339),
	}, nil
}

func (s *linkedinService) Disconnect(ctx context.Context) error {
	return s.ar.RemoveAll(ctx)
}

// Credential loads and decrypts the stored token set. Returns
// ErrNotConnected when no account is stored.
func (s *linkedinService) Credential(ctx context.Context) (*Credential, error) {
	account, err := s.ar.Get(ctx)
	if err != nil {
		return nil, err
	}
	if account == nil || account.AccessToken == "" {
		return nil, apperrors.ErrNotConnected
	}

	cred := &Credential{
		PersonURN:   account.PersonURN,
		AccessToken: s.decryptToken(account.AccessToken),
		ExpiresAt:   account.TokenExpiresAt,
	}
	if account.RefreshToken != "" {
		cred.RefreshToken = s.decryptToken(account.RefreshToken)
	}

	return cred, nil
}

// decryptToken tolerates legacy plaintext rows: values that fail AES-GCM
// are returned as stored.
func (s *linkedinService) decryptToken(value string) string {
	plaintext, err := utils.Decrypt(value, []byte(s.cfg.SecretKey))
	if err != nil {
		return value
	}
	return plaintext
}

// Refresh exchanges the refresh token for a new access token and updates
// the stored record in place.
func (s *linkedinService) Refresh(ctx context.Context, cred *Credential) (*Credential, error) {
	if cred.RefreshToken == "" {
		return nil, errors.New("no refresh token stored")
	}

	source := s.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: cred.RefreshToken})
	token, err := source.Token()
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	expiresAt := token.Expiry
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(defaultTokenLifetime)
	}

	encryptedAccessToken, err := utils.Encrypt([]byte(token.AccessToken), []byte(s.cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	encryptedRefreshToken := ""
	refreshToken := cred.RefreshToken
	if token.RefreshToken != "" && token.RefreshToken != cred.RefreshToken {
		refreshToken = token.RefreshToken
		encryptedRefreshToken, err = utils.Encrypt([]byte(token.RefreshToken), []byte(s.cfg.SecretKey))
		if err != nil {
			return nil, err
		}
	}

	err = s.ar.UpdateTokens(ctx, cred.PersonURN, encryptedAccessToken, encryptedRefreshToken, expiresAt)
	if err != nil {
		return nil, err
	}

	return &Credential{
		PersonURN:    cred.PersonURN,
		AccessToken:  token.AccessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}
