package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	config "github.com/topcx/autoposter/configs"
	"github.com/topcx/autoposter/internal/apperrors"
	"github.com/topcx/autoposter/internal/models"
	"github.com/topcx/autoposter/pkg/utils"
)

type fakeLinkedinAccountRepository struct {
	account *models.LinkedinAccount
}

func (f *fakeLinkedinAccountRepository) Get(context.Context) (*models.LinkedinAccount, error) {
	return f.account, nil
}

func (f *fakeLinkedinAccountRepository) Upsert(_ context.Context, acc *models.LinkedinAccount) error {
	f.account = acc
	return nil
}

func (f *fakeLinkedinAccountRepository) UpdateTokens(_ context.Context, _ string, accessToken, refreshToken string, expiresAt time.Time) error {
	f.account.AccessToken = accessToken
	if refreshToken != "" {
		f.account.RefreshToken = refreshToken
	}
	f.account.TokenExpiresAt = expiresAt
	return nil
}

func (f *fakeLinkedinAccountRepository) RemoveAll(context.Context) error {
	f.account = nil
	return nil
}

var testSecretKey = "0123456789abcdef0123456789abcdef"

func newLinkedinFixture(account *models.LinkedinAccount) (LinkedinService, *fakeLinkedinAccountRepository) {
	repo := &fakeLinkedinAccountRepository{account: account}
	cfg := config.Config{
		LinkedinClientID:     "client",
		LinkedinClientSecret: "secret",
		LinkedinRedirectURI:  "http://localhost:3000/api/auth/linkedin/callback",
		SecretKey:            testSecretKey,
	}
	return NewLinkedinService(cfg, repo), repo
}

func encrypt(t *testing.T, value string) string {
	t.Helper()
	encrypted, err := utils.Encrypt([]byte(value), []byte(testSecretKey))
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	return encrypted
}

func TestCredentialRoundTrip(t *testing.T) {
	expires := time.Now().Add(48 * time.Hour).UTC()
	s, _ := newLinkedinFixture(&models.LinkedinAccount{
		PersonURN:      "abc123",
		AccessToken:    encrypt(t, "access-token-value"),
		RefreshToken:   encrypt(t, "refresh-token-value"),
		TokenExpiresAt: expires,
	})

	cred, err := s.Credential(context.Background())
	if err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if cred.AccessToken != "access-token-value" {
		t.Errorf("access token = %q, want decrypted original", cred.AccessToken)
	}
	if cred.RefreshToken != "refresh-token-value" {
		t.Errorf("refresh token = %q, want decrypted original", cred.RefreshToken)
	}
	if !cred.ExpiresAt.Equal(expires) {
		t.Errorf("expires at = %v, want %v", cred.ExpiresAt, expires)
	}
}

func TestCredentialPlaintextFallback(t *testing.T) {
	s, _ := newLinkedinFixture(&models.LinkedinAccount{
		PersonURN:   "abc123",
		AccessToken: "a legacy unencrypted token",
	})

	cred, err := s.Credential(context.Background())
	if err != nil {
		t.Fatalf("Credential() error = %v", err)
	}
	if cred.AccessToken != "a legacy unencrypted token" {
		t.Errorf("access token = %q, want the stored value as-is", cred.AccessToken)
	}
}

func TestCredentialWithoutAccount(t *testing.T) {
	s, _ := newLinkedinFixture(nil)

	_, err := s.Credential(context.Background())
	if !errors.Is(err, apperrors.ErrNotConnected) {
		t.Fatalf("Credential() error = %v, want ErrNotConnected", err)
	}
}

func TestConnectionStatusNeverExposesTokens(t *testing.T) {
	s, _ := newLinkedinFixture(&models.LinkedinAccount{
		PersonURN:      "abc123",
		AccessToken:    encrypt(t, "access-token-value"),
		RefreshToken:   encrypt(t, "refresh-token-value"),
		TokenExpiresAt: time.Now().Add(time.Hour),
		ProfileName:    "Ada",
		ProfileEmail:   "ada@example.com",
	})

	status, err := s.ConnectionStatus(context.Background())
	if err != nil {
		t.Fatalf("ConnectionStatus() error = %v", err)
	}
	if !status.Connected {
		t.Fatal("status not connected")
	}

	data, err := json.Marshal(status)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), "token-value") {
		t.Errorf("serialized status leaks token material: %s", data)
	}
}

func TestDisconnectRemovesAccount(t *testing.T) {
	s, repo := newLinkedinFixture(&models.LinkedinAccount{PersonURN: "abc123", AccessToken: "x"})

	if err := s.Disconnect(context.Background()); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if repo.account != nil {
		t.Error("account still stored after disconnect")
	}

	status, err := s.ConnectionStatus(context.Background())
	if err != nil {
		t.Fatalf("ConnectionStatus() error = %v", err)
	}
	if status.Connected {
		t.Error("status still connected after disconnect")
	}
}

func TestOAuthStateIsSingleUse(t *testing.T) {
	svc, _ := newLinkedinFixture(nil)
	s := svc.(*linkedinService)

	authURL, err := s.AuthURL()
	if err != nil {
		t.Fatalf("AuthURL() error = %v", err)
	}
	if !strings.Contains(authURL, "state=") {
		t.Fatalf("auth URL missing state parameter: %s", authURL)
	}

	var state string
	for k := range s.states {
		state = k
	}
	if state == "" {
		t.Fatal("no state recorded")
	}

	if !s.consumeState(state) {
		t.Error("fresh state rejected")
	}
	if s.consumeState(state) {
		t.Error("state accepted twice")
	}
}

func TestOAuthStateExpires(t *testing.T) {
	svc, _ := newLinkedinFixture(nil)
	s := svc.(*linkedinService)

	s.states["stale"] = time.Now().Add(-11 * time.Minute)
	if s.consumeState("stale") {
		t.Error("expired state accepted")
	}
}

func TestHandleCallbackRejectsBadInput(t *testing.T) {
	s, _ := newLinkedinFixture(nil)

	var validation *apperrors.ValidationError
	if err := s.HandleCallback(context.Background(), "", "whatever"); !errors.As(err, &validation) {
		t.Errorf("HandleCallback(empty code) error = %v, want validation error", err)
	}
	if err := s.HandleCallback(context.Background(), "code", "unknown-state"); !errors.As(err, &validation) {
		t.Errorf("HandleCallback(unknown state) error = %v, want validation error", err)
	}
}
