package service

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	config "github.com/topcx/autoposter/configs"
	"github.com/topcx/autoposter/pkg/utils"
)

const sessionDuration = 30 * 24 * time.Hour

type AuthService interface {
	Login(password string) (string, error)
	SessionDuration() time.Duration
}

type authService struct {
	cfg config.Config
}

func NewAuthService(cfg config.Config) AuthService {
	return &authService{cfg: cfg}
}

// Login checks the admin password and returns a signed session token.
func (s *authService) Login(password string) (string, error) {
	if s.cfg.AdminPassword == "" {
		err := errors.New("admin password is not configured")
		slog.Info(err.Error())
		return "", err
	}

	if subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) != 1 {
		return "", errors.New("invalid password")
	}

	return utils.GenerateToken(s.cfg.SecretKey, sessionDuration)
}

func (s *authService) SessionDuration() time.Duration {
	return sessionDuration
}
