package transfer

import "github.com/golang-jwt/jwt/v5"

type LoginRequest struct {
	Password string `json:"password"`
}

type SessionClaims struct {
	Authenticated bool `json:"authenticated"`
	jwt.RegisteredClaims
}
