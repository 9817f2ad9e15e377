package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"vitalnotes/internal/domain"
)

// ErrOpaqueToken is returned for bearer tokens that are not JWTs.
var ErrOpaqueToken = errors.New("token is not a jwt")

// TokenInspector reads the registered claims of a bearer token without
// verifying its signature. The result is informational only; the remote
// API is the one that validates tokens.
type TokenInspector struct {
	parser *jwt.Parser
}

func NewTokenInspector() *TokenInspector {
	return &TokenInspector{parser: jwt.NewParser()}
}

func (i *TokenInspector) Inspect(token string) (domain.TokenInfo, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer"))
	if strings.Count(token, ".") != 2 {
		return domain.TokenInfo{}, ErrOpaqueToken
	}
	claims := jwt.RegisteredClaims{}
	if _, _, err := i.parser.ParseUnverified(token, &claims); err != nil {
		return domain.TokenInfo{}, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}
	info := domain.TokenInfo{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
