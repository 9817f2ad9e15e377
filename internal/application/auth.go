package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"vitalnotes/internal/domain"
	"vitalnotes/internal/ports"
)

type AuthGateway struct {
	api      ports.AuthAPI
	sessions *SessionStore
	validate *validator.Validate
	logger   ports.Logger
}

func NewAuthGateway(api ports.AuthAPI, sessions *SessionStore, logger ports.Logger) *AuthGateway {
	return &AuthGateway{api: api, sessions: sessions, validate: validator.New(), logger: logger}
}

// Login authenticates against the remote API and establishes the session.
// No session state is touched unless the response carries both a token and
// a user.
func (g *AuthGateway) Login(ctx context.Context, email, password string) (domain.Identity, error) {
	creds := domain.Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := g.validate.Struct(creds); err != nil {
		return domain.Identity{}, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	resp, err := g.api.Login(ctx, creds)
	if err != nil {
		g.logger.Error(ctx, "login request failed", "email", creds.Email, "error", err)
		message := domain.MsgLoginFailed
		var apiErr *domain.APIError
		switch {
		case errors.As(err, &apiErr) && apiErr.Message != "":
			message = apiErr.Message
		case errors.Is(err, domain.ErrInvalidServerResponse):
			message = domain.MsgInvalidResponse
		}
		return domain.Identity{}, &domain.LoginError{Message: message, Err: err}
	}

	if resp.Token == nil || *resp.Token == "" || resp.User == nil {
		g.logger.Error(ctx, "login response missing token or user", "email", creds.Email)
		return domain.Identity{}, &domain.LoginError{Message: domain.MsgInvalidResponse, Err: domain.ErrInvalidServerResponse}
	}

	identity := resp.User.Normalized()
	if !identity.Role.Known() {
		g.logger.Warn(ctx, "login returned unknown role", "role", identity.Role)
	}
	if err := g.sessions.Establish(ctx, identity, *resp.Token); err != nil {
		return domain.Identity{}, err
	}
	g.logger.Info(ctx, "logged in", "user_id", identity.ID, "role", identity.Role)
	return identity, nil
}

// Logout never fails; storage errors are only logged.
func (g *AuthGateway) Logout(ctx context.Context) {
	if err := g.sessions.Clear(ctx); err != nil {
		g.logger.Error(ctx, "logged out locally but the persisted session could not be removed; it will be restored on next start", "error", err)
		return
	}
	g.logger.Info(ctx, "logged out")
}
