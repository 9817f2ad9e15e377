package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"vitalnotes/internal/domain"
	"vitalnotes/internal/ports"
)

const (
	KeyToken = "token"
	KeyUser  = "user"
)

// SessionListener is notified after the session is established or cleared.
// active is false after a clear.
type SessionListener func(session domain.Session, active bool)

// SessionStore owns the authenticated identity and its bearer token. Both
// are written and cleared together, in memory and in durable storage.
type SessionStore struct {
	storage ports.SessionStorage
	logger  ports.Logger

	mu        sync.RWMutex
	session   *domain.Session
	listeners []SessionListener
}

func NewSessionStore(storage ports.SessionStorage, logger ports.Logger) *SessionStore {
	return &SessionStore{storage: storage, logger: logger}
}

func (s *SessionStore) OnChange(listener SessionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, listener)
}

func (s *SessionStore) Establish(ctx context.Context, identity domain.Identity, token string) error {
	if token == "" {
		return fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}
	identity = identity.Normalized()
	raw, err := json.Marshal(identity)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.storage.Put(ctx, map[string]string{KeyToken: token, KeyUser: string(raw)}); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("persist session: %w", err)
	}
	session := domain.Session{Identity: identity, Token: token}
	s.session = &session
	listeners := s.listeners
	s.mu.Unlock()

	s.notify(listeners, session, true)
	return nil
}

// Clear always drops the in-memory session. The durable delete is tried
// twice; if both attempts fail the persisted pair is still in storage and
// the error is returned after the fact.
func (s *SessionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	err := s.storage.Delete(ctx, KeyToken, KeyUser)
	if err != nil {
		s.logger.Warn(ctx, "retrying persisted session removal", "error", err)
		err = s.storage.Delete(ctx, KeyToken, KeyUser)
	}
	s.session = nil
	listeners := s.listeners
	s.mu.Unlock()

	s.notify(listeners, domain.Session{}, false)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Rehydrate loads the session persisted by a previous process. Corrupt or
// partial state is discarded and treated as no session.
func (s *SessionStore) Rehydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rawUser, hasUser, err := s.storage.Get(ctx, KeyUser)
	if err != nil {
		return fmt.Errorf("load session user: %w", err)
	}
	token, hasToken, err := s.storage.Get(ctx, KeyToken)
	if err != nil {
		return fmt.Errorf("load session token: %w", err)
	}
	s.session = nil
	if !hasUser && !hasToken {
		return nil
	}

	if hasUser && hasToken && token != "" {
		identity, err := decodeIdentity(rawUser)
		if err == nil {
			session := domain.Session{Identity: identity.Normalized(), Token: token}
			s.session = &session
			return nil
		}
		s.logger.Warn(ctx, "failed to parse saved user", "error", err)
	} else {
		s.logger.Warn(ctx, "discarding partial persisted session", "has_user", hasUser, "has_token", hasToken)
	}

	if err := s.storage.Delete(ctx, KeyToken, KeyUser); err != nil {
		s.logger.Error(ctx, "failed to discard persisted session", "error", err)
	}
	return nil
}

func (s *SessionStore) Current() (domain.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return domain.Identity{}, false
	}
	return s.session.Identity, true
}

func (s *SessionStore) Session() (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return domain.Session{}, false
	}
	return *s.session, true
}

func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return ""
	}
	return s.session.Token
}

func decodeIdentity(raw string) (domain.Identity, error) {
	var identity *domain.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		return domain.Identity{}, err
	}
	if identity == nil {
		return domain.Identity{}, errors.New("saved user is null")
	}
	return *identity, nil
}

func (s *SessionStore) notify(listeners []SessionListener, session domain.Session, active bool) {
	for _, listener := range listeners {
		listener(session, active)
	}
}
