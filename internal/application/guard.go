package application

import "vitalnotes/internal/domain"

// Decide is the stateless guard rule. A nil identity means no session.
func Decide(identity *domain.Identity, required []domain.Role, policy *RolePolicy) domain.Decision {
	if identity == nil {
		return domain.DenyNotLoggedIn
	}
	if len(required) == 0 {
		return domain.Allow
	}
	if policy.HasAnyRole(identity, required) {
		return domain.Allow
	}
	return domain.DenyInsufficientRole
}

// AccessGuard evaluates protected views against the current session. It is
// a UX affordance only; the remote API authorizes every request itself.
type AccessGuard struct {
	sessions *SessionStore
	policy   *RolePolicy
}

func NewAccessGuard(sessions *SessionStore, policy *RolePolicy) *AccessGuard {
	return &AccessGuard{sessions: sessions, policy: policy}
}

func (g *AccessGuard) Decide(required ...domain.Role) domain.Decision {
	return Decide(g.identity(), required, g.policy)
}

func (g *AccessGuard) DecideAction(action domain.Action) domain.Decision {
	return g.decideAction(g.identity(), action)
}

// Guard runs content only when the current session satisfies required.
func (g *AccessGuard) Guard(required []domain.Role, content func(domain.Identity) error) error {
	identity := g.identity()
	if decision := Decide(identity, required, g.policy); decision != domain.Allow {
		return &domain.DeniedError{Decision: decision}
	}
	return content(*identity)
}

func (g *AccessGuard) GuardAction(action domain.Action, content func(domain.Identity) error) error {
	identity := g.identity()
	if decision := g.decideAction(identity, action); decision != domain.Allow {
		return &domain.DeniedError{Decision: decision}
	}
	return content(*identity)
}

func (g *AccessGuard) Policy() *RolePolicy { return g.policy }

func (g *AccessGuard) decideAction(identity *domain.Identity, action domain.Action) domain.Decision {
	switch {
	case identity == nil:
		return domain.DenyNotLoggedIn
	case !g.policy.Can(identity, action):
		return domain.DenyInsufficientRole
	default:
		return domain.Allow
	}
}

func (g *AccessGuard) identity() *domain.Identity {
	identity, ok := g.sessions.Current()
	if !ok {
		return nil
	}
	return &identity
}
