package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalnotes/internal/domain"
)

func newGuard(t *testing.T, identity *domain.Identity) *AccessGuard {
	t.Helper()
	sessions := NewSessionStore(newMemStorage(), &recordingLogger{})
	if identity != nil {
		require.NoError(t, sessions.Establish(context.Background(), *identity, "T1"))
	}
	return NewAccessGuard(sessions, NewRolePolicy(domain.DefaultPermissions()))
}

func TestDecide(t *testing.T) {
	policy := NewRolePolicy(domain.DefaultPermissions())
	nurse := &domain.Identity{ID: 2, Role: domain.RoleNurse}

	tests := []struct {
		name     string
		identity *domain.Identity
		required []domain.Role
		want     domain.Decision
	}{
		{"no session with roles", nil, []domain.Role{domain.RoleAdmin}, domain.DenyNotLoggedIn},
		{"no session without roles", nil, nil, domain.DenyNotLoggedIn},
		{"authenticated without roles", nurse, nil, domain.Allow},
		{"role matches", nurse, []domain.Role{domain.RoleDoctor, domain.RoleNurse}, domain.Allow},
		{"role matches ignoring case", nurse, []domain.Role{"nurse"}, domain.Allow},
		{"role missing", nurse, []domain.Role{domain.RoleAdmin}, domain.DenyInsufficientRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.identity, tt.required, policy))
		})
	}
}

func TestAccessGuard_NurseCannotReachAdminView(t *testing.T) {
	guard := newGuard(t, &domain.Identity{ID: 2, Role: domain.RoleNurse})
	called := false

	err := guard.Guard([]domain.Role{domain.RoleAdmin}, func(domain.Identity) error {
		called = true
		return nil
	})

	assert.False(t, called)
	var denied *domain.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, domain.DenyInsufficientRole, denied.Decision)
	assert.ErrorIs(t, err, domain.ErrPermissionDeny)
	assert.Equal(t, "You do not have permission to access this section.", err.Error())
}

func TestAccessGuard_AnonymousIsAskedToLogIn(t *testing.T) {
	guard := newGuard(t, nil)

	err := guard.Guard(nil, func(domain.Identity) error { return nil })

	var denied *domain.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, domain.DenyNotLoggedIn, denied.Decision)
	assert.Equal(t, "Please login to view this section.", err.Error())
	assert.Equal(t, domain.DenyNotLoggedIn, guard.DecideAction(domain.ActionViewAllRecords))
}

func TestAccessGuard_AllowedContentReceivesIdentity(t *testing.T) {
	guard := newGuard(t, &domain.Identity{ID: 9, Name: "Ana", Role: "doctor"})
	contentErr := errors.New("render failed")

	var seen domain.Identity
	err := guard.Guard([]domain.Role{domain.RoleDoctor}, func(identity domain.Identity) error {
		seen = identity
		return contentErr
	})

	assert.ErrorIs(t, err, contentErr)
	assert.Equal(t, int64(9), seen.ID)
	assert.Equal(t, domain.RoleDoctor, seen.Role)
}

func TestAccessGuard_DecideAction(t *testing.T) {
	doctor := newGuard(t, &domain.Identity{ID: 1, Role: domain.RoleDoctor})
	assert.Equal(t, domain.Allow, doctor.DecideAction(domain.ActionAddPatient))
	assert.Equal(t, domain.DenyInsufficientRole, doctor.DecideAction(domain.ActionDeletePatient))
	assert.Equal(t, domain.DenyInsufficientRole, doctor.DecideAction("unlisted_action"))

	called := false
	err := doctor.GuardAction(domain.ActionEditPatient, func(domain.Identity) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestAccessGuard_FollowsSessionChanges(t *testing.T) {
	sessions := NewSessionStore(newMemStorage(), &recordingLogger{})
	guard := NewAccessGuard(sessions, NewRolePolicy(domain.DefaultPermissions()))
	assert.Equal(t, domain.DenyNotLoggedIn, guard.Decide())

	require.NoError(t, sessions.Establish(context.Background(), domain.Identity{ID: 1, Role: domain.RoleAdmin}, "T1"))
	assert.Equal(t, domain.Allow, guard.Decide(domain.RoleAdmin))

	require.NoError(t, sessions.Clear(context.Background()))
	assert.Equal(t, domain.DenyNotLoggedIn, guard.Decide(domain.RoleAdmin))
}
