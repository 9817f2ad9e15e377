package application

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"vitalnotes/internal/domain"
)

func TestRolePolicy_HasRoleIgnoresCase(t *testing.T) {
	policy := NewRolePolicy(domain.DefaultPermissions())
	identity := &domain.Identity{ID: 1, Role: "doctor"}

	for _, role := range []domain.Role{"DOCTOR", "doctor", "Doctor", "dOcToR"} {
		assert.True(t, policy.HasRole(identity, role), role)
		assert.True(t, policy.HasAnyRole(identity, []domain.Role{role}), role)
	}
	assert.False(t, policy.HasRole(identity, domain.RoleNurse))
	assert.False(t, policy.HasRole(identity, ""))
}

func TestRolePolicy_AbsentIdentityNeverSatisfies(t *testing.T) {
	policy := NewRolePolicy(domain.DefaultPermissions())

	assert.False(t, policy.HasRole(nil, domain.RoleAdmin))
	assert.False(t, policy.HasAnyRole(nil, domain.Roles))
	for _, action := range policy.Actions() {
		assert.False(t, policy.Can(nil, action), action)
	}
}

func TestRolePolicy_EmptyRoleListFailsClosed(t *testing.T) {
	policy := NewRolePolicy(domain.DefaultPermissions())
	identity := &domain.Identity{Role: domain.RoleAdmin}

	assert.False(t, policy.HasAnyRole(identity, nil))
	assert.False(t, policy.HasAnyRole(identity, []domain.Role{}))
}

func TestRolePolicy_CanFollowsPermissionTable(t *testing.T) {
	policy := NewRolePolicy(domain.DefaultPermissions())

	tests := []struct {
		role   domain.Role
		action domain.Action
		want   bool
	}{
		{domain.RoleAdmin, domain.ActionDeletePatient, true},
		{domain.RoleDoctor, domain.ActionDeletePatient, false},
		{domain.RoleDoctor, domain.ActionAddPatient, true},
		{domain.RoleNurse, domain.ActionAddPatient, false},
		{domain.RoleNurse, domain.ActionEditPatient, true},
		{domain.RoleNurse, domain.ActionUpdateVitals, true},
		{domain.RolePatient, domain.ActionViewOwnRecord, true},
		{domain.RolePatient, domain.ActionViewAllRecords, false},
		{"patient", domain.ActionViewOwnRecord, true},
		{domain.RoleAdmin, domain.ActionManageUsers, true},
		{domain.RoleDoctor, domain.ActionAddPrescription, true},
	}
	for _, tt := range tests {
		identity := &domain.Identity{Role: tt.role}
		assert.Equal(t, tt.want, policy.Can(identity, tt.action), "%s/%s", tt.role, tt.action)
	}
}

func TestRolePolicy_UnknownActionIsPermittedToNobody(t *testing.T) {
	policy := NewRolePolicy(domain.DefaultPermissions())

	for _, role := range domain.Roles {
		assert.False(t, policy.Can(&domain.Identity{Role: role}, "discharge_patient"), role)
	}
}

func TestRolePolicy_TableIsCopiedAtConstruction(t *testing.T) {
	table := domain.PermissionTable{"audit": {"admin"}}
	policy := NewRolePolicy(table)
	table["audit"] = append(table["audit"], domain.RoleNurse)
	table["export"] = []domain.Role{domain.RoleNurse}

	nurse := &domain.Identity{Role: domain.RoleNurse}
	assert.False(t, policy.Can(nurse, "audit"))
	assert.False(t, policy.Can(nurse, "export"))
	assert.True(t, policy.Can(&domain.Identity{Role: "Admin"}, "audit"))

	roles := policy.AllowedRoles("audit")
	roles[0] = domain.RoleNurse
	assert.Equal(t, []domain.Role{domain.RoleAdmin}, policy.AllowedRoles("audit"))
}

func TestRolePolicy_Permissions(t *testing.T) {
	policy := NewRolePolicy(domain.DefaultPermissions())

	perms := policy.Permissions(&domain.Identity{Role: domain.RoleNurse})
	assert.Len(t, perms, 8)
	assert.True(t, perms[domain.ActionEditPatient])
	assert.False(t, perms[domain.ActionDeletePatient])
	assert.False(t, perms[domain.ActionAddPatient])
}
