package application

import (
	"slices"
	"sort"

	"vitalnotes/internal/domain"
)

// RolePolicy answers role and action checks against an immutable
// permission table.
type RolePolicy struct {
	permissions map[domain.Action][]domain.Role
}

func NewRolePolicy(table domain.PermissionTable) *RolePolicy {
	permissions := make(map[domain.Action][]domain.Role, len(table))
	for action, roles := range table {
		normalized := make([]domain.Role, 0, len(roles))
		for _, role := range roles {
			normalized = append(normalized, domain.NormalizeRole(string(role)))
		}
		permissions[action] = normalized
	}
	return &RolePolicy{permissions: permissions}
}

func (p *RolePolicy) HasRole(identity *domain.Identity, role domain.Role) bool {
	if identity == nil || role == "" {
		return false
	}
	return domain.NormalizeRole(string(identity.Role)) == domain.NormalizeRole(string(role))
}

// HasAnyRole fails closed: a nil identity or an empty role list is never
// satisfied.
func (p *RolePolicy) HasAnyRole(identity *domain.Identity, roles []domain.Role) bool {
	if identity == nil || len(roles) == 0 {
		return false
	}
	userRole := domain.NormalizeRole(string(identity.Role))
	for _, role := range roles {
		if domain.NormalizeRole(string(role)) == userRole {
			return true
		}
	}
	return false
}

func (p *RolePolicy) Can(identity *domain.Identity, action domain.Action) bool {
	allowed, ok := p.permissions[action]
	if !ok {
		return false
	}
	return p.HasAnyRole(identity, allowed)
}

func (p *RolePolicy) AllowedRoles(action domain.Action) []domain.Role {
	return slices.Clone(p.permissions[action])
}

func (p *RolePolicy) Actions() []domain.Action {
	actions := make([]domain.Action, 0, len(p.permissions))
	for action := range p.permissions {
		actions = append(actions, action)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	return actions
}

// Permissions evaluates every action in the table for the identity.
func (p *RolePolicy) Permissions(identity *domain.Identity) map[domain.Action]bool {
	out := make(map[domain.Action]bool, len(p.permissions))
	for action := range p.permissions {
		out[action] = p.Can(identity, action)
	}
	return out
}
