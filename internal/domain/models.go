package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleDoctor  Role = "DOCTOR"
	RoleNurse   Role = "NURSE"
	RolePatient Role = "PATIENT"
)

// Roles lists the closed set of access tiers.
var Roles = []Role{RoleAdmin, RoleDoctor, RoleNurse, RolePatient}

// NormalizeRole upper-cases a role tag without regard to locale.
func NormalizeRole(raw string) Role {
	return Role(cases.Upper(language.Und).String(raw))
}

func (r Role) Known() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

type Identity struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// Normalized returns a copy with the role in canonical casing.
func (i Identity) Normalized() Identity {
	i.Role = NormalizeRole(string(i.Role))
	return i
}

type Session struct {
	Identity Identity
	Token    string
}

type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the raw shape returned by POST /auth/login. Fields are
// pointers so that absence can be told apart from zero values.
type LoginResponse struct {
	Token *string   `json:"token"`
	User  *Identity `json:"user"`
}

type TokenInfo struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// Age accepts either a JSON string or a JSON number and always encodes as a
// string.
type Age string

func (a *Age) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Age(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("age: %w", err)
	}
	*a = Age(n.String())
	return nil
}

type Patient struct {
	ID        *int64 `json:"id,omitempty"`
	Name      string `json:"name"`
	Age       Age    `json:"age"`
	Condition string `json:"condition"`
	Notes     string `json:"notes"`
	Phone     string `json:"phone"`
}

func (p Patient) HasID() bool { return p.ID != nil }

// PatientPatch overlays the non-nil fields onto an existing record.
type PatientPatch struct {
	Name      *string
	Age       *string
	Condition *string
	Notes     *string
	Phone     *string
}

func (p PatientPatch) Apply(existing Patient) Patient {
	merged := existing
	if p.Name != nil {
		merged.Name = *p.Name
	}
	if p.Age != nil {
		merged.Age = Age(*p.Age)
	}
	if p.Condition != nil {
		merged.Condition = *p.Condition
	}
	if p.Notes != nil {
		merged.Notes = *p.Notes
	}
	if p.Phone != nil {
		merged.Phone = *p.Phone
	}
	return merged
}

type DashboardStats struct {
	Total        int `json:"total"`
	AverageAge   int `json:"average_age"`
	SeriousCases int `json:"serious_cases"`
}
