package models

import "time"

type Role string

const (
	RoleUnset      Role = ""
	RoleIndividual Role = "individual"
	RoleCaregiver  Role = "caregiver"
)

func (r Role) Valid() bool {
	return r == RoleIndividual || r == RoleCaregiver
}

type Profile struct {
	Handle    string    `json:"handle"`
	Role      Role      `json:"role"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	ChatID    int64     `json:"-"`
	Caregiver string    `json:"caregiver,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (p Profile) Registered() bool {
	return p.Role.Valid()
}

// DisplayName prefers the full name and falls back to the handle.
func (p Profile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return "@" + p.Handle
}
