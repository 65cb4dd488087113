// FilePath: internal/models/models.identity.go
package models

import "time"

type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleTeacher Role = "Teacher"
	RoleStudent Role = "Student"
	RoleSensor  Role = "Sensor"
)

// Roles lists every role in the permission model
var Roles = []Role{RoleAdmin, RoleTeacher, RoleStudent, RoleSensor}

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Identity is a user account as held by the credential store
type Identity struct {
	ID           string    `json:"_id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Role         Role      `json:"role" db:"role"`
	PasswordHash string    `json:"-" db:"password"`
	LastLoginAt  time.Time `json:"last_login" db:"last_login"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Session tracks an issued bearer token until it expires or is revoked
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Active reports whether the session is still usable at t
func (s *Session) Active(t time.Time) bool {
	return t.Before(s.ExpiresAt)
}
