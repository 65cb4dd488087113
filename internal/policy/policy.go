// FilePath: internal/policy/policy.go
package policy

import (
	"errors"
	"fmt"

	"github.com/zekarki/WeatherAPI/internal/models"
)

// ErrForbidden is returned when a role is not permitted to run an operation
var ErrForbidden = errors.New("forbidden")

// Operation names a protected API operation
type Operation string

const (
	ReadingInsert            Operation = "reading.insert"
	ReadingUpdate            Operation = "reading.update"
	ReadingGet               Operation = "reading.get"
	ReadingDelete            Operation = "reading.delete"
	ReadingsInsert           Operation = "readings.insert"
	ReadingsGet              Operation = "readings.get"
	ReadingsUpdate           Operation = "readings.update"
	ReadingsDelete           Operation = "readings.delete"
	AnalysisMaxPrecipitation Operation = "analysis.max_precipitation"
	AnalysisTemperatureRange Operation = "analysis.temperature_range"
	AnalysisMaxTemperature   Operation = "analysis.max_temperature"
	UserInsert               Operation = "user.insert"
	UserDelete               Operation = "user.delete"
	UsersDelete              Operation = "users.delete"
	UsersUpdateRoles         Operation = "users.update_roles"
	SessionLogin             Operation = "session.login"
	SessionLogout            Operation = "session.logout"
)

// RoleSet is the set of roles allowed to run an operation
type RoleSet []models.Role

// Contains reports whether role is in the set
func (s RoleSet) Contains(role models.Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

var (
	teacherOnly     = RoleSet{models.RoleTeacher}
	teacherOrSensor = RoleSet{models.RoleTeacher, models.RoleSensor}
	readers         = RoleSet{models.RoleTeacher, models.RoleStudent}
	userManagers    = RoleSet{models.RoleAdmin, models.RoleTeacher}
	adminOnly       = RoleSet{models.RoleAdmin}
	anyRole         = RoleSet(models.Roles)
)

// table is the single source of the operation to required-role mapping
var table = map[Operation]RoleSet{
	ReadingInsert:            teacherOrSensor,
	ReadingUpdate:            teacherOnly,
	ReadingGet:               readers,
	ReadingDelete:            teacherOnly,
	ReadingsInsert:           teacherOrSensor,
	ReadingsGet:              readers,
	ReadingsUpdate:           teacherOnly,
	ReadingsDelete:           teacherOnly,
	AnalysisMaxPrecipitation: readers,
	AnalysisTemperatureRange: readers,
	AnalysisMaxTemperature:   readers,
	UserInsert:               userManagers,
	UserDelete:               userManagers,
	UsersDelete:              userManagers,
	UsersUpdateRoles:         userManagers,
	SessionLogout:            anyRole,
}

// public operations need no credential at all
var public = map[Operation]bool{
	SessionLogin: true,
}

// IsPublic reports whether op runs without authentication
func IsPublic(op Operation) bool {
	return public[op]
}

// RequiredRoles returns the role set declared for op
func RequiredRoles(op Operation) (RoleSet, error) {
	roles, ok := table[op]
	if !ok {
		return nil, fmt.Errorf("no role policy declared for operation %q", op)
	}
	return roles, nil
}

// Authorize allows role iff it belongs to required
func Authorize(role models.Role, required RoleSet) error {
	if required.Contains(role) {
		return nil
	}
	return ErrForbidden
}

// AuthorizeOperation checks role against the table entry for op
func AuthorizeOperation(role models.Role, op Operation) error {
	if IsPublic(op) {
		return nil
	}
	required, err := RequiredRoles(op)
	if err != nil {
		return err
	}
	return Authorize(role, required)
}

// RequiredRolesForUserDeletion applies the elevation rule: removing Teacher
// identities takes an Admin, any other role may be removed by Admin or Teacher.
func RequiredRolesForUserDeletion(target models.Role) RoleSet {
	if target == models.RoleTeacher {
		return adminOnly
	}
	return userManagers
}

// RequiredRolesForRoleGrant guards creating or promoting identities: granting
// Admin or Teacher takes an Admin, so a Teacher cannot mint an account that
// outranks the deletion rule above.
func RequiredRolesForRoleGrant(granted models.Role) RoleSet {
	switch granted {
	case models.RoleAdmin, models.RoleTeacher:
		return adminOnly
	default:
		return userManagers
	}
}
