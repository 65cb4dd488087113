package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zekarki/WeatherAPI/internal/models"
)

func TestAuthorizeOperation(t *testing.T) {
	tt := []struct {
		name    string
		role    models.Role
		op      Operation
		allowed bool
	}{
		{"sensor inserts a reading", models.RoleSensor, ReadingInsert, true},
		{"student cannot insert a reading", models.RoleStudent, ReadingInsert, false},
		{"sensor cannot update a reading", models.RoleSensor, ReadingUpdate, false},
		{"teacher updates readings in bulk", models.RoleTeacher, ReadingsUpdate, true},
		{"sensor cannot update readings in bulk", models.RoleSensor, ReadingsUpdate, false},
		{"student reads readings", models.RoleStudent, ReadingsGet, true},
		{"admin does not read readings", models.RoleAdmin, ReadingGet, false},
		{"student cannot delete a reading", models.RoleStudent, ReadingDelete, false},
		{"student runs analysis", models.RoleStudent, AnalysisTemperatureRange, true},
		{"sensor cannot run analysis", models.RoleSensor, AnalysisMaxPrecipitation, false},
		{"admin creates users", models.RoleAdmin, UserInsert, true},
		{"teacher creates users", models.RoleTeacher, UserInsert, true},
		{"student cannot create users", models.RoleStudent, UserInsert, false},
		{"anyone logs in", "", SessionLogin, true},
		{"sensor logs out", models.RoleSensor, SessionLogout, true},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			err := AuthorizeOperation(tc.role, tc.op)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrForbidden)
			}
		})
	}
}

func TestEveryOperationHasPolicy(t *testing.T) {
	ops := []Operation{
		ReadingInsert, ReadingUpdate, ReadingGet, ReadingDelete,
		ReadingsInsert, ReadingsGet, ReadingsUpdate, ReadingsDelete,
		AnalysisMaxPrecipitation, AnalysisTemperatureRange, AnalysisMaxTemperature,
		UserInsert, UserDelete, UsersDelete, UsersUpdateRoles, SessionLogout,
	}
	for _, op := range ops {
		roles, err := RequiredRoles(op)
		require.NoError(t, err, op)
		assert.NotEmpty(t, roles, op)
	}
	_, err := RequiredRoles("unknown.op")
	assert.Error(t, err)
}

func TestUserDeletionElevation(t *testing.T) {
	require := require.New(t)

	teacherTarget := RequiredRolesForUserDeletion(models.RoleTeacher)
	require.ErrorIs(Authorize(models.RoleTeacher, teacherTarget), ErrForbidden)
	require.NoError(Authorize(models.RoleAdmin, teacherTarget))

	studentTarget := RequiredRolesForUserDeletion(models.RoleStudent)
	require.NoError(Authorize(models.RoleTeacher, studentTarget))
	require.NoError(Authorize(models.RoleAdmin, studentTarget))
	require.ErrorIs(Authorize(models.RoleStudent, studentTarget), ErrForbidden)
}

func TestRoleGrantElevation(t *testing.T) {
	require := require.New(t)

	for _, granted := range []models.Role{models.RoleAdmin, models.RoleTeacher} {
		required := RequiredRolesForRoleGrant(granted)
		require.ErrorIs(Authorize(models.RoleTeacher, required), ErrForbidden, granted)
		require.NoError(Authorize(models.RoleAdmin, required), granted)
	}
	for _, granted := range []models.Role{models.RoleStudent, models.RoleSensor} {
		required := RequiredRolesForRoleGrant(granted)
		require.NoError(Authorize(models.RoleTeacher, required), granted)
		require.NoError(Authorize(models.RoleAdmin, required), granted)
	}
}
