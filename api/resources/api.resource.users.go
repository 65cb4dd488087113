// FilePath: api/resources/api.resource.users.go
package resources

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/gorilla/mux"
	"github.com/zekarki/WeatherAPI/internal/auth"
	"github.com/zekarki/WeatherAPI/internal/errors"
	"github.com/zekarki/WeatherAPI/internal/gateway"
	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/policy"
	"github.com/zekarki/WeatherAPI/internal/repository"
	"github.com/zekarki/WeatherAPI/internal/service"
	"github.com/zekarki/WeatherAPI/internal/validation"
)

// UserHandlers builds the identity management operations
type UserHandlers struct {
	service *service.Service
	scheme  auth.Scheme
}

type newUser struct {
	username, password string
	role               models.Role
}

// @Summary Create a user
// @Description Create an identity. The role defaults to Student. Granting Admin or Teacher takes an Admin.
// @Tags users
// @Accept json
// @Produce json
// @Param user body object true "{username, password, role}"
// @Success 201 {object} map[string]string
// @Failure 400 {object} errors.APIError
// @Failure 403 {object} errors.APIError
// @Router /user [post]
// @Security BasicAuth
func (h *UserHandlers) Insert() gateway.Operation {
	return gateway.Operation{
		Name:   policy.UserInsert,
		Scheme: h.scheme,
		Elevate: func(ctx context.Context, ex *gateway.Exchange) (policy.RoleSet, error) {
			return grantElevation(ex, policy.UserInsert, "role", models.RoleStudent)
		},
		Validate: func(ex *gateway.Exchange) (any, error) {
			body, err := gateway.DecodeObject(ex)
			if err != nil {
				return nil, err
			}
			username, password, err := validation.Credentials(body)
			if err != nil {
				return nil, err
			}
			role, err := validation.Role("role", body["role"], models.RoleStudent)
			if err != nil {
				return nil, err
			}
			return newUser{username: username, password: password, role: role}, nil
		},
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			in := ex.Input.(newUser)
			identity, err := h.service.CreateUser(ctx, in.username, in.password, in.role)
			if err != nil {
				return nil, err
			}
			return gateway.Created(map[string]string{
				"message":  "User created successfully",
				"user_id":  identity.ID,
				"username": identity.Username,
				"role":     string(identity.Role),
			}), nil
		},
	}
}

// grantElevation derives the roles allowed to hand out the role named in field.
// A missing or malformed role is left for Validate to report.
func grantElevation(ex *gateway.Exchange, op policy.Operation, field string, def models.Role) (policy.RoleSet, error) {
	body, err := gateway.DecodeObject(ex)
	if err != nil {
		return nil, err
	}
	role, err := validation.Role(field, body[field], def)
	if err != nil || role == "" {
		return policy.RequiredRoles(op)
	}
	return policy.RequiredRolesForRoleGrant(role), nil
}

// @Summary Delete a user
// @Description Delete one identity. Removing a Teacher takes an Admin.
// @Tags users
// @Produce json
// @Param id path string true "User id"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.APIError
// @Failure 404 {object} errors.APIError
// @Router /user/{id} [delete]
// @Security BasicAuth
func (h *UserHandlers) Delete() gateway.Operation {
	return gateway.Operation{
		Name:   policy.UserDelete,
		Scheme: h.scheme,
		Elevate: func(ctx context.Context, ex *gateway.Exchange) (policy.RoleSet, error) {
			id := mux.Vars(ex.Request)["id"]
			if !h.service.UserIDs().ValidID(id) {
				return nil, &validation.ValidationError{Field: "id", Reason: fmt.Sprintf("'%s' is not a valid identifier", id)}
			}
			target, err := h.service.GetUser(ctx, id)
			if stderrors.Is(err, repository.ErrNotFound) {
				// nothing to elevate against; the delete reports the miss
				return policy.RequiredRoles(policy.UserDelete)
			}
			if err != nil {
				return nil, err
			}
			return policy.RequiredRolesForUserDeletion(target.Role), nil
		},
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			err := h.service.DeleteUser(ctx, mux.Vars(ex.Request)["id"])
			if stderrors.Is(err, repository.ErrNotFound) {
				return nil, errors.NewNotFoundError("User not found", err)
			}
			if err != nil {
				return nil, err
			}
			return gateway.OK(message("Deleted")), nil
		},
	}
}

type userPurge struct {
	role   models.Role
	within models.TimeRange
}

func purgeRole(ex *gateway.Exchange) (models.Role, map[string]any, error) {
	body, err := gateway.DecodeObject(ex)
	if err != nil {
		return "", nil, err
	}
	role, err := validation.Role("role", body["role"], models.RoleStudent)
	return role, body, err
}

// @Summary Delete users by last login
// @Description Delete identities of a role (default Student) whose last login falls between start and end
// @Tags users
// @Accept json
// @Produce json
// @Param filter body object true "{start, end, role}"
// @Success 200 {object} map[string]string
// @Failure 403 {object} errors.APIError
// @Router /users [delete]
// @Security BasicAuth
func (h *UserHandlers) DeleteMany() gateway.Operation {
	return gateway.Operation{
		Name:   policy.UsersDelete,
		Scheme: h.scheme,
		Elevate: func(ctx context.Context, ex *gateway.Exchange) (policy.RoleSet, error) {
			role, _, err := purgeRole(ex)
			if err != nil {
				return nil, err
			}
			return policy.RequiredRolesForUserDeletion(role), nil
		},
		Validate: func(ex *gateway.Exchange) (any, error) {
			role, body, err := purgeRole(ex)
			if err != nil {
				return nil, err
			}
			start, _ := body["start"].(string)
			end, _ := body["end"].(string)
			tr, err := validation.DateRange("start", start, "end", end)
			if err != nil {
				return nil, err
			}
			return userPurge{role: role, within: tr}, nil
		},
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			in := ex.Input.(userPurge)
			n, err := h.service.DeleteUsers(ctx, in.role, in.within)
			if err != nil {
				return nil, err
			}
			return gateway.OK(message(fmt.Sprintf("%d deleted", n))), nil
		},
	}
}

type roleChange struct {
	role    models.Role
	created models.TimeRange
}

// @Summary Change user roles
// @Description Assign new_access to every identity created between start_date and end_date. Granting Admin or Teacher takes an Admin.
// @Tags users
// @Accept json
// @Produce json
// @Param change body object true "{start_date, end_date, new_access}"
// @Success 200 {object} map[string]string
// @Failure 400 {object} errors.APIError
// @Router /users [patch]
// @Security BasicAuth
func (h *UserHandlers) UpdateRoles() gateway.Operation {
	return gateway.Operation{
		Name:   policy.UsersUpdateRoles,
		Scheme: h.scheme,
		Elevate: func(ctx context.Context, ex *gateway.Exchange) (policy.RoleSet, error) {
			return grantElevation(ex, policy.UsersUpdateRoles, "new_access", "")
		},
		Validate: func(ex *gateway.Exchange) (any, error) {
			body, err := gateway.DecodeObject(ex)
			if err != nil {
				return nil, err
			}
			start, _ := body["start_date"].(string)
			end, _ := body["end_date"].(string)
			tr, err := validation.DateRange("start_date", start, "end_date", end)
			if err != nil {
				return nil, err
			}
			if body["new_access"] == nil {
				return nil, &validation.ValidationError{Field: "new_access", Reason: "new_access is required"}
			}
			role, err := validation.Role("new_access", body["new_access"], "")
			if err != nil {
				return nil, err
			}
			return roleChange{role: role, created: tr}, nil
		},
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			in := ex.Input.(roleChange)
			n, err := h.service.UpdateUserRoles(ctx, in.created, in.role)
			if err != nil {
				return nil, err
			}
			return gateway.OK(message(fmt.Sprintf("Updated %d user(s)", n))), nil
		},
	}
}
