// FilePath: api/resources/api.resource.session.go
package resources

import (
	"context"
	"time"

	"github.com/zekarki/WeatherAPI/internal/auth"
	"github.com/zekarki/WeatherAPI/internal/errors"
	"github.com/zekarki/WeatherAPI/internal/gateway"
	"github.com/zekarki/WeatherAPI/internal/policy"
	"github.com/zekarki/WeatherAPI/internal/service"
	"github.com/zekarki/WeatherAPI/internal/validation"
)

// SessionHandlers builds the login and logout operations
type SessionHandlers struct {
	service *service.Service
	auth    SessionAuthenticator
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	Message   string    `json:"message"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type credentials struct {
	username, password string
}

// @Summary Log in
// @Description Verify a username and password, record the login and issue a bearer token
// @Tags session
// @Accept json
// @Produce json
// @Param credentials body object true "{username, password}"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.APIError
// @Failure 401 {object} errors.APIError
// @Router /login [patch]
func (h *SessionHandlers) Login() gateway.Operation {
	return gateway.Operation{
		Name: policy.SessionLogin,
		Validate: func(ex *gateway.Exchange) (any, error) {
			body, err := gateway.DecodeObject(ex)
			if err != nil {
				return nil, err
			}
			username, password, err := validation.Credentials(body)
			if err != nil {
				return nil, err
			}
			return credentials{username: username, password: password}, nil
		},
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			in := ex.Input.(credentials)
			identity, err := h.auth.Login(ctx, in.username, in.password)
			if err != nil {
				return nil, err
			}
			result, err := h.service.OpenSession(ctx, identity)
			if err != nil {
				return nil, err
			}
			return gateway.OK(LoginResponse{
				Message:   "Login successful",
				Role:      string(result.Identity.Role),
				Token:     result.Token,
				ExpiresAt: result.Session.ExpiresAt,
			}), nil
		},
	}
}

// @Summary Log out
// @Description Revoke the bearer session that carries this request
// @Tags session
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} errors.APIError
// @Router /logout [post]
// @Security BearerAuth
func (h *SessionHandlers) Logout() gateway.Operation {
	return gateway.Operation{
		Name:   policy.SessionLogout,
		Scheme: auth.SchemeBearer,
		Invoke: func(ctx context.Context, ex *gateway.Exchange) (*gateway.Response, error) {
			id, err := h.auth.SessionID(ex.Request.Header.Get("Authorization"))
			if err != nil {
				return nil, errors.NewAuthError("Invalid token", err)
			}
			if err := h.service.CloseSession(ctx, id); err != nil {
				return nil, err
			}
			return gateway.OK(message("Logged out")), nil
		},
	}
}
