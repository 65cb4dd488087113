// FilePath: internal/gateway/gateway.go
package gateway

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	nuts "github.com/vaudience/go-nuts"
	"github.com/zekarki/WeatherAPI/internal/auth"
	"github.com/zekarki/WeatherAPI/internal/errors"
	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/monitoring"
	"github.com/zekarki/WeatherAPI/internal/policy"
	"github.com/zekarki/WeatherAPI/internal/repository"
	"github.com/zekarki/WeatherAPI/internal/validation"
)

// RequestIDHeader carries the request id back to the client
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 1 << 20

// Exchange is the request-scoped state passed between pipeline stages
type Exchange struct {
	Request   *http.Request
	RequestID string
	Identity  *models.Identity
	// Input is whatever the operation's Validate produced
	Input    any
	Response *Response

	writer   http.ResponseWriter
	body     []byte
	bodyErr  error
	bodyRead bool
}

// ReadBody reads the request body once, capped at 1 MiB. Nothing reads it
// before authentication has passed.
func (ex *Exchange) ReadBody() ([]byte, error) {
	if ex.bodyRead {
		return ex.body, ex.bodyErr
	}
	ex.bodyRead = true
	if ex.Request.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(ex.writer, ex.Request.Body, maxBodyBytes))
	if err != nil {
		ex.bodyErr = errors.NewValidationError("invalid request body", err)
		return nil, ex.bodyErr
	}
	ex.body = body
	return body, nil
}

// Response is a shaped success payload
type Response struct {
	Status int
	Body   any
}

// OK wraps body in a 200 response
func OK(body any) *Response {
	return &Response{Status: http.StatusOK, Body: body}
}

// Created wraps body in a 201 response
func Created(body any) *Response {
	return &Response{Status: http.StatusCreated, Body: body}
}

// Operation declares one protected endpoint
type Operation struct {
	Name   policy.Operation
	Scheme auth.Scheme
	// Elevate returns a stricter role set derived from the request target.
	// It runs after the generic role check and before validation.
	Elevate  func(ctx context.Context, ex *Exchange) (policy.RoleSet, error)
	Validate func(ex *Exchange) (any, error)
	Invoke   func(ctx context.Context, ex *Exchange) (*Response, error)
}

// Authenticator verifies an Authorization header under a scheme
type Authenticator interface {
	Authenticate(ctx context.Context, scheme auth.Scheme, header string) (*models.Identity, error)
}

// Gateway runs every operation through authenticate, authorize, validate,
// invoke and shape, stopping at the first failure.
type Gateway struct {
	auth       Authenticator
	monitoring *monitoring.Service
}

// New creates a gateway. monitoring may be nil.
func New(authenticator Authenticator, mon *monitoring.Service) *Gateway {
	return &Gateway{auth: authenticator, monitoring: mon}
}

type stage struct {
	name string
	run  func(ctx context.Context, ex *Exchange, op Operation) *errors.APIError
}

func (g *Gateway) stages() []stage {
	return []stage{
		{"authenticate", g.authenticate},
		{"authorize", g.authorize},
		{"validate", g.validate},
		{"invoke", g.invoke},
	}
}

// Handle returns the HTTP handler running op through the pipeline
func (g *Gateway) Handle(op Operation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ex := &Exchange{Request: r, RequestID: nuts.NID("req", 12), writer: w}

		for _, st := range g.stages() {
			if apiErr := st.run(r.Context(), ex, op); apiErr != nil {
				g.fail(w, ex, op, apiErr, started)
				return
			}
		}
		g.record(op, "ok", started)
		RespondWithJSON(w, ex.RequestID, ex.Response.Status, ex.Response.Body)
	}
}

func (g *Gateway) authenticate(ctx context.Context, ex *Exchange, op Operation) *errors.APIError {
	if policy.IsPublic(op.Name) {
		return nil
	}
	identity, err := g.auth.Authenticate(ctx, op.Scheme, ex.Request.Header.Get("Authorization"))
	if err != nil {
		return authError(err)
	}
	ex.Identity = identity
	return nil
}

func (g *Gateway) authorize(ctx context.Context, ex *Exchange, op Operation) *errors.APIError {
	if policy.IsPublic(op.Name) {
		return nil
	}
	if err := policy.AuthorizeOperation(ex.Identity.Role, op.Name); err != nil {
		if stderrors.Is(err, policy.ErrForbidden) {
			return errors.NewAuthorizationError("Forbidden", err)
		}
		return errors.NewInternalError(err.Error(), err)
	}
	if op.Elevate == nil {
		return nil
	}
	required, err := op.Elevate(ctx, ex)
	if err != nil {
		return invokeError(err)
	}
	if err := policy.Authorize(ex.Identity.Role, required); err != nil {
		return errors.NewAuthorizationError(fmt.Sprintf("Only %s may perform this action", joinRoles(required)), err)
	}
	return nil
}

func (g *Gateway) validate(ctx context.Context, ex *Exchange, op Operation) *errors.APIError {
	if op.Validate == nil {
		return nil
	}
	input, err := op.Validate(ex)
	if err != nil {
		var verr *validation.ValidationError
		if stderrors.As(err, &verr) {
			return errors.NewValidationError(verr.Reason, err).WithDetails(verr)
		}
		if apiErr, ok := errors.AsAPIError(err); ok {
			return apiErr
		}
		return errors.NewValidationError(err.Error(), err)
	}
	ex.Input = input
	return nil
}

func (g *Gateway) invoke(ctx context.Context, ex *Exchange, op Operation) *errors.APIError {
	resp, err := op.Invoke(ctx, ex)
	if err != nil {
		return invokeError(err)
	}
	if resp == nil {
		resp = OK(map[string]string{"message": "ok"})
	}
	ex.Response = resp
	return nil
}

func (g *Gateway) fail(w http.ResponseWriter, ex *Exchange, op Operation, apiErr *errors.APIError, started time.Time) {
	g.record(op, outcome(apiErr), started)
	RespondWithError(w, apiErr.WithRequestID(ex.RequestID))
}

func (g *Gateway) record(op Operation, result string, started time.Time) {
	if g.monitoring != nil {
		g.monitoring.RecordRequest(string(op.Name), result, time.Since(started))
	}
}

func authError(err error) *errors.APIError {
	var failure *auth.Failure
	if stderrors.As(err, &failure) {
		if failure.Kind == auth.FailureStorageUnavailable {
			return errors.NewUnavailableError(failure.Message, err)
		}
		return errors.NewAuthError(failure.Message, err)
	}
	return errors.NewAuthError("Authentication required", err)
}

// invokeError maps storage failures. Typed misses become 404, malformed ids
// become 400 and everything else is a 500 carrying the raw message.
func invokeError(err error) *errors.APIError {
	if apiErr, ok := errors.AsAPIError(err); ok {
		return apiErr
	}
	var verr *validation.ValidationError
	var failure *auth.Failure
	switch {
	case stderrors.As(err, &failure):
		return authError(err)
	case stderrors.As(err, &verr):
		return errors.NewValidationError(verr.Reason, err).WithDetails(verr)
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.NewNotFoundError("Record not found", err)
	case stderrors.Is(err, repository.ErrInvalidID), stderrors.Is(err, repository.ErrInvalidInput):
		return errors.NewValidationError(err.Error(), err)
	default:
		return errors.NewInternalError(err.Error(), err)
	}
}

func outcome(apiErr *errors.APIError) string {
	switch {
	case apiErr.Type == errors.ErrorTypeAuth:
		return "unauthenticated"
	case apiErr.Type == errors.ErrorTypeAuthorize:
		return "forbidden"
	case errors.IsValidation(apiErr):
		return "invalid"
	case errors.IsNotFound(apiErr):
		return "not_found"
	default:
		return "error"
	}
}

func joinRoles(roles policy.RoleSet) string {
	s := ""
	for i, r := range roles {
		switch {
		case i == 0:
		case i == len(roles)-1:
			s += " or "
		default:
			s += ", "
		}
		s += string(r) + "s"
	}
	return s
}

// RespondWithError writes an APIError as JSON
func RespondWithError(w http.ResponseWriter, err *errors.APIError) {
	if err.RequestID != "" {
		w.Header().Set(RequestIDHeader, err.RequestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Code)
	json.NewEncoder(w).Encode(err)
	if err.Code >= http.StatusInternalServerError {
		nuts.L.Errorf("[API] %s", err.Error())
	} else {
		nuts.L.Infof("[API] %s", err.Error())
	}
}

// RespondWithJSON writes payload as JSON with the given status
func RespondWithJSON(w http.ResponseWriter, requestID string, code int, payload interface{}) {
	if requestID != "" {
		w.Header().Set(RequestIDHeader, requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
