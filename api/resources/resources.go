// FilePath: api/resources/resources.go
package resources

import (
	"context"
	"net/http"

	"github.com/zekarki/WeatherAPI/internal/auth"
	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/service"
)

// Schemes selects the Authorization scheme per route group
type Schemes struct {
	Readings auth.Scheme
	Analysis auth.Scheme
	Users    auth.Scheme
}

// SessionAuthenticator is what the session handlers need from the auth layer
type SessionAuthenticator interface {
	Login(ctx context.Context, username, password string) (*models.Identity, error)
	SessionID(header string) (string, error)
}

// Resources holds all HTTP resource handlers
type Resources struct {
	Readings    *ReadingHandlers
	Analysis    *AnalysisHandlers
	Users       *UserHandlers
	Sessions    *SessionHandlers
	HealthCheck func(w http.ResponseWriter, r *http.Request)
	Metrics     func(w http.ResponseWriter, r *http.Request)
}

// NewResources creates a new Resources instance
func NewResources(svc *service.Service, authenticator SessionAuthenticator, schemes Schemes) *Resources {
	return &Resources{
		Readings: &ReadingHandlers{service: svc, scheme: schemes.Readings},
		Analysis: &AnalysisHandlers{service: svc, scheme: schemes.Analysis},
		Users:    &UserHandlers{service: svc, scheme: schemes.Users},
		Sessions: &SessionHandlers{service: svc, auth: authenticator},
	}
}

// SetHealthCheck sets the health check handler
func (r *Resources) SetHealthCheck(h func(w http.ResponseWriter, r *http.Request)) {
	r.HealthCheck = h
}

// SetMetrics sets the metrics handler
func (r *Resources) SetMetrics(h func(w http.ResponseWriter, r *http.Request)) {
	r.Metrics = h
}

func message(msg string) map[string]string {
	return map[string]string{"message": msg}
}
