package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/handlers"
	nuts "github.com/vaudience/go-nuts"
	"github.com/zekarki/WeatherAPI/internal/errors"
	"github.com/zekarki/WeatherAPI/internal/gateway"
)

// logWriter forwards access log lines into the application logger
type logWriter struct {
	prefix string
}

func (l logWriter) Write(p []byte) (int, error) {
	nuts.L.Infof("%s %s", l.prefix, strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// recoveryLogger adapts nuts.L to the handlers.RecoveryHandlerLogger interface
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	nuts.L.Errorf("[Recovery] %v", v)
}

// AccessLog writes combined-format access logs through nuts.L
func AccessLog(next http.Handler) http.Handler {
	return handlers.CombinedLoggingHandler(logWriter{prefix: "[HTTP]"}, next)
}

// Recover turns panics into 500 responses and logs them
func Recover(next http.Handler) http.Handler {
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))(next)
}

// CORS applies the configured origin allowlist
func CORS(origins []string) func(http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", gateway.RequestIDHeader}),
		handlers.ExposedHeaders([]string{gateway.RequestIDHeader}),
	)
}

// NotFound answers unknown paths with a JSON error
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gateway.RespondWithError(w, errors.NewNotFoundError("Not found", nil).WithRequestID(nuts.NID("req", 12)))
	})
}

// MethodNotAllowed answers a known path with an unsupported method
func MethodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gateway.RespondWithError(w, errors.NewMethodNotAllowedError("Method not allowed").WithRequestID(nuts.NID("req", 12)))
	})
}
