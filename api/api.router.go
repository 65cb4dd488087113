package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/swaggo/swag"
	nuts "github.com/vaudience/go-nuts"
	"github.com/zekarki/WeatherAPI/api/middleware"
	"github.com/zekarki/WeatherAPI/api/resources"
	_ "github.com/zekarki/WeatherAPI/docs"
	"github.com/zekarki/WeatherAPI/internal/gateway"
)

type Router struct {
	router    *mux.Router
	handler   http.Handler
	gateway   *gateway.Gateway
	resources *resources.Resources
}

// NewRouter wires every operation through the gateway. allowedOrigins feeds CORS.
func NewRouter(gw *gateway.Gateway, res *resources.Resources, allowedOrigins []string) *Router {
	r := &Router{
		router:    mux.NewRouter(),
		gateway:   gw,
		resources: res,
	}

	r.setupRoutes()
	r.router.NotFoundHandler = middleware.NotFound()
	r.router.MethodNotAllowedHandler = middleware.MethodNotAllowed()
	// wrapped outside mux so preflight and unmatched requests pass through too
	r.handler = middleware.Recover(middleware.AccessLog(middleware.CORS(allowedOrigins)(r.router)))
	return r
}

func (r *Router) setupRoutes() {
	// Public routes
	r.router.HandleFunc("/", r.welcome).Methods(http.MethodGet)
	if r.resources.HealthCheck != nil {
		r.router.HandleFunc("/health", r.resources.HealthCheck).Methods(http.MethodGet)
	}
	if r.resources.Metrics != nil {
		r.router.HandleFunc("/metrics", r.resources.Metrics).Methods(http.MethodGet)
	}
	r.router.HandleFunc("/swagger/doc.json", r.swaggerDoc).Methods(http.MethodGet)

	handle := r.gateway.Handle

	// Readings
	readings := r.resources.Readings
	r.router.Handle("/reading", handle(readings.Insert())).Methods(http.MethodPost)
	r.router.Handle("/reading", handle(readings.Update())).Methods(http.MethodPut, http.MethodPatch)
	r.router.Handle("/reading", handle(readings.Get())).Methods(http.MethodGet)
	r.router.Handle("/reading", handle(readings.Delete())).Methods(http.MethodDelete)

	r.router.Handle("/readings", handle(readings.InsertMany())).Methods(http.MethodPost)
	r.router.Handle("/readings", handle(readings.GetMany())).Methods(http.MethodGet)
	r.router.Handle("/readings", handle(readings.UpdateMany())).Methods(http.MethodPut, http.MethodPatch)
	r.router.Handle("/readings", handle(readings.DeleteMany())).Methods(http.MethodDelete)

	// Analysis
	analysis := r.resources.Analysis
	r.router.Handle("/analysis", handle(analysis.MaxPrecipitation())).Methods(http.MethodGet)
	r.router.Handle("/analysis/temp", handle(analysis.TemperatureRange())).Methods(http.MethodGet)
	r.router.Handle("/analysis/max-temp", handle(analysis.MaxTemperature())).Methods(http.MethodGet)

	// Users
	users := r.resources.Users
	r.router.Handle("/user", handle(users.Insert())).Methods(http.MethodPost)
	r.router.Handle("/user/{id}", handle(users.Delete())).Methods(http.MethodDelete)
	r.router.Handle("/users", handle(users.DeleteMany())).Methods(http.MethodDelete)
	r.router.Handle("/users", handle(users.UpdateRoles())).Methods(http.MethodPatch)

	// Sessions
	r.router.Handle("/login", handle(r.resources.Sessions.Login())).Methods(http.MethodPatch)
	r.router.Handle("/logout", handle(r.resources.Sessions.Logout())).Methods(http.MethodPost)
}

func (r *Router) welcome(w http.ResponseWriter, req *http.Request) {
	gateway.RespondWithJSON(w, "", http.StatusOK, map[string]string{
		"message": "WeatherDB API",
		"version": nuts.GetVersion(),
	})
}

func (r *Router) swaggerDoc(w http.ResponseWriter, req *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(doc))
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}
