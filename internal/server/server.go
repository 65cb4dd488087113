// FilePath: internal/server/server.go
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	nuts "github.com/vaudience/go-nuts"
	"github.com/zekarki/WeatherAPI/api"
	"github.com/zekarki/WeatherAPI/api/resources"
	"github.com/zekarki/WeatherAPI/internal/auth"
	"github.com/zekarki/WeatherAPI/internal/cleanup"
	"github.com/zekarki/WeatherAPI/internal/config"
	"github.com/zekarki/WeatherAPI/internal/gateway"
	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/monitoring"
	"github.com/zekarki/WeatherAPI/internal/repository"
	"github.com/zekarki/WeatherAPI/internal/service"
)

// Server represents our HTTP server
type Server struct {
	config     *config.Config
	srv        *http.Server
	stores     *Stores
	service    *service.Service
	monitoring *monitoring.Service
	stop       context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config: cfg,
		srv:    srv,
	}
}

// Start connects the stores, wires the API and serves until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx := context.Background()
	stores, err := OpenStores(ctx, s.config)
	if err != nil {
		return fmt.Errorf("error opening stores: %w", err)
	}
	if err := s.Init(ctx, stores); err != nil {
		stores.Close(ctx)
		return err
	}

	go func() {
		nuts.L.Infof("[Server] Starting server on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			nuts.L.Errorf("[Server] Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	return s.waitForShutdown()
}

// Init builds the service graph on top of stores and starts background work
func (s *Server) Init(ctx context.Context, stores *Stores) error {
	s.stores = stores
	cfg := s.config

	credentials := auth.NewCredentialStore(stores.Users, cfg.Auth.BcryptCost)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	s.service = service.New(stores.Readings, stores.DeletionLog, stores.Users, stores.Sessions, credentials, tokens)
	if err := s.service.Validate(); err != nil {
		return err
	}

	s.monitoring = monitoring.NewService(monitoring.Config{ProcessMetrics: cfg.Monitoring.ProcessMetrics})
	s.setupCleanupHandlers()

	if err := s.bootstrapUsers(ctx); err != nil {
		return err
	}

	schemes, err := parseSchemes(cfg.Auth.Schemes)
	if err != nil {
		return err
	}
	authenticator := auth.NewAuthenticator(credentials, tokens, stores.Sessions)
	res := resources.NewResources(s.service, authenticator, schemes)
	res.SetHealthCheck(s.handleHealth())
	if cfg.Monitoring.MetricsEnabled {
		res.SetMetrics(s.monitoring.Handler().ServeHTTP)
	}
	s.srv.Handler = api.NewRouter(gateway.New(authenticator, s.monitoring), res, cfg.Server.AllowedOrigins)

	runCtx, stop := context.WithCancel(context.Background())
	s.stop = stop
	if !stores.NativeTTL {
		go s.service.Cleanup.RunRetention(runCtx, cfg.Retention.InactivityWindow, cfg.Retention.SweepInterval)
	}
	return nil
}

// Handler returns the HTTP handler built by Init
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Monitoring returns the metrics service built by Init
func (s *Server) Monitoring() *monitoring.Service {
	return s.monitoring
}

// Close stops background work and releases the stores
func (s *Server) Close(ctx context.Context) {
	if s.stop != nil {
		s.stop()
	}
	if s.stores != nil {
		s.stores.Close(ctx)
	}
}

// waitForShutdown waits for interrupt signal and gracefully shuts down the server
func (s *Server) waitForShutdown() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	nuts.L.Infof("[Server] Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	s.Close(ctx)

	nuts.L.Infof("[Server] Server shut down successfully")
	return nil
}

// handleHealth reports the version and whether the stores answer
func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.stores.Ping(ctx); err != nil {
			gateway.RespondWithJSON(w, "", http.StatusInternalServerError, map[string]string{
				"status":  "unavailable",
				"error":   err.Error(),
				"version": nuts.GetVersion(),
			})
			return
		}
		gateway.RespondWithJSON(w, "", http.StatusOK, map[string]string{
			"status":  "ok",
			"version": nuts.GetVersion(),
		})
	}
}

func (s *Server) setupCleanupHandlers() {
	// Handle reading deletion events
	s.service.Cleanup.OnCleanup(cleanup.EventReadingDeleted, func(id string) {
		nuts.L.Infof("[Cleanup] Reading %s moved to the deletion log", id)
		s.monitoring.RecordEvent("reading_deletion", map[string]string{
			"reading_id": id,
		})
	})

	// Handle bulk identity deletion events
	s.service.Cleanup.OnCleanup(cleanup.EventUsersDeleted, func(count string) {
		s.monitoring.RecordEvent("users_deletion", map[string]string{
			"count": count,
		})
	})

	// Handle retention purge events
	s.service.Cleanup.OnCleanup(cleanup.EventUsersPurged, func(count string) {
		s.monitoring.RecordEvent("users_purge", map[string]string{
			"count": count,
		})
	})
}

// bootstrapUsers creates the configured identities that do not exist yet
func (s *Server) bootstrapUsers(ctx context.Context) error {
	for _, u := range s.config.Auth.BootstrapUsers {
		role := models.Role(u.Role)
		if !role.Valid() {
			return fmt.Errorf("bootstrap user %s has unknown role %q", u.Username, u.Role)
		}
		_, err := s.stores.Users.FindByUsername(ctx, u.Username)
		if err == nil {
			continue
		}
		if !stderrors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("error looking up bootstrap user %s: %w", u.Username, err)
		}
		if _, err := s.service.CreateUser(ctx, u.Username, u.Password, role); err != nil {
			return err
		}
		nuts.L.Infof("[Server] Bootstrapped %s user %s", role, u.Username)
	}
	return nil
}

func parseSchemes(cfg config.SchemeConfig) (resources.Schemes, error) {
	var schemes resources.Schemes
	var err error
	if schemes.Readings, err = auth.ParseScheme(cfg.Readings); err != nil {
		return schemes, err
	}
	if schemes.Analysis, err = auth.ParseScheme(cfg.Analysis); err != nil {
		return schemes, err
	}
	if schemes.Users, err = auth.ParseScheme(cfg.Users); err != nil {
		return schemes, err
	}
	return schemes, nil
}
