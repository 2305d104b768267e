package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mnohosten/atomic32/pkg/auth"
	gql "github.com/mnohosten/atomic32/pkg/graphql"
	"github.com/mnohosten/atomic32/pkg/registry"
	"github.com/mnohosten/atomic32/pkg/server/handlers"
)

// Server represents the HTTP server exposing a counter registry
type Server struct {
	config       *Config
	registry     *registry.Registry
	authManager  *auth.Manager
	router       *chi.Mux
	httpSrv      *http.Server
	startTime    time.Time
	watchManager *handlers.WatchManager
	promRegistry *prometheus.Registry
}

// New creates a new HTTP server instance
func New(config *Config) (*Server, error) {
	// Validate TLS configuration
	if config.EnableTLS {
		if config.TLSCertFile == "" || config.TLSKeyFile == "" {
			return nil, fmt.Errorf("TLS enabled but certificate or key file not specified")
		}
		// Check if certificate and key files exist
		if _, err := os.Stat(config.TLSCertFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("TLS certificate file not found: %s", config.TLSCertFile)
		}
		if _, err := os.Stat(config.TLSKeyFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("TLS key file not found: %s", config.TLSKeyFile)
		}
	}

	// Create the counter registry this server exposes
	reg := registry.New()

	// Create Prometheus registry and bridge the counter registry into it
	promRegistry := prometheus.NewRegistry()
	if err := promRegistry.Register(registry.NewCollector(reg)); err != nil {
		return nil, fmt.Errorf("failed to register metrics collector: %w", err)
	}

	// Create server instance
	srv := &Server{
		config:       config,
		registry:     reg,
		router:       chi.NewRouter(),
		startTime:    time.Now(),
		promRegistry: promRegistry,
	}

	// Create auth manager when authentication is required
	if config.RequireAuth {
		srv.authManager = auth.NewManager()
	}

	// Setup middleware
	srv.setupMiddleware()

	// Setup routes
	srv.setupRoutes()

	// Setup GraphQL routes if enabled
	if config.EnableGraphQL {
		if err := srv.setupGraphQLRoutes(); err != nil {
			return nil, fmt.Errorf("failed to setup GraphQL routes: %w", err)
		}
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	srv.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      srv.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return srv, nil
}

// setupMiddleware configures HTTP middleware stack
func (s *Server) setupMiddleware() {
	// Request ID middleware
	s.router.Use(middleware.RequestID)

	// Real IP middleware
	s.router.Use(middleware.RealIP)

	// Request/error statistics, tracked in the registry's own cells
	s.router.Use(s.statsMiddleware)

	// Recovery middleware to recover from panics
	s.router.Use(middleware.Recoverer)

	// Request logging
	if s.config.EnableLogging {
		s.router.Use(middleware.Logger)
	}

	// CORS middleware
	if s.config.EnableCORS {
		s.router.Use(s.corsMiddleware)
	}

	// Request size limit
	s.router.Use(s.requestSizeLimitMiddleware)

	// Timeout middleware
	s.router.Use(middleware.Timeout(60 * time.Second))
}

// setupRoutes configures HTTP routes
func (s *Server) setupRoutes() {
	h := handlers.New(s.registry)

	// Health endpoint
	s.router.Get("/_health", s.jsonContentType(h.Health(s.startTime)))

	// Prometheus metrics endpoint
	s.router.Get("/_metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}).ServeHTTP)

	// Authentication endpoints
	if s.authManager != nil {
		s.router.Post("/_auth/login", s.jsonContentType(s.authManager.HandleLogin))
		s.router.Post("/_auth/logout", s.jsonContentType(s.authManager.HandleLogout))
	}

	// Setup WebSocket routes for counter watching
	if s.config.EnableWatch {
		s.router.Group(func(r chi.Router) {
			r.Use(s.protect(auth.PermissionRead))
			s.watchManager = handlers.SetupWatchRoutes(r, h, s.config.WatchInterval)
		})
		fmt.Println("✅ WebSocket counter watch enabled")
	}

	// Read routes
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))
		r.Use(s.protect(auth.PermissionRead))

		r.Get("/_counters", h.ListCounters)
		r.Get("/counters/{name}", h.GetCounter)
	})

	// Write routes
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))
		r.Use(s.protect(auth.PermissionWrite))

		r.Put("/counters/{name}", h.StoreCounter)
		r.Delete("/counters/{name}", h.RemoveCounter)
		r.Post("/counters/{name}/add", h.AddCounter)
		r.Post("/counters/{name}/inc", h.IncCounter)
		r.Post("/counters/{name}/dec", h.DecCounter)
		r.Post("/counters/{name}/swap", h.SwapCounter)
		r.Post("/counters/{name}/cas", h.CasCounter)
		r.Post("/counters/{name}/watermark", h.WatermarkCounter)
	})

	// Admin routes
	s.router.Group(func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))
		r.Use(s.protect(auth.PermissionAdmin))

		r.Delete("/_counters", h.ResetCounters)
	})
}

// setupGraphQLRoutes configures GraphQL routes
func (s *Server) setupGraphQLRoutes() error {
	// Create GraphQL handler
	graphqlHandler, err := gql.NewHandler(s.registry)
	if err != nil {
		return fmt.Errorf("failed to create GraphQL handler: %w", err)
	}

	// Mount GraphQL endpoint; mutations ride the same endpoint, so the
	// whole route requires write permission when auth is enabled
	s.router.Group(func(r chi.Router) {
		r.Use(s.protect(auth.PermissionWrite))
		r.Post("/graphql", graphqlHandler.ServeHTTP)
	})

	// Mount GraphiQL playground (interactive UI)
	s.router.Get("/graphiql", gql.GraphiQLHandler())

	fmt.Println("✅ GraphQL API enabled")
	fmt.Printf("   GraphQL endpoint: /graphql\n")
	fmt.Printf("   GraphiQL playground: /graphiql\n")

	return nil
}

// protect returns the auth middleware for the given permission, or a
// pass-through middleware when authentication is disabled
func (s *Server) protect(permission auth.Permission) func(http.Handler) http.Handler {
	if s.authManager == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	return s.authManager.Middleware(permission)
}

// jsonContentType middleware wraps a handler to set JSON content type
func (s *Server) jsonContentType(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next(w, r)
	}
}

// corsMiddleware handles CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Set CORS headers
		origin := "*"
		if len(s.config.AllowedOrigins) > 0 {
			origin = s.config.AllowedOrigins[0]
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		w.Header().Set("Access-Control-Max-Age", "86400")

		// Handle preflight requests
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requestSizeLimitMiddleware limits request body size
func (s *Server) requestSizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxRequestSize)
		next.ServeHTTP(w, r)
	})
}

// statsMiddleware counts requests and error responses in registry cells,
// so the service's own traffic shows up as counters it serves
func (s *Server) statsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.registry.Get("http_requests").Inc()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if ww.Status() >= 400 {
			s.registry.Get("http_errors").Inc()
		}
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	protocol := "http"
	wsProtocol := "ws"
	if s.config.EnableTLS {
		protocol = "https"
		wsProtocol = "wss"
		fmt.Printf("🔒 TLS/SSL enabled\n")
		fmt.Printf("📜 Certificate: %s\n", s.config.TLSCertFile)
	}
	fmt.Printf("🚀 Counter service starting on %s://%s:%d\n", protocol, s.config.Host, s.config.Port)
	if s.authManager != nil {
		fmt.Println("🔐 Authentication required on counter routes")
	}
	if s.watchManager != nil {
		fmt.Printf("🔌 WebSocket endpoint: %s://%s:%d/_ws/watch\n", wsProtocol, s.config.Host, s.config.Port)
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		var err error
		if s.config.EnableTLS {
			err = s.httpSrv.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
		} else {
			err = s.httpSrv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Wait for either error or shutdown signal
	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		fmt.Printf("\n⚠️  Received signal: %v\n", sig)
		return s.Shutdown()
	}
}

// GetRegistry returns the counter registry
func (s *Server) GetRegistry() *registry.Registry {
	return s.registry
}

// GetAuthManager returns the auth manager, or nil when auth is disabled
func (s *Server) GetAuthManager() *auth.Manager {
	return s.authManager
}

// Handler returns the root HTTP handler, for embedding and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	fmt.Println("🛑 Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := s.httpSrv.Shutdown(ctx); err != nil {
		fmt.Printf("❌ Server shutdown error: %v\n", err)
	}

	// Close watch manager and all active WebSocket connections
	if s.watchManager != nil {
		if err := s.watchManager.Close(); err != nil {
			fmt.Printf("⚠️  Warning: Error closing watch manager: %v\n", err)
		}
	}

	fmt.Println("✅ Server shutdown complete")
	return nil
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("Error encoding JSON response: %v\n", err)
	}
}

// WriteError writes an error response
func WriteError(w http.ResponseWriter, statusCode int, errorType, message string) {
	response := map[string]interface{}{
		"ok":      false,
		"error":   errorType,
		"message": message,
		"code":    statusCode,
	}
	WriteJSON(w, statusCode, response)
}

// WriteSuccess writes a success response
func WriteSuccess(w http.ResponseWriter, result interface{}) {
	response := map[string]interface{}{
		"ok":     true,
		"result": result,
	}
	WriteJSON(w, http.StatusOK, response)
}
