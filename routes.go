package main

import (
	"context"
	"net/http"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"researchPortalAPI/handlers"
	"researchPortalAPI/internal/config"
	"researchPortalAPI/internal/session"
	"researchPortalAPI/middleware"
)

// server holds everything the router dispatches to.
type server struct {
	cfg         *config.Config
	parser      *session.Parser
	limiter     *middleware.RateLimiter
	healthCheck func(ctx context.Context) error

	profile    *handlers.ProfileHandler
	onboarding *handlers.OnboardingHandler
	admin      *handlers.AdminHandler
	signUp     *handlers.SignUpHandler
	overrides  *handlers.OverridesHandler
}

func (s *server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestIDMiddleware)

	// The vendor fetches this cross-origin with its own CORS rules.
	r.HandleFunc("/api/frontegg-login-overrides", s.overrides.ServeLoginOverrides)

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(s.limiter.Middleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(s.cfg.MetricsUser, s.cfg.MetricsPass)(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(s.cfg.PprofSecret)(http.DefaultServeMux))

	standardRouter.HandleFunc("/health", s.health).Methods("GET")

	api := standardRouter.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/signup", s.signUp.SignUp).Methods("POST")

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.VendorAuthMiddleware(s.parser))

	protected.HandleFunc("/user/profile", s.profile.GetProfile).Methods("GET")
	protected.HandleFunc("/user/profile", s.profile.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user/profile/image", s.profile.UploadPicture).Methods("PUT")
	protected.HandleFunc("/user/onboarding", s.onboarding.GetStatus).Methods("GET")
	protected.HandleFunc("/user/onboarding", s.onboarding.Submit).Methods("POST")

	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)

	admin.HandleFunc("/users", s.admin.GetUsers).Methods("GET")
	admin.HandleFunc("/users/{id}", s.admin.UpdateUser).Methods("PUT")
	admin.HandleFunc("/users/{id}/subscriptions", s.admin.AssignSubscription).Methods("POST")
	admin.HandleFunc("/plans", s.admin.GetPlans).Methods("GET")
	admin.HandleFunc("/subscriptions/{id}", s.admin.ExtendSubscription).Methods("PATCH")
	admin.HandleFunc("/subscriptions/{id}", s.admin.RemoveSubscription).Methods("DELETE")

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Request-ID", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length", "X-Request-ID"}),
		gorillaHandlers.AllowCredentials(),
	)

	return withOverridesBypass(corsHandler(r), r)
}

// withOverridesBypass keeps the generic CORS handler from answering the
// overrides endpoint's preflight, which carries its own headers.
func withOverridesBypass(cors, raw http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/frontegg-login-overrides" {
			raw.ServeHTTP(w, r)
			return
		}
		cors.ServeHTTP(w, r)
	})
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.healthCheck != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.healthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "token store unavailable"}`))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "healthy", "service": "research-portal-api"}`))
}
