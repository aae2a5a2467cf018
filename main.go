package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"researchPortalAPI/handlers"
	"researchPortalAPI/internal/config"
	"researchPortalAPI/internal/frontegg"
	"researchPortalAPI/internal/redirect"
	"researchPortalAPI/internal/session"
	"researchPortalAPI/internal/workers"
	"researchPortalAPI/middleware"
	"researchPortalAPI/services"

	_ "net/http/pprof"
)

const vendorTokenKey = "frontegg:vendor_token"

func main() {
	log.SetFormatter(&log.JSONFormatter{})
	config.LoadDotEnv()
	cfg := config.Load()

	if err := cfg.Require("FRONTEGG_CLIENT_ID", "FRONTEGG_API_KEY", "FRONTEGG_TENANT_ID", "FRONTEGG_DEFAULT_ROLE_ID"); err != nil {
		log.Fatal(err)
	}

	var (
		store       frontegg.TokenStore = frontegg.NewMemoryTokenStore()
		healthCheck func(ctx context.Context) error
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal("Failed to parse REDIS_URL: ", err)
		}
		rdb := redis.NewClient(opts)
		defer func() {
			log.Println("Closing Redis connection...")
			rdb.Close()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis unreachable, vendor token will be fetched on demand: %v", err)
		} else {
			log.Println("Connected to Redis token store")
		}
		cancel()

		store = frontegg.NewRedisTokenStore(rdb, vendorTokenKey)
		healthCheck = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	tokens := frontegg.NewTokenCache(frontegg.TokenCacheOptions{
		ClientID: cfg.ClientID,
		Secret:   cfg.APIKey,
		APIURL:   cfg.APIURL,
		Store:    store,
	})
	vendor := frontegg.NewClient(frontegg.Options{BaseURL: cfg.BaseURL, APIURL: cfg.APIURL, Tokens: tokens})

	parser, err := session.NewParser(session.ParserOptions{
		JWKSURL:      cfg.JWKSURL,
		PinnedRSAPEM: cfg.JWTPublicKey,
	})
	if err != nil {
		log.Fatalf("Session verification unavailable: %v", err)
	}

	overridesHandler, err := handlers.NewOverridesHandler(cfg.ApplicationID, cfg.PublicURL)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.ApplicationID == "" {
		log.Println("FRONTEGG_APPLICATION_ID not set, login overrides are disabled")
	}

	middleware.InitPrometheus(frontegg.Collectors()...)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	limiter := middleware.NewRateLimiter(5, 30)
	go limiter.CleanupVisitors(bgCtx)
	workers.StartTokenRefresher(bgCtx, tokens, 5*time.Minute)

	srv := &server{
		cfg:         cfg,
		parser:      parser,
		limiter:     limiter,
		healthCheck: healthCheck,
		profile:     handlers.NewProfileHandler(services.NewProfileService(vendor)),
		onboarding:  handlers.NewOnboardingHandler(services.NewOnboardingService(vendor)),
		admin:       handlers.NewAdminHandler(services.NewAdminService(vendor, cfg.TenantID)),
		signUp: handlers.NewSignUpHandler(services.NewSignUpService(
			vendor, redirect.NewValidator(cfg.BaseURL), cfg.TenantID, cfg.DefaultRoleID,
		)),
		overrides: overridesHandler,
	}

	port := ":" + cfg.Port
	server := http.Server{
		Addr:         port,
		Handler:      srv.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server: ", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server shutdown complete")
}
