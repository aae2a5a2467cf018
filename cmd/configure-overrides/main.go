// Command configure-overrides points the vendor's hosted login box at this
// service's login overrides endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"researchPortalAPI/internal/config"
	"researchPortalAPI/internal/frontegg"
)

const defaultOverridesURL = "http://localhost:3333/api/frontegg-login-overrides"

func main() {
	entity := flag.String("entity", "loginBox", "hosted box to configure (loginBox or adminBox)")
	overridesURL := flag.String("url", "", "overrides endpoint URL (default FRONTEGG_OVERRIDES_URL)")
	flag.Parse()

	config.LoadDotEnv()
	cfg := config.Load()
	if err := cfg.Require("FRONTEGG_CLIENT_ID", "FRONTEGG_API_KEY"); err != nil {
		log.Fatal(err)
	}

	url := *overridesURL
	if url == "" {
		url = cfg.OverridesURL
	}
	if url == "" {
		url = defaultOverridesURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	tokens := frontegg.NewTokenCache(frontegg.TokenCacheOptions{ClientID: cfg.ClientID, Secret: cfg.APIKey, APIURL: cfg.APIURL})
	vendor := frontegg.NewClient(frontegg.Options{BaseURL: cfg.BaseURL, APIURL: cfg.APIURL, Tokens: tokens})

	if err := configure(ctx, vendor, *entity, url); err != nil {
		log.Errorf("Configuration failed: %v", err)
		os.Exit(1)
	}
	log.Printf("Hosted %s now loads customizations from %s", *entity, url)
}

// configure merges metadataOverrides.url into the stored configuration of
// entity and writes it back.
func configure(ctx context.Context, vendor *frontegg.Client, entity, overridesURL string) error {
	log.Printf("Fetching current metadata for %s...", entity)
	current, err := vendor.GetEntityMetadata(ctx, entity)
	if err != nil {
		return fmt.Errorf("failed to fetch metadata: %w", err)
	}

	log.Printf("Updating metadata with overrides URL %s...", overridesURL)
	err = vendor.UpdateEntityMetadata(ctx, frontegg.EntityMetadata{
		EntityName:    entity,
		Configuration: frontegg.WithOverridesURL(current.Configuration, overridesURL),
	})
	if err != nil {
		return fmt.Errorf("failed to update metadata: %w", err)
	}
	return nil
}
