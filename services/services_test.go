package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"researchPortalAPI/internal/frontegg"
	"researchPortalAPI/internal/session"
)

// newVendor serves mux as a fake vendor. Token exchanges always succeed.
func newVendor(t *testing.T, mux *http.ServeMux) *frontegg.Client {
	t.Helper()
	mux.HandleFunc("/auth/vendor/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token":"vendor-token","expiresIn":3600}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	tokens := frontegg.NewTokenCache(frontegg.TokenCacheOptions{ClientID: "client", Secret: "secret", APIURL: srv.URL})
	return frontegg.NewClient(frontegg.Options{BaseURL: srv.URL, APIURL: srv.URL, Tokens: tokens})
}

func testSession(md any) *session.Session {
	return &session.Session{
		Token: "session-token",
		Claims: session.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
			Name:             "Ada",
			Email:            "ada@example.com",
			PhoneNumber:      "+441111111111",
			Picture:          "https://cdn.example.com/claims.png",
			TenantID:         "tenant-1",
			Metadata:         md,
		},
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func mustEntitlements(t *testing.T, body string) []frontegg.Entitlement {
	t.Helper()
	var out []frontegg.Entitlement
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	return out
}
