package handlers

import (
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

//go:embed assets/login_overrides.json
var loginOverridesTemplate string

const publicURLPlaceholder = "{{PUBLIC_URL}}"

var overridesCORSHeaders = map[string]string{
	"Access-Control-Allow-Origin":      "*",
	"Access-Control-Allow-Methods":     "GET, OPTIONS, HEAD",
	"Access-Control-Allow-Headers":     "Content-Type, x-frontegg-framework, X-Frontegg-Framework, x-frontegg-sdk, X-Frontegg-Sdk, frontegg-requested-application-id, Authorization, X-Requested-With, Accept, Origin",
	"Access-Control-Allow-Credentials": "true",
	"Access-Control-Max-Age":           "86400",
}

// OverridesHandler serves the theme and copy the vendor's hosted login page
// fetches at render time.
type OverridesHandler struct {
	applicationID string
	document      []byte
}

// NewOverridesHandler renders the embedded overrides document with asset
// URLs pointing at publicURL.
func NewOverridesHandler(applicationID, publicURL string) (*OverridesHandler, error) {
	quoted, err := json.Marshal(strings.TrimRight(publicURL, "/"))
	if err != nil {
		return nil, err
	}
	escaped := strings.Trim(string(quoted), `"`)
	doc := []byte(strings.ReplaceAll(loginOverridesTemplate, publicURLPlaceholder, escaped))
	if !json.Valid(doc) {
		return nil, errors.New("login overrides document is not valid JSON")
	}
	return &OverridesHandler{applicationID: applicationID, document: doc}, nil
}

func (h *OverridesHandler) ServeLoginOverrides(w http.ResponseWriter, r *http.Request) {
	for k, v := range overridesCORSHeaders {
		w.Header().Set(k, v)
	}

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet:
	default:
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	requested := r.Header.Get("frontegg-requested-application-id")
	if h.applicationID == "" || requested != h.applicationID {
		if requested == "" {
			requested = "none"
		}
		log.Printf("Overrides: request from application ID %s does not match", requested)
		respondWithJSON(w, http.StatusOK, map[string]any{})
		return
	}

	log.Printf("Overrides: applying customizations for application ID %s", requested)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(h.document)
}
