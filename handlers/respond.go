package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"researchPortalAPI/internal/frontegg"
	"researchPortalAPI/internal/onboarding"
	"researchPortalAPI/services"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps a service error to a response. fallback is the
// message used when the error carries nothing fit for the user.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	var verrs onboarding.ValidationErrors
	if errors.As(err, &verrs) {
		respondWithJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "Please correct the highlighted fields",
			"fields": verrs,
		})
		return
	}

	var inputErr *services.InputError
	if errors.As(err, &inputErr) {
		respondWithError(w, http.StatusBadRequest, inputErr.Message)
		return
	}

	var apiErr *frontegg.APIError
	if errors.As(err, &apiErr) {
		log.Printf("Vendor error: %v", err)
		switch {
		case frontegg.IsSessionRejected(err):
			respondWithError(w, http.StatusUnauthorized, "Session expired")
		case apiErr.StatusCode == http.StatusNotFound:
			respondWithError(w, http.StatusNotFound, messageOr(apiErr.Message, "Not found"))
		case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusUnauthorized:
			respondWithError(w, apiErr.StatusCode, messageOr(apiErr.Message, fallback))
		default:
			respondWithError(w, http.StatusBadGateway, fallback)
		}
		return
	}

	log.Printf("Request failed: %v", err)
	respondWithError(w, http.StatusInternalServerError, fallback)
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v)
}
