package handlers

import (
	"context"
	"net/http"
	"time"

	"researchPortalAPI/internal/user"
	"researchPortalAPI/middleware"
	"researchPortalAPI/services"
)

type OnboardingHandler struct {
	onboardingService *services.OnboardingService
}

func NewOnboardingHandler(onboardingService *services.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService}
}

func (h *OnboardingHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sess, ok := middleware.GetSession(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	respondWithJSON(w, http.StatusOK, h.onboardingService.Evaluate(ctx, sess))
}

func (h *OnboardingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	sess, ok := middleware.GetSession(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req user.OnboardingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	decision, err := h.onboardingService.Submit(ctx, sess, req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to save your details. Please try again.")
		return
	}

	respondWithJSON(w, http.StatusOK, decision)
}
