package handlers

import (
	"context"
	"net/http"
	"time"

	"researchPortalAPI/internal/user"
	"researchPortalAPI/services"
)

type SignUpHandler struct {
	signUpService *services.SignUpService
}

func NewSignUpHandler(signUpService *services.SignUpService) *SignUpHandler {
	return &SignUpHandler{signUpService: signUpService}
}

func (h *SignUpHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	var req user.SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.signUpService.SignUp(ctx, req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create account. Please try again.")
		return
	}

	code := http.StatusOK
	if result.Outcome == services.OutcomeCreated {
		code = http.StatusCreated
	}
	respondWithJSON(w, code, result)
}
