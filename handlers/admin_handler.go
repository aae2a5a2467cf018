package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"researchPortalAPI/internal/types/subscription"
	"researchPortalAPI/internal/user"
	"researchPortalAPI/middleware"
	"researchPortalAPI/services"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	sess, ok := middleware.GetSession(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	roster, err := h.adminService.LoadRoster(ctx, sess)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load users")
		return
	}

	log.Printf("Admin Handler: %s loaded %d users", sess.UserID(), len(roster))
	respondWithJSON(w, http.StatusOK, roster)
}

func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var req user.AdminUpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.adminService.UpdateUser(ctx, mux.Vars(r)["id"], req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update user")
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

func (h *AdminHandler) GetPlans(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	plans, err := h.adminService.ListPlans(ctx)
	if err != nil {
		respondWithServiceError(w, err, "Failed to load plans")
		return
	}

	respondWithJSON(w, http.StatusOK, plans)
}

func (h *AdminHandler) AssignSubscription(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var req subscription.AssignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.adminService.AssignSubscription(ctx, mux.Vars(r)["id"], req); err != nil {
		respondWithServiceError(w, err, "Failed to assign subscription")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

func (h *AdminHandler) ExtendSubscription(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	var req subscription.ExtendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.adminService.ExtendSubscription(ctx, mux.Vars(r)["id"], req); err != nil {
		respondWithServiceError(w, err, "Failed to extend subscription")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) RemoveSubscription(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	if err := h.adminService.RemoveSubscription(ctx, mux.Vars(r)["id"]); err != nil {
		respondWithServiceError(w, err, "Failed to remove subscription")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}
