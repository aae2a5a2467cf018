package handlers

import (
	"context"
	"net/http"
	"time"

	"researchPortalAPI/internal/user"
	"researchPortalAPI/middleware"
	"researchPortalAPI/services"
)

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sess, ok := middleware.GetSession(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	respondWithJSON(w, http.StatusOK, h.profileService.GetProfile(ctx, sess))
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	sess, ok := middleware.GetSession(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req user.UpdateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profile, err := h.profileService.UpdateProfile(ctx, sess, req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update profile. Please try again.")
		return
	}

	respondWithJSON(w, http.StatusOK, profile)
}

// UploadPicture accepts a multipart form with the picture in the "image" field.
func (h *ProfileHandler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	sess, ok := middleware.GetSession(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxPictureBytes+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Image file is required")
		return
	}
	defer file.Close()

	url, err := h.profileService.UploadPicture(ctx, sess, header.Filename, header.Header.Get("Content-Type"), header.Size, file)
	if err != nil {
		respondWithServiceError(w, err, "Failed to upload profile picture")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"profilePictureUrl": url})
}
