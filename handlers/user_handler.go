package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/microfront/profile-service/middleware"
	"github.com/microfront/profile-service/models"
	"github.com/microfront/profile-service/repositories"
	"github.com/microfront/profile-service/utils"
)

// UpdateProfileRequest represents a request to update a user's profile
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required,display_name"`
}

// ProfileResponse represents a user profile in API responses
type ProfileResponse struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	UpdatedAt   string `json:"updated_at"`
}

// UserHandler handles user profile HTTP requests
type UserHandler struct {
	userRepo repositories.UserRepository
	logger   *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userRepo: userRepo,
		logger:   logger,
	}
}

// HandleGetProfile handles GET /api/users/{username}
// Public endpoint: anyone may read a profile.
func (h *UserHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if err := utils.ValidateUsername(username); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid username", nil)
		return
	}

	user, err := h.userRepo.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			_ = utils.WriteNotFound(w, "User not found")
			return
		}
		h.logger.Error("failed to get user", zap.String("username", username), zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to load profile")
		return
	}

	_ = utils.WriteOK(w, toProfileResponse(user))
}

// HandleUpdateProfile handles PUT /api/users/{username}/profile
// Requires an authenticated caller who owns the profile; ownership is
// enforced by the auth middleware before this handler runs.
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	authCtx := middleware.AuthContextFrom(r.Context())
	if authCtx == nil {
		h.logger.Error("update profile reached without auth context")
		_ = utils.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("username", authCtx.Username),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Validation failed", validationDetails(err))
		return
	}

	user, err := h.userRepo.UpsertDisplayName(r.Context(), authCtx.Username, req.DisplayName)
	if err != nil {
		h.logger.Error("failed to update profile",
			zap.String("username", authCtx.Username),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to update profile")
		return
	}

	h.logger.Info("profile updated", zap.String("username", user.Username))
	_ = utils.WriteOK(w, toProfileResponse(user))
}

// validationDetails flattens validator field errors into response details
func validationDetails(err error) map[string]interface{} {
	fields := utils.GetValidationFields(err)
	if len(fields) == 0 {
		return nil
	}
	details := make(map[string]interface{}, len(fields))
	for field, message := range fields {
		details[field] = message
	}
	return details
}

func toProfileResponse(user *models.User) ProfileResponse {
	return ProfileResponse{
		Username:    user.Username,
		DisplayName: user.DisplayName,
		UpdatedAt:   user.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
