package transport

import (
	"net/http"

	"thrift-store/internal/domain"
	"thrift-store/internal/middleware"
	"thrift-store/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken string      `json:"access_token"`
	User        UserProfile `json:"user"`
}

// UserProfile is the public view of a user
type UserProfile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"`
}

// ProfileResponse combines the user with the marketplace profile
type ProfileResponse struct {
	User    UserProfile     `json:"user"`
	Profile *domain.Profile `json:"profile"`
}

func toUserProfile(user *domain.User) UserProfile {
	return UserProfile{
		ID:       user.ID.String(),
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
}

// UserHandler handles HTTP requests for user and profile operations
type UserHandler struct {
	userService    service.UserService
	profileService service.ProfileService
	catalog        service.CatalogService
	logger         *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, profileService service.ProfileService, catalog service.CatalogService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService:    userService,
		profileService: profileService,
		catalog:        catalog,
		logger:         logger,
	}
}

// RegisterRoutes registers all user routes
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Get("/{id}/listings", h.SellerListings)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Get("/profile", h.GetProfile)
			r.Post("/profile/mode", h.ToggleMode)
			r.Get("/profile/stats", h.Stats)
		})
	})
}

// Register handles user registration
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	user, err := h.userService.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, h.logger, "Registration", err)
		return
	}

	h.logger.Info("User registered successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, toUserProfile(user))
}

// Login handles user authentication
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	accessToken, user, err := h.userService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondWithServiceError(w, h.logger, "Login", err)
		return
	}

	h.logger.Info("User logged in successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		AccessToken: accessToken,
		User:        toUserProfile(user),
	})
}

// GetProfile returns the caller's user record and marketplace profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Get user", err)
		return
	}

	profile, err := h.profileService.GetProfile(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Get profile", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProfileResponse{User: toUserProfile(user), Profile: profile})
}

// ToggleMode switches the caller between buyer and seller mode
func (h *UserHandler) ToggleMode(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	profile, err := h.profileService.ToggleMode(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Toggle mode", err)
		return
	}

	h.logger.Info("Profile mode switched",
		zap.String("user_id", userID.String()),
		zap.String("mode", string(profile.CurrentMode)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, profile)
}

// Stats returns listing, purchase and review counters for the caller
func (h *UserHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	stats, err := h.profileService.Stats(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Profile stats", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}

// SellerListings lists a seller's items, optionally narrowed by ?status=
func (h *UserHandler) SellerListings(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var status *domain.ItemStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.ItemStatus(raw)
		if !s.Valid() {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid status")
			return
		}
		status = &s
	}

	items, err := h.catalog.ListBySeller(r.Context(), sellerID, status)
	if err != nil {
		respondWithServiceError(w, h.logger, "Seller listings", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, items)
}
