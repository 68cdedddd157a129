package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"hutang/internal/middleware"
	"hutang/internal/models"
	"hutang/internal/services"
	"hutang/internal/validator"
)

type registerRequest struct {
	Username string `json:"username" validate:"notblank,max=50"`
	Email    string `json:"email" validate:"notblank,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"max=100"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if errs := validator.Struct(req); errs != nil {
		respondInvalid(w, errs, "Username, email, and password are required")
		return
	}
	user, err := h.auth.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		respondServiceError(w, err, "Error registering user")
		return
	}
	respondSuccess(w, http.StatusCreated, "User registered successfully", user)
}

// loginRequest takes a username or an email in Username. Email is accepted
// as an alias for clients that send it under that name.
type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User      models.User `json:"user"`
	UserID    string      `json:"userId"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondDecodeError(w, err)
		return
	}
	identifier := strings.TrimSpace(req.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	result, err := h.auth.Login(r.Context(), identifier, req.Password)
	if errors.Is(err, services.ErrInvalidCredentials) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		respondInternal(w, "Error logging in", err)
		return
	}
	respondSuccess(w, http.StatusOK, "Login successful", loginResponse{
		User:      result.User,
		UserID:    result.User.ID,
		Token:     result.Session.Token,
		ExpiresAt: result.Session.ExpiresAt,
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required. Please login first.")
		return
	}
	if err := h.auth.Logout(r.Context(), sess.ID); err != nil {
		respondInternal(w, "Error logging out", err)
		return
	}
	respondSuccess(w, http.StatusOK, "Logout successful", nil)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required. Please login first.")
		return
	}
	user, err := h.auth.Me(r.Context(), userID)
	if errors.Is(err, services.ErrUserNotFound) {
		respondError(w, http.StatusUnauthorized, "User not found")
		return
	}
	if err != nil {
		respondInternal(w, "Error retrieving user profile", err)
		return
	}
	respondSuccess(w, http.StatusOK, "User profile retrieved successfully", user)
}
