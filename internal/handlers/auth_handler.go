package handlers

import (
	"log/slog"
	"net/http"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/security"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// Signup handles POST /api/users/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, h.logger, http.StatusBadRequest, ErrInvalidBody, nil)
		return
	}

	user, err := h.authService.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	respondWithSuccess(w, http.StatusCreated, MsgUserCreated, envelope{
		"email": user.Email,
		"id":    user.ID,
	})
}

// Login handles POST /api/users/login. The session cookie is the only
// credential handed back.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, h.logger, http.StatusBadRequest, ErrInvalidBody, nil)
		return
	}

	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, SessionCookieName, session.ID, h.authService.SessionDuration()))
	respondWithSuccess(w, http.StatusOK, MsgLoginSuccessful, nil)
}

// Logout handles POST /api/users/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var sessionID string
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		sessionID = cookie.Value
	}

	if err := h.authService.Logout(r.Context(), sessionID); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
	respondWithSuccess(w, http.StatusOK, MsgLogoutSuccessful, nil)
}

// RequestOTP handles POST /api/users/request-otp
func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, h.logger, http.StatusBadRequest, ErrInvalidBody, nil)
		return
	}

	if err := h.authService.RequestOTP(r.Context(), req.Email); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, MsgOTPSent, nil)
}

// VerifyOTP handles POST /api/users/verify-otp
func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, h.logger, http.StatusBadRequest, ErrInvalidBody, nil)
		return
	}

	if err := h.authService.VerifyOTP(r.Context(), req.Email, req.OTP); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, MsgOTPVerified, nil)
}

// ResetPassword handles POST /api/users/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, h.logger, http.StatusBadRequest, ErrInvalidBody, nil)
		return
	}

	if err := h.authService.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		respondWithServiceError(w, r, h.logger, err)
		return
	}

	respondWithSuccess(w, http.StatusOK, MsgPasswordResetSuccess, nil)
}

// Me handles GET /api/users/me behind RequireAuth
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, r, h.logger, http.StatusUnauthorized, "Not authenticated!", nil)
		return
	}

	respondWithSuccess(w, http.StatusOK, "Authenticated!", envelope{
		"email": user.Email,
		"id":    user.ID,
	})
}
