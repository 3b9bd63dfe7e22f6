package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/models"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/security"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey ContextKey = "user"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
	logger      *slog.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, logger *slog.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		logger:      logger,
	}
}

// RequireAuth is middleware that requires a valid session
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			respondWithError(w, r, m.logger, http.StatusUnauthorized, "Not authenticated!", nil)
			return
		}

		user, err := m.authService.CurrentUser(r.Context(), cookie.Value)
		if err != nil {
			if service.CodeOf(err) == service.CodeUnauthenticated {
				// Clear invalid cookie
				http.SetCookie(w, security.CreateDeleteCookie(r, SessionCookieName))
			}
			respondWithServiceError(w, r, m.logger, err)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func Logging(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start))
	})
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}
