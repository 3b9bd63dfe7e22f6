package handlers

import (
	"log/slog"
	"net/http"
)

// Router wires every HTTP route onto a new ServeMux wrapped in request logging
type Router struct {
	Auth       *AuthHandler
	Chat       *ChatHandler
	Middleware *Middleware
	Startup    *StartupStatus
	Logger     *slog.Logger
}

// Handler builds the http.Handler for the server
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", Liveness)
	if rt.Startup != nil {
		mux.Handle("GET /healthz", rt.Startup)
	}

	// Auth routes
	mux.HandleFunc("POST /api/users/signup", rt.Auth.Signup)
	mux.HandleFunc("POST /api/users/login", rt.Auth.Login)
	mux.HandleFunc("POST /api/users/logout", rt.Auth.Logout)
	mux.HandleFunc("POST /api/users/request-otp", rt.Auth.RequestOTP)
	mux.HandleFunc("POST /api/users/verify-otp", rt.Auth.VerifyOTP)
	mux.HandleFunc("POST /api/users/reset-password", rt.Auth.ResetPassword)
	mux.HandleFunc("GET /api/users/me", rt.Middleware.RequireAuth(rt.Auth.Me))

	// Chat
	mux.HandleFunc("POST /chat", rt.Chat.Chat)

	return Logging(rt.Logger, mux)
}
