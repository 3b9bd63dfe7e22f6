package security

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// GenerateSessionID returns the opaque token stored in the session_id cookie
func GenerateSessionID() string {
	return uuid.New().String()
}

// IsSecureRequest reports whether the client reached us over HTTPS, either
// directly or through a TLS-terminating proxy such as a cloudflared tunnel.
func IsSecureRequest(r *http.Request) bool {
	switch {
	case r.TLS != nil:
		return true
	case r.Header.Get("X-Forwarded-Proto") == "https":
		return true
	default:
		return r.URL.Scheme == "https"
	}
}

// CreateSessionCookie builds the login cookie. Max-Age is the session TTL in
// whole seconds; Secure follows IsSecureRequest.
func CreateSessionCookie(r *http.Request, name, value string, ttl time.Duration) *http.Cookie {
	maxAge := int(ttl.Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}

// CreateDeleteCookie expires the named cookie on the client
func CreateDeleteCookie(r *http.Request, name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
}
