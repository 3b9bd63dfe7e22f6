// Package client talks to the Aura HTTP API. The session cookie returned by
// Login is kept in a cookie jar and can be exported so a CLI can resume it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

const (
	// SessionCookieName matches the cookie the server sets on login
	SessionCookieName = "session_id"

	// DefaultTimeout bounds every request
	DefaultTimeout = 30 * time.Second
	// OTPRequestTimeout bounds request-otp, which waits for mail delivery
	OTPRequestTimeout = 15 * time.Second
)

// APIError is returned for any non-2xx response
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return e.Message
}

// IsStatus reports whether err is an APIError with the given status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Account is the identity returned by signup and /me
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Reply is the bot's answer to a chat message
type Reply struct {
	ID     int64  `json:"id"`
	Text   string `json:"text"`
	Sender string `json:"sender"`
}

// Client is an Aura API client. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// New creates a client for the server at baseURL
func New(baseURL string) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		baseURL: u,
		http: &http.Client{
			Jar:     jar,
			Timeout: DefaultTimeout,
		},
	}, nil
}

// SessionToken returns the current session cookie value, or "" if none
func (c *Client) SessionToken() string {
	for _, cookie := range c.http.Jar.Cookies(c.baseURL) {
		if cookie.Name == SessionCookieName {
			return cookie.Value
		}
	}
	return ""
}

// SetSessionToken restores a session saved from a previous run. An empty
// token clears it.
func (c *Client) SetSessionToken(token string) {
	cookie := &http.Cookie{Name: SessionCookieName, Value: token, Path: "/"}
	if token == "" {
		cookie.MaxAge = -1
	}
	c.http.Jar.SetCookies(c.baseURL, []*http.Cookie{cookie})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type otpPayload struct {
	Email       string `json:"email"`
	OTP         string `json:"otp,omitempty"`
	NewPassword string `json:"newPassword,omitempty"`
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Signup creates an account. It does not log in.
func (c *Client) Signup(ctx context.Context, email, password string) (*Account, error) {
	var resp struct {
		response
		Account
	}
	if err := c.do(ctx, http.MethodPost, "/api/users/signup", credentials{email, password}, &resp); err != nil {
		return nil, err
	}
	return &resp.Account, nil
}

// Login authenticates and stores the session cookie
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp response
	if err := c.do(ctx, http.MethodPost, "/api/users/login", credentials{email, password}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Logout ends the server session and forgets the local cookie
func (c *Client) Logout(ctx context.Context) (string, error) {
	var resp response
	err := c.do(ctx, http.MethodPost, "/api/users/logout", nil, &resp)
	c.SetSessionToken("")
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// RequestOTP asks the server to mail a reset code
func (c *Client) RequestOTP(ctx context.Context, email string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, OTPRequestTimeout)
	defer cancel()

	var resp response
	if err := c.do(ctx, http.MethodPost, "/api/users/request-otp", otpPayload{Email: email}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// VerifyOTP checks a code without consuming it
func (c *Client) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	var resp response
	if err := c.do(ctx, http.MethodPost, "/api/users/verify-otp", otpPayload{Email: email, OTP: otp}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ResetPassword consumes the code and sets a new password
func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) (string, error) {
	var resp response
	payload := otpPayload{Email: email, OTP: otp, NewPassword: newPassword}
	if err := c.do(ctx, http.MethodPost, "/api/users/reset-password", payload, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Me returns the account bound to the current session
func (c *Client) Me(ctx context.Context) (*Account, error) {
	var resp struct {
		response
		Account
	}
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Account, nil
}

// Chat sends one message and returns the bot's reply
func (c *Client) Chat(ctx context.Context, message string) (*Reply, error) {
	var resp struct {
		response
		Reply
	}
	if err := c.do(ctx, http.MethodPost, "/chat", map[string]string{"message": message}, &resp); err != nil {
		return nil, err
	}
	return &resp.Reply, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var r response
		if json.Unmarshal(data, &r) == nil {
			apiErr.Message = r.Message
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
