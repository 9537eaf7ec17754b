package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tgienger/deck/internal/models"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, email, password string) (models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", nil, loginRequest{Email: email, Password: password}, &out)
	return out, err
}

// Register creates an account; the server sends a verification email
func (c *Client) Register(ctx context.Context, name, email, password string) (models.AuthResponse, error) {
	var out models.AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/auth/register", nil, registerRequest{Name: name, Email: email, Password: password}, &out)
	return out, err
}

// Verify confirms an email address with the token from the verification link
func (c *Client) Verify(ctx context.Context, token, email string) (models.AuthResponse, error) {
	q := url.Values{}
	q.Set("token", token)
	if email != "" {
		q.Set("email", email)
	}
	var out models.AuthResponse
	err := c.doJSON(ctx, http.MethodGet, "/auth/verify", q, nil, &out)
	return out, err
}

// ResendVerification asks the server to send a new verification email
func (c *Client) ResendVerification(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/resend-verification", nil, map[string]string{"email": email}, nil)
}
