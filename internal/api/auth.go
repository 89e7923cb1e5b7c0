package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/xNORAGAMIx/udhaari/internal/models"
)

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.LoginResult, error) {
	var res models.LoginResult
	err := c.do(ctx, http.MethodPost, "/login", nil, creds, &res)
	return res, err
}

// Register creates an account. The backend answers with no useful body.
func (c *Client) Register(ctx context.Context, reg models.Registration) error {
	return c.do(ctx, http.MethodPost, "/register", nil, reg, nil)
}

// Profile fetches the authenticated user's account.
func (c *Client) Profile(ctx context.Context) (models.Profile, error) {
	var p models.Profile
	err := c.do(ctx, http.MethodGet, "/profile", nil, nil, &p)
	return p, err
}

// SendVerifyOTP emails an account verification code to the current user.
func (c *Client) SendVerifyOTP(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/send-otp", nil, nil, nil)
}

// VerifyOTP confirms the account with the emailed code.
func (c *Client) VerifyOTP(ctx context.Context, otp string) error {
	body := struct {
		OTP string `json:"otp"`
	}{OTP: otp}
	return c.do(ctx, http.MethodPost, "/verify-otp", nil, body, nil)
}

// SendResetOTP emails a password reset code to email.
func (c *Client) SendResetOTP(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/send-reset-otp", url.Values{"email": {email}}, nil, nil)
}

// ResetPassword sets a new password using a reset code.
func (c *Client) ResetPassword(ctx context.Context, req models.PasswordReset) error {
	return c.do(ctx, http.MethodPost, "/reset-password", nil, req, nil)
}
