package models

// Profile is the authenticated user's account as returned by GET /profile.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`

	// IsAccountVerified flips to true once the emailed OTP is confirmed.
	IsAccountVerified bool `json:"isAccountVerified"`
}

// Credentials is the POST /login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the POST /register payload.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is the POST /login response body.
type LoginResult struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// PasswordReset is the POST /reset-password payload.
type PasswordReset struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Password string `json:"password"`
}
