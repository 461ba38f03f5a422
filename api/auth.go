package api

import (
	"context"
	"net/http"

	"storefront/domain"
)

// RegisterRequest is the account-creation payload; a successful register
// triggers an OTP to the given email.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Gender   string `json:"gender,omitempty"`
}

// AuthResult is the token pair plus profile handed out by login and
// verify-otp.
type AuthResult struct {
	User         domain.AuthUser `json:"user"`
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
}

// Register creates an account. All fields are validated locally before the
// network call.
func (c *Client) Register(ctx context.Context, r RegisterRequest) error {
	if err := domain.ValidateRegistration(r.Username, r.Email, r.Phone, r.Password); err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "users/register", nil, r)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// VerifyOTP confirms a registration with the emailed code. The current guest
// id rides along so the server can merge the guest cart into the new
// account's cart. An expired code surfaces as domain.OTPExpiredError.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (*AuthResult, error) {
	body := map[string]any{"email": email, "code": code}
	if id := c.identity(); id.Kind == domain.IdentityGuest {
		body["guestId"] = id.GuestID
	}
	req, err := c.newRequest(ctx, http.MethodPost, "users/verify-otp", nil, body)
	if err != nil {
		return nil, err
	}
	var out AuthResult
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResendOTP requests a fresh verification code for a pending registration.
func (c *Client) ResendOTP(ctx context.Context, email string) error {
	if err := domain.ValidateEmail(email); err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "users/resend-otp", nil, map[string]any{"email": email})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Login obtains the access/refresh token pair. The current guest id rides
// along for the server-side guest cart merge.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	body := map[string]any{"username": username, "password": password}
	if id := c.identity(); id.Kind == domain.IdentityGuest {
		body["guestId"] = id.GuestID
	}
	req, err := c.newRequest(ctx, http.MethodPost, "users/login", nil, body)
	if err != nil {
		return nil, err
	}
	var out AuthResult
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile fetches a user profile.
func (c *Client) Profile(ctx context.Context, userID string) (*domain.AuthUser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "users/"+userID, nil, nil)
	if err != nil {
		return nil, err
	}
	var out domain.AuthUser
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile applies a partial profile update and returns the confirmed
// profile. Fields are validated locally when present.
func (c *Client) UpdateProfile(ctx context.Context, userID string, patch domain.UserPatch) (*domain.AuthUser, error) {
	if patch.Email != nil {
		if err := domain.ValidateEmail(*patch.Email); err != nil {
			return nil, err
		}
	}
	if patch.Phone != nil {
		if err := domain.ValidatePhone(*patch.Phone); err != nil {
			return nil, err
		}
	}
	req, err := c.newRequest(ctx, http.MethodPut, "users/"+userID, nil, patch)
	if err != nil {
		return nil, err
	}
	var out domain.AuthUser
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword updates the account password via the profile endpoint.
func (c *Client) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if err := domain.ValidatePassword(newPassword); err != nil {
		return err
	}
	body := map[string]any{"oldPassword": oldPassword, "newPassword": newPassword}
	req, err := c.newRequest(ctx, http.MethodPut, "users/"+userID, nil, body)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
