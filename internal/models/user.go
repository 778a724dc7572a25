package models

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/desertthunder/cadence/internal/shared"
)

// User types accepted by the registration endpoint.
const (
	UserTypeRegular = "regular"
	UserTypeAdmin   = "admin"
)

// Profile is the authenticated user's record. It is the only part of a session written to durable storage.
type Profile struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdmin   bool   `json:"is_admin"`
	UserType  string `json:"user_type"`
}

// DisplayName returns the user's full name, falling back to the username.
func (p Profile) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	if name == "" {
		return p.Username
	}
	return name
}

// Credentials are the email/password pair submitted at login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both fields are present.
func (c Credentials) Validate() error {
	if strings.TrimSpace(c.Email) == "" || c.Password == "" {
		return fmt.Errorf("%w: email and password are required", shared.ErrMissingCredentials)
	}
	return nil
}

// Registration is the sign-up payload.
type Registration struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	UserType        string `json:"user_type,omitempty"`
	FirstName       string `json:"first_name,omitempty"`
	LastName        string `json:"last_name,omitempty"`
}

// Validate performs the checks that do not need the backend: required fields, email shape, and password confirmation.
func (r Registration) Validate() error {
	switch {
	case strings.TrimSpace(r.Username) == "":
		return fmt.Errorf("%w: username is required", shared.ErrValidation)
	case strings.TrimSpace(r.Email) == "":
		return fmt.Errorf("%w: email is required", shared.ErrValidation)
	case r.Password == "":
		return fmt.Errorf("%w: password is required", shared.ErrValidation)
	case r.Password != r.PasswordConfirm:
		return fmt.Errorf("%w: passwords do not match", shared.ErrValidation)
	}

	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("%w: invalid email %q", shared.ErrValidation, r.Email)
	}

	switch r.UserType {
	case "", UserTypeRegular, UserTypeAdmin:
	default:
		return fmt.Errorf("%w: unknown user type %q", shared.ErrValidation, r.UserType)
	}
	return nil
}

// AuthResult is the login response: an access token, a refresh token, and the user's profile.
type AuthResult struct {
	Access  string  `json:"access"`
	Refresh string  `json:"refresh"`
	User    Profile `json:"user"`
}

// PasswordChange is the payload of the change-password endpoint.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Validate checks the confirmation locally.
func (p PasswordChange) Validate() error {
	if p.CurrentPassword == "" || p.NewPassword == "" {
		return fmt.Errorf("%w: current and new password are required", shared.ErrValidation)
	}
	if p.NewPassword != p.ConfirmPassword {
		return fmt.Errorf("%w: new passwords do not match", shared.ErrValidation)
	}
	return nil
}
