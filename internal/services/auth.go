package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
)

// AuthService talks to the auth endpoints. It implements session.AuthAPI.
//
// Its client must not carry the retry-on-401 policy: a 401 from the refresh endpoint would otherwise
// trigger another refresh.
type AuthService struct {
	api *APIService
}

// NewAuthService creates an AuthService over api.
func NewAuthService(api *APIService) *AuthService {
	return &AuthService{api: api}
}

type refreshPayload struct {
	Refresh string `json:"refresh"`
}

// Login exchanges credentials for an access token, a refresh token and the user's profile.
// Rejected credentials wrap [shared.ErrAuthFailed].
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*models.AuthResult, error) {
	var res models.AuthResult
	err := s.api.DoJSON(ctx, http.MethodPost, "auth/login/", nil, creds, &res)
	if err != nil {
		if shared.IsStatus(err, http.StatusBadRequest) || shared.IsStatus(err, http.StatusUnauthorized) {
			return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}
		return nil, err
	}
	return &res, nil
}

// Register creates an account and returns its profile. The tokens in the response are ignored;
// callers log in separately. Constraint violations wrap [shared.ErrValidation].
func (s *AuthService) Register(ctx context.Context, reg models.Registration) (*models.Profile, error) {
	var res struct {
		User models.Profile `json:"user"`
	}
	err := s.api.DoJSON(ctx, http.MethodPost, "auth/register/", nil, reg, &res)
	if err != nil {
		if shared.IsStatus(err, http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
		}
		return nil, err
	}
	return &res.User, nil
}

// Logout asks the backend to invalidate refreshToken.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.api.DoJSON(ctx, http.MethodPost, "auth/logout/", nil, refreshPayload{Refresh: refreshToken}, nil)
}

// Refresh exchanges a refresh token for a new access token.
// A rejected refresh token wraps [shared.ErrRefreshFailed].
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	var res struct {
		Access string `json:"access"`
	}
	err := s.api.DoJSON(ctx, http.MethodPost, "auth/refresh/", nil, refreshPayload{Refresh: refreshToken}, &res)
	if err != nil {
		var re *shared.RequestError
		if errors.As(err, &re) && re.StatusCode < http.StatusInternalServerError {
			return "", fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
		}
		return "", err
	}
	if res.Access == "" {
		return "", fmt.Errorf("%w: response carried no access token", shared.ErrRefreshFailed)
	}
	return res.Access, nil
}
