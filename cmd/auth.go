package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges credentials for tokens and stores the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := credentialsFrom(cmd)
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("%w: pass --email and --password or set %s and %s", err, shared.EnvEmail, shared.EnvPassword)
	}

	r.logger.Info("logging in", "email", creds.Email)

	sess, err := r.manager.Login(ctx, creds)
	if err != nil {
		return err
	}

	r.writePlain("✓ Logged in as %s (%s)\n", sess.User.DisplayName(), sess.User.Email)
	if !r.config.Session.PersistRefreshToken {
		r.writePlainln("Only your profile was saved. Commands need --email/--password (or %s/%s) to sign in again,", shared.EnvEmail, shared.EnvPassword)
		r.writePlain("or set [session] persist_refresh_token = true to keep the refresh token between runs.\n")
	}
	return nil
}

// AuthRegister creates an account.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	reg := models.Registration{
		Username:        cmd.String("username"),
		Email:           cmd.String("email"),
		Password:        cmd.String("password"),
		PasswordConfirm: cmd.String("password-confirm"),
		FirstName:       cmd.String("first-name"),
		LastName:        cmd.String("last-name"),
		UserType:        cmd.String("user-type"),
	}
	if reg.PasswordConfirm == "" {
		reg.PasswordConfirm = reg.Password
	}

	profile, err := r.manager.Register(ctx, reg)
	if err != nil {
		return err
	}

	r.writePlain("✓ Registered %s (%s)\n", profile.Username, profile.Email)
	r.writePlain("Run 'cadence auth login' to sign in.\n")
	return nil
}

// AuthLogout revokes the refresh token (when one is stored) and clears the session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if !r.manager.IsAuthenticated() {
		if _, err := r.manager.Restore(ctx); err != nil {
			r.logger.Debug("restore before logout failed", "error", err)
		}
	}

	user := r.manager.Session().User
	r.manager.Logout(ctx)

	if user == nil {
		r.writePlain("No stored session.\n")
		return nil
	}
	r.writePlain("✓ Logged out %s\n", user.Email)
	return nil
}

type sessionStatus struct {
	LoggedIn        bool            `json:"logged_in"`
	User            *models.Profile `json:"user,omitempty"`
	HasRefreshToken bool            `json:"has_refresh_token"`
	Authenticated   bool            `json:"authenticated"`
}

// AuthStatus shows what the stored session contains. It does not contact the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	rec := r.manager.Session()
	var err error
	if !rec.IsAuthenticated() {
		rec, err = r.manager.Restore(ctx)
		if err != nil && !errors.Is(err, shared.ErrSessionExpired) {
			if rec.User == nil {
				return err
			}
			r.logger.Warn("stored session could not be validated", "error", err)
		}
	}

	status := sessionStatus{
		LoggedIn:        rec.User != nil,
		User:            rec.User,
		HasRefreshToken: rec.RefreshToken != "",
		Authenticated:   rec.IsAuthenticated(),
	}

	return r.writeResult(cmd, status, func() error {
		if status.User == nil {
			if errors.Is(err, shared.ErrSessionExpired) {
				r.writePlain("Session expired. Run 'cadence auth login'.\n")
				return nil
			}
			r.writePlain("Not logged in.\n")
			return nil
		}

		r.writePlainHeader("Session")
		r.writePlain("User:          %s (%s)\n", status.User.DisplayName(), status.User.Email)
		r.writePlain("Type:          %s\n", status.User.UserType)
		r.writePlain("Refresh token: %s\n", yesNo(status.HasRefreshToken))
		r.writePlain("Access token:  %s\n", yesNo(status.Authenticated))
		return nil
	})
}

// AuthRefresh exchanges the stored refresh token for a new access token.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	sess, err := r.manager.Restore(ctx)
	if err != nil {
		return err
	}
	if sess.User == nil {
		return fmt.Errorf("%w: no stored session", shared.ErrNotAuthenticated)
	}
	if sess.IsAuthenticated() {
		r.writePlain("✓ Access token refreshed for %s\n", sess.User.Email)
		return nil
	}
	return fmt.Errorf("%w: enable [session] persist_refresh_token to refresh between runs", shared.ErrNoRefreshToken)
}

// AuthWhoami fetches the profile from the backend and updates the stored copy.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	profile, err := r.library.GetProfile(ctx)
	if err != nil {
		return err
	}
	r.manager.SetUser(*profile)

	return r.writeResult(cmd, profile, func() error {
		return r.writeProfile(profile)
	})
}

// AuthProfile updates the user's first and last name.
func (r *Runner) AuthProfile(ctx context.Context, cmd *cli.Command) error {
	if !cmd.IsSet("first-name") && !cmd.IsSet("last-name") {
		return fmt.Errorf("%w: pass --first-name and/or --last-name", shared.ErrMissingArgument)
	}

	current := r.manager.Session().User
	first, last := "", ""
	if current != nil {
		first, last = current.FirstName, current.LastName
	}
	if cmd.IsSet("first-name") {
		first = cmd.String("first-name")
	}
	if cmd.IsSet("last-name") {
		last = cmd.String("last-name")
	}

	profile, err := r.library.UpdateProfile(ctx, first, last)
	if err != nil {
		return err
	}
	r.manager.SetUser(*profile)

	return r.writeResult(cmd, profile, func() error {
		r.writePlain("✓ Profile updated\n")
		return r.writeProfile(profile)
	})
}

// AuthPassword changes the user's password.
func (r *Runner) AuthPassword(ctx context.Context, cmd *cli.Command) error {
	change := models.PasswordChange{
		CurrentPassword: cmd.String("current"),
		NewPassword:     cmd.String("new"),
		ConfirmPassword: cmd.String("confirm"),
	}
	if change.ConfirmPassword == "" {
		change.ConfirmPassword = change.NewPassword
	}

	if err := r.library.ChangePassword(ctx, change); err != nil {
		return err
	}
	r.writePlain("✓ Password changed\n")
	return nil
}

func (r *Runner) writeProfile(p *models.Profile) error {
	r.writePlain("ID:       %d\n", p.ID)
	r.writePlain("Username: %s\n", p.Username)
	r.writePlain("Name:     %s\n", strings.TrimSpace(p.FirstName+" "+p.LastName))
	r.writePlain("Email:    %s\n", p.Email)
	return r.writePlain("Type:     %s\n", p.UserType)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
