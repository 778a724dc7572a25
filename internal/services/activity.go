package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/cadence/internal/models"
	"github.com/desertthunder/cadence/internal/shared"
)

// PlayLogQuery filters the play log list. Regular users only see their own plays.
type PlayLogQuery struct {
	ListQuery
	Song int64
	User int64
}

func (q PlayLogQuery) values() url.Values {
	v := q.ListQuery.values()
	if q.Song > 0 {
		v.Set("song", strconv.FormatInt(q.Song, 10))
	}
	if q.User > 0 {
		v.Set("user", strconv.FormatInt(q.User, 10))
	}
	return v
}

// LogPlay records that the current user played a song.
func (s *LibraryService) LogPlay(ctx context.Context, songID int64) (*models.PlayLogReceipt, error) {
	var receipt models.PlayLogReceipt
	payload := struct {
		Song int64 `json:"song"`
	}{Song: songID}

	if err := s.api.DoJSON(ctx, http.MethodPost, "play-logs/", nil, payload, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListPlayLogs fetches one page of play logs.
func (s *LibraryService) ListPlayLogs(ctx context.Context, q PlayLogQuery) (*models.Page[models.PlayLog], error) {
	return getPage[models.PlayLog](ctx, s.api, "play-logs/", q.values())
}

// PlayStats fetches the current user's listening summary.
func (s *LibraryService) PlayStats(ctx context.Context) (*models.PlayStats, error) {
	var stats models.PlayStats
	if err := s.api.DoJSON(ctx, http.MethodGet, "play-logs/my_stats/", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// NotificationQuery filters the notification list.
type NotificationQuery struct {
	ListQuery
	IsRead *bool
	Type   string
}

func (q NotificationQuery) values() url.Values {
	v := q.ListQuery.values()
	if q.IsRead != nil {
		v.Set("is_read", strconv.FormatBool(*q.IsRead))
	}
	if q.Type != "" {
		v.Set("notification_type", q.Type)
	}
	return v
}

// ListNotifications fetches one page of the current user's notifications.
func (s *LibraryService) ListNotifications(ctx context.Context, q NotificationQuery) (*models.Page[models.Notification], error) {
	return getPage[models.Notification](ctx, s.api, "notifications/", q.values())
}

// MarkRead marks one notification as read.
func (s *LibraryService) MarkRead(ctx context.Context, id int64) error {
	err := s.api.DoJSON(ctx, http.MethodPost, idPath("notifications/", id, "mark_read/"), nil, nil, nil)
	return notFound(err, shared.ErrNotFound)
}

// MarkAllRead marks the given notifications as read, or all of them when ids is empty.
func (s *LibraryService) MarkAllRead(ctx context.Context, ids ...int64) error {
	payload := struct {
		IDs []int64 `json:"notification_ids,omitempty"`
	}{IDs: ids}
	return s.api.DoJSON(ctx, http.MethodPost, "notifications/mark_all_read/", nil, payload, nil)
}

// UnreadCount returns the number of unread notifications.
func (s *LibraryService) UnreadCount(ctx context.Context) (int, error) {
	var res models.UnreadCount
	if err := s.api.DoJSON(ctx, http.MethodGet, "notifications/unread_count/", nil, nil, &res); err != nil {
		return 0, err
	}
	return res.UnreadCount, nil
}

// ClearNotifications deletes all of the current user's notifications.
func (s *LibraryService) ClearNotifications(ctx context.Context) error {
	return s.api.DoJSON(ctx, http.MethodDelete, "notifications/clear_all/", nil, nil, nil)
}

// DashboardStats fetches catalog and activity counters.
func (s *LibraryService) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := s.api.DoJSON(ctx, http.MethodGet, "dashboard/stats/", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetProfile fetches the current user's profile.
func (s *LibraryService) GetProfile(ctx context.Context) (*models.Profile, error) {
	var p models.Profile
	if err := s.api.DoJSON(ctx, http.MethodGet, "auth/profile/", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile changes the current user's first and last name.
func (s *LibraryService) UpdateProfile(ctx context.Context, firstName, lastName string) (*models.Profile, error) {
	payload := struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}{firstName, lastName}

	var p models.Profile
	if err := s.api.DoJSON(ctx, http.MethodPatch, "auth/profile/", nil, payload, &p); err != nil {
		if shared.IsStatus(err, http.StatusBadRequest) {
			return nil, fmt.Errorf("%w: %w", shared.ErrValidation, err)
		}
		return nil, err
	}
	return &p, nil
}

// ChangePassword changes the current user's password after checking the confirmation locally.
func (s *LibraryService) ChangePassword(ctx context.Context, change models.PasswordChange) error {
	if err := change.Validate(); err != nil {
		return err
	}
	err := s.api.DoJSON(ctx, http.MethodPost, "auth/change-password/", nil, change, nil)
	if shared.IsStatus(err, http.StatusBadRequest) {
		return fmt.Errorf("%w: %w", shared.ErrValidation, err)
	}
	return err
}
