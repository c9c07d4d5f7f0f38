package inventory

import (
	"context"
	"fmt"
	"slices"
)

// ListNotifications returns a user's notifications, newest first
func (s *Service) ListNotifications(ctx context.Context, userID string) ([]*Notification, error) {
	notifications, err := s.db.ListNotifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	slices.SortStableFunc(notifications, func(a, b *Notification) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return notifications, nil
}

// ownedNotification loads a notification and hides those of other users
func (s *Service) ownedNotification(ctx context.Context, userID, id string) (*Notification, error) {
	n, err := s.db.GetNotification(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting notification: %w", err)
	}
	if userID != "" && n.UserID != userID {
		return nil, fmt.Errorf("notification %w: %s", ErrNotFound, id)
	}
	return n, nil
}

// MarkNotificationRead marks one notification as read
func (s *Service) MarkNotificationRead(ctx context.Context, userID, id string) (*Notification, error) {
	n, err := s.ownedNotification(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if n.Read {
		return n, nil
	}

	n.Read = true
	if err := s.db.SaveNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("saving notification: %w", err)
	}
	return n, nil
}

// MarkAllNotificationsRead marks every unread notification of a user as read
// and returns how many changed
func (s *Service) MarkAllNotificationsRead(ctx context.Context, userID string) (int, error) {
	notifications, err := s.db.ListNotifications(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("listing notifications: %w", err)
	}

	updated := 0
	for _, n := range notifications {
		if n.Read {
			continue
		}
		n.Read = true
		if err := s.db.SaveNotification(ctx, n); err != nil {
			return updated, fmt.Errorf("saving notification: %w", err)
		}
		updated++
	}
	return updated, nil
}

// DeleteNotification removes one notification
func (s *Service) DeleteNotification(ctx context.Context, userID, id string) error {
	if _, err := s.ownedNotification(ctx, userID, id); err != nil {
		return err
	}
	if err := s.db.DeleteNotification(ctx, id); err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	return nil
}
