package inventory

import (
	"context"

	"github.com/srikanthsri1729/homescan-ai/internal/realtime"
)

// Publisher pushes change notifications to connected clients
type Publisher interface {
	Broadcast(msg realtime.Message)
}

// NotificationEmail is the content of a single alert email
type NotificationEmail struct {
	Title   string           `json:"title"`
	Message string           `json:"message"`
	Type    NotificationType `json:"type"`
}

// GenerateResult reports the notifications written by one generation run
type GenerateResult struct {
	Success              bool            `json:"success"`
	Message              string          `json:"message,omitempty"`
	NotificationsCreated int             `json:"notifications_created"`
	Notifications        []*Notification `json:"notifications"`
}

// Notifier generates alerts and sends email on behalf of the service
type Notifier interface {
	// Generate writes low-stock, expiry and suggestion notifications for a user
	Generate(ctx context.Context, userID, householdID string) (*GenerateResult, error)
	// EmailNotification emails a single alert to the user's profile address
	EmailNotification(ctx context.Context, userID string, email NotificationEmail) error
	// Welcome sends the welcome email to a new user
	Welcome(ctx context.Context, email, displayName string) error
}
