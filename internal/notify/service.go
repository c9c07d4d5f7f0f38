package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/srikanthsri1729/homescan-ai/internal/inventory"
	"github.com/srikanthsri1729/homescan-ai/internal/realtime"
	"github.com/srikanthsri1729/homescan-ai/internal/scanning"
)

const (
	expiryWindowDays    = 7
	alertDedupeWindow   = 24 * time.Hour
	suggestionWindow    = 7 * 24 * time.Hour
	suggestionMinItems  = 5
	suggestionMinLength = 20
	suggestionTitle     = "💡 Smart Suggestion"
	notificationAction  = "/inventory"
	noItemsMessage      = "No items to analyze"
)

// IDGenerator generates notification IDs
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string { return uuid.NewString() }

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Service generates alerts for a household and emails them to users.
// It implements inventory.Notifier.
type Service struct {
	db          inventory.DB
	model       scanning.Model
	mailer      Mailer
	publisher   inventory.Publisher
	appURL      string
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a notification Service. model and publisher may be nil.
func NewService(db inventory.DB, model scanning.Model, mailer Mailer, publisher inventory.Publisher, appURL string) *Service {
	return NewServiceWithDeps(db, model, mailer, publisher, appURL, uuidGenerator{}, wallClock{})
}

// NewServiceWithDeps creates a notification Service with custom dependencies for testing
func NewServiceWithDeps(db inventory.DB, model scanning.Model, mailer Mailer, publisher inventory.Publisher, appURL string, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		model:       model,
		mailer:      mailer,
		publisher:   publisher,
		appURL:      appURL,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// generation carries the per-call state of Generate
type generation struct {
	userID      string
	householdID string
	profile     *inventory.Profile
	settings    *inventory.Settings
	existing    []*inventory.Notification
	created     []*inventory.Notification
	now         time.Time
}

// recent reports whether a notification of type t for itemID was created within window
func (g *generation) recent(t inventory.NotificationType, itemID string, window time.Duration) bool {
	since := g.now.Add(-window)
	for _, n := range g.existing {
		if n.Type != t || n.CreatedAt.Before(since) {
			continue
		}
		if itemID == "" || n.ItemID == itemID {
			return true
		}
	}
	return false
}

func (g *generation) wantsEmail() bool {
	return g.settings.EmailNotifications && g.profile != nil && g.profile.Email != ""
}

// Generate creates low-stock, expiry and suggestion notifications for a
// user's household. Model failures fall back to fixed text.
func (s *Service) Generate(ctx context.Context, userID, householdID string) (*inventory.GenerateResult, error) {
	if userID == "" || householdID == "" {
		return nil, fmt.Errorf("%w: userId and householdId are required", inventory.ErrInvalidInput)
	}

	g := &generation{userID: userID, householdID: householdID, now: s.timeSource.Now()}

	profile, err := s.db.GetProfile(ctx, userID)
	switch {
	case err == nil:
		g.profile = profile
	case !errors.Is(err, inventory.ErrNotFound):
		return nil, fmt.Errorf("getting profile: %w", err)
	}

	g.settings, err = s.db.GetSettings(ctx, userID)
	if errors.Is(err, inventory.ErrNotFound) {
		g.settings = inventory.DefaultSettings(userID)
	} else if err != nil {
		return nil, fmt.Errorf("getting settings: %w", err)
	}

	items, err := s.db.ListItems(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	if len(items) == 0 {
		return &inventory.GenerateResult{
			Success:       true,
			Message:       noItemsMessage,
			Notifications: []*inventory.Notification{},
		}, nil
	}
	slices.SortStableFunc(items, func(a, b *inventory.Item) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	g.existing, err = s.db.ListNotifications(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	if g.settings.LowStockAlerts {
		if err := s.lowStockAlerts(ctx, g, items); err != nil {
			return nil, err
		}
	}
	if g.settings.ExpiryAlerts {
		if err := s.expiryAlerts(ctx, g, items); err != nil {
			return nil, err
		}
	}
	if len(items) > suggestionMinItems {
		if err := s.suggestion(ctx, g, items); err != nil {
			return nil, err
		}
	}

	slog.Info("Generated notifications", "user_id", userID, "household_id", householdID, "created", len(g.created))
	return &inventory.GenerateResult{
		Success:              true,
		NotificationsCreated: len(g.created),
		Notifications:        g.created,
	}, nil
}

func (s *Service) lowStockAlerts(ctx context.Context, g *generation, items []*inventory.Item) error {
	var low []*inventory.Item
	for _, item := range items {
		if item.IsLowStock() {
			low = append(low, item)
		}
	}
	if len(low) == 0 {
		return nil
	}

	// One message covers every low item
	message := s.complete(ctx, lowStockPrompt(low))

	for _, item := range low {
		if g.recent(inventory.NotificationLowStock, item.ID, alertDedupeWindow) {
			continue
		}
		text := message
		if text == "" {
			text = lowStockFallback(item)
		}
		if err := s.insert(ctx, g, item.ID, inventory.NotificationLowStock, "Low Stock: "+item.Name, text); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) expiryAlerts(ctx context.Context, g *generation, items []*inventory.Item) error {
	for _, item := range items {
		if item.ExpiryDate == nil {
			continue
		}
		days := inventory.DaysUntil(*item.ExpiryDate, g.now)
		if days < 0 || days > expiryWindowDays {
			continue
		}
		if g.recent(inventory.NotificationExpiry, item.ID, alertDedupeWindow) {
			continue
		}

		text := s.complete(ctx, expiryPrompt(item, days))
		if text == "" {
			text = expiryFallback(item)
		}
		if err := s.insert(ctx, g, item.ID, inventory.NotificationExpiry, expiryTitle(item, days), text); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) suggestion(ctx context.Context, g *generation, items []*inventory.Item) error {
	if g.recent(inventory.NotificationSystem, "", suggestionWindow) {
		return nil
	}

	text := s.complete(ctx, suggestionPrompt(items))
	if len(text) <= suggestionMinLength {
		return nil
	}

	n := s.newNotification(g, "", inventory.NotificationSystem, suggestionTitle, text)
	if err := s.db.SaveNotification(ctx, n); err != nil {
		return fmt.Errorf("saving notification: %w", err)
	}
	s.created(g, n)
	return nil
}

// complete asks the model for plain text. Failures are logged and yield "".
func (s *Service) complete(ctx context.Context, prompt string) string {
	if s.model == nil {
		return ""
	}
	text, err := s.model.Complete(ctx, scanning.Prompt{User: prompt})
	if err != nil {
		slog.Warn("Notification text generation failed, using fallback", "error", err)
		return ""
	}
	return strings.TrimSpace(text)
}

func (s *Service) newNotification(g *generation, itemID string, t inventory.NotificationType, title, message string) *inventory.Notification {
	return &inventory.Notification{
		ID:          s.idGenerator.Generate(),
		UserID:      g.userID,
		HouseholdID: g.householdID,
		ItemID:      itemID,
		Type:        t,
		Title:       title,
		Message:     message,
		ActionURL:   notificationAction,
		CreatedAt:   g.now,
	}
}

// insert saves an alert and emails it when the user has opted in
func (s *Service) insert(ctx context.Context, g *generation, itemID string, t inventory.NotificationType, title, message string) error {
	n := s.newNotification(g, itemID, t, title, message)
	if err := s.db.SaveNotification(ctx, n); err != nil {
		return fmt.Errorf("saving notification: %w", err)
	}
	s.created(g, n)

	if g.wantsEmail() && s.mailer != nil && s.mailer.Configured() {
		err := s.send(ctx, g.profile, inventory.NotificationEmail{Title: title, Message: message, Type: t})
		if err != nil {
			slog.Warn("Failed to email notification", "user_id", g.userID, "type", t, "error", err)
		}
	}
	return nil
}

func (s *Service) created(g *generation, n *inventory.Notification) {
	g.created = append(g.created, n)
	g.existing = append(g.existing, n)
	if s.publisher != nil {
		s.publisher.Broadcast(realtime.NewMessage(g.householdID, "notification", "created", n.ID))
	}
}

func (s *Service) send(ctx context.Context, profile *inventory.Profile, n inventory.NotificationEmail) error {
	email, err := notificationEmail(profile.Email, profile.DisplayName, s.appURL, n)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, email)
}

// EmailNotification emails a single alert to the address on the user's profile
func (s *Service) EmailNotification(ctx context.Context, userID string, n inventory.NotificationEmail) error {
	profile, err := s.db.GetProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("getting profile: %w", err)
	}
	if profile.Email == "" {
		return fmt.Errorf("email for user %w: %s", inventory.ErrNotFound, userID)
	}
	if s.mailer == nil || !s.mailer.Configured() {
		return ErrMailerNotConfigured
	}

	if err := s.send(ctx, profile, n); err != nil {
		return fmt.Errorf("sending notification email: %w", err)
	}
	return nil
}

// Welcome sends the welcome email. It does nothing when no mailer is configured.
func (s *Service) Welcome(ctx context.Context, to, displayName string) error {
	if s.mailer == nil || !s.mailer.Configured() {
		slog.Debug("Skipping welcome email, mailer not configured", "email", to)
		return nil
	}

	email, err := welcomeEmail(to, displayName)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("sending welcome email: %w", err)
	}
	slog.Info("Welcome email sent", "email", to)
	return nil
}
