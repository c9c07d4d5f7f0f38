package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/srikanthsri1729/homescan-ai/internal/inventory"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const welcomeSubject = "🎉 Welcome to Home Inventory!"

// emojiFor returns the subject prefix for a notification type
func emojiFor(t inventory.NotificationType) string {
	switch t {
	case inventory.NotificationLowStock:
		return "⚠️"
	case inventory.NotificationExpiry:
		return "⏰"
	case inventory.NotificationWarranty:
		return "📋"
	default:
		return "🔔"
	}
}

type notificationData struct {
	Name    string
	Emoji   string
	Title   string
	Message string
	AppURL  string
}

type welcomeData struct {
	Name string
}

func greetingName(displayName string) string {
	if displayName == "" {
		return "there"
	}
	return displayName
}

// notificationEmail renders the email for a single alert
func notificationEmail(to, displayName, appURL string, n inventory.NotificationEmail) (Email, error) {
	emoji := emojiFor(n.Type)
	var buf bytes.Buffer
	err := templates.ExecuteTemplate(&buf, "notification.html", notificationData{
		Name:    greetingName(displayName),
		Emoji:   emoji,
		Title:   n.Title,
		Message: n.Message,
		AppURL:  appURL,
	})
	if err != nil {
		return Email{}, fmt.Errorf("rendering notification email: %w", err)
	}
	return Email{
		To:      []string{to},
		Subject: emoji + " " + n.Title,
		HTML:    buf.String(),
	}, nil
}

// welcomeEmail renders the welcome email for a new user
func welcomeEmail(to, displayName string) (Email, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "welcome.html", welcomeData{Name: greetingName(displayName)}); err != nil {
		return Email{}, fmt.Errorf("rendering welcome email: %w", err)
	}
	return Email{
		To:      []string{to},
		Subject: welcomeSubject,
		HTML:    buf.String(),
	}, nil
}
