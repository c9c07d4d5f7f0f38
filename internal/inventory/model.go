package inventory

import (
	"errors"
	"time"

	"github.com/srikanthsri1729/homescan-ai/internal/scanning"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a request fails validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyMember is returned when adding a user already in the household.
	ErrAlreadyMember = errors.New("user is already a member of this household")
	// ErrForbidden is returned when a user acts on a household they do not belong to.
	ErrForbidden = errors.New("access to this household is denied")
)

// Item is a tracked household item
type Item struct {
	ID                string            `json:"id"`
	HouseholdID       string            `json:"household_id"`
	Name              string            `json:"name"`
	Category          scanning.Category `json:"category"`
	Quantity          float64           `json:"quantity"`
	Unit              string            `json:"unit"`
	Location          string            `json:"location,omitempty"`
	PurchaseDate      *time.Time        `json:"purchase_date,omitempty"`
	ExpiryDate        *time.Time        `json:"expiry_date,omitempty"`
	Price             *float64          `json:"price,omitempty"`
	Barcode           string            `json:"barcode,omitempty"`
	Notes             string            `json:"notes,omitempty"`
	ImageURL          string            `json:"image_url,omitempty"`
	ImageContentType  string            `json:"image_content_type,omitempty"`
	LowStockThreshold float64           `json:"low_stock_threshold"`
	CreatedBy         string            `json:"created_by"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// IsLowStock reports whether the quantity is at or below the threshold
func (i *Item) IsLowStock() bool {
	return i.Quantity <= i.LowStockThreshold
}

// TransactionType classifies a quantity change
type TransactionType string

const (
	TransactionPurchase TransactionType = "purchase"
	TransactionUse      TransactionType = "use"
	TransactionAdjust   TransactionType = "adjust"
	TransactionExpire   TransactionType = "expire"
)

// Transaction records a signed quantity change on an item
type Transaction struct {
	ID          string          `json:"id"`
	HouseholdID string          `json:"household_id"`
	ItemID      string          `json:"item_id"`
	Delta       float64         `json:"delta"`
	Type        TransactionType `json:"type"`
	Notes       string          `json:"notes,omitempty"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Household groups users sharing one inventory
type Household struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Role is a member's permission level within a household
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleAdmin || r == RoleMember
}

// Member links a user to a household
type Member struct {
	ID          string    `json:"id"`
	HouseholdID string    `json:"household_id"`
	UserID      string    `json:"user_id"`
	Role        Role      `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// NotificationType classifies a notification
type NotificationType string

const (
	NotificationLowStock NotificationType = "low_stock"
	NotificationExpiry   NotificationType = "expiry"
	NotificationWarranty NotificationType = "warranty"
	NotificationSystem   NotificationType = "system"
)

// Notification is an alert delivered to a user
type Notification struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	HouseholdID string           `json:"household_id,omitempty"`
	ItemID      string           `json:"item_id,omitempty"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Read        bool             `json:"read"`
	ActionURL   string           `json:"action_url,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// Profile holds a user's contact details
type Profile struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Settings holds a user's notification and display preferences
type Settings struct {
	UserID             string    `json:"user_id"`
	EmailNotifications bool      `json:"email_notifications"`
	PushNotifications  bool      `json:"push_notifications"`
	LowStockAlerts     bool      `json:"low_stock_alerts"`
	ExpiryAlerts       bool      `json:"expiry_alerts"`
	WeeklySummary      bool      `json:"weekly_summary"`
	Theme              string    `json:"theme"`
	Language           string    `json:"language"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// DefaultSettings returns the preferences used when a user has saved none
func DefaultSettings(userID string) *Settings {
	return &Settings{
		UserID:             userID,
		EmailNotifications: true,
		PushNotifications:  true,
		LowStockAlerts:     true,
		ExpiryAlerts:       true,
		WeeklySummary:      true,
		Theme:              "system",
		Language:           "en",
	}
}

// ItemInput carries the fields for a new item
type ItemInput struct {
	Name              string     `json:"name"`
	Category          string     `json:"category"`
	Quantity          float64    `json:"quantity"`
	Unit              string     `json:"unit"`
	Location          string     `json:"location"`
	PurchaseDate      *time.Time `json:"purchase_date"`
	ExpiryDate        *time.Time `json:"expiry_date"`
	Price             *float64   `json:"price"`
	Barcode           string     `json:"barcode"`
	Notes             string     `json:"notes"`
	LowStockThreshold *float64   `json:"low_stock_threshold"`
}

// ItemPatch carries a partial update; nil fields are left unchanged
type ItemPatch struct {
	Name              *string    `json:"name"`
	Category          *string    `json:"category"`
	Unit              *string    `json:"unit"`
	Location          *string    `json:"location"`
	PurchaseDate      *time.Time `json:"purchase_date"`
	ExpiryDate        *time.Time `json:"expiry_date"`
	Price             *float64   `json:"price"`
	Barcode           *string    `json:"barcode"`
	Notes             *string    `json:"notes"`
	LowStockThreshold *float64   `json:"low_stock_threshold"`
}

// BatchFailure describes one detected item that could not be added
type BatchFailure struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// BatchResult reports the outcome of adding several detected items
type BatchResult struct {
	Added  []*Item        `json:"added"`
	Failed []BatchFailure `json:"failed"`
}

// CategoryCount is one row of the category breakdown
type CategoryCount struct {
	Category scanning.Category `json:"category"`
	Count    int               `json:"count"`
	Value    float64           `json:"value"`
}

// MonthlySpend is the purchase volume for one calendar month
type MonthlySpend struct {
	Month    string  `json:"month"` // YYYY-MM
	Quantity float64 `json:"quantity"`
	Value    float64 `json:"value"`
}

// RecentTransaction is a transaction joined with its item's name
type RecentTransaction struct {
	Transaction
	ItemName string `json:"item_name"`
}

// Analytics summarizes a household's inventory
type Analytics struct {
	TotalItems         int                 `json:"total_items"`
	TotalValue         float64             `json:"total_value"`
	LowStockCount      int                 `json:"low_stock_count"`
	ExpiringCount      int                 `json:"expiring_count"`
	Categories         []CategoryCount     `json:"categories"`
	MonthlySpend       []MonthlySpend      `json:"monthly_spend"`
	RecentTransactions []RecentTransaction `json:"recent_transactions"`
}
