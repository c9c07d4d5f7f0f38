package scanning

import (
	"context"
	"strings"
)

// Mode selects which instruction template is used for an image scan.
type Mode string

const (
	ModePhoto   Mode = "photo"
	ModeBarcode Mode = "barcode"
	ModeReceipt Mode = "receipt"
)

// ParseMode maps a request value onto a Mode. Anything unrecognized is a photo scan.
func ParseMode(s string) Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeBarcode:
		return ModeBarcode
	case ModeReceipt:
		return ModeReceipt
	default:
		return ModePhoto
	}
}

// DetectedItem is a candidate inventory item inferred from an image
type DetectedItem struct {
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	Quantity   float64  `json:"quantity"`
	Unit       string   `json:"unit"`
	Price      *float64 `json:"price,omitempty"`
	Confidence float64  `json:"confidence"`
	Barcode    string   `json:"barcode,omitempty"`
}

// ScanResult contains the items extracted from a photo, barcode or receipt
type ScanResult struct {
	Items   []DetectedItem `json:"items"`
	Store   string         `json:"store,omitempty"`
	Date    string         `json:"date,omitempty"` // ISO 8601 format
	Barcode string         `json:"barcode,omitempty"`
}

// ItemDetails describes a single item looked up by name
type ItemDetails struct {
	Name           string   `json:"name"`
	Category       Category `json:"category"`
	Unit           string   `json:"unit"`
	EstimatedPrice float64  `json:"estimatedPrice"`
	ExpiryDays     *int     `json:"expiryDays"`
	Description    string   `json:"description"`
}

// Prompt is a single request to a language model. Image is optional.
type Prompt struct {
	System    string
	User      string
	Image     []byte
	ImageMIME string
}

// Model defines the interface for language model backends
type Model interface {
	// Complete sends the prompt and returns the raw text of the model's reply
	Complete(ctx context.Context, prompt Prompt) (string, error)
	// Close closes the model client and releases resources
	Close() error
}
