package scanning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// ScanRequest is a single image upload to classify
type ScanRequest struct {
	// Image is a data URL or bare base64 payload
	Image string
	Mode  Mode
	// Barcode is an optional code typed by the user
	Barcode string
}

// Classifier turns uploads and item names into structured item records
type Classifier struct {
	model   Model
	decoder BarcodeDecoder
	details *cache.Cache
}

// NewClassifier creates a Classifier. decoder may be nil, in which case barcode
// scans always go through the vision model. Item lookups are memoized for detailsTTL.
func NewClassifier(model Model, decoder BarcodeDecoder, detailsTTL time.Duration) *Classifier {
	if detailsTTL <= 0 {
		detailsTTL = time.Hour
	}
	return &Classifier{
		model:   model,
		decoder: decoder,
		details: cache.New(detailsTTL, 2*detailsTTL),
	}
}

// ScanImage classifies the items in an uploaded image. Unreadable model output
// yields an empty item list, not an error. Quota errors are returned as
// ErrRateLimited or ErrCreditsExhausted.
func (c *Classifier) ScanImage(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	data, mimeType, err := decodeImagePayload(req.Image)
	if err != nil {
		return nil, err
	}

	pngData, err := prepareImageData(data, mimeType)
	if err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = ModePhoto
	}
	code := strings.TrimSpace(req.Barcode)

	var prompt Prompt
	decoded := false
	if mode == ModeBarcode && c.decoder != nil {
		value, err := c.decoder.Decode(pngData)
		if err != nil {
			slog.Debug("Barcode decode failed, falling back to vision", "error", err)
		} else {
			code = value
			decoded = true
		}
	}

	if decoded {
		prompt = barcodeLookupPrompt(code)
	} else {
		prompt = scanPrompt(mode, code)
		prompt.Image = pngData
		prompt.ImageMIME = "image/png"
	}

	slog.Info("Processing scan request", "mode", mode, "barcode", code)

	text, err := c.model.Complete(ctx, prompt)
	if err != nil {
		if IsQuotaError(err) {
			return nil, err
		}
		if mode == ModeBarcode && code != "" {
			slog.Warn("Model call failed, returning barcode placeholder", "barcode", code, "error", err)
			return barcodeFallback(code), nil
		}
		return nil, fmt.Errorf("scanning %s image: %w", mode, err)
	}

	result := parseScanResult(text)
	if mode == ModeBarcode && code != "" {
		if len(result.Items) == 0 {
			return barcodeFallback(code), nil
		}
		result.Barcode = code
		for i := range result.Items {
			if result.Items[i].Barcode == "" {
				result.Items[i].Barcode = code
			}
		}
	}

	slog.Info("Scan complete", "mode", mode, "items", len(result.Items))
	return result, nil
}

// LookupItem asks the model for details about a named item. Unreadable output
// yields a default record built from the keyword classifier.
func (c *Classifier) LookupItem(ctx context.Context, itemName string) (*ItemDetails, error) {
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return nil, errors.New("item name is required")
	}

	key := strings.ToLower(itemName)
	if cached, ok := c.details.Get(key); ok {
		details := *cached.(*ItemDetails)
		return &details, nil
	}

	slog.Info("Getting details for item", "item", itemName)

	text, err := c.model.Complete(ctx, detailsPrompt(itemName))
	if err != nil {
		return nil, fmt.Errorf("looking up item details: %w", err)
	}

	details, ok := parseItemDetails(text, itemName)
	if !ok {
		slog.Warn("Failed to parse item details, using defaults", "item", itemName)
		return defaultDetails(itemName), nil
	}

	c.details.Set(key, details, cache.DefaultExpiration)
	out := *details
	return &out, nil
}
