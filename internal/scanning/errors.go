package scanning

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRateLimited is returned when the model provider rejects a call with HTTP 429.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrCreditsExhausted is returned when the model provider rejects a call with HTTP 402.
	ErrCreditsExhausted = errors.New("ai credits exhausted")
	// ErrInvalidImage is returned when an upload cannot be decoded into an image.
	ErrInvalidImage = errors.New("invalid image")
	// ErrNoBarcode is returned by a BarcodeDecoder that finds no symbol.
	ErrNoBarcode = errors.New("no barcode found")
)

// StatusError is a non-2xx reply from a model provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Is maps quota statuses onto the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrCreditsExhausted:
		return e.StatusCode == http.StatusPaymentRequired
	}
	return false
}

// IsQuotaError reports whether err is a rate limit or credit exhaustion.
func IsQuotaError(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrCreditsExhausted)
}
