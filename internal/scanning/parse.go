package scanning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	defaultUnit          = "pcs"
	defaultDetailsPrice  = 10.00
	maxConfidence        = 100
	barcodeFallbackScore = 95
)

// number accepts JSON numbers, numeric strings and null. Models are not
// consistent about quoting numeric fields.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "$"))
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parsing numeric string %q: %w", s, err)
		}
		*n = number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

type rawItem struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Quantity   number  `json:"quantity"`
	Unit       string  `json:"unit"`
	Price      *number `json:"price"`
	Confidence number  `json:"confidence"`
}

type rawScan struct {
	Items []rawItem `json:"items"`
	Store string    `json:"store"`
	Date  string    `json:"date"`
}

type rawDetails struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Unit           string  `json:"unit"`
	EstimatedPrice *number `json:"estimatedPrice"`
	ExpiryDays     *number `json:"expiryDays"`
	Description    string  `json:"description"`
}

// parseScanResult turns a model reply into a ScanResult. It never fails:
// anything it cannot read yields an empty item list.
func parseScanResult(text string) *ScanResult {
	result := &ScanResult{Items: []DetectedItem{}}

	payload, ok := ExtractJSON(text)
	if !ok {
		return result
	}

	var raw rawScan
	if strings.HasPrefix(payload, "[") {
		if err := json.Unmarshal([]byte(payload), &raw.Items); err != nil {
			return result
		}
	} else if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return result
	}

	for _, item := range raw.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		result.Items = append(result.Items, normalizeItem(name, item))
	}
	result.Store = strings.TrimSpace(raw.Store)
	result.Date = normalizeDate(raw.Date)

	return result
}

func normalizeItem(name string, item rawItem) DetectedItem {
	out := DetectedItem{
		Name:       name,
		Category:   NormalizeCategory(item.Category, name),
		Quantity:   float64(item.Quantity),
		Unit:       strings.TrimSpace(item.Unit),
		Confidence: clamp(float64(item.Confidence), 0, maxConfidence),
	}
	if out.Quantity <= 0 {
		out.Quantity = 1
	}
	if out.Unit == "" {
		out.Unit = defaultUnit
	}
	if item.Price != nil {
		price := float64(*item.Price)
		if price < 0 {
			price = 0
		}
		out.Price = &price
	}
	return out
}

// parseItemDetails reads a single item-detail object. The boolean is false
// when the reply could not be parsed. A missing name falls back to itemName.
func parseItemDetails(text, itemName string) (*ItemDetails, bool) {
	payload, ok := ExtractJSON(text)
	if !ok || !strings.HasPrefix(payload, "{") {
		return nil, false
	}

	var raw rawDetails
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return nil, false
	}

	name := strings.TrimSpace(raw.Name)
	if name == "" {
		name = itemName
	}

	details := &ItemDetails{
		Name:        name,
		Category:    NormalizeCategory(raw.Category, name),
		Unit:        strings.TrimSpace(raw.Unit),
		Description: strings.TrimSpace(raw.Description),
	}
	if details.Unit == "" {
		details.Unit = defaultUnit
	}
	if raw.EstimatedPrice != nil && *raw.EstimatedPrice > 0 {
		details.EstimatedPrice = float64(*raw.EstimatedPrice)
	}
	if raw.ExpiryDays != nil {
		days := int(*raw.ExpiryDays)
		details.ExpiryDays = &days
	}
	return details, true
}

// defaultDetails is the record returned when the model reply is unusable.
func defaultDetails(itemName string) *ItemDetails {
	return &ItemDetails{
		Name:           itemName,
		Category:       Classify(itemName),
		Unit:           defaultUnit,
		EstimatedPrice: defaultDetailsPrice,
	}
}

// barcodeFallback is the single item reported when a barcode is known but the
// model could not be reached.
func barcodeFallback(code string) *ScanResult {
	suffix := code
	if len(suffix) > 6 {
		suffix = suffix[len(suffix)-6:]
	}
	return &ScanResult{
		Items: []DetectedItem{{
			Name:       "Product " + suffix,
			Category:   CategoryOther,
			Quantity:   1,
			Unit:       defaultUnit,
			Confidence: barcodeFallbackScore,
			Barcode:    code,
		}},
		Barcode: code,
	}
}

// normalizeDate converts common receipt date formats to YYYY-MM-DD.
// Dates it cannot read are dropped.
func normalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}

	formats := []string{
		"2006-01-02",
		"2006/01/02",
		"01/02/2006",
		"02-01-2006",
		"Jan 2, 2006",
		"January 2, 2006",
	}
	for _, format := range formats {
		if d, err := time.Parse(format, value); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return ""
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
