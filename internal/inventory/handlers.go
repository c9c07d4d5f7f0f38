package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/srikanthsri1729/homescan-ai/internal/scanning"
)

const (
	maxScanBody  = 20 << 20 // base64 inflates uploads by a third
	maxJSONBody  = 1 << 20
	maxImageForm = 10 << 20
)

// Quota messages are shown verbatim by the client
const (
	rateLimitMessage = "Rate limit exceeded. Please try again later."
	creditsMessage   = "AI credits exhausted. Please add funds."
)

type scanRequest struct {
	Image    string `json:"image"`
	Mode     string `json:"mode"`
	ItemName string `json:"itemName"`
	Barcode  string `json:"barcode"`
}

// handleScan classifies an uploaded image, or looks up details for a named item
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !decodeJSON(w, r, maxScanBody, &req) {
		return
	}

	// The model call outlives a dropped client connection but not the scan timeout
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.scanTimeout)
	defer cancel()

	if itemName := strings.TrimSpace(req.ItemName); itemName != "" {
		details, err := s.classifier.LookupItem(ctx, itemName)
		if err != nil {
			writeScanError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"itemDetails": details})
		return
	}

	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "image or itemName is required")
		return
	}

	result, err := s.classifier.ScanImage(ctx, scanning.ScanRequest{
		Image:   req.Image,
		Mode:    scanning.ParseMode(req.Mode),
		Barcode: strings.TrimSpace(req.Barcode),
	})
	if err != nil {
		writeScanError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeScanError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scanning.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, rateLimitMessage)
	case errors.Is(err, scanning.ErrCreditsExhausted):
		writeError(w, http.StatusPaymentRequired, creditsMessage)
	case errors.Is(err, scanning.ErrInvalidImage):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("Scan failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// handleListItems returns a household's items, newest first
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeHousehold(w, r, r.PathValue("id"), "") {
		return
	}

	items, err := s.service.ListItems(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type createItemRequest struct {
	ItemInput
	UserID string `json:"userId"`
}

// handleCreateItem adds a single item to a household
func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	uid, ok := requireUser(w, r, req.UserID)
	if !ok || !s.authorizeHousehold(w, r, r.PathValue("id"), uid) {
		return
	}

	item, err := s.service.CreateItem(r.Context(), r.PathValue("id"), uid, req.ItemInput)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

type batchRequest struct {
	Items  []scanning.DetectedItem `json:"items"`
	UserID string                  `json:"userId"`
}

// handleAddDetectedItems saves the items confirmed from a scan
func (s *Server) handleAddDetectedItems(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	uid, ok := requireUser(w, r, req.UserID)
	if !ok {
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "items are required")
		return
	}
	if !s.authorizeHousehold(w, r, r.PathValue("id"), uid) {
		return
	}

	result := s.service.AddDetectedItems(r.Context(), r.PathValue("id"), uid, req.Items)
	status := http.StatusCreated
	if len(result.Added) == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

// handleListTransactions returns recent stock movements for a household
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeHousehold(w, r, r.PathValue("id"), "") {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	txs, err := s.service.ListTransactions(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeHousehold(w, r, r.PathValue("id"), "") {
		return
	}

	analytics, err := s.service.Analytics(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeItem(w, r, "") {
		return
	}

	item, err := s.service.GetItem(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var patch ItemPatch
	if !decodeJSON(w, r, maxJSONBody, &patch) || !s.authorizeItem(w, r, "") {
		return
	}

	item, err := s.service.UpdateItem(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeItem(w, r, "") {
		return
	}
	if err := s.service.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type quantityRequest struct {
	Amount   *float64 `json:"amount"`
	Quantity *float64 `json:"quantity"`
	Notes    string   `json:"notes"`
	UserID   string   `json:"userId"`
}

// decodeQuantity reads an optional JSON body, then checks the caller may
// change the item. An empty body is allowed.
func (s *Server) decodeQuantity(w http.ResponseWriter, r *http.Request) (quantityRequest, string, bool) {
	var req quantityRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body is too large")
		return req, "", false
	}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return req, "", false
		}
	}
	uid, ok := requireUser(w, r, req.UserID)
	if !ok || !s.authorizeItem(w, r, uid) {
		return req, "", false
	}
	return req, uid, true
}

// handleConsumeItem decrements an item's quantity
func (s *Server) handleConsumeItem(w http.ResponseWriter, r *http.Request) {
	req, uid, ok := s.decodeQuantity(w, r)
	if !ok {
		return
	}
	amount := 1.0
	if req.Amount != nil {
		amount = *req.Amount
	}

	item, err := s.service.ConsumeItem(r.Context(), r.PathValue("id"), uid, amount)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleAdjustItem sets an item's quantity after a recount
func (s *Server) handleAdjustItem(w http.ResponseWriter, r *http.Request) {
	req, uid, ok := s.decodeQuantity(w, r)
	if !ok {
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}

	item, err := s.service.AdjustItem(r.Context(), r.PathValue("id"), uid, *req.Quantity, req.Notes)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleExpireItem writes off the remaining stock of an item
func (s *Server) handleExpireItem(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := s.decodeQuantity(w, r)
	if !ok {
		return
	}

	item, err := s.service.ExpireItem(r.Context(), r.PathValue("id"), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handlePutItemImage stores the photo uploaded in the "file" form field
func (s *Server) handlePutItemImage(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeItem(w, r, "") {
		return
	}
	if err := r.ParseMultipartForm(maxImageForm); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading uploaded file", "error", err)
		writeError(w, http.StatusInternalServerError, "Error reading file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		writeError(w, http.StatusBadRequest, "File must be an image")
		return
	}

	item, err := s.service.SaveItemImage(r.Context(), r.PathValue("id"), data, contentType)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleGetItemImage serves an item's stored photo
func (s *Server) handleGetItemImage(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeItem(w, r, "") {
		return
	}

	data, contentType, err := s.service.GetItemImage(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
