package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/srikanthsri1729/homescan-ai/internal/scanning"
)

const defaultScanTimeout = 60 * time.Second

// Classifier turns uploads and item names into item records
type Classifier interface {
	ScanImage(ctx context.Context, req scanning.ScanRequest) (*scanning.ScanResult, error)
	LookupItem(ctx context.Context, itemName string) (*scanning.ItemDetails, error)
}

// ServerConfig holds optional server settings
type ServerConfig struct {
	Auth Auth
	// ScanTimeout bounds a single model call made for POST /api/scan
	ScanTimeout time.Duration
	// WebSocket serves GET /api/ws when set
	WebSocket http.Handler
}

// Server handles HTTP requests for the inventory API
type Server struct {
	service     *Service
	classifier  Classifier
	notifier    Notifier
	auth        Auth
	scanTimeout time.Duration
	mux         *http.ServeMux
	handler     http.Handler
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, classifier Classifier, notifier Notifier, cfg ServerConfig) *Server {
	return NewServerWithMux(service, classifier, notifier, cfg, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, classifier Classifier, notifier Notifier, cfg ServerConfig, mux *http.ServeMux) *Server {
	s := &Server{
		service:     service,
		classifier:  classifier,
		notifier:    notifier,
		auth:        cfg.Auth,
		scanTimeout: cfg.ScanTimeout,
		mux:         mux,
	}
	if s.scanTimeout <= 0 {
		s.scanTimeout = defaultScanTimeout
	}
	s.registerRoutes(cfg.WebSocket)
	s.handler = requestLogger(corsMiddleware(s.mux))
	return s
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type, x-user-id")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// corsMiddleware adds CORS headers and answers preflight requests
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth rejects unauthenticated requests and stores the user ID in the context
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.auth.authenticate(r)
		if !ok {
			if s.auth.JWTSecret == "" {
				w.Header().Set("WWW-Authenticate", `Basic realm="HomeScan"`)
			}
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r.WithContext(withUserID(r.Context(), userID)))
	}
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes(ws http.Handler) {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("POST /api/scan", s.requireAuth(s.handleScan))

	// Households and membership
	s.mux.HandleFunc("GET /api/households", s.requireAuth(s.handleListHouseholds))
	s.mux.HandleFunc("POST /api/households", s.requireAuth(s.handleCreateHousehold))
	s.mux.HandleFunc("GET /api/households/{id}", s.requireAuth(s.handleGetHousehold))
	s.mux.HandleFunc("PATCH /api/households/{id}", s.requireAuth(s.handleUpdateHousehold))
	s.mux.HandleFunc("GET /api/households/{id}/members", s.requireAuth(s.handleListMembers))
	s.mux.HandleFunc("POST /api/households/{id}/members", s.requireAuth(s.handleAddMember))
	s.mux.HandleFunc("DELETE /api/households/{id}/members/{userID}", s.requireAuth(s.handleRemoveMember))

	// Household inventory
	s.mux.HandleFunc("GET /api/households/{id}/items", s.requireAuth(s.handleListItems))
	s.mux.HandleFunc("POST /api/households/{id}/items", s.requireAuth(s.handleCreateItem))
	s.mux.HandleFunc("POST /api/households/{id}/items/batch", s.requireAuth(s.handleAddDetectedItems))
	s.mux.HandleFunc("GET /api/households/{id}/transactions", s.requireAuth(s.handleListTransactions))
	s.mux.HandleFunc("GET /api/households/{id}/analytics", s.requireAuth(s.handleAnalytics))

	// Items
	s.mux.HandleFunc("GET /api/items/{id}/image", s.requireAuth(s.handleGetItemImage))
	s.mux.HandleFunc("PUT /api/items/{id}/image", s.requireAuth(s.handlePutItemImage))
	s.mux.HandleFunc("POST /api/items/{id}/consume", s.requireAuth(s.handleConsumeItem))
	s.mux.HandleFunc("POST /api/items/{id}/adjust", s.requireAuth(s.handleAdjustItem))
	s.mux.HandleFunc("POST /api/items/{id}/expire", s.requireAuth(s.handleExpireItem))
	s.mux.HandleFunc("GET /api/items/{id}", s.requireAuth(s.handleGetItem))
	s.mux.HandleFunc("PATCH /api/items/{id}", s.requireAuth(s.handleUpdateItem))
	s.mux.HandleFunc("DELETE /api/items/{id}", s.requireAuth(s.handleDeleteItem))

	// Notifications
	s.mux.HandleFunc("GET /api/notifications", s.requireAuth(s.handleListNotifications))
	s.mux.HandleFunc("POST /api/notifications/read-all", s.requireAuth(s.handleMarkAllRead))
	s.mux.HandleFunc("POST /api/notifications/generate", s.requireAuth(s.handleGenerateNotifications))
	s.mux.HandleFunc("POST /api/notifications/email", s.requireAuth(s.handleEmailNotification))
	s.mux.HandleFunc("POST /api/notifications/{id}/read", s.requireAuth(s.handleMarkRead))
	s.mux.HandleFunc("DELETE /api/notifications/{id}", s.requireAuth(s.handleDeleteNotification))

	// Profile and settings
	s.mux.HandleFunc("GET /api/profile", s.requireAuth(s.handleGetProfile))
	s.mux.HandleFunc("PUT /api/profile", s.requireAuth(s.handleSaveProfile))
	s.mux.HandleFunc("GET /api/settings", s.requireAuth(s.handleGetSettings))
	s.mux.HandleFunc("PUT /api/settings", s.requireAuth(s.handleSaveSettings))

	if ws != nil {
		s.mux.HandleFunc("GET /api/ws", s.requireAuth(s.householdSubscription(ws)))
	}
}

// householdSubscription only lets members subscribe to a household's updates
func (s *Server) householdSubscription(ws http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if householdID := r.URL.Query().Get("household_id"); householdID != "" {
			if !s.authorizeHousehold(w, r, householdID, "") {
				return
			}
		}
		ws.ServeHTTP(w, r)
	}
}

// authorizeHousehold writes an error response unless the caller may act on the household
func (s *Server) authorizeHousehold(w http.ResponseWriter, r *http.Request, householdID, fromBody string, roles ...Role) bool {
	if err := s.service.AuthorizeHousehold(r.Context(), userID(r, fromBody), householdID, roles...); err != nil {
		writeServiceError(w, err)
		return false
	}
	return true
}

// authorizeItem writes an error response unless the caller belongs to the item's household
func (s *Server) authorizeItem(w http.ResponseWriter, r *http.Request, fromBody string) bool {
	if err := s.service.AuthorizeItem(r.Context(), userID(r, fromBody), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return false
	}
	return true
}

// Start serves HTTP on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes v as a JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes {"error": message}
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a service error onto a status code
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidInput), errors.Is(err, scanning.ErrInvalidImage):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrAlreadyMember):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeJSON reads a JSON body of at most maxBytes
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body is too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

// userID returns the authenticated user, falling back to an ID supplied in the body
func userID(r *http.Request, fromBody string) string {
	if id := UserIDFromContext(r.Context()); id != "" {
		return id
	}
	return strings.TrimSpace(fromBody)
}

// requireUser writes a 400 when no user ID is available
func requireUser(w http.ResponseWriter, r *http.Request, fromBody string) (string, bool) {
	id := userID(r, fromBody)
	if id == "" {
		writeError(w, http.StatusBadRequest, "User ID is required")
		return "", false
	}
	return id, true
}
