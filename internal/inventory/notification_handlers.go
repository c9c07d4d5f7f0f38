package inventory

import (
	"log/slog"
	"net/http"
	"strings"
)

// handleListNotifications returns the caller's notifications, newest first
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r, "")
	if !ok {
		return
	}

	notifications, err := s.service.ListNotifications(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, notifications)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r, "")
	if !ok {
		return
	}

	n, err := s.service.MarkNotificationRead(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r, "")
	if !ok {
		return
	}

	updated, err := s.service.MarkAllNotificationsRead(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r, "")
	if !ok {
		return
	}

	if err := s.service.DeleteNotification(r.Context(), uid, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type generateRequest struct {
	UserID      string `json:"userId"`
	HouseholdID string `json:"householdId"`
}

// handleGenerateNotifications runs the alert generator for one household
func (s *Server) handleGenerateNotifications(w http.ResponseWriter, r *http.Request) {
	if s.notifier == nil {
		writeError(w, http.StatusServiceUnavailable, "Notifications are not configured")
		return
	}

	var req generateRequest
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	uid, ok := requireUser(w, r, req.UserID)
	if !ok {
		return
	}
	if strings.TrimSpace(req.HouseholdID) == "" {
		writeError(w, http.StatusBadRequest, "Missing userId or householdId")
		return
	}
	if !s.authorizeHousehold(w, r, req.HouseholdID, uid) {
		return
	}

	result, err := s.notifier.Generate(r.Context(), uid, req.HouseholdID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type emailRequest struct {
	UserID       string            `json:"userId"`
	Notification NotificationEmail `json:"notification"`
}

// handleEmailNotification emails a single alert to the user
func (s *Server) handleEmailNotification(w http.ResponseWriter, r *http.Request) {
	if s.notifier == nil {
		writeError(w, http.StatusServiceUnavailable, "Notifications are not configured")
		return
	}

	var req emailRequest
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	uid, ok := requireUser(w, r, req.UserID)
	if !ok {
		return
	}
	if req.Notification.Title == "" || req.Notification.Message == "" {
		writeError(w, http.StatusBadRequest, "notification title and message are required")
		return
	}
	if req.Notification.Type == "" {
		req.Notification.Type = NotificationSystem
	}

	if err := s.notifier.EmailNotification(r.Context(), uid, req.Notification); err != nil {
		writeServiceError(w, err)
		return
	}
	slog.Info("Notification email sent", "user_id", uid, "type", req.Notification.Type)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r, "")
	if !ok {
		return
	}

	profile, err := s.service.GetProfile(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleSaveProfile creates or replaces the caller's profile
func (s *Server) handleSaveProfile(w http.ResponseWriter, r *http.Request) {
	var profile Profile
	if !decodeJSON(w, r, maxJSONBody, &profile) {
		return
	}
	uid, ok := requireUser(w, r, profile.UserID)
	if !ok {
		return
	}
	profile.UserID = uid

	saved, err := s.service.SaveProfile(r.Context(), &profile)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r, "")
	if !ok {
		return
	}

	settings, err := s.service.GetSettings(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleSaveSettings replaces the caller's settings
func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings Settings
	if !decodeJSON(w, r, maxJSONBody, &settings) {
		return
	}
	uid, ok := requireUser(w, r, settings.UserID)
	if !ok {
		return
	}
	settings.UserID = uid

	saved, err := s.service.SaveSettings(r.Context(), &settings)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
