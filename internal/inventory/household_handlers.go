package inventory

import (
	"net/http"
)

type householdRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	UserID      string  `json:"userId"`
}

// handleListHouseholds returns the households the user belongs to
func (s *Server) handleListHouseholds(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(w, r, "")
	if !ok {
		return
	}

	households, err := s.service.ListHouseholds(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, households)
}

// handleCreateHousehold creates a household owned by the caller
func (s *Server) handleCreateHousehold(w http.ResponseWriter, r *http.Request) {
	var req householdRequest
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	uid, ok := requireUser(w, r, req.UserID)
	if !ok {
		return
	}

	var name, description string
	if req.Name != nil {
		name = *req.Name
	}
	if req.Description != nil {
		description = *req.Description
	}

	household, err := s.service.CreateHousehold(r.Context(), uid, name, description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, household)
}

func (s *Server) handleGetHousehold(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeHousehold(w, r, r.PathValue("id"), "") {
		return
	}

	household, err := s.service.GetHousehold(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, household)
}

func (s *Server) handleUpdateHousehold(w http.ResponseWriter, r *http.Request) {
	var req householdRequest
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	if !s.authorizeHousehold(w, r, r.PathValue("id"), req.UserID, RoleOwner, RoleAdmin) {
		return
	}

	household, err := s.service.UpdateHousehold(r.Context(), r.PathValue("id"), req.Name, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, household)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	if !s.authorizeHousehold(w, r, r.PathValue("id"), "") {
		return
	}

	members, err := s.service.ListMembers(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

type addMemberRequest struct {
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// handleAddMember invites a registered user by email
func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if !decodeJSON(w, r, maxJSONBody, &req) {
		return
	}
	if !s.authorizeHousehold(w, r, r.PathValue("id"), "", RoleOwner, RoleAdmin) {
		return
	}

	member, err := s.service.AddMember(r.Context(), r.PathValue("id"), req.Email, req.Role)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, member)
}

// handleRemoveMember removes a member. Members may remove themselves; removing
// anyone else takes an owner or admin.
func (s *Server) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	householdID, target := r.PathValue("id"), r.PathValue("userID")
	roles := []Role{RoleOwner, RoleAdmin}
	if target == userID(r, "") {
		roles = nil
	}
	if !s.authorizeHousehold(w, r, householdID, "", roles...) {
		return
	}

	if err := s.service.RemoveMember(r.Context(), householdID, target); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
