package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cmcnador-art/cmc-timetable/internal/store"
)

func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListAdmins(r.Context())
	if err != nil {
		s.log.Error("list admins", "error", err)
		jsonError(w, "failed to list admins", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []store.Admin{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUpsertAdmin(w http.ResponseWriter, r *http.Request) {
	var a store.Admin
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	a.ID = chi.URLParam(r, "id")
	if a.Email == "" {
		jsonError(w, "email is required", http.StatusBadRequest)
		return
	}
	if a.Role != store.RoleSuperAdmin && a.Role != store.RolePoleAdmin {
		jsonError(w, "role must be SUPER_ADMIN or POLE_ADMIN", http.StatusBadRequest)
		return
	}
	saved, err := s.store.UpsertAdmin(r.Context(), a)
	if err != nil {
		s.log.Error("upsert admin", "error", err)
		jsonError(w, "failed to save admin", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.DeleteAdmin(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "admin not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("delete admin", "error", err)
		jsonError(w, "failed to delete admin", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}
