package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/cmcnador-art/cmc-timetable/internal/discover"
	"github.com/cmcnador-art/cmc-timetable/internal/store"
)

func (s *Server) handleListTimetables(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListTimetables(r.Context())
	if err != nil {
		s.log.Error("list timetables", "error", err)
		jsonError(w, "failed to list timetables", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []store.Timetable{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateTimetable(w http.ResponseWriter, r *http.Request) {
	var t store.Timetable
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if t.Pole == "" || t.Group == "" {
		jsonError(w, "pole and group are required", http.StatusBadRequest)
		return
	}
	created, err := s.store.CreateTimetable(r.Context(), t)
	if err != nil {
		s.log.Error("create timetable", "error", err)
		jsonError(w, "failed to create timetable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateTimetable(w http.ResponseWriter, r *http.Request) {
	var t store.Timetable
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	t.ID = chi.URLParam(r, "id")
	updated, err := s.store.UpdateTimetable(r.Context(), t)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "timetable not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("update timetable", "error", err)
		jsonError(w, "failed to update timetable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTimetable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.DeleteTimetable(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "timetable not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("delete timetable", "error", err)
		jsonError(w, "failed to delete timetable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (s *Server) handleDeleteTimetablesByPole(w http.ResponseWriter, r *http.Request) {
	pole := r.URL.Query().Get("pole")
	if pole == "" {
		jsonError(w, "pole query parameter is required", http.StatusBadRequest)
		return
	}
	n, err := s.store.DeleteTimetablesByPole(r.Context(), pole)
	if err != nil {
		s.log.Error("delete timetables by pole", "error", err, "pole", pole)
		jsonError(w, "failed to delete timetables", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pole": pole, "deleted": n})
}

// handleUploadPDF stores a document under the files directory and points the
// record at it. The record's marker bump invalidates its cached extraction.
func (s *Server) handleUploadPDF(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetTimetable(r.Context(), id); errors.Is(err, store.ErrNotFound) {
		jsonError(w, "timetable not found", http.StatusNotFound)
		return
	} else if err != nil {
		s.log.Error("get timetable", "error", err)
		jsonError(w, "failed to load timetable", http.StatusInternalServerError)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	// One file per record; re-uploads overwrite in place.
	stored := id + ".pdf"
	if err := os.WriteFile(filepath.Join(s.cfg.FilesDir, stored), data, 0o644); err != nil {
		s.log.Error("store pdf", "error", err, "id", id)
		jsonError(w, "failed to store file", http.StatusInternalServerError)
		return
	}

	updated, err := s.store.SetTimetablePDF(r.Context(), id, "/files/"+stored)
	if err != nil {
		s.log.Error("set timetable pdf", "error", err, "id", id)
		jsonError(w, "failed to update timetable", http.StatusInternalServerError)
		return
	}

	s.log.Info("pdf uploaded", "id", id, "filename", filename, "bytes", len(data))
	writeJSON(w, http.StatusOK, updated)
}

type importRequest struct {
	URL       string `json:"url"`
	Pole      string `json:"pole"`
	PoleColor string `json:"poleColor"`
	Specialty string `json:"specialty"`
	Level     string `json:"level"`
}

// handleImportTimetables scrapes a listing page for PDF links and creates one
// active record per discovered document, using the link text as group name.
func (s *Server) handleImportTimetables(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.URL == "" || req.Pole == "" {
		jsonError(w, "url and pole are required", http.StatusBadRequest)
		return
	}

	links, err := discover.Fetch(r.Context(), s.client, req.URL)
	if err != nil {
		s.log.Error("discover pdf links", "error", err, "url", req.URL)
		jsonError(w, "failed to fetch page: "+err.Error(), http.StatusBadGateway)
		return
	}

	var created []store.Timetable
	for _, link := range links {
		group := link.Title
		if group == "" {
			group = strings.TrimSuffix(filepath.Base(link.URL), filepath.Ext(link.URL))
		}
		t, err := s.store.CreateTimetable(r.Context(), store.Timetable{
			Pole:      req.Pole,
			PoleColor: req.PoleColor,
			Specialty: req.Specialty,
			Level:     req.Level,
			Group:     group,
			PDFURL:    link.URL,
			Active:    true,
		})
		if err != nil {
			s.log.Error("create imported timetable", "error", err, "url", link.URL)
			continue
		}
		created = append(created, t)
	}
	if created == nil {
		created = []store.Timetable{}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"discovered": len(links),
		"imported":   created,
	})
}
