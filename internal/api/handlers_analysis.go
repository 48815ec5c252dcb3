package api

import (
	"net/http"

	"github.com/cmcnador-art/cmc-timetable/internal/analysis"
	"github.com/cmcnador-art/cmc-timetable/internal/report"
)

// handleAnalysis runs a full extraction pass over the active records and
// returns the occupancy snapshot at the current instant.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	docs, ok := s.analysisDocuments(w, r)
	if !ok {
		return
	}
	res := s.pipeline.Analyze(r.Context(), docs, s.now(), nil)
	writeJSON(w, http.StatusOK, res)
}

// handleAnalysisReport renders the same snapshot as an HTML room occupancy
// report.
func (s *Server) handleAnalysisReport(w http.ResponseWriter, r *http.Request) {
	docs, ok := s.analysisDocuments(w, r)
	if !ok {
		return
	}
	at := s.now()
	res := s.pipeline.Analyze(r.Context(), docs, at, nil)
	page, err := report.Render(res, at)
	if err != nil {
		s.log.Error("render report", "error", err)
		jsonError(w, "failed to render report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// analysisDocuments loads the active records as pipeline input. A store
// failure writes the error response and returns ok=false; an empty store is
// a valid empty batch.
func (s *Server) analysisDocuments(w http.ResponseWriter, r *http.Request) ([]analysis.Document, bool) {
	list, err := s.store.ListTimetables(r.Context())
	if err != nil {
		s.log.Error("list timetables for analysis", "error", err)
		jsonError(w, "failed to load timetables", http.StatusInternalServerError)
		return nil, false
	}
	docs := make([]analysis.Document, 0, len(list))
	for _, t := range list {
		if !t.Active {
			continue
		}
		docs = append(docs, analysis.Document{
			ID:           t.ID,
			Pole:         t.Pole,
			Group:        t.Group,
			PDFLocation:  t.PDFURL,
			LastModified: t.LastUpdated,
		})
	}
	return docs, true
}
