package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
)

type submitReportRequest struct {
	Type     string `json:"type"`
	Content  string `json:"content"`
	Analysis string `json:"analysis"`
	MediaURL string `json:"mediaUrl"`
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	if s.replicator.Current().FormDisabled {
		writeError(w, http.StatusForbidden, "form_disabled")
		return
	}

	var req submitReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "missing_content")
		return
	}
	switch model.ReportType(req.Type) {
	case model.ReportText, model.ReportAudio, model.ReportVideo:
	default:
		writeError(w, http.StatusBadRequest, "invalid_report_type")
		return
	}

	report := model.Report{
		ID:        uuid.NewString(),
		Type:      model.ReportType(req.Type),
		Content:   req.Content,
		Analysis:  req.Analysis,
		MediaURL:  req.MediaURL,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.reports.Add(r.Context(), report); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	result, err := s.reports.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if result == nil {
		result = []model.Report{}
	}
	writeJSON(w, http.StatusOK, result)
}

// handleReportArchive returns the full feed for offline archiving, behind
// the download PIN tier on top of the dashboard requirement.
func (s *Server) handleReportArchive(w http.ResponseWriter, r *http.Request) {
	if err := s.gate.VerifyPass(gatePass(r), model.GateAdminDownload); err != nil {
		writeError(w, http.StatusForbidden, "gate_required")
		return
	}

	result, err := s.reports.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if result == nil {
		result = []model.Report{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportID")
	if reportID == "" {
		writeError(w, http.StatusBadRequest, "missing_report_id")
		return
	}

	if err := s.reports.Delete(r.Context(), reportID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusNotFound, "report_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
