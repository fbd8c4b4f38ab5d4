package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
)

type userSummary struct {
	ID        string `json:"id"`
	LoginID   string `json:"loginId"`
	Role      string `json:"role"`
	IsLocked  bool   `json:"isLocked"`
	CreatedAt string `json:"createdAt"`
}

func toUserSummary(cred model.Credential) userSummary {
	return userSummary{
		ID:        cred.ID,
		LoginID:   cred.LoginID,
		Role:      string(cred.Role),
		IsLocked:  cred.IsLocked,
		CreatedAt: cred.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	creds, err := s.directory.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]userSummary, 0, len(creds))
	for _, cred := range creds {
		resp = append(resp, toUserSummary(cred))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createUserRequest struct {
	LoginID string `json:"loginId"`
	Secret  string `json:"secret"`
	Role    string `json:"role"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	req.LoginID = strings.TrimSpace(req.LoginID)
	if req.LoginID == "" || req.Secret == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_role")
		return
	}

	cred, err := s.directory.Create(r.Context(), gatePass(r), req.LoginID, req.Secret, role)
	if err != nil {
		if errors.Is(err, model.ErrInvalidPin) {
			writeError(w, http.StatusForbidden, "gate_required")
			return
		}
		if errors.Is(err, model.ErrDuplicateIdentity) {
			writeError(w, http.StatusConflict, "duplicate_login")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusCreated, toUserSummary(cred))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing_user_id")
		return
	}

	err := s.directory.Delete(r.Context(), gatePass(r), userID, session.UserID)
	if err != nil {
		if errors.Is(err, model.ErrInvalidPin) {
			writeError(w, http.StatusForbidden, "gate_required")
			return
		}
		if errors.Is(err, model.ErrSelfOperation) {
			writeError(w, http.StatusForbidden, "self_delete_denied")
			return
		}
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleLockUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing_user_id")
		return
	}

	if err := s.directory.SetLocked(r.Context(), gatePass(r), userID, true); err != nil {
		if errors.Is(err, model.ErrInvalidPin) {
			writeError(w, http.StatusForbidden, "gate_required")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	// A locked record must not keep live sessions.
	_ = s.store.DeleteSessionsByCredential(r.Context(), userID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "locked"})
}

func (s *Server) handleUnlockUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing_user_id")
		return
	}

	if err := s.directory.SetLocked(r.Context(), gatePass(r), userID, false); err != nil {
		if errors.Is(err, model.ErrInvalidPin) {
			writeError(w, http.StatusForbidden, "gate_required")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	// Clear any stuck kiosk lockout sequences for the record.
	s.promotions.ReleaseCredential(userID)

	writeJSON(w, http.StatusOK, map[string]string{"status": "unlocked"})
}

func (s *Server) handleRevealSecret(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing_user_id")
		return
	}

	secret, err := s.directory.RevealSecret(r.Context(), gatePass(r), userID)
	if err != nil {
		if errors.Is(err, model.ErrInvalidPin) {
			writeError(w, http.StatusForbidden, "gate_required")
			return
		}
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"secret": secret})
}
