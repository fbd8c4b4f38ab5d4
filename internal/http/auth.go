package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/crypto"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/settings"
)

type loginRequest struct {
	LoginID string `json:"loginId"`
	Secret  string `json:"secret"`
}

type sessionResponse struct {
	Token          string `json:"token,omitempty"`
	Role           string `json:"role"`
	UserID         string `json:"userId"`
	NeedsPromotion bool   `json:"needsPromotion"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.LoginID = strings.TrimSpace(req.LoginID)
	if req.LoginID == "" || req.Secret == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	// The maintenance lock shuts out logins too, unless the caller holds a
	// grant for the current epoch.
	cfg := s.replicator.Current()
	if settings.EffectiveLock(cfg, s.gate.GrantValid(r.Header.Get("X-Unlock-Grant"))) {
		writeError(w, http.StatusLocked, "maintenance_locked")
		return
	}

	cred, err := s.store.ValidateCredential(r.Context(), req.LoginID, req.Secret)
	if err != nil {
		if errors.Is(err, model.ErrLocked) {
			// The one distinguishable failure: a locked account must tell
			// its owner to seek an administrator, not retry the secret.
			loginAttempts.WithLabelValues("locked").Inc()
			writeError(w, http.StatusLocked, "account_locked")
			return
		}
		if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrInvalidSecret) {
			loginAttempts.WithLabelValues("rejected").Inc()
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	token, err := crypto.NewSessionToken()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}
	session := model.Session{
		ID:           uuid.NewString(),
		TokenHash:    crypto.HashToken(token),
		Role:         cred.Role,
		UserID:       cred.LoginID,
		CredentialID: cred.ID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateSession(r.Context(), session); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	loginAttempts.WithLabelValues("accepted").Inc()
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:          token,
		Role:           string(cred.Role),
		UserID:         cred.LoginID,
		NeedsPromotion: cred.Role.NeedsPromotion(),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	if err := s.store.DeleteSessionByTokenHash(r.Context(), session.TokenHash); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Role:           string(session.Role),
		UserID:         session.UserID,
		NeedsPromotion: session.Role.NeedsPromotion(),
	})
}

func (s *Server) lookupSession(ctx context.Context, token string) (model.Session, error) {
	return s.store.GetSessionByTokenHash(ctx, crypto.HashToken(token))
}
