package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
)

type putSettingsRequest struct {
	FormDisabled           bool   `json:"formDisabled"`
	MaintenanceLockEnabled bool   `json:"maintenanceLockEnabled"`
	MaintenancePin         string `json:"maintenancePin"`
	MasterResetPin         string `json:"masterResetPin"`
	AdminActionPin         string `json:"adminActionPin"`
	AdminDownloadPin       string `json:"adminDownloadPin"`
	FallbackOpenAIKey      string `json:"fallbackOpenAIKey"`
	FallbackCerebrasKey    string `json:"fallbackCerebrasKey"`

	// Re-entered account secret; PINs only change with fresh proof that the
	// session owner is still at the keyboard.
	CurrentSecret string `json:"currentSecret"`
}

// publicSettings is the view streamed to unauthenticated clients. PIN values
// and fallback keys never leave the authenticated surface.
type publicSettings struct {
	Version                int64     `json:"version"`
	FormDisabled           bool      `json:"formDisabled"`
	MaintenanceLockEnabled bool      `json:"maintenanceLockEnabled"`
	LockEpoch              int64     `json:"lockEpoch"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

func toPublic(cfg model.Settings) publicSettings {
	return publicSettings{
		Version:                cfg.Version,
		FormDisabled:           cfg.FormDisabled,
		MaintenanceLockEnabled: cfg.MaintenanceLockEnabled,
		LockEpoch:              cfg.LockEpoch,
		UpdatedAt:              cfg.UpdatedAt,
	}
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.settings.Read(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	if session == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req putSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	for _, pin := range []string{req.MaintenancePin, req.MasterResetPin, req.AdminActionPin, req.AdminDownloadPin} {
		if pin != "" && !model.ValidPin(pin) {
			writeError(w, http.StatusBadRequest, "invalid_pin_format")
			return
		}
	}

	if req.CurrentSecret == "" {
		writeError(w, http.StatusBadRequest, "missing_current_secret")
		return
	}
	if _, err := s.store.ValidateCredential(r.Context(), session.UserID, req.CurrentSecret); err != nil {
		writeError(w, http.StatusForbidden, "invalid_secret")
		return
	}

	next := model.Settings{
		FormDisabled:           req.FormDisabled,
		MaintenanceLockEnabled: req.MaintenanceLockEnabled,
		MaintenancePin:         req.MaintenancePin,
		MasterResetPin:         req.MasterResetPin,
		AdminActionPin:         req.AdminActionPin,
		AdminDownloadPin:       req.AdminDownloadPin,
		FallbackOpenAIKey:      req.FallbackOpenAIKey,
		FallbackCerebrasKey:    req.FallbackCerebrasKey,
	}

	written, err := s.settings.Write(r.Context(), next)
	if err != nil {
		if errors.Is(err, model.ErrPinFormat) {
			writeError(w, http.StatusBadRequest, "invalid_pin_format")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	// The local replica picks the write up immediately; remote replicas get
	// it through the push channel.
	s.replicator.Apply(written)

	settingsWrites.Inc()
	writeJSON(w, http.StatusOK, written)
}

func (s *Server) handlePublicSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toPublic(s.replicator.Current()))
}

// handleSettingsStream pushes the sanitized configuration over SSE: the
// current value immediately, then every applied update. Clients reconnect on
// drop and re-sync from the snapshot event.
func (s *Server) handleSettingsStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	updates := s.replicator.Watch(r.Context())
	if err := writeEvent(w, toPublic(s.replicator.Current())); err != nil {
		return
	}
	flusher.Flush()

	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case cfg := <-updates:
			if err := writeEvent(w, toPublic(cfg)); err != nil {
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, payload publicSettings) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: settings\ndata: %s\n\n", data)
	return err
}
