package http

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/gate"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
)

type gateCheckRequest struct {
	Kind string `json:"kind"`
	Pin  string `json:"pin"`
}

type gateCheckResponse struct {
	Pass string `json:"pass"`
}

func (s *Server) handleGateCheck(w http.ResponseWriter, r *http.Request) {
	var req gateCheckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	kind, ok := model.ParseGateKind(req.Kind)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_gate_kind")
		return
	}

	pass, err := s.gate.CheckAndIssue(kind, req.Pin)
	if err != nil {
		gateFailures.WithLabelValues(string(kind)).Inc()
		writeError(w, http.StatusForbidden, "invalid_pin")
		return
	}

	writeJSON(w, http.StatusOK, gateCheckResponse{Pass: pass})
}

type maintenanceUnlockRequest struct {
	Pin string `json:"pin"`
}

type maintenanceUnlockResponse struct {
	Grant     string `json:"grant"`
	ExpiresIn int64  `json:"expiresIn"`
}

func (s *Server) handleMaintenanceUnlock(w http.ResponseWriter, r *http.Request) {
	var req maintenanceUnlockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	grant, err := s.gate.MaintenanceGrant(req.Pin)
	if err != nil {
		gateFailures.WithLabelValues(string(model.GateMaintenance)).Inc()
		writeError(w, http.StatusForbidden, "invalid_pin")
		return
	}

	writeJSON(w, http.StatusOK, maintenanceUnlockResponse{
		Grant:     grant,
		ExpiresIn: int64(s.cfg.UnlockGrantTTL / time.Second),
	})
}

type kioskPinRequest struct {
	Pin string `json:"pin"`
}

type kioskResponse struct {
	Stage           string `json:"stage"`
	AttemptsLeft    int    `json:"attemptsLeft,omitempty"`
	Token           string `json:"token,omitempty"`
	CooldownSeconds int64  `json:"cooldownSeconds,omitempty"`
}

func toKioskResponse(res gate.Result) kioskResponse {
	out := kioskResponse{
		Stage:        string(res.Stage),
		AttemptsLeft: res.AttemptsLeft,
		Token:        res.Token,
	}
	if res.Stage == gate.StageLocked {
		out.CooldownSeconds = int64(math.Ceil(res.CooldownRemaining.Seconds()))
	}
	return out
}

func (s *Server) handleKioskStart(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	res := s.promotions.Start(session.TokenHash, *session, clientIP(r))
	writeJSON(w, http.StatusOK, toKioskResponse(res))
}

func (s *Server) handleKioskPin(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	var req kioskPinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	prior, hadPrior := s.promotions.Status(session.TokenHash)

	res, err := s.promotions.Submit(r.Context(), session.TokenHash, req.Pin)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusConflict, "no_active_sequence")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	if res.Stage == gate.StageLocked && (!hadPrior || prior.Stage != gate.StageLocked) {
		kioskLockouts.Inc()
	}

	writeJSON(w, http.StatusOK, toKioskResponse(res))
}

func (s *Server) handleKioskStatus(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	res, ok := s.promotions.Status(session.TokenHash)
	if !ok {
		writeError(w, http.StatusNotFound, "no_active_sequence")
		return
	}
	writeJSON(w, http.StatusOK, toKioskResponse(res))
}

func (s *Server) handleKioskCancel(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())
	s.promotions.Cancel(session.TokenHash)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleKioskReset(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	var req kioskPinRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	if err := s.promotions.MasterReset(r.Context(), session.TokenHash, req.Pin); err != nil {
		if errors.Is(err, model.ErrInvalidPin) {
			gateFailures.WithLabelValues(string(model.GateMasterReset)).Inc()
			writeError(w, http.StatusForbidden, "invalid_pin")
			return
		}
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusConflict, "no_active_sequence")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
