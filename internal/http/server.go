// Package http exposes the administrative surface: session auth, the global
// configuration record and its push stream, the PIN gates, the credential
// directory and the report feed.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/config"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/directory"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/gate"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/reports"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/repository"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/settings"
)

type Server struct {
	cfg        config.Config
	store      *repository.Store
	settings   *settings.Store
	replicator *settings.Replicator
	gate       *gate.Gate
	promotions *gate.Promotions
	directory  *directory.Manager
	reports    *reports.Store
}

func NewServer(
	cfg config.Config,
	store *repository.Store,
	settingsStore *settings.Store,
	replicator *settings.Replicator,
	g *gate.Gate,
	promotions *gate.Promotions,
	dir *directory.Manager,
	reportStore *reports.Store,
) *Server {
	return &Server{
		cfg:        cfg,
		store:      store,
		settings:   settingsStore,
		replicator: replicator,
		gate:       g,
		promotions: promotions,
		directory:  dir,
		reports:    reportStore,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	// Reachable without a session: a locked-out or logged-out client still
	// needs the lock state, the unlock path and the public report form.
	r.Get("/settings/public", s.handlePublicSettings)
	r.Get("/settings/stream", s.handleSettingsStream)
	r.Post("/gate/maintenance", s.handleMaintenanceUnlock)
	r.Post("/reports", s.handleSubmitReport)

	r.Post("/auth/login", s.handleLogin)
	r.With(s.authMiddleware).Post("/auth/logout", s.handleLogout)
	r.With(s.authMiddleware, s.maintenanceMiddleware).Get("/auth/session", s.handleGetSession)

	r.With(s.authMiddleware, s.maintenanceMiddleware, s.requireDashboard).Get("/settings", s.handleGetSettings)
	r.With(s.authMiddleware, s.maintenanceMiddleware, s.requireAdmin).Put("/settings", s.handlePutSettings)

	r.With(s.authMiddleware, s.maintenanceMiddleware, s.requireDashboard).Post("/gate/check", s.handleGateCheck)

	r.Route("/gate/kiosk", func(r chi.Router) {
		r.Use(s.authMiddleware, s.maintenanceMiddleware, s.requireKiosk)
		r.Post("/start", s.handleKioskStart)
		r.Post("/pin", s.handleKioskPin)
		r.Get("/status", s.handleKioskStatus)
		r.Post("/cancel", s.handleKioskCancel)
		r.Post("/reset", s.handleKioskReset)
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(s.authMiddleware, s.maintenanceMiddleware, s.requireDashboard)
		r.Get("/", s.handleListUsers)
		r.Post("/", s.handleCreateUser)
		r.Delete("/{userID}", s.handleDeleteUser)
		r.Post("/{userID}/lock", s.handleLockUser)
		r.Post("/{userID}/unlock", s.handleUnlockUser)
		r.Get("/{userID}/secret", s.handleRevealSecret)
	})

	r.With(s.authMiddleware, s.maintenanceMiddleware, s.requireDashboard).Get("/reports", s.handleListReports)
	r.With(s.authMiddleware, s.maintenanceMiddleware, s.requireDashboard).Get("/reports/archive", s.handleReportArchive)
	r.With(s.authMiddleware, s.maintenanceMiddleware, s.requireDashboard).Delete("/reports/{reportID}", s.handleDeleteReport)

	return r
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}

		session, err := s.lookupSession(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, &session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// maintenanceMiddleware enforces the global lock against every authenticated
// request. A shut-out session is destroyed on the spot: the client falls back
// to the locked view and its old token is worthless even if replayed.
func (s *Server) maintenanceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := s.replicator.Current()
		grant := r.Header.Get("X-Unlock-Grant")
		if settings.EffectiveLock(cfg, s.gate.GrantValid(grant)) {
			if session := sessionFromContext(r.Context()); session != nil {
				_ = s.store.DeleteSessionByTokenHash(r.Context(), session.TokenHash)
			}
			writeError(w, http.StatusLocked, "maintenance_locked")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireDashboard admits administrative roles outright. A kiosk session is
// admitted only with a pass proving the two-stage promotion completed; the
// per-operation gate checks still apply on top.
func (s *Server) requireDashboard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		if session == nil {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		if session.Role.IsAdmin() {
			next.ServeHTTP(w, r)
			return
		}
		if session.Role.NeedsPromotion() && s.gate.VerifyPass(gatePass(r), model.GateAdminAction) == nil {
			next.ServeHTTP(w, r)
			return
		}
		writeError(w, http.StatusForbidden, "forbidden")
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		if session == nil || !session.Role.IsAdmin() {
			writeError(w, http.StatusForbidden, "admin_only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireKiosk(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		if session == nil || !session.Role.NeedsPromotion() {
			writeError(w, http.StatusForbidden, "kiosk_only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type sessionKey struct{}

func sessionFromContext(ctx context.Context) *model.Session {
	value := ctx.Value(sessionKey{})
	session, _ := value.(*model.Session)
	return session
}

func gatePass(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Gate-Pass"))
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return r.RemoteAddr
}
