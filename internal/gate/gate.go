// Package gate implements the PIN checkpoints guarding the administrative
// surface: lightweight single-stage gates for individual sensitive actions
// and the two-stage kiosk promotion sequence with failure escalation.
package gate

import (
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
)

// ConfigSource yields the most recently replicated configuration. Gates
// never cache PIN values: an administrator may rotate a PIN while an attempt
// is in flight, and the newer value must win at comparison time.
type ConfigSource interface {
	Current() model.Settings
}

// Gate performs single-stage PIN checks. These are idempotent and freely
// retryable; only the kiosk promotion sequence escalates failures.
type Gate struct {
	cfg    ConfigSource
	tokens *TokenIssuer
}

func New(cfg ConfigSource, tokens *TokenIssuer) *Gate {
	return &Gate{cfg: cfg, tokens: tokens}
}

// Check compares a presented PIN against the configured value for one tier.
// Every failure is the same generic result; the gate never discloses which
// PIN was compared or why the comparison failed.
func (g *Gate) Check(kind model.GateKind, pin string) error {
	configured := g.cfg.Current().PinFor(kind)
	if configured == "" || pin != configured {
		return model.ErrInvalidPin
	}
	return nil
}

// CheckAndIssue mints a short-lived pass proving the gate was cleared, for
// the directory layer to verify.
func (g *Gate) CheckAndIssue(kind model.GateKind, pin string) (string, error) {
	if err := g.Check(kind, pin); err != nil {
		return "", err
	}
	return g.tokens.IssuePass(kind)
}

// MaintenanceGrant exchanges a correct maintenance PIN for a time-boxed
// unlock grant bound to the current lock epoch. The grant is a client-side
// convenience, not a security boundary.
func (g *Gate) MaintenanceGrant(pin string) (string, error) {
	if err := g.Check(model.GateMaintenance, pin); err != nil {
		return "", err
	}
	return g.tokens.IssueGrant(g.cfg.Current().LockEpoch)
}

// GrantValid evaluates a client-held unlock grant against the current epoch.
func (g *Gate) GrantValid(grant string) bool {
	return g.tokens.GrantValid(grant, g.cfg.Current().LockEpoch)
}

// VerifyPass re-checks a previously issued gate pass for one tier.
func (g *Gate) VerifyPass(token string, kind model.GateKind) error {
	return g.tokens.VerifyPass(token, kind)
}
