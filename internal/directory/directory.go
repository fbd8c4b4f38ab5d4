// Package directory composes PIN-gate authorization with the credential
// store. The store itself performs no gating; keeping the two apart lets the
// store be tested and reused without re-implementing authorization.
package directory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/gate"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
)

// CredentialStore is the ungated persistence surface the manager delegates to.
type CredentialStore interface {
	CreateCredential(ctx context.Context, cred model.Credential) error
	SetCredentialLocked(ctx context.Context, id string, locked bool) error
	DeleteCredential(ctx context.Context, id, actorLoginID string) error
	RevealSecret(ctx context.Context, id string) (string, error)
	ListCredentials(ctx context.Context) ([]model.Credential, error)
}

// PassVerifier checks a gate-pass token for a required tier.
type PassVerifier interface {
	VerifyPass(token string, kind model.GateKind) error
}

// Manager holds no state of its own; every mutating operation first requires
// proof that the relevant gate was passed, then delegates.
type Manager struct {
	store  CredentialStore
	passes PassVerifier
}

func NewManager(store CredentialStore, passes PassVerifier) *Manager {
	return &Manager{store: store, passes: passes}
}

func (m *Manager) List(ctx context.Context) ([]model.Credential, error) {
	return m.store.ListCredentials(ctx)
}

func (m *Manager) Create(ctx context.Context, pass, loginID, secret string, role model.Role) (model.Credential, error) {
	if err := m.passes.VerifyPass(pass, model.GateAdminAction); err != nil {
		return model.Credential{}, err
	}
	now := time.Now().UTC()
	cred := model.Credential{
		ID:        uuid.NewString(),
		LoginID:   loginID,
		Secret:    secret,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.store.CreateCredential(ctx, cred); err != nil {
		return model.Credential{}, err
	}
	cred.Secret = ""
	return cred, nil
}

// Delete removes a record. The self-protection invariant lives in the store;
// the acting identity travels with the call so a session can never delete
// its own record.
func (m *Manager) Delete(ctx context.Context, pass, id, actorLoginID string) error {
	if err := m.passes.VerifyPass(pass, model.GateAdminAction); err != nil {
		return err
	}
	return m.store.DeleteCredential(ctx, id, actorLoginID)
}

// SetLocked flips the lock flag, gated by the master reset PIN tier.
func (m *Manager) SetLocked(ctx context.Context, pass, id string, locked bool) error {
	if err := m.passes.VerifyPass(pass, model.GateMasterReset); err != nil {
		return err
	}
	return m.store.SetCredentialLocked(ctx, id, locked)
}

// RevealSecret returns the stored secret, gated by the admin action PIN.
func (m *Manager) RevealSecret(ctx context.Context, pass, id string) (string, error) {
	if err := m.passes.VerifyPass(pass, model.GateAdminAction); err != nil {
		return "", err
	}
	return m.store.RevealSecret(ctx, id)
}

// Lockout is the ungated internal path the kiosk state machine uses when a
// sequence crosses the failure threshold. It satisfies gate.Locker.
type Lockout struct {
	store CredentialStore
}

func NewLockout(store CredentialStore) *Lockout {
	return &Lockout{store: store}
}

func (l *Lockout) Lock(ctx context.Context, credentialID string) error {
	return l.store.SetCredentialLocked(ctx, credentialID, true)
}

func (l *Lockout) Unlock(ctx context.Context, credentialID string) error {
	return l.store.SetCredentialLocked(ctx, credentialID, false)
}

var _ gate.Locker = (*Lockout)(nil)
