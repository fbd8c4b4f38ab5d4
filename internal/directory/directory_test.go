package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/gate"
	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
)

type memoryStore struct {
	creds map[string]model.Credential
}

func newMemoryStore() *memoryStore {
	return &memoryStore{creds: make(map[string]model.Credential)}
}

func (m *memoryStore) CreateCredential(_ context.Context, cred model.Credential) error {
	for _, existing := range m.creds {
		if existing.LoginID == cred.LoginID {
			return model.ErrDuplicateIdentity
		}
	}
	m.creds[cred.ID] = cred
	return nil
}

func (m *memoryStore) SetCredentialLocked(_ context.Context, id string, locked bool) error {
	cred, ok := m.creds[id]
	if !ok {
		return model.ErrNotFound
	}
	cred.IsLocked = locked
	m.creds[id] = cred
	return nil
}

func (m *memoryStore) DeleteCredential(_ context.Context, id, actorLoginID string) error {
	cred, ok := m.creds[id]
	if !ok {
		return model.ErrNotFound
	}
	if cred.LoginID == actorLoginID {
		return model.ErrSelfOperation
	}
	delete(m.creds, id)
	return nil
}

func (m *memoryStore) RevealSecret(_ context.Context, id string) (string, error) {
	cred, ok := m.creds[id]
	if !ok {
		return "", model.ErrNotFound
	}
	return cred.Secret, nil
}

func (m *memoryStore) ListCredentials(context.Context) ([]model.Credential, error) {
	out := make([]model.Credential, 0, len(m.creds))
	for _, cred := range m.creds {
		cred.Secret = ""
		out = append(out, cred)
	}
	return out, nil
}

func testManager(t *testing.T) (*Manager, *memoryStore, *gate.TokenIssuer) {
	t.Helper()
	store := newMemoryStore()
	issuer := gate.NewTokenIssuer("test-secret", "test-issuer", 5*time.Minute, 8*time.Hour)
	return NewManager(store, issuer), store, issuer
}

func mustPass(t *testing.T, issuer *gate.TokenIssuer, kind model.GateKind) string {
	t.Helper()
	pass, err := issuer.IssuePass(kind)
	if err != nil {
		t.Fatalf("pass issue error: %v", err)
	}
	return pass
}

func TestCreateRequiresAdminActionPass(t *testing.T) {
	m, store, issuer := testManager(t)

	if _, err := m.Create(context.Background(), "", "alice", "secret", model.RoleAdmin); !errors.Is(err, model.ErrInvalidPin) {
		t.Fatalf("expected ErrInvalidPin without pass, got %v", err)
	}
	if _, err := m.Create(context.Background(), mustPass(t, issuer, model.GateMasterReset), "alice", "secret", model.RoleAdmin); !errors.Is(err, model.ErrInvalidPin) {
		t.Fatalf("expected ErrInvalidPin with wrong tier, got %v", err)
	}

	cred, err := m.Create(context.Background(), mustPass(t, issuer, model.GateAdminAction), "alice", "secret", model.RoleAdmin)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}
	if cred.Secret != "" {
		t.Fatal("create response leaked the secret")
	}
	if stored, ok := store.creds[cred.ID]; !ok || stored.Secret != "secret" {
		t.Fatal("credential not persisted with its secret")
	}
}

func TestLockUnlockRequireMasterResetPass(t *testing.T) {
	m, store, issuer := testManager(t)

	cred, err := m.Create(context.Background(), mustPass(t, issuer, model.GateAdminAction), "bob", "secret", model.RoleTeacher)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	if err := m.SetLocked(context.Background(), mustPass(t, issuer, model.GateAdminAction), cred.ID, true); !errors.Is(err, model.ErrInvalidPin) {
		t.Fatalf("admin action pass accepted for lock, got %v", err)
	}
	if err := m.SetLocked(context.Background(), mustPass(t, issuer, model.GateMasterReset), cred.ID, true); err != nil {
		t.Fatalf("lock error: %v", err)
	}
	if !store.creds[cred.ID].IsLocked {
		t.Fatal("credential not locked")
	}
	if err := m.SetLocked(context.Background(), mustPass(t, issuer, model.GateMasterReset), cred.ID, false); err != nil {
		t.Fatalf("unlock error: %v", err)
	}
	if store.creds[cred.ID].IsLocked {
		t.Fatal("credential not unlocked")
	}
}

func TestPromotionPassCoversActionGatesOnly(t *testing.T) {
	m, _, issuer := testManager(t)

	pass := mustPass(t, issuer, model.GatePromotion)
	cred, err := m.Create(context.Background(), pass, "carol", "secret", model.RoleTeacher)
	if err != nil {
		t.Fatalf("create with promotion pass failed: %v", err)
	}
	// Lock and unlock sit behind the master reset PIN, which the promotion
	// sequence never checked.
	if err := m.SetLocked(context.Background(), pass, cred.ID, true); !errors.Is(err, model.ErrInvalidPin) {
		t.Fatalf("promotion pass accepted for lock, got %v", err)
	}
}

func TestDeleteDeniesSelf(t *testing.T) {
	m, _, issuer := testManager(t)

	cred, err := m.Create(context.Background(), mustPass(t, issuer, model.GateAdminAction), "dave", "secret", model.RoleSuperadmin)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	pass := mustPass(t, issuer, model.GateAdminAction)
	if err := m.Delete(context.Background(), pass, cred.ID, "dave"); !errors.Is(err, model.ErrSelfOperation) {
		t.Fatalf("expected ErrSelfOperation, got %v", err)
	}
	if err := m.Delete(context.Background(), pass, cred.ID, "someone-else"); err != nil {
		t.Fatalf("delete error: %v", err)
	}
}

func TestRevealSecret(t *testing.T) {
	m, _, issuer := testManager(t)

	cred, err := m.Create(context.Background(), mustPass(t, issuer, model.GateAdminAction), "erin", "hunter2", model.RoleTeacher)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	if _, err := m.RevealSecret(context.Background(), "", cred.ID); !errors.Is(err, model.ErrInvalidPin) {
		t.Fatalf("expected ErrInvalidPin without pass, got %v", err)
	}
	secret, err := m.RevealSecret(context.Background(), mustPass(t, issuer, model.GateAdminAction), cred.ID)
	if err != nil {
		t.Fatalf("reveal error: %v", err)
	}
	if secret != "hunter2" {
		t.Fatalf("expected hunter2, got %q", secret)
	}
}

func TestLockoutBypassesGates(t *testing.T) {
	m, store, issuer := testManager(t)

	cred, err := m.Create(context.Background(), mustPass(t, issuer, model.GateAdminAction), "frank", "secret", model.RoleKioskDevice)
	if err != nil {
		t.Fatalf("create error: %v", err)
	}

	lockout := NewLockout(store)
	if err := lockout.Lock(context.Background(), cred.ID); err != nil {
		t.Fatalf("lockout error: %v", err)
	}
	if !store.creds[cred.ID].IsLocked {
		t.Fatal("lockout did not lock the credential")
	}
	if err := lockout.Unlock(context.Background(), cred.ID); err != nil {
		t.Fatalf("unlock error: %v", err)
	}
	if store.creds[cred.ID].IsLocked {
		t.Fatal("lockout did not unlock the credential")
	}
}
