package gate

import (
	"testing"
	"time"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
)

func testIssuer() *TokenIssuer {
	return NewTokenIssuer("test-secret", "test-issuer", 5*time.Minute, 8*time.Hour)
}

func TestPassRoundTrip(t *testing.T) {
	issuer := testIssuer()

	pass, err := issuer.IssuePass(model.GateAdminAction)
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if err := issuer.VerifyPass(pass, model.GateAdminAction); err != nil {
		t.Fatalf("verify error: %v", err)
	}
	if err := issuer.VerifyPass(pass, model.GateMasterReset); err == nil {
		t.Fatal("pass for one tier accepted at another")
	}
}

func TestPromotionPassCoversAdminActionOnly(t *testing.T) {
	issuer := testIssuer()

	pass, err := issuer.IssuePass(model.GatePromotion)
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if err := issuer.VerifyPass(pass, model.GateAdminAction); err != nil {
		t.Fatalf("promotion pass rejected for admin action: %v", err)
	}
	// The sequence never compared the remaining tiers' PINs, so the pass
	// proves nothing about them.
	for _, kind := range []model.GateKind{model.GateMaintenance, model.GateAdminDownload, model.GateMasterReset} {
		if err := issuer.VerifyPass(pass, kind); err == nil {
			t.Fatalf("promotion pass accepted for %s", kind)
		}
	}
}

func TestPassRejectsForeignSignature(t *testing.T) {
	issuer := testIssuer()
	other := NewTokenIssuer("other-secret", "test-issuer", 5*time.Minute, 8*time.Hour)

	pass, err := other.IssuePass(model.GateAdminAction)
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if err := issuer.VerifyPass(pass, model.GateAdminAction); err == nil {
		t.Fatal("foreign signature accepted")
	}
	if err := issuer.VerifyPass("not-a-token", model.GateAdminAction); err == nil {
		t.Fatal("garbage token accepted")
	}
}

func TestGrantBoundToEpoch(t *testing.T) {
	issuer := testIssuer()

	grant, err := issuer.IssueGrant(3)
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if !issuer.GrantValid(grant, 3) {
		t.Fatal("grant rejected at its own epoch")
	}
	if issuer.GrantValid(grant, 4) {
		t.Fatal("stale grant accepted after epoch advance")
	}
	if issuer.GrantValid("", 3) {
		t.Fatal("empty grant accepted")
	}
	if issuer.GrantValid("garbage", 3) {
		t.Fatal("garbage grant accepted")
	}
}
