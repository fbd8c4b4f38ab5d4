package model

import (
	"errors"
	"testing"
)

func TestValidPin(t *testing.T) {
	valid := []string{"00000000", "12345678", "99999999"}
	for _, pin := range valid {
		if !ValidPin(pin) {
			t.Fatalf("expected %q valid", pin)
		}
	}
	invalid := []string{"", "1234567", "123456789", "1234567a", "1234 678", "12.45678"}
	for _, pin := range invalid {
		if ValidPin(pin) {
			t.Fatalf("expected %q invalid", pin)
		}
	}
}

func TestSettingsValidate(t *testing.T) {
	cfg := Settings{MaintenanceLockEnabled: true, MaintenancePin: "bad"}
	if err := cfg.Validate(); !errors.Is(err, ErrPinFormat) {
		t.Fatalf("expected ErrPinFormat, got %v", err)
	}

	cfg.MaintenancePin = "12345678"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	// A malformed PIN behind a disabled lock is tolerated.
	cfg = Settings{MaintenanceLockEnabled: false, MaintenancePin: "bad"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid with lock disabled, got %v", err)
	}
}

func TestPinFor(t *testing.T) {
	cfg := Settings{
		MaintenancePin:   "11111111",
		AdminActionPin:   "22222222",
		AdminDownloadPin: "33333333",
		MasterResetPin:   "44444444",
	}
	cases := map[GateKind]string{
		GateMaintenance:   "11111111",
		GateAdminAction:   "22222222",
		GateAdminDownload: "33333333",
		GateMasterReset:   "44444444",
		GatePromotion:     "",
	}
	for kind, want := range cases {
		if got := cfg.PinFor(kind); got != want {
			t.Fatalf("PinFor(%s) = %q, want %q", kind, got, want)
		}
	}
}

func TestRolePredicates(t *testing.T) {
	if !RoleAdmin.IsAdmin() || !RoleSuperadmin.IsAdmin() {
		t.Fatal("admin roles not recognized")
	}
	if RoleTeacher.IsAdmin() || RoleKioskDevice.IsAdmin() || RoleNone.IsAdmin() {
		t.Fatal("non-admin role recognized as admin")
	}
	if !RoleKioskDevice.NeedsPromotion() {
		t.Fatal("kiosk device should need promotion")
	}
	if RoleAdmin.NeedsPromotion() {
		t.Fatal("admin should not need promotion")
	}
}

func TestParseGateKind(t *testing.T) {
	for _, raw := range []string{"maintenance", "admin_action", "admin_download", "master_reset"} {
		if _, ok := ParseGateKind(raw); !ok {
			t.Fatalf("expected %q to parse", raw)
		}
	}
	// The promotion kind is never accepted from the outside.
	if _, ok := ParseGateKind("promotion"); ok {
		t.Fatal("promotion should not parse as a requestable kind")
	}
	if _, ok := ParseGateKind("bogus"); ok {
		t.Fatal("bogus kind parsed")
	}
}
