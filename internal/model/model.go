package model

import (
	"regexp"
	"time"
)

type Role string

const (
	RoleNone        Role = "none"
	RoleTeacher     Role = "teacher"
	RoleAdmin       Role = "admin"
	RoleSuperadmin  Role = "superadmin"
	RoleKioskDevice Role = "kiosk_device"
)

func ParseRole(raw string) (Role, bool) {
	switch Role(raw) {
	case RoleNone, RoleTeacher, RoleAdmin, RoleSuperadmin, RoleKioskDevice:
		return Role(raw), true
	default:
		return RoleNone, false
	}
}

// IsAdmin reports whether the role may manage reports and settings directly.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// NeedsPromotion reports whether the role must pass the two-stage kiosk
// gate before reaching the administrative dashboard.
func (r Role) NeedsPromotion() bool {
	return r == RoleKioskDevice
}

type Credential struct {
	ID        string
	LoginID   string
	Secret    string
	Role      Role
	IsLocked  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Session struct {
	ID           string
	TokenHash    string
	Role         Role
	UserID       string
	CredentialID string
	CreatedAt    time.Time
}

// GateKind names one PIN tier. All tiers share a single comparison path so
// failure handling cannot drift between them.
type GateKind string

const (
	GateMaintenance   GateKind = "maintenance"
	GateAdminAction   GateKind = "admin_action"
	GateAdminDownload GateKind = "admin_download"
	GateMasterReset   GateKind = "master_reset"
	// GatePromotion marks a completed two-stage kiosk promotion. It is a
	// result kind only; there is no fifth configured PIN behind it.
	GatePromotion GateKind = "promotion"
)

func ParseGateKind(raw string) (GateKind, bool) {
	switch GateKind(raw) {
	case GateMaintenance, GateAdminAction, GateAdminDownload, GateMasterReset:
		return GateKind(raw), true
	default:
		return "", false
	}
}

var pinFormat = regexp.MustCompile(`^\d{8}$`)

// ValidPin reports whether a value matches the fixed 8-digit PIN format.
func ValidPin(pin string) bool {
	return pinFormat.MatchString(pin)
}

// Settings is the single global configuration record. Version increases on
// every write; LockEpoch increases each time the maintenance lock is enabled,
// which invalidates unlock grants issued under earlier epochs.
type Settings struct {
	Version                int64     `json:"version"`
	FormDisabled           bool      `json:"formDisabled"`
	MaintenanceLockEnabled bool      `json:"maintenanceLockEnabled"`
	MaintenancePin         string    `json:"maintenancePin"`
	MasterResetPin         string    `json:"masterResetPin"`
	AdminActionPin         string    `json:"adminActionPin"`
	AdminDownloadPin       string    `json:"adminDownloadPin"`
	FallbackOpenAIKey      string    `json:"fallbackOpenAIKey,omitempty"`
	FallbackCerebrasKey    string    `json:"fallbackCerebrasKey,omitempty"`
	LockEpoch              int64     `json:"lockEpoch"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// Validate rejects a record that would enable the maintenance lock without a
// well-formed PIN behind it.
func (s Settings) Validate() error {
	if s.MaintenanceLockEnabled && !ValidPin(s.MaintenancePin) {
		return ErrPinFormat
	}
	return nil
}

// PinFor returns the configured value for a gate tier. Promotion has no
// single PIN; it returns empty, which never compares equal.
func (s Settings) PinFor(kind GateKind) string {
	switch kind {
	case GateMaintenance:
		return s.MaintenancePin
	case GateAdminAction:
		return s.AdminActionPin
	case GateAdminDownload:
		return s.AdminDownloadPin
	case GateMasterReset:
		return s.MasterResetPin
	default:
		return ""
	}
}

type ReportType string

const (
	ReportText  ReportType = "text"
	ReportAudio ReportType = "audio"
	ReportVideo ReportType = "video"
)

type Report struct {
	ID        string     `json:"id"`
	Type      ReportType `json:"type"`
	Content   string     `json:"content"`
	Analysis  string     `json:"analysis"`
	MediaURL  string     `json:"mediaUrl,omitempty"`
	CreatedAt time.Time  `json:"timestamp"`
}

// SecurityEvent describes a lockout for the out-of-band notification sink.
type SecurityEvent struct {
	UserID string
	Role   Role
	Origin string
}
