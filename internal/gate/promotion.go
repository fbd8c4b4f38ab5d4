package gate

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
)

type Stage string

const (
	StageAwaitingPrimary   Stage = "awaiting_primary_pin"
	StageAwaitingSecondary Stage = "awaiting_secondary_pin"
	StagePromoted          Stage = "promoted"
	StageLocked            Stage = "locked"
)

// Locker flips the persistent lock flag on a credential record. Entering the
// locked stage is not a client-local affair; the record itself is disabled.
type Locker interface {
	Lock(ctx context.Context, credentialID string) error
	Unlock(ctx context.Context, credentialID string) error
}

// Notifier delivers the out-of-band security notification. Best effort:
// failure is logged and never blocks the lockout transition.
type Notifier interface {
	Notify(ctx context.Context, event model.SecurityEvent) error
}

// Result is the outcome of one promotion interaction.
type Result struct {
	Stage             Stage         `json:"stage"`
	AttemptsLeft      int           `json:"attemptsLeft,omitempty"`
	Token             string        `json:"token,omitempty"`
	CooldownRemaining time.Duration `json:"-"`
}

type attempt struct {
	stage        Stage
	failures     int
	credentialID string
	userID       string
	role         model.Role
	origin       string
	lockedAt     time.Time
}

// Promotions tracks in-flight two-stage kiosk gate sequences, keyed by
// session token hash. Attempt state is transient and in-memory; cancelling
// the modal discards it, except a lockout already crossed, which sticks.
type Promotions struct {
	cfg      ConfigSource
	locker   Locker
	notifier Notifier
	tokens   *TokenIssuer

	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	attempts map[string]*attempt
}

func NewPromotions(cfg ConfigSource, locker Locker, notifier Notifier, tokens *TokenIssuer, threshold int, cooldown time.Duration) *Promotions {
	if threshold <= 0 {
		threshold = 3
	}
	if cooldown <= 0 {
		cooldown = 300 * time.Second
	}
	return &Promotions{
		cfg:       cfg,
		locker:    locker,
		notifier:  notifier,
		tokens:    tokens,
		threshold: threshold,
		cooldown:  cooldown,
		attempts:  make(map[string]*attempt),
	}
}

// Start opens a promotion sequence for a kiosk session. An existing lockout
// survives restarts of the modal; anything else is replaced with a fresh
// attempt at the primary stage with zero failures.
func (p *Promotions) Start(key string, session model.Session, origin string) Result {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cur, ok := p.attempts[key]; ok && cur.stage == StageLocked {
		return p.resultLocked(cur)
	}
	p.attempts[key] = &attempt{
		stage:        StageAwaitingPrimary,
		credentialID: session.CredentialID,
		userID:       session.UserID,
		role:         session.Role,
		origin:       origin,
	}
	return Result{Stage: StageAwaitingPrimary, AttemptsLeft: p.threshold}
}

// Submit feeds one PIN into the sequence. The comparison value is read from
// the currently replicated configuration at submit time, never from a value
// captured when the sequence started. The failure counter is cumulative
// across both stages; the third failure locks regardless of which stage
// produced it, and further submissions against a locked attempt are no-ops.
func (p *Promotions) Submit(ctx context.Context, key, pin string) (Result, error) {
	p.mu.Lock()
	cur, ok := p.attempts[key]
	if !ok {
		p.mu.Unlock()
		return Result{}, model.ErrNotFound
	}
	if cur.stage == StageLocked {
		res := p.resultLocked(cur)
		p.mu.Unlock()
		return res, nil
	}

	cfg := p.cfg.Current()
	switch cur.stage {
	case StageAwaitingPrimary:
		if cfg.MaintenancePin != "" && pin == cfg.MaintenancePin {
			cur.stage = StageAwaitingSecondary
			p.mu.Unlock()
			return Result{Stage: StageAwaitingSecondary, AttemptsLeft: p.threshold - cur.failures}, nil
		}
	case StageAwaitingSecondary:
		if cfg.AdminActionPin != "" && pin == cfg.AdminActionPin {
			delete(p.attempts, key)
			p.mu.Unlock()
			token, err := p.tokens.IssuePass(model.GatePromotion)
			if err != nil {
				return Result{}, err
			}
			return Result{Stage: StagePromoted, Token: token}, nil
		}
	}

	cur.failures++
	if cur.failures < p.threshold {
		res := Result{Stage: cur.stage, AttemptsLeft: p.threshold - cur.failures}
		p.mu.Unlock()
		return res, nil
	}

	cur.stage = StageLocked
	cur.lockedAt = time.Now().UTC()
	event := model.SecurityEvent{UserID: cur.userID, Role: cur.role, Origin: cur.origin}
	credentialID := cur.credentialID
	res := p.resultLocked(cur)
	p.mu.Unlock()

	if err := p.locker.Lock(ctx, credentialID); err != nil {
		log.Printf("kiosk lockout: failed to lock credential %s: %v", credentialID, err)
	}
	go p.notify(event)

	return res, nil
}

func (p *Promotions) notify(event model.SecurityEvent) {
	if p.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.notifier.Notify(ctx, event); err != nil {
		log.Printf("kiosk lockout notification failed for %s: %v", event.UserID, err)
	}
}

// Cancel discards transient attempt state. A lockout that has already been
// reached is irrevocable by cancellation.
func (p *Promotions) Cancel(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.attempts[key]; ok && cur.stage != StageLocked {
		delete(p.attempts, key)
	}
}

// Status reports the current stage without consuming an attempt.
func (p *Promotions) Status(key string) (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, ok := p.attempts[key]
	if !ok {
		return Result{}, false
	}
	if cur.stage == StageLocked {
		return p.resultLocked(cur), true
	}
	return Result{Stage: cur.stage, AttemptsLeft: p.threshold - cur.failures}, true
}

// MasterReset is the device-side exit from a lockout. It is checked against
// the currently replicated master reset PIN, independently of the advisory
// cooldown and of the failure counter.
func (p *Promotions) MasterReset(ctx context.Context, key, pin string) error {
	cfg := p.cfg.Current()
	if cfg.MasterResetPin == "" || pin != cfg.MasterResetPin {
		return model.ErrInvalidPin
	}

	p.mu.Lock()
	cur, ok := p.attempts[key]
	if !ok {
		p.mu.Unlock()
		return model.ErrNotFound
	}
	credentialID := cur.credentialID
	delete(p.attempts, key)
	p.mu.Unlock()

	return p.locker.Unlock(ctx, credentialID)
}

// ReleaseCredential clears any lockout attempts for a credential after an
// administrator unlocks the record out of band.
func (p *Promotions) ReleaseCredential(credentialID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, cur := range p.attempts {
		if cur.credentialID == credentialID && cur.stage == StageLocked {
			delete(p.attempts, key)
		}
	}
}

// resultLocked computes the advisory cooldown. The countdown reaching zero
// unlocks nothing; it exists for the lockout screen only.
func (p *Promotions) resultLocked(cur *attempt) Result {
	remaining := p.cooldown - time.Since(cur.lockedAt)
	if remaining < 0 {
		remaining = 0
	}
	return Result{Stage: StageLocked, CooldownRemaining: remaining}
}
