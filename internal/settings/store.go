// Package settings holds the single global configuration record and the
// push channel that propagates every write to all subscribed clients.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
)

type Store struct {
	pool    *pgxpool.Pool
	rdb     *redis.Client
	channel string
}

// NewStore wires the settings row to an optional redis push channel. With a
// nil client every Subscribe fails with ErrReplicationUnavailable and
// consumers poll Read instead.
func NewStore(pool *pgxpool.Pool, rdb *redis.Client, channel string) *Store {
	return &Store{pool: pool, rdb: rdb, channel: channel}
}

func (s *Store) Read(ctx context.Context) (model.Settings, error) {
	return s.read(ctx, s.pool)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) read(ctx context.Context, q rowQuerier) (model.Settings, error) {
	var cfg model.Settings
	row := q.QueryRow(ctx, `
		SELECT version, form_disabled, maintenance_lock_enabled,
		       maintenance_pin, master_reset_pin, admin_action_pin, admin_download_pin,
		       fallback_openai_key, fallback_cerebras_key, lock_epoch, updated_at
		FROM site_settings
		WHERE id = 1
	`)
	err := row.Scan(
		&cfg.Version,
		&cfg.FormDisabled,
		&cfg.MaintenanceLockEnabled,
		&cfg.MaintenancePin,
		&cfg.MasterResetPin,
		&cfg.AdminActionPin,
		&cfg.AdminDownloadPin,
		&cfg.FallbackOpenAIKey,
		&cfg.FallbackCerebrasKey,
		&cfg.LockEpoch,
		&cfg.UpdatedAt,
	)
	return cfg, err
}

// Write replaces the whole record, last write wins. The lock epoch advances
// whenever the maintenance lock flips from disabled to enabled, so unlock
// grants issued before a re-enable can never satisfy the new lock.
func (s *Store) Write(ctx context.Context, next model.Settings) (model.Settings, error) {
	if err := next.Validate(); err != nil {
		return model.Settings{}, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return model.Settings{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var current model.Settings
	row := tx.QueryRow(ctx, `SELECT version, maintenance_lock_enabled, lock_epoch FROM site_settings WHERE id = 1 FOR UPDATE`)
	if err := row.Scan(&current.Version, &current.MaintenanceLockEnabled, &current.LockEpoch); err != nil {
		return model.Settings{}, err
	}

	next.Version = current.Version + 1
	next.LockEpoch = current.LockEpoch
	if next.MaintenanceLockEnabled && !current.MaintenanceLockEnabled {
		next.LockEpoch++
	}
	next.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(ctx, `
		UPDATE site_settings SET
			version = $1, form_disabled = $2, maintenance_lock_enabled = $3,
			maintenance_pin = $4, master_reset_pin = $5, admin_action_pin = $6,
			admin_download_pin = $7, fallback_openai_key = $8,
			fallback_cerebras_key = $9, lock_epoch = $10, updated_at = $11
		WHERE id = 1
	`, next.Version, next.FormDisabled, next.MaintenanceLockEnabled,
		next.MaintenancePin, next.MasterResetPin, next.AdminActionPin,
		next.AdminDownloadPin, next.FallbackOpenAIKey,
		next.FallbackCerebrasKey, next.LockEpoch, next.UpdatedAt)
	if err != nil {
		return model.Settings{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Settings{}, err
	}

	s.publish(ctx, next)
	return next, nil
}

func (s *Store) publish(ctx context.Context, cfg model.Settings) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		log.Printf("settings publish marshal error: %v", err)
		return
	}
	if err := s.rdb.Publish(ctx, s.channel, payload).Err(); err != nil {
		log.Printf("settings publish error: %v", err)
	}
}

// Subscription delivers the current value once, then every subsequent write
// in FIFO order. A subscriber that misses pushes gets no backlog; the
// replicator re-reads after any gap.
type Subscription struct {
	C      <-chan model.Settings
	cancel context.CancelFunc
}

func (sub *Subscription) Close() {
	sub.cancel()
}

func (s *Store) Subscribe(ctx context.Context) (*Subscription, error) {
	if s.rdb == nil {
		return nil, model.ErrReplicationUnavailable
	}

	pubsub := s.rdb.Subscribe(ctx, s.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Join(model.ErrReplicationUnavailable, err)
	}

	current, err := s.Read(ctx)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	out := make(chan model.Settings, 8)
	out <- current

	go func() {
		defer close(out)
		defer func() { _ = pubsub.Close() }()
		msgs := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var cfg model.Settings
				if err := json.Unmarshal([]byte(msg.Payload), &cfg); err != nil {
					log.Printf("settings subscription decode error: %v", err)
					continue
				}
				select {
				case out <- cfg:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{C: out, cancel: cancel}, nil
}
