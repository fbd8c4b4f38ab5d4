package settings

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ARFANSYAHMIArfan/SAFEBELL-ADMIN/internal/model"
)

// Source is the store surface the replicator consumes.
type Source interface {
	Read(ctx context.Context) (model.Settings, error)
	Subscribe(ctx context.Context) (*Subscription, error)
}

// EnforceFunc runs synchronously on every applied update, before any watcher
// can observe the new value. Lock enforcement (session teardown, locked-view
// routing) hangs off this hook so no consumer renders state derived from a
// role the newest configuration has just shut out.
type EnforceFunc func(prev, next model.Settings)

// Replicator applies pushed configuration to local state. Every PIN
// comparison in the gate reads through Current, so a PIN rotated mid-attempt
// takes effect on the very next submission.
type Replicator struct {
	source  Source
	enforce EnforceFunc
	poll    time.Duration

	mu       sync.Mutex
	current  model.Settings
	primed   bool
	watchers map[int]chan model.Settings
	nextID   int
}

func NewReplicator(source Source, enforce EnforceFunc, poll time.Duration) *Replicator {
	if poll <= 0 {
		poll = 30 * time.Second
	}
	return &Replicator{
		source:   source,
		enforce:  enforce,
		poll:     poll,
		watchers: make(map[int]chan model.Settings),
	}
}

// Prime loads the initial snapshot so Current is meaningful before the push
// loop delivers anything.
func (r *Replicator) Prime(ctx context.Context) error {
	cfg, err := r.source.Read(ctx)
	if err != nil {
		return err
	}
	r.Apply(cfg)
	return nil
}

// Current returns the most recently replicated configuration.
func (r *Replicator) Current() model.Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Run drives the subscription until ctx is done. Losing the push channel
// degrades to polling reads rather than failing closed: a client must never
// be left unable to learn that a lock was lifted.
func (r *Replicator) Run(ctx context.Context) {
	for ctx.Err() == nil {
		sub, err := r.source.Subscribe(ctx)
		if err != nil {
			log.Printf("settings replicator: push unavailable, polling: %v", err)
			r.pollUntil(ctx)
			continue
		}

		for cfg := range sub.C {
			r.Apply(cfg)
		}
		sub.Close()

		// The channel closed; anything pushed during the gap is gone, so
		// re-read before resubscribing rather than trusting the next push.
		if ctx.Err() == nil {
			if cfg, err := r.source.Read(ctx); err == nil {
				r.Apply(cfg)
			}
		}
	}
}

func (r *Replicator) pollUntil(ctx context.Context) {
	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cfg, err := r.source.Read(ctx)
			if err != nil {
				log.Printf("settings replicator poll error: %v", err)
				continue
			}
			r.Apply(cfg)
			// Try to get the push channel back each cycle.
			return
		}
	}
}

// Apply folds one delivered value into local state. Ordering contract:
// the enforcement hook completes before watchers are notified, and version
// regressions (poll racing push) are dropped.
func (r *Replicator) Apply(next model.Settings) {
	r.mu.Lock()
	prev := r.current
	if r.primed && next.Version <= prev.Version {
		r.mu.Unlock()
		return
	}
	r.current = next
	r.primed = true
	watchers := make([]chan model.Settings, 0, len(r.watchers))
	for _, ch := range r.watchers {
		watchers = append(watchers, ch)
	}
	r.mu.Unlock()

	if r.enforce != nil {
		r.enforce(prev, next)
	}

	for _, ch := range watchers {
		select {
		case ch <- next:
		default:
			// Slow watcher; it will re-sync from Current on its next read.
		}
	}
}

// Watch registers a push listener for downstream fan-out (the SSE stream).
// The registration is dropped when ctx ends; the channel is never closed so
// a concurrent Apply cannot send on a closed channel.
func (r *Replicator) Watch(ctx context.Context) <-chan model.Settings {
	ch := make(chan model.Settings, 8)

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.watchers[id] = ch
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		delete(r.watchers, id)
		r.mu.Unlock()
	}()

	return ch
}

// EffectiveLock is the single definition of "this client is shut out":
// the maintenance lock is on and no valid unlock grant exempts the caller.
func EffectiveLock(cfg model.Settings, grantValid bool) bool {
	return cfg.MaintenanceLockEnabled && !grantValid
}
