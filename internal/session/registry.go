package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/localwire/portal/internal/config"
)

const sweepInterval = time.Minute

// Registry owns one Store per browser session key. Entries are restored
// on first sight and evicted after the configured session lifetime of
// inactivity.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry

	gw     Gateway
	tokens TokenStore
	notify Notifier
	log    *zap.Logger
	ttl    time.Duration

	stopCh chan struct{}
}

type entry struct {
	store    *Store
	lastSeen time.Time
}

type RegistryParams struct {
	fx.In

	LC       fx.Lifecycle
	Config   *config.Config
	Log      *zap.Logger
	Gateway  Gateway
	Tokens   TokenStore
	Notifier Notifier `optional:"true"`
}

func NewRegistry(p RegistryParams) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		gw:      p.Gateway,
		tokens:  p.Tokens,
		notify:  p.Notifier,
		log:     p.Log,
		ttl:     p.Config.Session.Lifetime.D(),
		stopCh:  make(chan struct{}),
	}

	p.LC.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go r.sweepLoop()
			return nil
		},
		OnStop: func(_ context.Context) error {
			close(r.stopCh)
			return nil
		},
	})

	return r
}

// For returns the store bound to the given browser session key, creating
// and restoring it on first sight.
func (r *Registry) For(ctx context.Context, key string) *Store {
	r.mu.Lock()
	if e, ok := r.entries[key]; ok {
		e.lastSeen = time.Now()
		r.mu.Unlock()
		return e.store
	}

	store := NewStore(r.gw, r.tokens, r.notify, r.log)
	r.entries[key] = &entry{store: store, lastSeen: time.Now()}
	r.mu.Unlock()

	store.Restore(ctx)
	return store
}

// Len reports the number of live stores. For tests and metrics.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep(time.Now())
		case <-r.stopCh:
			return
		}
	}
}

func (r *Registry) sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, e := range r.entries {
		if now.Sub(e.lastSeen) > r.ttl {
			delete(r.entries, key)
		}
	}
}
