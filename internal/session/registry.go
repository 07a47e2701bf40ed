package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vbonduro/dishout/internal/kv"
)

// DefaultIdleTTL is how long a client's in-memory state outlives its last
// request when no stream is open.
const DefaultIdleTTL = 30 * time.Minute

type RegistryOption func(*Registry)

func WithIdleTTL(ttl time.Duration) RegistryOption {
	return func(r *Registry) {
		if ttl > 0 {
			r.idleTTL = ttl
		}
	}
}

func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

type entry struct {
	store    *Store
	lastSeen time.Time
}

// Registry hands out one Store per client id, loading it from the
// key-value store the first time the client is seen. Idle clients are
// dropped by Sweep and rehydrated from their persisted identity on the
// next Get.
type Registry struct {
	mu      sync.Mutex
	stores  map[string]*entry
	kv      kv.Store
	reducer Reducer
	logger  *slog.Logger
	idleTTL time.Duration
	now     func() time.Time
}

func NewRegistry(store kv.Store, reducer Reducer, logger *slog.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		stores:  make(map[string]*entry),
		kv:      store,
		reducer: reducer,
		logger:  logger,
		idleTTL: DefaultIdleTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ClientKey namespaces the session key for a client.
func ClientKey(clientID string) string {
	return clientID + ":" + SessionKey
}

func (r *Registry) Get(ctx context.Context, clientID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.stores[clientID]; ok {
		e.lastSeen = r.now()
		return e.store
	}
	s := Load(ctx, r.kv, ClientKey(clientID), r.reducer, r.logger.With("client_id", clientID))
	r.stores[clientID] = &entry{store: s, lastSeen: r.now()}
	return s
}

// Len returns the number of clients held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Sweep drops the clients that have not been seen for the idle TTL and
// have no open subscription. It returns how many were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.idleTTL)
	dropped := 0
	for id, e := range r.stores {
		if e.lastSeen.Before(cutoff) && e.store.Subscribers() == 0 {
			delete(r.stores, id)
			dropped++
		}
	}
	return dropped
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				r.logger.Debug("evicted idle sessions", "count", n)
			}
		}
	}
}
