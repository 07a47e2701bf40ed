package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/vbonduro/dishout/internal/domain"
	"github.com/vbonduro/dishout/internal/kv"
)

// SessionKey is the key, relative to the client namespace, under which the
// logged-in user record is persisted.
const SessionKey = "dishout_current_session"

// Store owns the State of one client. Dispatch applies actions one at a
// time; the persistence write of an action completes before the next
// action is reduced.
type Store struct {
	mu      sync.Mutex
	state   State
	reducer Reducer
	kv      kv.Store
	key     string
	logger  *slog.Logger

	subMu  sync.Mutex
	subs   map[int]chan State
	nextID int
}

// Load builds a Store whose initial state is rehydrated from the user
// record stored under key. A missing, unreadable or corrupt record yields
// the logged-out state.
func Load(ctx context.Context, store kv.Store, key string, reducer Reducer, logger *slog.Logger) *Store {
	s := &Store{
		state:   Initial(),
		reducer: reducer,
		kv:      store,
		key:     key,
		logger:  logger,
		subs:    make(map[int]chan State),
	}

	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		logger.Warn("could not read session", "key", key, "error", err)
		return s
	}
	if !ok || raw == "" {
		return s
	}

	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		logger.Warn("could not parse session", "key", key, "error", err)
		return s
	}
	if u.ID == "" {
		logger.Warn("discarding session without user id", "key", key)
		return s
	}

	s.state = reducer.Reduce(s.state, Login{User: u})
	return s
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch reduces a against the current state, persists the identity
// record when a changed it and notifies subscribers. It never fails;
// persistence errors are logged.
func (s *Store) Dispatch(ctx context.Context, a Action) State {
	s.mu.Lock()
	prev := s.state
	next := s.reducer.Reduce(prev, a)
	s.state = next
	s.persist(ctx, a, prev, next)
	// Published under mu so subscribers see snapshots in dispatch order.
	s.publish(next)
	s.mu.Unlock()

	s.logger.Debug("action dispatched", "action", a.Name(), "key", s.key)
	return next
}

func (s *Store) persist(ctx context.Context, a Action, prev, next State) {
	switch a.(type) {
	case Logout:
		if err := s.kv.Delete(ctx, s.key); err != nil {
			s.logger.Error("failed to remove session", "key", s.key, "error", err)
		}
	case Login, UpdateUserAvatar, UpdateRestaurantLocation:
		if next.User == nil || next.User == prev.User {
			return
		}
		raw, err := json.Marshal(next.User)
		if err != nil {
			s.logger.Error("failed to encode session", "key", s.key, "error", err)
			return
		}
		if err := s.kv.Set(ctx, s.key, string(raw)); err != nil {
			s.logger.Error("failed to save session", "key", s.key, "error", err)
		}
	}
}

// Subscribe returns a channel that receives the state after every
// dispatch. The channel holds at most one pending snapshot; a slow reader
// only sees the latest. cancel closes the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan State, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of open subscriptions.
func (s *Store) Subscribers() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

func (s *Store) publish(st State) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		// Drop the stale snapshot, if any, so the send never blocks.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}
