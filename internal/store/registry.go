package store

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"github.com/roach88/secretsanta/internal/participant"
)

// Registry is the participant store.
//
// Thread-safety: mutations (Register, Remove, Clear) are serialized by the
// write lock and by the Locker, which excludes writers in other processes.
// Each mutation reloads the document under both locks, applies itself to
// the fresh state and saves before releasing them, so concurrent writers
// never lose each other's updates. Reads share the read lock and observe
// the last state this Registry loaded or committed.
type Registry struct {
	mu      sync.RWMutex
	backend Backend
	lock    Locker
	logger  *slog.Logger

	order []participant.Identity
	names map[participant.Identity]string
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for mutation records.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithLock sets the cross-process lock taken around every mutation.
// Without it only writers sharing this Registry are serialized.
func WithLock(l Locker) Option {
	return func(r *Registry) {
		r.lock = l
	}
}

// Open loads the durable state from backend and returns a ready registry.
// A missing document yields an empty registry; a malformed one returns an
// error wrapping participant.ErrStorageCorrupt.
func Open(ctx context.Context, backend Backend, opts ...Option) (*Registry, error) {
	r := &Registry{
		backend: backend,
		lock:    nopLock{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	ps, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	r.order, r.names = fromParticipants(ps)

	r.logger.Debug("registry loaded", "participants", len(r.order))
	return r, nil
}

// Close releases the backend.
func (r *Registry) Close() error {
	return r.backend.Close()
}

// Register upserts the participant. Re-registering an identity replaces its
// name and keeps its original position. The full registry is persisted
// before Register returns.
func (r *Registry) Register(ctx context.Context, id participant.Identity, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	release, err := r.acquire(ctx)
	if err != nil {
		return fmt.Errorf("register %s: %w", id, err)
	}
	defer release()

	order := r.order
	if _, ok := r.names[id]; !ok {
		order = append(cloneOrder(r.order), id)
	}
	names := cloneNames(r.names)
	names[id] = name

	if err := r.commit(ctx, order, names); err != nil {
		return fmt.Errorf("register %s: %w", id, err)
	}

	r.logger.Info("participant registered", "participant_id", id, "participants", len(order))
	return nil
}

// Remove deletes the participant and returns the removed row.
// Returns participant.ErrNotFound, without writing, when id is absent.
func (r *Registry) Remove(ctx context.Context, id participant.Identity) (participant.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	release, err := r.acquire(ctx)
	if err != nil {
		return participant.Participant{}, fmt.Errorf("remove %s: %w", id, err)
	}
	defer release()

	name, ok := r.names[id]
	if !ok {
		return participant.Participant{}, fmt.Errorf("remove %s: %w", id, participant.ErrNotFound)
	}

	order := make([]participant.Identity, 0, len(r.order)-1)
	for _, existing := range r.order {
		if existing != id {
			order = append(order, existing)
		}
	}
	names := cloneNames(r.names)
	delete(names, id)

	if err := r.commit(ctx, order, names); err != nil {
		return participant.Participant{}, fmt.Errorf("remove %s: %w", id, err)
	}

	r.logger.Info("participant removed", "participant_id", id, "participants", len(order))
	return participant.Participant{ID: id, Name: name}, nil
}

// Clear removes every participant and persists the empty registry.
func (r *Registry) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	release, err := r.acquire(ctx)
	if err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	defer release()

	if err := r.commit(ctx, nil, make(map[participant.Identity]string)); err != nil {
		return fmt.Errorf("clear: %w", err)
	}

	r.logger.Info("registry cleared")
	return nil
}

// List returns the participants as 1-indexed entries in insertion order.
//
// The sequence is lazy and restartable: each range takes its own snapshot,
// so a List obtained before a Register reflects it when ranged afterwards.
func (r *Registry) List() iter.Seq[participant.Entry] {
	return func(yield func(participant.Entry) bool) {
		for i, p := range r.Snapshot() {
			if !yield(participant.Entry{Position: i + 1, ID: p.ID, Name: p.Name}) {
				return
			}
		}
	}
}

// Snapshot returns an immutable copy of the registry taken atomically.
func (r *Registry) Snapshot() []participant.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return toParticipants(r.order, r.names)
}

// Len returns the number of registered participants.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Name returns the display name registered for id.
func (r *Registry) Name(id participant.Identity) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[id]
	return name, ok
}

// acquire takes the cross-process lock and reloads the document, so the
// caller mutates the latest durable state. The returned func releases the
// lock. Caller must hold the write lock.
func (r *Registry) acquire(ctx context.Context) (func(), error) {
	if err := r.lock.Lock(ctx); err != nil {
		return nil, fmt.Errorf("lock registry: %w", err)
	}
	release := func() {
		if err := r.lock.Unlock(); err != nil {
			r.logger.Error("error releasing registry lock", "error", err)
		}
	}

	ps, err := r.backend.Load(ctx)
	if err != nil {
		release()
		return nil, fmt.Errorf("reload registry: %w", err)
	}
	r.order, r.names = fromParticipants(ps)
	return release, nil
}

// commit saves the candidate state and swaps it in on success.
// Caller must hold the write lock.
func (r *Registry) commit(ctx context.Context, order []participant.Identity, names map[participant.Identity]string) error {
	if err := r.backend.Save(ctx, toParticipants(order, names)); err != nil {
		return fmt.Errorf("persist registry: %w", err)
	}
	r.order = order
	r.names = names
	return nil
}

// fromParticipants indexes a loaded document. A repeated identity keeps its
// first position and its last name.
func fromParticipants(ps []participant.Participant) ([]participant.Identity, map[participant.Identity]string) {
	var order []participant.Identity
	names := make(map[participant.Identity]string, len(ps))
	for _, p := range ps {
		if _, ok := names[p.ID]; !ok {
			order = append(order, p.ID)
		}
		names[p.ID] = p.Name
	}
	return order, names
}

func toParticipants(order []participant.Identity, names map[participant.Identity]string) []participant.Participant {
	ps := make([]participant.Participant, len(order))
	for i, id := range order {
		ps[i] = participant.Participant{ID: id, Name: names[id]}
	}
	return ps
}

func cloneOrder(order []participant.Identity) []participant.Identity {
	out := make([]participant.Identity, len(order), len(order)+1)
	copy(out, order)
	return out
}

func cloneNames(names map[participant.Identity]string) map[participant.Identity]string {
	out := make(map[participant.Identity]string, len(names)+1)
	for k, v := range names {
		out[k] = v
	}
	return out
}
