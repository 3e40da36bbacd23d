// Package santa is the operation surface of the gift exchange. A messaging
// front end calls a Coordinator with the identity of the acting user; the
// Coordinator authorizes the call, drives the registry, the derangement
// generator and the dispatcher, and returns values the front end renders
// with the helpers in replies.go.
package santa

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/roach88/secretsanta/internal/access"
	"github.com/roach88/secretsanta/internal/derange"
	"github.com/roach88/secretsanta/internal/dispatch"
	"github.com/roach88/secretsanta/internal/participant"
	"github.com/roach88/secretsanta/internal/store"
)

// Distribution is the outcome of one distribute call.
type Distribution struct {
	dispatch.Report

	// Method and Attempts describe how the derangement was drawn.
	Method   derange.Method
	Attempts int

	// Names maps every identity in the run to its display name at
	// snapshot time.
	Names map[participant.Identity]string
}

// Coordinator exposes register, remove, clear, list and distribute.
// Every operation except Register requires the administrator.
type Coordinator struct {
	registry   *store.Registry
	gate       access.Gate
	generator  *derange.Generator
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// New wires a Coordinator.
func New(registry *store.Registry, gate access.Gate, generator *derange.Generator, dispatcher *dispatch.Dispatcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		registry:   registry,
		gate:       gate,
		generator:  generator,
		dispatcher: dispatcher,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsAdministrator reports whether actor may use privileged operations.
func (c *Coordinator) IsAdministrator(actor participant.Identity) bool {
	return c.gate.IsAdministrator(actor)
}

// Register adds or renames the acting participant. It is open to everyone.
// A blank name falls back to the identity itself.
func (c *Coordinator) Register(ctx context.Context, actor participant.Identity, name string) error {
	if actor == "" {
		return fmt.Errorf("register: %w", participant.ErrInvalidIdentity)
	}
	if name == "" {
		name = string(actor)
	}
	return c.registry.Register(ctx, actor, name)
}

// Remove deletes target from the registry and returns the removed row.
func (c *Coordinator) Remove(ctx context.Context, actor, target participant.Identity) (participant.Participant, error) {
	if err := c.authorize(actor, "remove"); err != nil {
		return participant.Participant{}, err
	}
	return c.registry.Remove(ctx, target)
}

// Clear empties the registry.
func (c *Coordinator) Clear(ctx context.Context, actor participant.Identity) error {
	if err := c.authorize(actor, "clear"); err != nil {
		return err
	}
	return c.registry.Clear(ctx)
}

// List returns the registry listing. An empty sequence means no
// participants; it is not an error.
func (c *Coordinator) List(actor participant.Identity) (iter.Seq[participant.Entry], error) {
	if err := c.authorize(actor, "list"); err != nil {
		return nil, err
	}
	return c.registry.List(), nil
}

// Distribute draws a derangement over a snapshot of the registry and
// notifies every giver. Delivery failures are reported in the result, not
// returned as an error; a run with failures is still complete.
//
// With fewer than two participants Distribute returns
// participant.ErrTooFewParticipants and sends nothing.
func (c *Coordinator) Distribute(ctx context.Context, actor participant.Identity) (Distribution, error) {
	if err := c.authorize(actor, "distribute"); err != nil {
		return Distribution{}, err
	}

	snapshot := c.registry.Snapshot()
	if len(snapshot) < 2 {
		c.logger.Info("distribution refused", "participants", len(snapshot))
		return Distribution{}, fmt.Errorf("distribute: %w", participant.ErrTooFewParticipants)
	}

	names := make(map[participant.Identity]string, len(snapshot))
	for _, p := range snapshot {
		names[p.ID] = p.Name
	}

	drawn, err := c.generator.Generate(participant.IDs(snapshot))
	if err != nil {
		return Distribution{}, fmt.Errorf("distribute: %w", err)
	}
	c.logger.Debug("derangement drawn", "participants", len(snapshot), "attempts", drawn.Attempts, "method", drawn.Method)

	report := c.dispatcher.Dispatch(ctx, drawn.Pairs, func(id participant.Identity) string {
		return names[id]
	})

	return Distribution{
		Report:   report,
		Method:   drawn.Method,
		Attempts: drawn.Attempts,
		Names:    names,
	}, nil
}

func (c *Coordinator) authorize(actor participant.Identity, op string) error {
	if err := c.gate.Require(actor); err != nil {
		c.logger.Warn("operation denied", "operation", op, "participant_id", actor)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
