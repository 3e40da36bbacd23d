// Package dispatch delivers distribution results: one private message per
// giver naming their receiver.
//
// Delivery is best effort and per pair. Each pair gets exactly one attempt
// per run, bounded by a timeout; a failed or timed-out attempt is recorded
// as participant.ErrRecipientUnreachable and never stops the remaining
// deliveries. Dispatch always returns a Report covering every pair.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/secretsanta/internal/participant"
)

// Defaults for a Dispatcher.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultConcurrency = 4
)

// Messenger sends a private message to one participant.
//
// A non-nil error means the recipient could not be reached. Implementations
// must report unreachable recipients as errors, not panics, and should
// return once ctx is done.
type Messenger interface {
	Send(ctx context.Context, to participant.Identity, text string) error
}

// Formatter renders the notification a giver receives.
type Formatter func(receiverName string) string

// DefaultFormatter is the notification used when none is configured.
func DefaultFormatter(receiverName string) string {
	return fmt.Sprintf("🎄 You are giving a gift to: %s 🎁", receiverName)
}

// Outcome is the result of the single delivery attempt for one pair.
type Outcome struct {
	Pair participant.Assignment

	// Err is nil on success. Otherwise it matches
	// participant.ErrRecipientUnreachable and wraps the messenger's cause.
	Err error
}

// Delivered reports whether the giver was notified.
func (o Outcome) Delivered() bool {
	return o.Err == nil
}

// Report aggregates one distribution run.
type Report struct {
	RunID string

	// Outcomes holds one entry per pair, in pair order.
	Outcomes []Outcome
}

// Delivered counts successful deliveries.
func (r Report) Delivered() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Delivered() {
			n++
		}
	}
	return n
}

// Failures returns the outcomes whose giver could not be reached.
func (r Report) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.Delivered() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Dispatcher delivers assignments through a Messenger.
type Dispatcher struct {
	messenger   Messenger
	timeout     time.Duration
	concurrency int
	runIDs      RunIDGenerator
	format      Formatter
	observe     func(Outcome)
	logger      *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout bounds each delivery attempt.
func WithTimeout(d time.Duration) Option {
	return func(x *Dispatcher) {
		x.timeout = d
	}
}

// WithConcurrency bounds the number of deliveries in flight.
func WithConcurrency(n int) Option {
	return func(x *Dispatcher) {
		x.concurrency = n
	}
}

// WithRunIDs overrides the run id generator (for testing).
func WithRunIDs(g RunIDGenerator) Option {
	return func(x *Dispatcher) {
		x.runIDs = g
	}
}

// WithFormatter overrides the notification text.
func WithFormatter(f Formatter) Option {
	return func(x *Dispatcher) {
		x.format = f
	}
}

// WithObserver registers a callback invoked once per outcome as soon as it
// is known, for per-incident reporting. Calls are serialized.
func WithObserver(fn func(Outcome)) Option {
	return func(x *Dispatcher) {
		x.observe = fn
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(x *Dispatcher) {
		x.logger = l
	}
}

// New creates a Dispatcher sending through m.
func New(m Messenger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		messenger:   m,
		timeout:     DefaultTimeout,
		concurrency: DefaultConcurrency,
		runIDs:      UUIDv7Generator{},
		format:      DefaultFormatter,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.concurrency < 1 {
		d.concurrency = 1
	}
	return d
}

// Dispatch attempts one delivery per pair and returns the aggregated report.
//
// names resolves a receiver identity to the display name put in the
// message; it is called concurrently and must not block.
//
// A run is not cancelable once started: cancellation of ctx is ignored, and
// only the per-attempt timeout bounds each delivery. Values carried by ctx
// remain visible to the Messenger.
func (d *Dispatcher) Dispatch(ctx context.Context, pairs []participant.Assignment, names func(participant.Identity) string) Report {
	report := Report{
		RunID:    d.runIDs.Generate(),
		Outcomes: make([]Outcome, len(pairs)),
	}
	ctx = context.WithoutCancel(ctx)
	logger := d.logger.With("run_id", report.RunID)
	logger.Info("distribution started", "pairs", len(pairs), "concurrency", d.concurrency)

	var (
		g       errgroup.Group
		observe sync.Mutex
	)
	g.SetLimit(d.concurrency)
	for i, pair := range pairs {
		g.Go(func() error {
			outcome := d.deliver(ctx, pair, names(pair.Receiver))
			report.Outcomes[i] = outcome

			if outcome.Delivered() {
				logger.Debug("assignment delivered", "participant_id", pair.Giver)
			} else {
				logger.Warn("assignment not delivered", "participant_id", pair.Giver, "error", outcome.Err)
			}
			if d.observe != nil {
				observe.Lock()
				d.observe(outcome)
				observe.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // deliver never returns an error to the group

	logger.Info("distribution finished", "delivered", report.Delivered(), "failed", len(report.Failures()))
	return report
}

// deliver makes the single attempt for one pair. A messenger that ignores
// its context is abandoned when the timeout fires.
func (d *Dispatcher) deliver(ctx context.Context, pair participant.Assignment, receiverName string) Outcome {
	attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.messenger.Send(attemptCtx, pair.Giver, d.format(receiverName))
	}()

	var err error
	select {
	case err = <-done:
	case <-attemptCtx.Done():
		err = attemptCtx.Err()
	}

	if err != nil {
		return Outcome{Pair: pair, Err: fmt.Errorf("%w: %s: %w", participant.ErrRecipientUnreachable, pair.Giver, err)}
	}
	return Outcome{Pair: pair}
}
