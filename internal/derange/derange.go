// Package derange produces random derangements: permutations of a set of
// participant identities with no fixed points.
//
// The generator shuffles the receivers with Fisher–Yates and rejects any
// draw that maps an identity to itself. For n ≥ 2 the chance of a draw
// being fixed-point free converges to 1/e, so the expected number of draws
// is about e (≈2.72) regardless of n, and the accepted draw is a uniform
// random derangement.
//
// Retries are capped. When the cap is reached the generator falls back to
// Sattolo's algorithm, which always produces a single n-cycle. A cyclic
// assignment is a valid derangement but is not uniform over all
// derangements; Result.Method reports which path produced the pairs.
package derange

import (
	"fmt"
	"math/rand/v2"

	"github.com/roach88/secretsanta/internal/participant"
)

// DefaultMaxAttempts bounds the shuffle-and-retry loop. The probability of
// 64 consecutive rejections is below 1e-11 for any n ≥ 2.
const DefaultMaxAttempts = 64

// Source supplies uniform random integers in [0, n).
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// Method identifies how a derangement was produced.
type Method string

const (
	// MethodShuffle is an accepted Fisher–Yates draw.
	MethodShuffle Method = "shuffle"

	// MethodCycle is the Sattolo fallback after MaxAttempts rejections.
	MethodCycle Method = "cycle"
)

// Result is one generated derangement.
type Result struct {
	// Pairs holds one assignment per input identity, in input order of givers.
	Pairs []participant.Assignment

	// Attempts counts the shuffles drawn, including the accepted one.
	Attempts int

	Method Method
}

// Generator draws derangements from a Source.
//
// Thread-safety: a Generator is as safe as its Source. The default source
// (the math/rand/v2 top-level generator) is safe for concurrent use; a
// *rand.Rand is not.
type Generator struct {
	src         Source
	maxAttempts int
}

// Option configures a Generator.
type Option func(*Generator)

// WithSource replaces the random source, e.g. with a seeded *rand.Rand.
func WithSource(src Source) Option {
	return func(g *Generator) {
		g.src = src
	}
}

// WithMaxAttempts sets the number of rejected shuffles tolerated before the
// cyclic fallback. Values below 1 disable shuffling entirely.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		g.maxAttempts = n
	}
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		src:         globalSource{},
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a random derangement of ids.
//
// Callers are expected to reject fewer than two participants before calling;
// Generate reports that case as participant.ErrTooFewParticipants. Repeated
// identities are rejected with participant.ErrDuplicateIdentity.
func (g *Generator) Generate(ids []participant.Identity) (Result, error) {
	if len(ids) < 2 {
		return Result{}, fmt.Errorf("generate derangement of %d: %w", len(ids), participant.ErrTooFewParticipants)
	}
	if err := checkDistinct(ids); err != nil {
		return Result{}, fmt.Errorf("generate derangement: %w", err)
	}

	receivers := make([]participant.Identity, len(ids))
	copy(receivers, ids)

	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		g.shuffle(receivers)
		if !hasFixedPoint(ids, receivers) {
			return Result{Pairs: pair(ids, receivers), Attempts: attempt, Method: MethodShuffle}, nil
		}
	}

	copy(receivers, ids)
	g.sattolo(receivers)
	return Result{Pairs: pair(ids, receivers), Attempts: max(g.maxAttempts, 0), Method: MethodCycle}, nil
}

// shuffle is an in-place Fisher–Yates shuffle.
func (g *Generator) shuffle(s []participant.Identity) {
	for i := len(s) - 1; i > 0; i-- {
		j := g.src.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// sattolo permutes s into a uniformly random single cycle. Because j is
// drawn from [0, i) instead of [0, i], no element can stay in place.
func (g *Generator) sattolo(s []participant.Identity) {
	for i := len(s) - 1; i > 0; i-- {
		j := g.src.IntN(i)
		s[i], s[j] = s[j], s[i]
	}
}

func hasFixedPoint(givers, receivers []participant.Identity) bool {
	for i := range givers {
		if givers[i] == receivers[i] {
			return true
		}
	}
	return false
}

func pair(givers, receivers []participant.Identity) []participant.Assignment {
	pairs := make([]participant.Assignment, len(givers))
	for i := range givers {
		pairs[i] = participant.Assignment{Giver: givers[i], Receiver: receivers[i]}
	}
	return pairs
}

func checkDistinct(ids []participant.Identity) error {
	seen := make(map[participant.Identity]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return fmt.Errorf("%s: %w", id, participant.ErrDuplicateIdentity)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// globalSource draws from the math/rand/v2 process-wide generator.
type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n)
}
