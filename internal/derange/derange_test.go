package derange

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/secretsanta/internal/participant"
)

func identities(n int) []participant.Identity {
	ids := make([]participant.Identity, n)
	for i := range ids {
		ids[i] = participant.Identity(fmt.Sprintf("p%02d", i))
	}
	return ids
}

func seeded(seed uint64) Option {
	return WithSource(rand.New(rand.NewPCG(seed, seed^0x5eed)))
}

// requireDerangement checks bijection and absence of fixed points.
func requireDerangement(t *testing.T, ids []participant.Identity, pairs []participant.Assignment) {
	t.Helper()
	require.Len(t, pairs, len(ids))

	asReceiver := make(map[participant.Identity]int)
	for i, p := range pairs {
		assert.Equal(t, ids[i], p.Giver, "givers keep input order")
		assert.NotEqual(t, p.Giver, p.Receiver, "fixed point at %d", i)
		asReceiver[p.Receiver]++
	}
	for _, id := range ids {
		assert.Equal(t, 1, asReceiver[id], "%s must receive exactly once", id)
	}
}

func TestGenerate_IsDerangement(t *testing.T) {
	for n := 2; n <= 25; n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			ids := identities(n)
			for seed := uint64(0); seed < 40; seed++ {
				res, err := New(seeded(seed)).Generate(ids)
				require.NoError(t, err)
				requireDerangement(t, ids, res.Pairs)
				assert.GreaterOrEqual(t, res.Attempts, 1)
			}
		})
	}
}

func TestGenerate_DefaultSource(t *testing.T) {
	ids := identities(10)
	res, err := New().Generate(ids)
	require.NoError(t, err)
	requireDerangement(t, ids, res.Pairs)
}

func TestGenerate_TwoParticipantsSwap(t *testing.T) {
	ids := []participant.Identity{"a", "b"}
	for seed := uint64(0); seed < 20; seed++ {
		res, err := New(seeded(seed)).Generate(ids)
		require.NoError(t, err)
		assert.Equal(t, []participant.Assignment{
			{Giver: "a", Receiver: "b"},
			{Giver: "b", Receiver: "a"},
		}, res.Pairs)
	}
}

func TestGenerate_ThreeParticipantsFormACycle(t *testing.T) {
	ids := []participant.Identity{"A", "B", "C"}
	forward := "A→B B→C C→A"
	inverse := "A→C B→A C→B"
	seen := map[string]int{}

	g := New(seeded(7))
	for i := 0; i < 200; i++ {
		res, err := g.Generate(ids)
		require.NoError(t, err)
		seen[render(res.Pairs)]++
	}

	assert.Len(t, seen, 2, "only two derangements of three elements exist: %v", seen)
	assert.Positive(t, seen[forward])
	assert.Positive(t, seen[inverse])
}

func TestGenerate_RoughlyUniformForFour(t *testing.T) {
	// 4 elements have 9 derangements; accepted shuffles are uniform over them.
	ids := identities(4)
	const trials = 9000
	counts := map[string]int{}

	g := New(seeded(42))
	for i := 0; i < trials; i++ {
		res, err := g.Generate(ids)
		require.NoError(t, err)
		counts[render(res.Pairs)]++
	}

	require.Len(t, counts, 9)
	for perm, c := range counts {
		assert.InDelta(t, trials/9, c, 200, "derangement %s drawn %d times", perm, c)
	}
}

func TestGenerate_TooFewParticipants(t *testing.T) {
	for _, ids := range [][]participant.Identity{nil, {"solo"}} {
		_, err := New().Generate(ids)
		require.Error(t, err)
		assert.ErrorIs(t, err, participant.ErrTooFewParticipants)
		assert.ErrorIs(t, err, participant.ErrPrecondition)
	}
}

func TestGenerate_DuplicateIdentity(t *testing.T) {
	_, err := New().Generate([]participant.Identity{"a", "b", "a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, participant.ErrDuplicateIdentity)
}

func TestGenerate_DoesNotMutateInput(t *testing.T) {
	ids := identities(6)
	before := append([]participant.Identity(nil), ids...)

	_, err := New(seeded(3)).Generate(ids)
	require.NoError(t, err)
	assert.Equal(t, before, ids)
}

// stuckSource always answers n-1: every Fisher–Yates draw is the identity
// permutation, so only the cyclic fallback can succeed.
type stuckSource struct{}

func (stuckSource) IntN(n int) int { return n - 1 }

func TestGenerate_FallsBackToCycle(t *testing.T) {
	ids := []participant.Identity{"a", "b", "c"}

	res, err := New(WithSource(stuckSource{}), WithMaxAttempts(5)).Generate(ids)
	require.NoError(t, err)

	assert.Equal(t, MethodCycle, res.Method)
	assert.Equal(t, 5, res.Attempts)
	assert.Equal(t, "a→c b→a c→b", render(res.Pairs))
}

func TestGenerate_ZeroAttemptsUsesCycle(t *testing.T) {
	for n := 2; n <= 12; n++ {
		ids := identities(n)
		res, err := New(seeded(uint64(n)), WithMaxAttempts(0)).Generate(ids)
		require.NoError(t, err)
		assert.Equal(t, MethodCycle, res.Method)
		assert.Equal(t, 0, res.Attempts)
		requireDerangement(t, ids, res.Pairs)
		assert.Equal(t, n, cycleLength(res.Pairs), "sattolo yields a single cycle")
	}
}

func TestGenerate_ShuffleMethodReported(t *testing.T) {
	res, err := New(seeded(1)).Generate(identities(5))
	require.NoError(t, err)
	assert.Equal(t, MethodShuffle, res.Method)
}

func render(pairs []participant.Assignment) string {
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}

func cycleLength(pairs []participant.Assignment) int {
	next := make(map[participant.Identity]participant.Identity, len(pairs))
	for _, p := range pairs {
		next[p.Giver] = p.Receiver
	}
	start := pairs[0].Giver
	n := 1
	for cur := next[start]; cur != start; cur = next[cur] {
		n++
	}
	return n
}
