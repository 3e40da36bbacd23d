package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/secretsanta/internal/participant"
	"github.com/roach88/secretsanta/internal/testutil"
)

var names = map[participant.Identity]string{
	"a": "alice",
	"b": "bob",
	"c": "carol",
}

func lookup(id participant.Identity) string {
	return names[id]
}

var cycle = []participant.Assignment{
	{Giver: "a", Receiver: "b"},
	{Giver: "b", Receiver: "c"},
	{Giver: "c", Receiver: "a"},
}

func TestDispatch_DeliversEveryPair(t *testing.T) {
	m := testutil.NewRecordingMessenger()
	d := New(m, WithRunIDs(testutil.NewFixedRunIDGenerator("run-1")))

	report := d.Dispatch(context.Background(), cycle, lookup)

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, 3, report.Delivered())
	assert.Empty(t, report.Failures())
	assert.Equal(t, []testutil.Message{
		{To: "a", Text: "🎄 You are giving a gift to: bob 🎁"},
		{To: "b", Text: "🎄 You are giving a gift to: carol 🎁"},
		{To: "c", Text: "🎄 You are giving a gift to: alice 🎁"},
	}, m.Sent())
}

func TestDispatch_OneFailureDoesNotStopTheRun(t *testing.T) {
	m := testutil.NewRecordingMessenger("b")
	d := New(m, WithRunIDs(testutil.NewFixedRunIDGenerator("run-1")))

	report := d.Dispatch(context.Background(), cycle, lookup)

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, 2, report.Delivered())

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, participant.Identity("b"), failures[0].Pair.Giver)
	assert.ErrorIs(t, failures[0].Err, participant.ErrRecipientUnreachable)
	assert.ErrorIs(t, failures[0].Err, testutil.ErrNeverStarted)

	for _, id := range []participant.Identity{"a", "b", "c"} {
		assert.Equal(t, 1, m.Attempts(id), "exactly one attempt for %s", id)
	}
}

func TestDispatch_OutcomesKeepPairOrder(t *testing.T) {
	m := testutil.NewRecordingMessenger("a", "c")
	d := New(m, WithConcurrency(3), WithRunIDs(testutil.NewFixedRunIDGenerator("run-1")))

	report := d.Dispatch(context.Background(), cycle, lookup)

	for i, o := range report.Outcomes {
		assert.Equal(t, cycle[i], o.Pair)
	}
	assert.False(t, report.Outcomes[0].Delivered())
	assert.True(t, report.Outcomes[1].Delivered())
	assert.False(t, report.Outcomes[2].Delivered())
}

func TestDispatch_TimeoutIsUnreachable(t *testing.T) {
	m := testutil.NewRecordingMessenger()
	m.Hang["a"] = true
	d := New(m, WithTimeout(20*time.Millisecond), WithRunIDs(testutil.NewFixedRunIDGenerator("run-1")))

	report := d.Dispatch(context.Background(), cycle, lookup)

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, participant.ErrRecipientUnreachable)
	assert.ErrorIs(t, failures[0].Err, context.DeadlineExceeded)
	assert.Equal(t, 2, report.Delivered())
}

// stubbornMessenger ignores its context entirely.
type stubbornMessenger struct {
	release chan struct{}
}

func (s stubbornMessenger) Send(context.Context, participant.Identity, string) error {
	<-s.release
	return nil
}

func TestDispatch_AbandonsMessengerIgnoringContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	d := New(stubbornMessenger{release: release}, WithTimeout(20*time.Millisecond), WithRunIDs(testutil.NewFixedRunIDGenerator("run-1")))

	done := make(chan Report, 1)
	go func() { done <- d.Dispatch(context.Background(), cycle, lookup) }()

	select {
	case report := <-done:
		assert.Len(t, report.Failures(), 3)
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch blocked on a messenger that ignores its context")
	}
}

func TestDispatch_IgnoresCallerCancellation(t *testing.T) {
	m := testutil.NewRecordingMessenger()
	d := New(m, WithRunIDs(testutil.NewFixedRunIDGenerator("run-1")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := d.Dispatch(ctx, cycle, lookup)
	assert.Equal(t, 3, report.Delivered(), "a started run completes over its snapshot")
}

// countingMessenger tracks the peak number of concurrent sends.
type countingMessenger struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (c *countingMessenger) Send(context.Context, participant.Identity, string) error {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return nil
}

func TestDispatch_BoundedConcurrency(t *testing.T) {
	var pairs []participant.Assignment
	for i := 0; i < 20; i++ {
		pairs = append(pairs, participant.Assignment{
			Giver:    participant.Identity(fmt.Sprint(i)),
			Receiver: participant.Identity(fmt.Sprint((i + 1) % 20)),
		})
	}
	m := &countingMessenger{}
	d := New(m, WithConcurrency(3), WithRunIDs(testutil.NewFixedRunIDGenerator("run-1")))

	report := d.Dispatch(context.Background(), pairs, func(participant.Identity) string { return "x" })

	assert.Equal(t, 20, report.Delivered())
	assert.LessOrEqual(t, m.peak.Load(), int32(3))
}

func TestDispatch_ObserverSeesEveryOutcome(t *testing.T) {
	m := testutil.NewRecordingMessenger("c")
	var (
		mu   sync.Mutex
		seen []participant.Identity
	)
	d := New(m,
		WithRunIDs(testutil.NewFixedRunIDGenerator("run-1")),
		WithObserver(func(o Outcome) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, o.Pair.Giver)
		}),
	)

	d.Dispatch(context.Background(), cycle, lookup)

	assert.ElementsMatch(t, []participant.Identity{"a", "b", "c"}, seen)
}

func TestDispatch_CustomFormatter(t *testing.T) {
	m := testutil.NewRecordingMessenger()
	d := New(m,
		WithRunIDs(testutil.NewFixedRunIDGenerator("run-1")),
		WithFormatter(func(name string) string { return "buy for " + name }),
	)

	d.Dispatch(context.Background(), cycle[:1], lookup)

	assert.Equal(t, []testutil.Message{{To: "a", Text: "buy for bob"}}, m.Sent())
}

func TestDispatch_EmptyPairs(t *testing.T) {
	d := New(testutil.NewRecordingMessenger(), WithRunIDs(testutil.NewFixedRunIDGenerator("run-1")))

	report := d.Dispatch(context.Background(), nil, lookup)
	assert.Empty(t, report.Outcomes)
	assert.Equal(t, 0, report.Delivered())
}

func TestNew_ClampsConcurrency(t *testing.T) {
	d := New(testutil.NewRecordingMessenger(), WithConcurrency(0))
	assert.Equal(t, 1, d.concurrency)
}

func TestOutcome_ErrorMessageNamesGiver(t *testing.T) {
	m := testutil.NewRecordingMessenger("b")
	d := New(m, WithRunIDs(testutil.NewFixedRunIDGenerator("run-1")))

	report := d.Dispatch(context.Background(), cycle, lookup)
	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Err.Error(), "b")
	assert.True(t, errors.Is(failures[0].Err, participant.ErrRecipientUnreachable))
}
