package circuitbreaker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestBreaker(cfg Config) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cb := New(cfg)
	cb.now = clock.Now
	return cb, clock
}

func fail(context.Context) (int, error) { return 0, errUpstream }
func succeed(context.Context) (int, error) { return 1, nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(Config{FailureThreshold: 3, SuccessThreshold: 1, Timeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := Execute(ctx, cb, nil, fail)
		require.ErrorIs(t, err, errUpstream)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	_, err := Execute(ctx, cb, nil, func(context.Context) (int, error) {
		called = true
		return 0, nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(Config{FailureThreshold: 2, Timeout: time.Minute})
	ctx := context.Background()

	Execute(ctx, cb, nil, fail)
	Execute(ctx, cb, nil, succeed)
	Execute(ctx, cb, nil, fail)

	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_UncountedErrorsDoNotTrip(t *testing.T) {
	cb, _ := newTestBreaker(Config{FailureThreshold: 1, Timeout: time.Minute})
	errBadInput := errors.New("bad input")

	_, err := Execute(context.Background(), cb, func(err error) bool { return err == errUpstream }, func(context.Context) (int, error) {
		return 0, errBadInput
	})

	assert.ErrorIs(t, err, errBadInput)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, clock := newTestBreaker(Config{FailureThreshold: 1, SuccessThreshold: 2, Timeout: 10 * time.Second, MaxRequestsHalfOpen: 1})
	ctx := context.Background()

	var transitions []string
	cb.OnStateChange(func(from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	Execute(ctx, cb, nil, fail)
	require.Equal(t, StateOpen, cb.State())

	clock.Advance(5 * time.Second)
	_, err := Execute(ctx, cb, nil, succeed)
	assert.ErrorIs(t, err, ErrOpen)

	clock.Advance(5 * time.Second)
	require.NoError(t, cb.Allow())
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.ErrorIs(t, cb.Allow(), ErrOpen, "only one probe at a time")
	cb.Record(true)

	_, err = Execute(ctx, cb, nil, succeed)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, cb.State())

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(Config{FailureThreshold: 1, SuccessThreshold: 1, Timeout: time.Second})
	ctx := context.Background()

	Execute(ctx, cb, nil, fail)
	clock.Advance(time.Second)

	_, err := Execute(ctx, cb, nil, fail)
	assert.ErrorIs(t, err, errUpstream)
	assert.Equal(t, StateOpen, cb.State())

	_, err = Execute(ctx, cb, nil, succeed)
	assert.ErrorIs(t, err, ErrOpen, "reopened breaker waits a full timeout again")
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb, _ := newTestBreaker(Config{FailureThreshold: 1, Timeout: time.Hour})

	Execute(context.Background(), cb, nil, fail)
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	_, err := Execute(context.Background(), cb, nil, succeed)
	assert.NoError(t, err)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}
