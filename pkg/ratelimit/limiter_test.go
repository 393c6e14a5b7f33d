package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"pdfdigest/pkg/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newLimiter(t *testing.T, limit int, window time.Duration, clock ratelimit.Clock) *ratelimit.Limiter {
	t.Helper()
	l, err := ratelimit.New(ratelimit.Config{
		Name:   "test",
		Limit:  limit,
		Window: window,
		Clock:  clock,
	}, ratelimit.NewInMemoryStore(ratelimit.DefaultInMemoryStoreConfig()))
	require.NoError(t, err)
	return l
}

func TestNew_InvalidConfig(t *testing.T) {
	store := ratelimit.NewInMemoryStore(ratelimit.DefaultInMemoryStoreConfig())

	_, err := ratelimit.New(ratelimit.Config{Name: "x", Limit: 0, Window: time.Minute}, store)
	assert.Error(t, err)

	_, err = ratelimit.New(ratelimit.Config{Name: "x", Limit: 1, Window: 0}, store)
	assert.Error(t, err)

	_, err = ratelimit.New(ratelimit.Config{Name: "x", Limit: 1, Window: time.Minute}, nil)
	assert.Error(t, err)
}

func TestCheck_AllowsUpToLimitThenDenies(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	limiter := newLimiter(t, 3, time.Minute, clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := limiter.Check(ctx, "203.0.113.7")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 3, d.Limit)
		assert.Equal(t, 2-i, d.Remaining)
	}

	d, err := limiter.Check(ctx, "203.0.113.7")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, int64(60), d.RetryAfterSeconds())
}

func TestCheck_KeysAreIndependent(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	limiter := newLimiter(t, 1, time.Minute, clock)
	ctx := context.Background()

	d, err := limiter.Check(ctx, "a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Check(ctx, "b")
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = limiter.Check(ctx, "a")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestCheck_WindowSlides(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	limiter := newLimiter(t, 2, time.Minute, clock)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		d, err := limiter.Check(ctx, "key")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}

	d, err := limiter.Check(ctx, "key")
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	// After the window passes, the old requests fall out of the count.
	clock.Advance(time.Minute + time.Second)

	d, err = limiter.Check(ctx, "key")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestCheck_DecisionMetadata(t *testing.T) {
	start := time.Unix(1_700_000_000, 0)
	clock := &fakeClock{now: start}
	limiter := newLimiter(t, 5, time.Minute, clock)

	d, err := limiter.Check(context.Background(), "key")
	require.NoError(t, err)

	assert.Equal(t, "key", d.Key)
	assert.Equal(t, "test", d.LimiterName)
	assert.Equal(t, start.Add(time.Minute).Unix(), d.ResetAtUnix())
}

func TestCleanup_DropsExpiredKeys(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := ratelimit.NewInMemoryStore(ratelimit.DefaultInMemoryStoreConfig())
	limiter, err := ratelimit.New(ratelimit.Config{
		Name:   "test",
		Limit:  2,
		Window: time.Minute,
		Clock:  clock,
	}, store)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = limiter.Check(ctx, "key")
	require.NoError(t, err)

	count, err := store.KeyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	clock.Advance(2 * time.Minute)
	require.NoError(t, store.Cleanup(ctx, clock.Now().Add(-time.Minute)))

	count, err = store.KeyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDecision_RetryAfterNeverNegative(t *testing.T) {
	d := ratelimit.Decision{RetryAfter: -5 * time.Second}
	assert.Equal(t, int64(0), d.RetryAfterSeconds())
}
