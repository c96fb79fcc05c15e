package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("db not ready")
		}
		return nil
	}, WithInitialDelay(time.Millisecond), WithMaxAttempts(5))

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsOnPermanentError(t *testing.T) {
	boom := errors.New("bad credentials")
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(boom)
	}, WithInitialDelay(time.Millisecond))

	assert.Equal(t, boom, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextErrorsAreNotRetriedByDefault(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return context.DeadlineExceeded
	}, WithInitialDelay(time.Millisecond))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}

func TestDo_RetryIfFiltersErrors(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return fatal
	},
		WithInitialDelay(time.Millisecond),
		WithRetryIf(func(err error) bool { return !errors.Is(err, fatal) }),
	)

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	var retried []int
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("still down")
	},
		WithMaxAttempts(3),
		WithInitialDelay(time.Millisecond),
		WithOnRetry(func(attempt int, _ error, _ time.Duration) { retried = append(retried, attempt) }),
	)

	assert.EqualError(t, err, "still down")
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDo_CancelledContextReturnsLastError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("redis down")
	}, WithInitialDelay(time.Hour), WithRetryIf(func(error) bool { return true }))

	assert.EqualError(t, err, "redis down")
	assert.Equal(t, 1, calls)
}

func TestBackoff_CappedWithoutJitter(t *testing.T) {
	r := New(WithInitialDelay(time.Second), WithMaxDelay(5*time.Second), WithJitter(0))

	assert.Equal(t, time.Second, r.backoff(1))
	assert.Equal(t, 2*time.Second, r.backoff(2))
	assert.Equal(t, 4*time.Second, r.backoff(3))
	assert.Equal(t, 5*time.Second, r.backoff(4))
	assert.Equal(t, 5*time.Second, r.backoff(10))
}

func TestStartupRetrier_DefaultAttempts(t *testing.T) {
	assert.Equal(t, 6, StartupRetrier(0, nil).cfg.MaxAttempts)
	assert.Equal(t, 2, StartupRetrier(2, nil).cfg.MaxAttempts)
}
