//go:build unit
// +build unit

package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vortex-fintech/supvx2/retry"
)

var fast = retry.Policy{
	InitialInterval: 5 * time.Millisecond,
	MaxInterval:     10 * time.Millisecond,
	MaxElapsed:      100 * time.Millisecond,
}

func TestDo_Success(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fast, func() error {
		calls++
		return nil
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_SucceedsAfterTransientFailures(t *testing.T) {
	calls, notified := 0, 0
	err := retry.Do(context.Background(), fast, func() error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	}, func(error, time.Duration) { notified++ })
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 2, notified)
}

func TestDo_GivesUpAfterMaxElapsed(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fast, func() error {
		calls++
		return errors.New("fail")
	}, nil)
	assert.Error(t, err)
	assert.Greater(t, calls, 1)
}

func TestDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	cause := errors.New("bad password")
	err := retry.Do(context.Background(), fast, func() error {
		calls++
		return retry.Permanent(cause)
	}, nil)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := retry.Do(ctx, retry.StartupPolicy(), func() error {
		return errors.New("fail")
	}, nil)
	assert.Error(t, err)
	assert.Error(t, ctx.Err())
}

func TestPermanent(t *testing.T) {
	assert.Nil(t, retry.Permanent(nil))
	p := retry.Permanent(errors.New("x"))
	assert.True(t, retry.IsPermanent(p))
	assert.Equal(t, p, retry.Permanent(p))
	assert.False(t, retry.IsPermanent(errors.New("y")))
}
