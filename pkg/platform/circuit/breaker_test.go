package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestBreaker_InitialState(t *testing.T) {
	b := New("test")
	assert.False(t, b.IsOpen())
	assert.True(t, b.Allow())
	assert.Equal(t, "test", b.Name())
}

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New("test", WithFailureThreshold(3))

	assert.False(t, b.RecordFailure())
	assert.False(t, b.RecordFailure())
	assert.False(t, b.IsOpen())

	assert.True(t, b.RecordFailure())
	assert.True(t, b.IsOpen())

	// Already open, no transition.
	assert.False(t, b.RecordFailure())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	b := New("test", WithFailureThreshold(3))

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()

	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.IsOpen())

	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_CooldownLetsCallsThrough(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	b := New("test", WithFailureThreshold(1), WithCooldown(time.Minute), WithClock(clock.now))

	b.RecordFailure()
	assert.False(t, b.Allow())

	clock.t = clock.t.Add(time.Minute)
	assert.True(t, b.Allow())

	// A failure after the cooldown reopens immediately.
	assert.True(t, b.RecordFailure())
	assert.False(t, b.Allow())

	clock.t = clock.t.Add(time.Minute)
	b.RecordSuccess()
	assert.True(t, b.Allow())
}

func TestBreaker_Reset(t *testing.T) {
	b := New("test", WithFailureThreshold(1))
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.False(t, b.IsOpen())
}
