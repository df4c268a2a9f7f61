package audio

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvelopeAttackRamp(t *testing.T) {
	env := NewEnvelope(0.5, 100*time.Millisecond)

	assert.Equal(t, 0.0, env.Gain(0))
	assert.InDelta(t, 0.25, env.Gain(5*time.Millisecond), 1e-9)
	assert.InDelta(t, 0.5, env.Gain(10*time.Millisecond), 1e-9)
}

func TestEnvelopeDecaysToFloor(t *testing.T) {
	env := NewEnvelope(0.5, 100*time.Millisecond)

	prev := env.Gain(10 * time.Millisecond)
	for ms := 20; ms < 100; ms += 10 {
		g := env.Gain(time.Duration(ms) * time.Millisecond)
		assert.Less(t, g, prev, "%dms", ms)
		prev = g
	}
	assert.Less(t, env.Gain(99*time.Millisecond), 0.01)
	assert.Equal(t, 0.0, env.Gain(100*time.Millisecond))
	assert.Equal(t, 0.0, env.Gain(-time.Millisecond))
}

func TestEnvelopeClampsPeak(t *testing.T) {
	assert.Equal(t, 1.0, NewEnvelope(3, time.Second).Peak)
	assert.Equal(t, 0.0, NewEnvelope(-1, time.Second).Peak)
	assert.Equal(t, 0.0, NewEnvelope(math.NaN(), time.Second).Peak)
	assert.Equal(t, 0.0, NewEnvelope(0, time.Second).Gain(50*time.Millisecond))
}

func TestEnvelopeShorterThanAttack(t *testing.T) {
	env := NewEnvelope(1, 4*time.Millisecond)

	assert.InDelta(t, 0.5, env.Gain(2*time.Millisecond), 1e-9)
	assert.Equal(t, 0.0, env.Gain(4*time.Millisecond))
}
