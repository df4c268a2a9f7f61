package audio

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu     sync.Mutex
	tones  []Tone
	err    error
	closed bool
}

func (b *fakeBackend) Schedule(tone Tone) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tones = append(b.tones, tone)
	return b.err
}

func (b *fakeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBackend) scheduled() []Tone {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Tone(nil), b.tones...)
}

func waitForTones(t *testing.T, b *fakeBackend, n int) []Tone {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(b.scheduled()) >= n
	}, time.Second, 5*time.Millisecond)
	return b.scheduled()
}

func TestSynthesizerPlayResolvesCue(t *testing.T) {
	backend := &fakeBackend{}
	s := NewSynthesizer(backend, DefaultCueTable(), DefaultAudioSettings(), 8)
	defer s.Close()

	s.Play("heal_cast")

	tones := waitForTones(t, backend, 1)
	assert.Equal(t, "heal_cast", tones[0].EventID)
	assert.Equal(t, 440.0, tones[0].FrequencyHz)
	assert.Equal(t, 200*time.Millisecond, tones[0].Duration)
	assert.Equal(t, DefaultVolume, tones[0].Envelope.Peak)
	assert.Equal(t, AttackTime, tones[0].Envelope.Attack)
}

func TestSynthesizerUnknownEventUsesDefaultCue(t *testing.T) {
	backend := &fakeBackend{}
	s := NewSynthesizer(backend, nil, DefaultAudioSettings(), 8)
	defer s.Close()

	s.Play("nonexistent")

	tones := waitForTones(t, backend, 1)
	assert.Equal(t, DefaultFrequencyHz, tones[0].FrequencyHz)
	assert.Equal(t, 100*time.Millisecond, tones[0].Duration)
}

func TestSynthesizerVolume(t *testing.T) {
	backend := &fakeBackend{}
	s := NewSynthesizer(backend, nil, DefaultAudioSettings(), 8)
	defer s.Close()

	s.SetVolume(2)
	assert.Equal(t, 1.0, s.Settings().Volume)
	s.SetVolume(-1)
	assert.Equal(t, 0.0, s.Settings().Volume)
	s.SetVolume(0.8)

	s.Play("hit")
	s.PlayVolume("hit", 5)

	tones := waitForTones(t, backend, 2)
	assert.Equal(t, 0.8, tones[0].Envelope.Peak)
	assert.Equal(t, 1.0, tones[1].Envelope.Peak)
}

func TestSynthesizerDisabled(t *testing.T) {
	backend := &fakeBackend{}
	s := NewSynthesizer(backend, nil, DefaultAudioSettings(), 8)
	defer s.Close()

	s.SetEnabled(false)
	s.Play("heal_cast")
	s.SetEnabled(true)
	s.Play("heal_end")

	tones := waitForTones(t, backend, 1)
	assert.Equal(t, "heal_end", tones[0].EventID)
	assert.Len(t, backend.scheduled(), 1)
}

func TestSynthesizerWithoutBackendIsSilent(t *testing.T) {
	s := NewSynthesizer(nil, nil, DefaultAudioSettings(), 8)

	assert.False(t, s.Available())
	assert.NotPanics(t, func() {
		s.Play("heal_cast")
		s.PlayVolume("heal_cast", 1)
		s.SetVolume(0.2)
		s.SetEnabled(false)
	})
	assert.NoError(t, s.Close())
}

func TestOpenSynthesizerStartsDisabled(t *testing.T) {
	backend := &fakeBackend{}
	settings := AudioSettings{Enabled: false, Volume: 0.5}
	s := OpenSynthesizer(func() (Backend, error) { return backend, nil }, nil, settings, 8)
	defer s.Close()

	assert.True(t, s.Available())
	s.Play("heal_cast")

	s.SetEnabled(true)
	s.Play("heal_end")

	tones := waitForTones(t, backend, 1)
	assert.Equal(t, "heal_end", tones[0].EventID)
	assert.Len(t, backend.scheduled(), 1)
}

func TestOpenSynthesizerDeviceFailure(t *testing.T) {
	s := OpenSynthesizer(func() (Backend, error) {
		return nil, ErrNoAudioBackend
	}, nil, DefaultAudioSettings(), 8)

	assert.False(t, s.Available())
	assert.NotPanics(t, func() { s.Play("heal_cast") })
	assert.NoError(t, s.Close())
}

func TestSynthesizerBackendErrorIsSwallowed(t *testing.T) {
	backend := &fakeBackend{err: errors.New("device lost")}
	s := NewSynthesizer(backend, nil, DefaultAudioSettings(), 8)

	assert.NotPanics(t, func() { s.Play("shoot") })
	waitForTones(t, backend, 1)
	assert.NoError(t, s.Close())
}

func TestSynthesizerPlayAfterClose(t *testing.T) {
	backend := &fakeBackend{}
	s := NewSynthesizer(backend, nil, DefaultAudioSettings(), 8)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, backend.closed)

	assert.NotPanics(t, func() { s.Play("shoot") })
	assert.Empty(t, backend.scheduled())
}

func TestToneStreamerFollowsEnvelope(t *testing.T) {
	tone := Tone{
		FrequencyHz: 440,
		Duration:    50 * time.Millisecond,
		Envelope:    NewEnvelope(0.5, 50*time.Millisecond),
	}
	g := newToneStreamer(48000, tone)

	samples := make([][2]float64, 2400)
	n, ok := g.Stream(samples)
	require.True(t, ok)
	require.Equal(t, len(samples), n)
	assert.NoError(t, g.Err())

	assert.Equal(t, 0.0, samples[0][0])
	for _, s := range samples {
		assert.LessOrEqual(t, s[0], 0.5)
		assert.GreaterOrEqual(t, s[0], -0.5)
		assert.Equal(t, s[0], s[1])
	}
}
