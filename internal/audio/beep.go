// beep.go

package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// BeepBackend 基于 beep speaker 的音频后端
type BeepBackend struct {
	sr    beep.SampleRate
	mixer *beep.Mixer
}

// NewBeepBackend 初始化扬声器
func NewBeepBackend(sampleRate int, buffer time.Duration) (*BeepBackend, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: 采样率无效 %d", ErrNoAudioBackend, sampleRate)
	}

	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(buffer)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoAudioBackend, err)
	}

	b := &BeepBackend{
		sr:    sr,
		mixer: &beep.Mixer{},
	}
	speaker.Play(b.mixer)
	return b, nil
}

// Schedule 把单音加入混音器，立即返回
func (b *BeepBackend) Schedule(tone Tone) error {
	n := b.sr.N(tone.Duration)
	if n <= 0 {
		return nil
	}

	streamer := beep.Take(n, newToneStreamer(b.sr, tone))

	speaker.Lock()
	b.mixer.Add(streamer)
	speaker.Unlock()
	return nil
}

// Close 清空混音器并关闭扬声器
func (b *BeepBackend) Close() error {
	speaker.Lock()
	b.mixer.Clear()
	speaker.Unlock()

	speaker.Close()
	return nil
}

// toneStreamer 带包络的正弦波
type toneStreamer struct {
	sr   beep.SampleRate
	tone Tone
	pos  int
}

func newToneStreamer(sr beep.SampleRate, tone Tone) *toneStreamer {
	return &toneStreamer{sr: sr, tone: tone}
}

func (g *toneStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		gain := g.tone.Envelope.Gain(time.Duration(t * float64(time.Second)))
		sample := gain * math.Sin(2*math.Pi*g.tone.FrequencyHz*t)

		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *toneStreamer) Err() error {
	return nil
}
