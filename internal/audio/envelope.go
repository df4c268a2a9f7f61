package audio

import (
	"math"
	"time"
)

const (
	// AttackTime 起音时长
	AttackTime = 10 * time.Millisecond
	// decayFloor 指数衰减的终点增益
	decayFloor = 0.001
)

// Envelope 单音增益包络：线性起音到峰值，再指数衰减到接近 0
type Envelope struct {
	Peak     float64
	Attack   time.Duration
	Duration time.Duration
}

// NewEnvelope 创建包络，峰值限制在 [0,1]
func NewEnvelope(peak float64, duration time.Duration) Envelope {
	return Envelope{
		Peak:     clampVolume(peak),
		Attack:   AttackTime,
		Duration: duration,
	}
}

// Gain 计算 t 时刻的增益
func (e Envelope) Gain(t time.Duration) float64 {
	if t < 0 || t >= e.Duration || e.Peak <= 0 {
		return 0
	}

	attack := e.Attack
	if attack > e.Duration {
		attack = e.Duration
	}
	if t < attack {
		return e.Peak * float64(t) / float64(attack)
	}

	decay := e.Duration - attack
	if decay <= 0 {
		return e.Peak
	}

	// peak * (floor/peak)^progress，progress=1 时恰好到达 floor
	floor := math.Min(decayFloor, e.Peak)
	progress := float64(t-attack) / float64(decay)
	return e.Peak * math.Pow(floor/e.Peak, progress)
}

func clampVolume(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
