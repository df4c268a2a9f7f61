// synth.go

package audio

import (
	"errors"
	"log"
	"sync"
	"time"
)

// ErrNoAudioBackend 没有可用的音频后端
var ErrNoAudioBackend = errors.New("没有可用的音频后端")

// DefaultVolume 默认音量
const DefaultVolume = 0.5

// Tone 一次待播放的单音
type Tone struct {
	EventID     string
	FrequencyHz float64
	Duration    time.Duration
	Envelope    Envelope
}

// Backend 音频后端能力：按频率生成振荡信号，套用增益包络，安排起止时间
type Backend interface {
	Schedule(tone Tone) error
	Close() error
}

// AudioSettings 合成器设置
type AudioSettings struct {
	Enabled bool    `json:"enabled"`
	Volume  float64 `json:"volume"`
}

// DefaultAudioSettings 默认设置
func DefaultAudioSettings() AudioSettings {
	return AudioSettings{Enabled: true, Volume: DefaultVolume}
}

// Synthesizer 音效合成器
//
// Play 只把单音投递到后台队列，不等待播放结果。后端不可用时所有调用都是空操作
type Synthesizer struct {
	cues    *CueTable
	backend Backend

	mu       sync.RWMutex
	settings AudioSettings

	jobs      chan Tone
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewSynthesizer 创建合成器，backend 为 nil 时永久静音
func NewSynthesizer(backend Backend, cues *CueTable, settings AudioSettings, queueSize int) *Synthesizer {
	if backend == nil {
		log.Println("音频后端不可用，音效已禁用")
	}
	return newSynthesizer(backend, cues, settings, queueSize)
}

// OpenSynthesizer 打开音频设备并创建合成器
//
// 设备打开失败时只记录一次日志，返回静音合成器。settings.Enabled 只决定初始开关，
// 之后仍可通过 SetEnabled 打开
func OpenSynthesizer(open func() (Backend, error), cues *CueTable, settings AudioSettings, queueSize int) *Synthesizer {
	backend, err := open()
	if err != nil {
		log.Printf("初始化音频设备失败，音效已禁用: %v", err)
		backend = nil
	}
	return newSynthesizer(backend, cues, settings, queueSize)
}

func newSynthesizer(backend Backend, cues *CueTable, settings AudioSettings, queueSize int) *Synthesizer {
	if cues == nil {
		cues = DefaultCueTable()
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	settings.Volume = clampVolume(settings.Volume)

	s := &Synthesizer{
		cues:     cues,
		backend:  backend,
		settings: settings,
		jobs:     make(chan Tone, queueSize),
		done:     make(chan struct{}),
	}

	if backend == nil {
		return s
	}

	s.wg.Add(1)
	go s.run()
	return s
}

// Available 后端是否可用
func (s *Synthesizer) Available() bool {
	return s.backend != nil
}

// Play 以默认音量播放事件音效
func (s *Synthesizer) Play(eventID string) {
	s.mu.RLock()
	volume := s.settings.Volume
	s.mu.RUnlock()

	s.PlayVolume(eventID, volume)
}

// PlayVolume 以指定音量播放事件音效
func (s *Synthesizer) PlayVolume(eventID string, volume float64) {
	if s.backend == nil {
		return
	}

	s.mu.RLock()
	enabled := s.settings.Enabled
	s.mu.RUnlock()
	if !enabled {
		return
	}

	cue := s.cues.Lookup(eventID)
	duration := time.Duration(cue.DurationSec * float64(time.Second))
	tone := Tone{
		EventID:     eventID,
		FrequencyHz: cue.FrequencyHz,
		Duration:    duration,
		Envelope:    NewEnvelope(volume, duration),
	}

	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.jobs <- tone:
	default:
		// 队列已满，丢弃
	}
}

// SetVolume 设置默认音量
func (s *Synthesizer) SetVolume(v float64) {
	s.mu.Lock()
	s.settings.Volume = clampVolume(v)
	s.mu.Unlock()
}

// SetEnabled 开关后续播放，不影响正在播放的音效
func (s *Synthesizer) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.settings.Enabled = enabled
	s.mu.Unlock()
}

// Settings 当前设置
func (s *Synthesizer) Settings() AudioSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Close 停止后台队列并关闭后端
func (s *Synthesizer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		if s.backend != nil {
			err = s.backend.Close()
		}
	})
	return err
}

// run 音频执行上下文
func (s *Synthesizer) run() {
	defer s.wg.Done()

	for {
		select {
		case tone := <-s.jobs:
			if err := s.backend.Schedule(tone); err != nil {
				log.Printf("播放音效 %s 失败: %v", tone.EventID, err)
			}
		case <-s.done:
			return
		}
	}
}
