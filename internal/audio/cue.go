// cue.go

package audio

import "github.com/jacl-coder/TankStorm-Server/internal/models"

const (
	// DefaultFrequencyHz 未知音效的频率
	DefaultFrequencyHz = 440.0
	// DefaultDurationSec 未知音效的时长
	DefaultDurationSec = 0.1
)

// defaultCues 内置音效表
var defaultCues = []models.CueSpec{
	{ID: "heal_cast", FrequencyHz: 440, DurationSec: 0.2},
	{ID: "heal_end", FrequencyHz: 523, DurationSec: 0.15},
	{ID: "shield_cast", FrequencyHz: 330, DurationSec: 0.3},
	{ID: "shield_end", FrequencyHz: 262, DurationSec: 0.2},
	{ID: "speed_cast", FrequencyHz: 660, DurationSec: 0.15},
	{ID: "speed_end", FrequencyHz: 494, DurationSec: 0.15},
	{ID: "rapid_fire_cast", FrequencyHz: 880, DurationSec: 0.1},
	{ID: "rapid_fire_end", FrequencyHz: 587, DurationSec: 0.1},
	{ID: "stealth_cast", FrequencyHz: 220, DurationSec: 0.4},
	{ID: "stealth_end", FrequencyHz: 247, DurationSec: 0.2},
	{ID: "barrage_cast", FrequencyHz: 110, DurationSec: 0.5},
	{ID: "barrage_end", FrequencyHz: 392, DurationSec: 0.1},

	{ID: "shoot", FrequencyHz: 200, DurationSec: 0.05},
	{ID: "hit", FrequencyHz: 150, DurationSec: 0.1},
	{ID: "explosion", FrequencyHz: 80, DurationSec: 0.5},
	{ID: "pickup", FrequencyHz: 784, DurationSec: 0.12},
	{ID: "error", FrequencyHz: 120, DurationSec: 0.15},
}

// CueTable 事件ID到音效参数的只读映射
type CueTable struct {
	cues map[string]models.CueSpec
}

// NewCueTable 构建音效表，后出现的同名条目覆盖前者
func NewCueTable(specs []models.CueSpec) *CueTable {
	t := &CueTable{cues: make(map[string]models.CueSpec, len(specs))}
	for _, spec := range specs {
		t.cues[spec.ID] = spec
	}
	return t
}

// DefaultCueTable 内置音效表
func DefaultCueTable() *CueTable {
	return NewCueTable(defaultCues)
}

// Lookup 查询音效，未知ID返回默认音效
func (t *CueTable) Lookup(eventID string) models.CueSpec {
	if spec, ok := t.cues[eventID]; ok {
		return spec
	}
	return models.CueSpec{
		ID:          eventID,
		FrequencyHz: DefaultFrequencyHz,
		DurationSec: DefaultDurationSec,
	}
}

// Has 是否显式配置了该音效
func (t *CueTable) Has(eventID string) bool {
	_, ok := t.cues[eventID]
	return ok
}
