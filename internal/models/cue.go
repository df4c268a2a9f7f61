package models

// CueSpec 音效参数
type CueSpec struct {
	ID          string  `json:"id"`
	FrequencyHz float64 `json:"frequency_hz"`
	DurationSec float64 `json:"duration_sec"`
}
