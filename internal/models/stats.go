// stats.go

package models

import (
	"time"
)

// SkillCastRecord 技能释放记录
type SkillCastRecord struct {
	PlayerID string    `json:"player_id"`
	RoomID   string    `json:"room_id"`
	SkillID  string    `json:"skill_id"`
	CastAt   time.Time `json:"cast_at"`
}

// SkillUsageEntry 技能使用排行条目
type SkillUsageEntry struct {
	SkillID string `json:"skill_id"`
	Casts   int64  `json:"casts"`
	Rank    int    `json:"rank"` // 排名
}
