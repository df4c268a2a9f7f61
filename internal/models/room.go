package models

// GameMode 游戏模式
type GameMode string

const (
	// DeathMatch 死亡竞赛模式
	DeathMatch GameMode = "death_match"
	// TeamDeathMatch 团队死亡竞赛
	TeamDeathMatch GameMode = "team_death_match"
	// Training 训练场，无胜负
	Training GameMode = "training"
)

// RoomStatus 房间状态
type RoomStatus string

const (
	// RoomWaiting 等待中
	RoomWaiting RoomStatus = "waiting"
	// RoomPlaying 游戏中
	RoomPlaying RoomStatus = "playing"
	// RoomEnded 已结束
	RoomEnded RoomStatus = "ended"
)

// Team 队伍
type Team int

const (
	// TeamNone 无队伍
	TeamNone Team = 0
	// TeamRed 红队
	TeamRed Team = 1
	// TeamBlue 蓝队
	TeamBlue Team = 2
)

// RoomInfo 房间概要，用于列表展示
type RoomInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Mode       GameMode   `json:"mode"`
	Status     RoomStatus `json:"status"`
	MaxPlayers int        `json:"max_players"`
	Players    int        `json:"players"`
}
