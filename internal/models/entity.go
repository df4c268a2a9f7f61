// entity.go

package models

import (
	"time"
)

// Vector2D 二维向量
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TankEntity 坦克实体
type TankEntity struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"player_id"`
	Team      Team      `json:"team"`
	Position  Vector2D  `json:"position"`
	Rotation  float64   `json:"rotation"` // 炮塔角度(0-360)
	CreatedAt time.Time `json:"created_at"`

	// 战斗属性
	Health    int     `json:"health"`
	MaxHealth int     `json:"max_health"`
	Armor     int     `json:"armor"`
	Energy    float64 `json:"energy"`
	MaxEnergy float64 `json:"max_energy"`
	IsAlive   bool    `json:"is_alive"`

	// 技能带来的状态修正
	Shield          float64 `json:"shield"`
	SpeedMultiplier float64 `json:"speed_multiplier"`
	DamageBonus     float64 `json:"damage_bonus"`
	Stealthed       bool    `json:"stealthed"`
}

// NewTankEntity 创建满状态坦克
func NewTankEntity(id, playerID string, team Team, pos Vector2D) *TankEntity {
	return &TankEntity{
		ID:              id,
		PlayerID:        playerID,
		Team:            team,
		Position:        pos,
		CreatedAt:       time.Now(),
		Health:          100,
		MaxHealth:       100,
		Energy:          100,
		MaxEnergy:       100,
		IsAlive:         true,
		SpeedMultiplier: 1,
	}
}
