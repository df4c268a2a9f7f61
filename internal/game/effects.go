// effects.go

package game

import (
	"math"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jacl-coder/TankStorm-Server/internal/models"
)

// 弹幕扇形总角度(度)
const barrageSpreadDegrees = 60.0

// applyEffect 应用技能效果，弹幕技能返回每发炮弹的方向
func applyEffect(tank *models.TankEntity, def models.SkillDefinition) []models.Vector2D {
	value := def.Effect.Value

	switch def.Effect.Type {
	case models.EffectHeal:
		tank.Health += int(value)
		if tank.Health > tank.MaxHealth {
			tank.Health = tank.MaxHealth
		}
	case models.EffectShield:
		tank.Shield += value
	case models.EffectSpeed:
		tank.SpeedMultiplier = value
	case models.EffectDamageBoost:
		tank.DamageBonus += value
	case models.EffectStealth:
		tank.Stealthed = true
	case models.EffectArmor:
		tank.Armor += int(value)
	case models.EffectBarrage:
		return barrageDirections(tank.Rotation, int(value))
	}
	return nil
}

// revertEffect 撤销持续型效果
func revertEffect(tank *models.TankEntity, def models.SkillDefinition) {
	if !def.Effect.Type.IsTimed() {
		return
	}

	value := def.Effect.Value
	switch def.Effect.Type {
	case models.EffectShield:
		tank.Shield = math.Max(0, tank.Shield-value)
	case models.EffectSpeed:
		tank.SpeedMultiplier = 1
	case models.EffectDamageBoost:
		tank.DamageBonus = math.Max(0, tank.DamageBonus-value)
	case models.EffectStealth:
		tank.Stealthed = false
	}
}

// regenerateEnergy 按时间恢复能量
func regenerateEnergy(tank *models.TankEntity, delta time.Duration) {
	if !tank.IsAlive {
		return
	}
	tank.Energy += energyRegenPerSecond * delta.Seconds()
	if tank.Energy > tank.MaxEnergy {
		tank.Energy = tank.MaxEnergy
	}
}

// barrageDirections 以炮塔朝向为中心均匀展开
func barrageDirections(rotation float64, count int) []models.Vector2D {
	if count <= 0 {
		return nil
	}

	base := models.Vector2D{
		X: math.Cos(rotation * math.Pi / 180),
		Y: math.Sin(rotation * math.Pi / 180),
	}
	if count == 1 {
		return []models.Vector2D{base}
	}

	step := barrageSpreadDegrees / float64(count-1)
	start := -barrageSpreadDegrees / 2
	dirs := make([]models.Vector2D, 0, count)
	for i := 0; i < count; i++ {
		dirs = append(dirs, rotateVector(base, start+step*float64(i)))
	}
	return dirs
}

// rotateVector 旋转向量
func rotateVector(v models.Vector2D, degrees float64) models.Vector2D {
	rad := degrees * math.Pi / 180
	cos := math.Cos(rad)
	sin := math.Sin(rad)

	return models.Vector2D{
		X: v.X*cos - v.Y*sin,
		Y: v.X*sin + v.Y*cos,
	}
}

// barrageMessage 弹幕广播内容
func barrageMessage(tank *models.TankEntity, dirs []models.Vector2D) *structpb.Struct {
	shells := make([]*structpb.Value, 0, len(dirs))
	for _, d := range dirs {
		shells = append(shells, structpb.NewStructValue(&structpb.Struct{
			Fields: map[string]*structpb.Value{
				"x": structpb.NewNumberValue(d.X),
				"y": structpb.NewNumberValue(d.Y),
			},
		}))
	}

	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"owner":  structpb.NewStringValue(tank.PlayerID),
			"tank":   structpb.NewStringValue(tank.ID),
			"origin": structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
				"x": structpb.NewNumberValue(tank.Position.X),
				"y": structpb.NewNumberValue(tank.Position.Y),
			}}),
			"shells": structpb.NewListValue(&structpb.ListValue{Values: shells}),
		},
	}
}
