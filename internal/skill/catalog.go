// catalog.go

package skill

import "github.com/jacl-coder/TankStorm-Server/internal/models"

// DefaultCatalog 内置技能表
//
// 顺序即展示顺序
var DefaultCatalog = []models.SkillDefinition{
	{
		ID:          "heal",
		Name:        "紧急维修",
		ShortName:   "维修",
		Description: "立即恢复 30 点耐久",
		Kind:        models.ActiveSkill,
		Effect:      models.EffectDescriptor{Type: models.EffectHeal, Value: 30},
		Cost:        20,
		CooldownMs:  8000,
		Emoji:       "💚",
	},
	{
		ID:          "shield",
		Name:        "能量护盾",
		ShortName:   "护盾",
		Description: "吸收 50 点伤害，持续 5 秒",
		Kind:        models.ActiveSkill,
		Effect:      models.EffectDescriptor{Type: models.EffectShield, Value: 50},
		Cost:        30,
		CooldownMs:  12000,
		DurationMs:  5000,
		Emoji:       "🛡️",
	},
	{
		ID:          "speed",
		Name:        "氮气加速",
		ShortName:   "加速",
		Description: "移动速度提升 50%，持续 4 秒",
		Kind:        models.ActiveSkill,
		Effect:      models.EffectDescriptor{Type: models.EffectSpeed, Value: 1.5},
		Cost:        15,
		CooldownMs:  10000,
		DurationMs:  4000,
		Emoji:       "⚡",
	},
	{
		ID:          "rapid_fire",
		Name:        "穿甲弹药",
		Description: "炮弹伤害提升 25%，持续 6 秒",
		Kind:        models.ActiveSkill,
		Effect:      models.EffectDescriptor{Type: models.EffectDamageBoost, Value: 0.25},
		Cost:        25,
		CooldownMs:  15000,
		DurationMs:  6000,
		Emoji:       "🔥",
	},
	{
		ID:          "stealth",
		Name:        "光学迷彩",
		ShortName:   "隐身",
		Description: "隐身 3 秒",
		Kind:        models.ActiveSkill,
		Effect:      models.EffectDescriptor{Type: models.EffectStealth, Value: 1},
		Cost:        35,
		CooldownMs:  20000,
		DurationMs:  3000,
		Emoji:       "👻",
	},
	{
		ID:          "barrage",
		Name:        "火力覆盖",
		ShortName:   "齐射",
		Description: "向前方扇形区域发射 5 枚炮弹",
		Kind:        models.ActiveSkill,
		Effect:      models.EffectDescriptor{Type: models.EffectBarrage, Value: 5},
		Cost:        40,
		CooldownMs:  18000,
		Emoji:       "💥",
	},
	{
		ID:          "reinforced_armor",
		Name:        "复合装甲",
		ShortName:   "装甲",
		Description: "永久提升 10 点护甲",
		Kind:        models.PassiveSkill,
		Effect:      models.EffectDescriptor{Type: models.EffectArmor, Value: 10},
		Emoji:       "🧱",
	},
}
