// skill.go

package models

// SkillKind 技能类别
type SkillKind string

const (
	// ActiveSkill 主动技能
	ActiveSkill SkillKind = "active"
	// PassiveSkill 被动技能
	PassiveSkill SkillKind = "passive"
)

// EffectType 效果类型
type EffectType string

const (
	// EffectHeal 治疗，瞬时生效
	EffectHeal EffectType = "heal"
	// EffectBarrage 弹幕齐射，瞬时生效
	EffectBarrage EffectType = "barrage"
	// EffectShield 护盾，持续生效
	EffectShield EffectType = "shield"
	// EffectSpeed 加速，持续生效
	EffectSpeed EffectType = "speed"
	// EffectDamageBoost 增伤，持续生效
	EffectDamageBoost EffectType = "damage_boost"
	// EffectStealth 隐身，持续生效
	EffectStealth EffectType = "stealth"
	// EffectArmor 装甲加成(被动)
	EffectArmor EffectType = "armor"
)

// IsTimed 效果是否持续一段时间
//
// 持续型效果以 DurationMs 计时，瞬时效果以 CooldownMs 计时
func (t EffectType) IsTimed() bool {
	switch t {
	case EffectShield, EffectSpeed, EffectDamageBoost, EffectStealth:
		return true
	}
	return false
}

// EffectDescriptor 技能效果描述，由游戏逻辑解释
type EffectDescriptor struct {
	Type  EffectType `json:"type"`
	Value float64    `json:"value"`
}

// SkillDefinition 技能定义
type SkillDefinition struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	ShortName   string           `json:"short_name"`
	Description string           `json:"description"`
	Kind        SkillKind        `json:"kind"`
	Effect      EffectDescriptor `json:"effect"`
	Cost        int              `json:"cost"`
	CooldownMs  int64            `json:"cooldown_ms"`
	DurationMs  int64            `json:"duration_ms,omitempty"` // 持续型效果的时长
	Emoji       string           `json:"emoji"`
}

// TimerMs 技能激活后的计时长度
func (d *SkillDefinition) TimerMs() int64 {
	if d.Effect.Type.IsTimed() && d.DurationMs > 0 {
		return d.DurationMs
	}
	return d.CooldownMs
}

// CastCue 释放音效ID
func (d *SkillDefinition) CastCue() string {
	return CastCueID(d.ID)
}

// EndCue 结束音效ID
func (d *SkillDefinition) EndCue() string {
	return EndCueID(d.ID)
}

// CastCueID 根据技能ID生成释放音效ID
func CastCueID(skillID string) string {
	return skillID + "_cast"
}

// EndCueID 根据技能ID生成结束音效ID
func EndCueID(skillID string) string {
	return skillID + "_end"
}

// ActiveSkillInstance 正在生效或冷却中的技能实例
type ActiveSkillInstance struct {
	DefinitionID string `json:"definition_id"`
	ActivatedAt  int64  `json:"activated_at"` // 追踪器内部游戏时间(毫秒)
	RemainingMs  int64  `json:"remaining_ms"`
}

// ActiveSkillSnapshot 用于渲染的技能状态
type ActiveSkillSnapshot struct {
	DefinitionID string `json:"definition_id"`
	RemainingMs  int64  `json:"remaining_ms"`
}
