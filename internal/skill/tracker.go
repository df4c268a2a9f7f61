// tracker.go

package skill

import (
	"github.com/jacl-coder/TankStorm-Server/internal/models"
)

// CuePlayer 音效播放接口，由音频合成器实现
type CuePlayer interface {
	Play(eventID string)
}

// EventKind 追踪器事件类型
type EventKind string

const (
	// EventCast 技能生效
	EventCast EventKind = "cast"
	// EventRefresh 重复释放，计时重置
	EventRefresh EventKind = "refresh"
	// EventEnd 技能结束
	EventEnd EventKind = "end"
)

// EndReason 技能结束原因
type EndReason string

const (
	// ReasonExpired 计时结束
	ReasonExpired EndReason = "expired"
	// ReasonRemoved 主动移除
	ReasonRemoved EndReason = "removed"
)

// Event 追踪器状态变化
type Event struct {
	Owner       string    `json:"owner"`
	SkillID     string    `json:"skill_id"`
	Kind        EventKind `json:"kind"`
	Reason      EndReason `json:"reason,omitempty"`
	RemainingMs int64     `json:"remaining_ms"`
}

// Listener 接收追踪器事件
type Listener func(Event)

// Tracker 单个玩家的技能计时器集合
//
// 非并发安全：只应在所属房间的游戏循环中调用
type Tracker struct {
	owner    string
	registry *Registry
	cues     CuePlayer
	listener Listener

	// 追踪器内部的游戏时间(毫秒)，只由 Tick 推进
	clock int64
	// 按激活时间升序
	active []*models.ActiveSkillInstance
}

// NewTracker 创建技能追踪器
func NewTracker(owner string, registry *Registry, cues CuePlayer) *Tracker {
	return &Tracker{
		owner:    owner,
		registry: registry,
		cues:     cues,
	}
}

// SetListener 设置事件监听
func (t *Tracker) SetListener(l Listener) {
	t.listener = l
}

// Owner 所属玩家
func (t *Tracker) Owner() string {
	return t.owner
}

// Add 激活技能，已激活时重置计时
func (t *Tracker) Add(id string) error {
	def, err := t.registry.Get(id)
	if err != nil {
		return &UnknownSkillError{ID: id, Err: err}
	}

	kind := EventCast
	if idx := t.indexOf(id); idx >= 0 {
		// 刷新而不是叠加，同时移到队尾保持激活时间有序
		t.active = append(t.active[:idx], t.active[idx+1:]...)
		kind = EventRefresh
	}

	inst := &models.ActiveSkillInstance{
		DefinitionID: id,
		ActivatedAt:  t.clock,
		RemainingMs:  def.TimerMs(),
	}
	t.active = append(t.active, inst)

	t.play(def.CastCue())
	t.emit(Event{Owner: t.owner, SkillID: id, Kind: kind, RemainingMs: inst.RemainingMs})
	return nil
}

// Remove 主动结束技能，不存在时忽略
func (t *Tracker) Remove(id string) {
	idx := t.indexOf(id)
	if idx < 0 {
		return
	}
	t.active = append(t.active[:idx], t.active[idx+1:]...)
	t.end(id, ReasonRemoved)
}

// Tick 推进时间，计时归零的技能在本次调用内移除
func (t *Tracker) Tick(deltaMs int64) {
	if deltaMs <= 0 {
		return
	}
	t.clock += deltaMs

	var expired []string
	kept := t.active[:0]
	for _, inst := range t.active {
		inst.RemainingMs -= deltaMs
		if inst.RemainingMs <= 0 {
			expired = append(expired, inst.DefinitionID)
			continue
		}
		kept = append(kept, inst)
	}
	for i := len(kept); i < len(t.active); i++ {
		t.active[i] = nil
	}
	t.active = kept

	for _, id := range expired {
		t.end(id, ReasonExpired)
	}
}

// Query 返回当前技能状态，按激活时间升序
func (t *Tracker) Query() []models.ActiveSkillSnapshot {
	snaps := make([]models.ActiveSkillSnapshot, 0, len(t.active))
	for _, inst := range t.active {
		snaps = append(snaps, models.ActiveSkillSnapshot{
			DefinitionID: inst.DefinitionID,
			RemainingMs:  inst.RemainingMs,
		})
	}
	return snaps
}

// Has 技能是否处于激活或冷却中
func (t *Tracker) Has(id string) bool {
	return t.indexOf(id) >= 0
}

// Remaining 剩余时间，未激活返回 0
func (t *Tracker) Remaining(id string) int64 {
	if idx := t.indexOf(id); idx >= 0 {
		return t.active[idx].RemainingMs
	}
	return 0
}

// Len 激活中的技能数量
func (t *Tracker) Len() int {
	return len(t.active)
}

// Clear 结束全部技能
func (t *Tracker) Clear() {
	ids := make([]string, 0, len(t.active))
	for _, inst := range t.active {
		ids = append(ids, inst.DefinitionID)
	}
	t.active = nil

	for _, id := range ids {
		t.end(id, ReasonRemoved)
	}
}

func (t *Tracker) indexOf(id string) int {
	for i, inst := range t.active {
		if inst.DefinitionID == id {
			return i
		}
	}
	return -1
}

func (t *Tracker) end(id string, reason EndReason) {
	t.play(models.EndCueID(id))
	t.emit(Event{Owner: t.owner, SkillID: id, Kind: EventEnd, Reason: reason})
}

func (t *Tracker) play(cue string) {
	if t.cues != nil {
		t.cues.Play(cue)
	}
}

func (t *Tracker) emit(ev Event) {
	if t.listener != nil {
		t.listener(ev)
	}
}
