package game

import (
	"context"
	"encoding/json"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"

	"github.com/jacl-coder/TankStorm-Server/internal/models"
	"github.com/jacl-coder/TankStorm-Server/internal/protocol"
	"github.com/jacl-coder/TankStorm-Server/internal/skill"
	"github.com/jacl-coder/TankStorm-Server/internal/stats"
)

const (
	// 每秒恢复的能量
	energyRegenPerSecond = 10.0

	// 默认帧间隔，约60FPS
	defaultTickInterval = 16 * time.Millisecond

	// 技能状态广播间隔(帧)
	stateBroadcastFrames = 6
)

// RoomOptions 房间依赖
type RoomOptions struct {
	Registry     *skill.Registry
	Cues         skill.CuePlayer
	Recorder     stats.Recorder
	TickInterval time.Duration
}

// Room 游戏房间
type Room struct {
	ID         string
	Name       string
	Mode       models.GameMode
	MaxPlayers int
	CreatedAt  time.Time

	registry     *skill.Registry
	cues         skill.CuePlayer
	recorder     stats.Recorder
	tickInterval time.Duration

	// 以下字段由 mu 保护，技能追踪器也只在持有 mu 时访问
	mu            sync.Mutex
	status        models.RoomStatus
	startedAt     time.Time
	endedAt       time.Time
	tanks         map[string]*TankState // 连接ID -> 坦克
	frameID       int64
	lastFrameTime time.Time
	carry         time.Duration // 不足1毫秒的剩余时间
	lastActivity  time.Time

	// 控制通道
	shutdown  chan struct{}
	isRunning bool
}

// TankState 玩家坦克状态
type TankState struct {
	Connection *PlayerConnection
	Entity     *models.TankEntity
	Tracker    *skill.Tracker

	// 技能ID -> 剩余冷却(毫秒)，释放时按 CooldownMs 开始计时，与效果时长无关
	cooldowns map[string]int64
}

// tickCooldowns 推进冷却计时，归零的条目移除
func (t *TankState) tickCooldowns(deltaMs int64) {
	for id, remaining := range t.cooldowns {
		remaining -= deltaMs
		if remaining <= 0 {
			delete(t.cooldowns, id)
			continue
		}
		t.cooldowns[id] = remaining
	}
}

// onCooldown 技能效果未结束或冷却未完成
func (t *TankState) onCooldown(skillID string) bool {
	return t.Tracker.Has(skillID) || t.cooldowns[skillID] > 0
}

// NewRoom 创建新房间
func NewRoom(name string, mode models.GameMode, maxPlayers int, opts RoomOptions) *Room {
	now := time.Now()

	if opts.Registry == nil {
		opts.Registry = skill.NewDefaultRegistry()
	}
	if opts.Recorder == nil {
		opts.Recorder = stats.Nop{}
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = defaultTickInterval
	}

	return &Room{
		ID:           uuid.New().String(),
		Name:         name,
		Mode:         mode,
		MaxPlayers:   maxPlayers,
		CreatedAt:    now,
		registry:     opts.Registry,
		cues:         opts.Cues,
		recorder:     opts.Recorder,
		tickInterval: opts.TickInterval,
		status:       models.RoomWaiting,
		tanks:        make(map[string]*TankState),
		shutdown:     make(chan struct{}),
		lastActivity: now,
	}
}

// Start 启动房间
func (r *Room) Start() error {
	r.mu.Lock()
	if r.isRunning {
		r.mu.Unlock()
		return nil
	}
	// 结束的房间不能重新启动
	if r.status == models.RoomEnded {
		r.mu.Unlock()
		return ErrRoomClosed
	}
	r.isRunning = true
	r.lastActivity = time.Now()
	if r.Mode == models.Training {
		r.startGameLocked()
	}
	r.mu.Unlock()

	log.Printf("房间 %s 启动", r.ID)

	// 游戏循环
	go r.gameLoop()

	return nil
}

// Stop 停止房间
func (r *Room) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == models.RoomEnded && !r.isRunning {
		return
	}
	if r.isRunning {
		close(r.shutdown)
		r.isRunning = false
	}
	r.endGameLocked()

	log.Printf("房间 %s 已停止", r.ID)
}

// Status 房间状态
func (r *Room) Status() models.RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Info 房间概要
func (r *Room) Info() models.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	return models.RoomInfo{
		ID:         r.ID,
		Name:       r.Name,
		Mode:       r.Mode,
		Status:     r.status,
		MaxPlayers: r.MaxPlayers,
		Players:    len(r.tanks),
	}
}

// AddPlayer 添加玩家到房间
func (r *Room) AddPlayer(conn *PlayerConnection) (*TankState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == models.RoomEnded {
		return nil, ErrRoomClosed
	}
	if len(r.tanks) >= r.MaxPlayers {
		return nil, ErrRoomFull
	}

	entity := models.NewTankEntity(uuid.New().String(), conn.PlayerID, r.assignTeamLocked(), getRandomSpawnPosition())
	tank := &TankState{
		Connection: conn,
		Entity:     entity,
		Tracker:    skill.NewTracker(conn.PlayerID, r.registry, r.cues),
		cooldowns:  make(map[string]int64),
	}
	tank.Tracker.SetListener(func(ev skill.Event) {
		r.onSkillEvent(tank, ev)
	})

	// 被动技能在加入时生效
	for _, def := range r.registry.All() {
		if def.Kind == models.PassiveSkill {
			applyEffect(tank.Entity, def)
		}
	}

	r.tanks[conn.ID] = tank
	r.lastActivity = time.Now()
	log.Printf("玩家 %s 加入房间 %s", conn.PlayerID, r.ID)

	if r.status == models.RoomWaiting && len(r.tanks) >= 2 {
		r.startGameLocked()
	}

	return tank, nil
}

// RemovePlayer 从房间移除玩家
func (r *Room) RemovePlayer(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tank, exists := r.tanks[connID]
	if !exists {
		return
	}

	delete(r.tanks, connID)
	tank.Tracker.SetListener(nil)
	tank.Tracker.Clear()
	r.lastActivity = time.Now()

	log.Printf("玩家 %s 已离开房间 %s", tank.Entity.PlayerID, r.ID)

	// 如果房间为空，可以标记为可清理
	if len(r.tanks) == 0 && r.status != models.RoomEnded {
		log.Printf("房间 %s 已空，等待清理", r.ID)
	}
}

// GetPlayerCount 获取玩家数量
func (r *Room) GetPlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tanks)
}

// IsEmpty 检查房间是否为空
func (r *Room) IsEmpty() bool {
	return r.GetPlayerCount() == 0
}

// ShouldCleanup 检查房间是否应该被清理
func (r *Room) ShouldCleanup() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 如果游戏已结束且超过2分钟，则可以清理
	if r.status == models.RoomEnded {
		return time.Since(r.endedAt) > 2*time.Minute
	}

	// 如果房间为空且超过5分钟没有活动，则可以清理
	if len(r.tanks) == 0 {
		return time.Since(r.lastActivity) > 5*time.Minute
	}

	return false
}

// UseSkill 释放技能
func (r *Room) UseSkill(connID, skillID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == models.RoomEnded {
		return ErrRoomClosed
	}
	tank, ok := r.tanks[connID]
	if !ok {
		return ErrNotInRoom
	}

	def, err := r.registry.Get(skillID)
	if err != nil {
		return err
	}
	if def.Kind == models.PassiveSkill {
		return ErrPassiveSkill
	}
	if tank.onCooldown(skillID) {
		return ErrSkillOnCooldown
	}
	if tank.Entity.Energy < float64(def.Cost) {
		return ErrNotEnoughEnergy
	}

	if err := tank.Tracker.Add(skillID); err != nil {
		return err
	}
	tank.Entity.Energy -= float64(def.Cost)
	if def.CooldownMs > 0 {
		tank.cooldowns[skillID] = def.CooldownMs
	}
	r.lastActivity = time.Now()

	if shells := applyEffect(tank.Entity, def); len(shells) > 0 {
		r.broadcastLocked("barrage", barrageMessage(tank.Entity, shells))
	}

	err = r.recorder.RecordCast(context.Background(), models.SkillCastRecord{
		PlayerID: tank.Entity.PlayerID,
		RoomID:   r.ID,
		SkillID:  skillID,
		CastAt:   time.Now(),
	})
	if err != nil {
		log.Printf("记录技能释放失败: %v", err)
	}
	return nil
}

// CancelSkill 主动结束技能
func (r *Room) CancelSkill(connID, skillID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tank, ok := r.tanks[connID]
	if !ok {
		return ErrNotInRoom
	}
	tank.Tracker.Remove(skillID)
	return nil
}

// SkillState 玩家当前技能状态
func (r *Room) SkillState(connID string) ([]models.ActiveSkillSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tank, ok := r.tanks[connID]
	if !ok {
		return nil, ErrNotInRoom
	}
	return tank.Tracker.Query(), nil
}

// Tank 玩家坦克的副本
func (r *Room) Tank(connID string) (models.TankEntity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tank, ok := r.tanks[connID]
	if !ok {
		return models.TankEntity{}, false
	}
	return *tank.Entity, true
}

// Advance 推进一帧
func (r *Room) Advance(delta time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status == models.RoomEnded || delta <= 0 {
		return
	}
	r.frameID++

	total := delta + r.carry
	deltaMs := int64(total / time.Millisecond)
	r.carry = total - time.Duration(deltaMs)*time.Millisecond

	for _, tank := range r.tanks {
		tank.Tracker.Tick(deltaMs)
		tank.tickCooldowns(deltaMs)
		regenerateEnergy(tank.Entity, delta)
	}

	if r.frameID%stateBroadcastFrames == 0 {
		r.broadcastSkillStateLocked()
	}
}

// gameLoop 游戏主循环
func (r *Room) gameLoop() {
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	r.mu.Lock()
	r.lastFrameTime = time.Now()
	r.mu.Unlock()

	for {
		select {
		case now := <-ticker.C:
			r.mu.Lock()
			delta := now.Sub(r.lastFrameTime)
			r.lastFrameTime = now
			r.mu.Unlock()

			r.Advance(delta)
		case <-r.shutdown:
			return
		}
	}
}

// onSkillEvent 处理追踪器事件，调用时已持有 mu
func (r *Room) onSkillEvent(tank *TankState, ev skill.Event) {
	if ev.Kind == skill.EventEnd {
		if def, err := r.registry.Get(ev.SkillID); err == nil {
			revertEffect(tank.Entity, def)
		}
	}

	msg, err := protocol.ConvertSkillEventToProto(ev)
	if err != nil {
		log.Printf("转换技能事件失败: %v", err)
		return
	}
	r.broadcastLocked("skill_event", msg)
}

// startGameLocked 开始游戏
func (r *Room) startGameLocked() {
	r.status = models.RoomPlaying
	r.startedAt = time.Now()
	r.frameID = 0

	log.Printf("房间 %s 游戏开始", r.ID)
}

// endGameLocked 结束游戏
func (r *Room) endGameLocked() {
	if r.status == models.RoomEnded {
		return
	}
	r.status = models.RoomEnded
	r.endedAt = time.Now()

	log.Printf("房间 %s 游戏结束", r.ID)
}

// broadcastSkillStateLocked 向每个玩家发送自己的技能状态
func (r *Room) broadcastSkillStateLocked() {
	for _, tank := range r.tanks {
		msg, err := protocol.ConvertSkillStateToProto(tank.Entity.PlayerID, tank.Tracker.Query())
		if err != nil {
			log.Printf("转换技能状态失败: %v", err)
			continue
		}
		sendProto(tank.Connection, "skill_state", msg)
	}
}

// broadcastLocked 广播给房间内所有玩家
func (r *Room) broadcastLocked(msgType string, payload proto.Message) {
	data, err := encodeProto(msgType, payload)
	if err != nil {
		log.Printf("序列化消息失败: %v", err)
		return
	}

	for _, tank := range r.tanks {
		if tank.Connection != nil {
			tank.Connection.Enqueue(data)
		}
	}
}

// 辅助函数

// encodeProto 把协议消息包装成 Message
func encodeProto(msgType string, payload proto.Message) ([]byte, error) {
	raw, err := protocol.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: msgType, Payload: raw})
}

// sendProto 向单个玩家发送协议消息
func sendProto(conn *PlayerConnection, msgType string, payload proto.Message) {
	if conn == nil {
		return
	}
	data, err := encodeProto(msgType, payload)
	if err != nil {
		log.Printf("序列化消息失败: %v", err)
		return
	}
	conn.Enqueue(data)
}

// getRandomSpawnPosition 获取随机出生点
func getRandomSpawnPosition() models.Vector2D {
	return models.Vector2D{
		X: rand.Float64() * 1000,
		Y: rand.Float64() * 1000,
	}
}

// assignTeamLocked 分配队伍
func (r *Room) assignTeamLocked() models.Team {
	if r.Mode != models.TeamDeathMatch {
		return models.TeamNone
	}

	// 统计当前队伍人数
	redCount := 0
	blueCount := 0
	for _, tank := range r.tanks {
		switch tank.Entity.Team {
		case models.TeamRed:
			redCount++
		case models.TeamBlue:
			blueCount++
		}
	}

	// 分配到人数较少的队伍
	if redCount <= blueCount {
		return models.TeamRed
	}
	return models.TeamBlue
}
