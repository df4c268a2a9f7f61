package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacl-coder/TankStorm-Server/internal/models"
	"github.com/jacl-coder/TankStorm-Server/internal/skill"
)

type recordingCues struct {
	mu     sync.Mutex
	played []string
}

func (c *recordingCues) Play(eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.played = append(c.played, eventID)
}

func (c *recordingCues) events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.played...)
}

type recordingStats struct {
	mu    sync.Mutex
	casts []models.SkillCastRecord
}

func (s *recordingStats) RecordCast(_ context.Context, rec models.SkillCastRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.casts = append(s.casts, rec)
	return nil
}

func newTestRoom(mode models.GameMode, maxPlayers int) (*Room, *recordingCues, *recordingStats) {
	cues := &recordingCues{}
	rec := &recordingStats{}
	room := NewRoom("测试房间", mode, maxPlayers, RoomOptions{
		Cues:     cues,
		Recorder: rec,
	})
	return room, cues, rec
}

func joinTestPlayer(t *testing.T, room *Room, playerID string) (*PlayerConnection, *TankState) {
	t.Helper()
	conn := NewPlayerConnection(playerID)
	tank, err := room.AddPlayer(conn)
	require.NoError(t, err)
	return conn, tank
}

// drainMessages 取出连接中已排队的消息
func drainMessages(conn *PlayerConnection) []Message {
	var out []Message
	for {
		select {
		case data := <-conn.Send:
			var msg Message
			if err := json.Unmarshal(data, &msg); err == nil {
				out = append(out, msg)
			}
		default:
			return out
		}
	}
}

func TestRoomAddPlayerAppliesPassiveSkills(t *testing.T) {
	room, _, _ := newTestRoom(models.Training, 4)
	_, tank := joinTestPlayer(t, room, "p1")

	assert.Equal(t, 10, tank.Entity.Armor)
	assert.Equal(t, 1, room.GetPlayerCount())
	assert.Equal(t, 0, tank.Tracker.Len(), "被动技能不进入追踪器")
}

func TestRoomUseSkillHeal(t *testing.T) {
	room, cues, rec := newTestRoom(models.Training, 4)
	conn, tank := joinTestPlayer(t, room, "p1")
	tank.Entity.Health = 50

	require.NoError(t, room.UseSkill(conn.ID, "heal"))

	assert.Equal(t, 80, tank.Entity.Health)
	assert.InDelta(t, 80, tank.Entity.Energy, 1e-9)
	assert.Equal(t, []string{"heal_cast"}, cues.events())
	require.Len(t, rec.casts, 1)
	assert.Equal(t, "heal", rec.casts[0].SkillID)
	assert.Equal(t, "p1", rec.casts[0].PlayerID)
	assert.Equal(t, room.ID, rec.casts[0].RoomID)

	state, err := room.SkillState(conn.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.ActiveSkillSnapshot{{DefinitionID: "heal", RemainingMs: 8000}}, state)
}

func TestRoomHealDoesNotExceedMaxHealth(t *testing.T) {
	room, _, _ := newTestRoom(models.Training, 4)
	conn, tank := joinTestPlayer(t, room, "p1")
	tank.Entity.Health = 90

	require.NoError(t, room.UseSkill(conn.ID, "heal"))
	assert.Equal(t, 100, tank.Entity.Health)
}

func TestRoomUseSkillErrors(t *testing.T) {
	room, cues, rec := newTestRoom(models.Training, 4)
	conn, tank := joinTestPlayer(t, room, "p1")

	var notFound *skill.NotFoundError
	err := room.UseSkill(conn.ID, "teleport")
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "teleport", notFound.ID)

	assert.ErrorIs(t, room.UseSkill(conn.ID, "reinforced_armor"), ErrPassiveSkill)
	assert.ErrorIs(t, room.UseSkill("missing", "heal"), ErrNotInRoom)

	tank.Entity.Energy = 10
	assert.ErrorIs(t, room.UseSkill(conn.ID, "shield"), ErrNotEnoughEnergy)
	assert.Equal(t, 0, tank.Tracker.Len())
	assert.InDelta(t, 10, tank.Entity.Energy, 1e-9)

	assert.Empty(t, cues.events())
	assert.Empty(t, rec.casts)
}

func TestRoomUseSkillCooldown(t *testing.T) {
	room, _, _ := newTestRoom(models.Training, 4)
	conn, _ := joinTestPlayer(t, room, "p1")

	require.NoError(t, room.UseSkill(conn.ID, "heal"))
	assert.ErrorIs(t, room.UseSkill(conn.ID, "heal"), ErrSkillOnCooldown)

	room.Advance(7999 * time.Millisecond)
	assert.ErrorIs(t, room.UseSkill(conn.ID, "heal"), ErrSkillOnCooldown)

	room.Advance(time.Millisecond)
	assert.NoError(t, room.UseSkill(conn.ID, "heal"))
}

func TestRoomTimedEffectRevertsOnExpiry(t *testing.T) {
	room, cues, _ := newTestRoom(models.Training, 4)
	conn, tank := joinTestPlayer(t, room, "p1")

	require.NoError(t, room.UseSkill(conn.ID, "shield"))
	assert.InDelta(t, 50, tank.Entity.Shield, 1e-9)

	room.Advance(4999 * time.Millisecond)
	assert.InDelta(t, 50, tank.Entity.Shield, 1e-9)

	room.Advance(time.Millisecond)
	assert.InDelta(t, 0, tank.Entity.Shield, 1e-9)
	assert.False(t, tank.Tracker.Has("shield"))
	assert.Equal(t, []string{"shield_cast", "shield_end"}, cues.events())
}

func TestRoomCancelSkillRevertsEffect(t *testing.T) {
	room, cues, _ := newTestRoom(models.Training, 4)
	conn, tank := joinTestPlayer(t, room, "p1")

	require.NoError(t, room.UseSkill(conn.ID, "speed"))
	assert.InDelta(t, 1.5, tank.Entity.SpeedMultiplier, 1e-9)

	require.NoError(t, room.CancelSkill(conn.ID, "speed"))
	assert.InDelta(t, 1, tank.Entity.SpeedMultiplier, 1e-9)
	assert.Equal(t, []string{"speed_cast", "speed_end"}, cues.events())

	// 未激活的技能取消时静默
	require.NoError(t, room.CancelSkill(conn.ID, "speed"))
	assert.Len(t, cues.events(), 2)
}

func TestRoomAdvanceCarriesSubMillisecond(t *testing.T) {
	room, _, _ := newTestRoom(models.Training, 4)
	conn, tank := joinTestPlayer(t, room, "p1")
	require.NoError(t, room.UseSkill(conn.ID, "heal"))

	room.Advance(1500 * time.Microsecond)
	assert.Equal(t, int64(7999), tank.Tracker.Remaining("heal"))

	room.Advance(1500 * time.Microsecond)
	assert.Equal(t, int64(7997), tank.Tracker.Remaining("heal"))

	room.Advance(0)
	room.Advance(-time.Second)
	assert.Equal(t, int64(7997), tank.Tracker.Remaining("heal"))
}

func TestRoomAdvanceRegeneratesEnergy(t *testing.T) {
	room, _, _ := newTestRoom(models.Training, 4)
	_, tank := joinTestPlayer(t, room, "p1")
	tank.Entity.Energy = 50

	room.Advance(2 * time.Second)
	assert.InDelta(t, 70, tank.Entity.Energy, 1e-9)

	room.Advance(10 * time.Second)
	assert.InDelta(t, 100, tank.Entity.Energy, 1e-9)
}

func TestRoomBroadcastsSkillEvents(t *testing.T) {
	room, _, _ := newTestRoom(models.Training, 4)
	caster, _ := joinTestPlayer(t, room, "p1")
	watcher, _ := joinTestPlayer(t, room, "p2")

	require.NoError(t, room.UseSkill(caster.ID, "stealth"))
	room.Advance(3 * time.Second)

	for _, conn := range []*PlayerConnection{caster, watcher} {
		var kinds []string
		for _, msg := range drainMessages(conn) {
			if msg.Type != "skill_event" {
				continue
			}
			var ev struct {
				Owner   string `json:"owner"`
				SkillID string `json:"skill_id"`
				Kind    string `json:"kind"`
				Reason  string `json:"reason"`
				Cue     string `json:"cue"`
			}
			require.NoError(t, json.Unmarshal(msg.Payload, &ev))
			assert.Equal(t, "p1", ev.Owner)
			assert.Equal(t, "stealth", ev.SkillID)
			kinds = append(kinds, ev.Kind+":"+ev.Cue)
		}
		assert.Equal(t, []string{"cast:stealth_cast", "end:stealth_end"}, kinds)
	}
}

func TestRoomBarrageBroadcastsShells(t *testing.T) {
	room, _, _ := newTestRoom(models.Training, 4)
	conn, _ := joinTestPlayer(t, room, "p1")

	require.NoError(t, room.UseSkill(conn.ID, "barrage"))

	var found bool
	for _, msg := range drainMessages(conn) {
		if msg.Type != "barrage" {
			continue
		}
		var payload struct {
			Shells []models.Vector2D `json:"shells"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &payload))
		assert.Len(t, payload.Shells, 5)
		found = true
	}
	assert.True(t, found)
}

func TestRoomRemovePlayerClearsTracker(t *testing.T) {
	room, cues, _ := newTestRoom(models.Training, 4)
	conn, tank := joinTestPlayer(t, room, "p1")
	require.NoError(t, room.UseSkill(conn.ID, "shield"))

	room.RemovePlayer(conn.ID)

	assert.True(t, room.IsEmpty())
	assert.Equal(t, 0, tank.Tracker.Len())
	assert.Equal(t, []string{"shield_cast", "shield_end"}, cues.events())

	// 重复移除无影响
	room.RemovePlayer(conn.ID)
	_, err := room.SkillState(conn.ID)
	assert.ErrorIs(t, err, ErrNotInRoom)
}

func TestRoomCapacityAndStatus(t *testing.T) {
	room, _, _ := newTestRoom(models.DeathMatch, 2)
	assert.Equal(t, models.RoomWaiting, room.Status())

	joinTestPlayer(t, room, "p1")
	assert.Equal(t, models.RoomWaiting, room.Status())

	joinTestPlayer(t, room, "p2")
	assert.Equal(t, models.RoomPlaying, room.Status())

	_, err := room.AddPlayer(NewPlayerConnection("p3"))
	assert.ErrorIs(t, err, ErrRoomFull)

	info := room.Info()
	assert.Equal(t, 2, info.Players)
	assert.Equal(t, models.DeathMatch, info.Mode)

	room.Stop()
	assert.Equal(t, models.RoomEnded, room.Status())
	_, err = room.AddPlayer(NewPlayerConnection("p4"))
	assert.ErrorIs(t, err, ErrRoomClosed)
}

func TestRoomTeamAssignment(t *testing.T) {
	room, _, _ := newTestRoom(models.TeamDeathMatch, 4)
	_, a := joinTestPlayer(t, room, "p1")
	_, b := joinTestPlayer(t, room, "p2")
	_, c := joinTestPlayer(t, room, "p3")

	assert.Equal(t, models.TeamRed, a.Entity.Team)
	assert.Equal(t, models.TeamBlue, b.Entity.Team)
	assert.Equal(t, models.TeamRed, c.Entity.Team)
}

func TestRoomStartAndStop(t *testing.T) {
	room, _, _ := newTestRoom(models.Training, 4)
	room.tickInterval = time.Millisecond
	conn, _ := joinTestPlayer(t, room, "p1")
	require.NoError(t, room.UseSkill(conn.ID, "heal"))

	require.NoError(t, room.Start())
	assert.Equal(t, models.RoomPlaying, room.Status())

	require.Eventually(t, func() bool {
		_, ok := room.Tank(conn.ID)
		state, _ := room.SkillState(conn.ID)
		return ok && len(state) == 1 && state[0].RemainingMs < 8000
	}, time.Second, 5*time.Millisecond)

	room.Stop()
	room.Stop()
	assert.Equal(t, models.RoomEnded, room.Status())
}

func TestRoomTimedSkillWaitsForCooldown(t *testing.T) {
	room, _, _ := newTestRoom(models.Training, 4)
	conn, tank := joinTestPlayer(t, room, "p1")

	require.NoError(t, room.UseSkill(conn.ID, "shield"))

	// 护盾 5 秒后结束，但冷却是 12 秒
	room.Advance(5000 * time.Millisecond)
	assert.False(t, tank.Tracker.Has("shield"))
	assert.ErrorIs(t, room.UseSkill(conn.ID, "shield"), ErrSkillOnCooldown)

	room.Advance(6999 * time.Millisecond)
	assert.ErrorIs(t, room.UseSkill(conn.ID, "shield"), ErrSkillOnCooldown)

	room.Advance(time.Millisecond)
	assert.NoError(t, room.UseSkill(conn.ID, "shield"))
}

func TestRoomCancelKeepsCooldown(t *testing.T) {
	room, _, _ := newTestRoom(models.Training, 4)
	conn, _ := joinTestPlayer(t, room, "p1")

	require.NoError(t, room.UseSkill(conn.ID, "speed"))
	require.NoError(t, room.CancelSkill(conn.ID, "speed"))

	assert.ErrorIs(t, room.UseSkill(conn.ID, "speed"), ErrSkillOnCooldown)

	room.Advance(10 * time.Second)
	assert.NoError(t, room.UseSkill(conn.ID, "speed"))
}

func TestRoomCannotRestartAfterStop(t *testing.T) {
	room, _, _ := newTestRoom(models.Training, 4)
	require.NoError(t, room.Start())
	room.Stop()

	assert.ErrorIs(t, room.Start(), ErrRoomClosed)
	assert.Equal(t, models.RoomEnded, room.Status())
}
