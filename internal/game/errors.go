package game

import "errors"

var (
	// ErrSkillOnCooldown 技能冷却中或效果未结束
	ErrSkillOnCooldown = errors.New("技能冷却中")
	// ErrPassiveSkill 被动技能不能主动释放
	ErrPassiveSkill = errors.New("被动技能无法释放")
	// ErrNotEnoughEnergy 能量不足
	ErrNotEnoughEnergy = errors.New("能量不足")
	// ErrNotInRoom 玩家不在房间中
	ErrNotInRoom = errors.New("玩家不在房间中")
	// ErrRoomFull 房间已满
	ErrRoomFull = errors.New("房间已满")
	// ErrRoomClosed 房间已结束
	ErrRoomClosed = errors.New("房间已结束")
	// ErrTooManyRooms 房间数量达到上限
	ErrTooManyRooms = errors.New("房间数量已达上限")
	// ErrRoomNotFound 房间不存在
	ErrRoomNotFound = errors.New("房间不存在")
)
