// websocket.go

package game

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jacl-coder/TankStorm-Server/internal/models"
	"github.com/jacl-coder/TankStorm-Server/internal/protocol"
	"github.com/jacl-coder/TankStorm-Server/internal/skill"
)

const (
	// 写入超时时间
	writeWait = 10 * time.Second

	// 读取超时时间
	pongWait = 60 * time.Second

	// 发送 ping 的间隔时间
	pingPeriod = (pongWait * 9) / 10

	// 最大消息大小
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 允许所有跨域请求
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message 消息结构
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ErrorPayload 错误消息内容
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type joinRoomPayload struct {
	RoomID string `json:"room_id"`
}

type createRoomPayload struct {
	Name       string          `json:"name"`
	Mode       models.GameMode `json:"mode"`
	MaxPlayers int             `json:"max_players"`
}

type skillPayload struct {
	SkillID string `json:"skill_id"`
}

// handleWSConnection 处理WebSocket连接
func (s *GameServer) handleWSConnection(w http.ResponseWriter, r *http.Request) {
	// 验证令牌
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "未授权", http.StatusUnauthorized)
		return
	}
	claims, err := s.deps.Tokens.Verify(token)
	if err != nil {
		log.Printf("令牌验证失败: %v", err)
		http.Error(w, "未授权", http.StatusUnauthorized)
		return
	}

	// 升级HTTP连接为WebSocket
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket升级失败: %v", err)
		return
	}

	player := NewPlayerConnection(claims.PlayerID)
	s.registerConnection(player)

	log.Printf("玩家 %s 已连接", player.PlayerID)

	// 启动读写协程
	go s.readPump(conn, player)
	go s.writePump(conn, player)
}

// readPump 从WebSocket读取数据
func (s *GameServer) readPump(conn *websocket.Conn, player *PlayerConnection) {
	defer func() {
		s.closeConnection(player)
		conn.Close()
	}()

	// 设置读取参数
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket错误: %v", err)
			}
			break
		}

		player.LastActive = time.Now()

		// 处理接收到的消息
		s.handleMessage(player, message)
	}
}

// writePump 向WebSocket写入数据
func (s *GameServer) writePump(conn *websocket.Conn, player *PlayerConnection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-player.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// 每条消息单独一帧，客户端按JSON解析
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage 处理接收到的消息
func (s *GameServer) handleMessage(player *PlayerConnection, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("解析消息失败: %v", err)
		s.sendError(player, "bad_message", "消息格式错误")
		return
	}

	switch msg.Type {
	case "join_room":
		s.handleJoinRoom(player, msg.Payload)
	case "create_room":
		s.handleCreateRoom(player, msg.Payload)
	case "leave_room":
		s.handleLeaveRoom(player)
	case "list_rooms":
		s.sendMessage(player, "room_list", s.ListRooms())
	case "use_skill":
		s.handleUseSkill(player, msg.Payload)
	case "cancel_skill":
		s.handleCancelSkill(player, msg.Payload)
	case "list_skills":
		s.handleListSkills(player)
	default:
		log.Printf("未知消息类型: %s", msg.Type)
		s.sendError(player, "unknown_type", "未知消息类型: "+msg.Type)
	}
}

// handleJoinRoom 处理加入房间请求
func (s *GameServer) handleJoinRoom(player *PlayerConnection, payload json.RawMessage) {
	var req joinRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.RoomID == "" {
		s.sendError(player, "bad_message", "缺少房间ID")
		return
	}

	room, ok := s.GetRoom(req.RoomID)
	if !ok {
		s.sendError(player, "room_not_found", ErrRoomNotFound.Error())
		return
	}
	s.joinRoom(player, room)
}

// handleCreateRoom 处理创建房间请求
func (s *GameServer) handleCreateRoom(player *PlayerConnection, payload json.RawMessage) {
	var req createRoomPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			s.sendError(player, "bad_message", "创建房间参数错误")
			return
		}
	}
	if req.Mode == "" {
		req.Mode = models.DeathMatch
	}
	if req.Name == "" {
		req.Name = player.PlayerID + "的房间"
	}

	room, err := s.CreateRoom(req.Name, req.Mode, req.MaxPlayers)
	if err != nil {
		s.sendGameError(player, err)
		return
	}
	s.joinRoom(player, room)
}

// joinRoom 离开旧房间并加入新房间
func (s *GameServer) joinRoom(player *PlayerConnection, room *Room) {
	if player.Room != nil {
		player.Room.RemovePlayer(player.ID)
		player.Room = nil
	}

	if _, err := room.AddPlayer(player); err != nil {
		s.sendGameError(player, err)
		return
	}
	player.Room = room

	s.sendMessage(player, "room_joined", room.Info())
	s.handleListSkills(player)
}

// handleLeaveRoom 处理离开房间请求
func (s *GameServer) handleLeaveRoom(player *PlayerConnection) {
	if player.Room == nil {
		s.sendGameError(player, ErrNotInRoom)
		return
	}

	roomID := player.Room.ID
	player.Room.RemovePlayer(player.ID)
	player.Room = nil

	// 发送离开房间确认
	s.sendMessage(player, "leave_room_confirm", joinRoomPayload{RoomID: roomID})
}

// handleUseSkill 处理释放技能
func (s *GameServer) handleUseSkill(player *PlayerConnection, payload json.RawMessage) {
	var req skillPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.SkillID == "" {
		s.sendError(player, "bad_message", "缺少技能ID")
		return
	}
	if player.Room == nil {
		s.sendGameError(player, ErrNotInRoom)
		return
	}

	if err := player.Room.UseSkill(player.ID, req.SkillID); err != nil {
		s.sendGameError(player, err)
	}
}

// handleCancelSkill 处理取消技能
func (s *GameServer) handleCancelSkill(player *PlayerConnection, payload json.RawMessage) {
	var req skillPayload
	if err := json.Unmarshal(payload, &req); err != nil || req.SkillID == "" {
		s.sendError(player, "bad_message", "缺少技能ID")
		return
	}
	if player.Room == nil {
		s.sendGameError(player, ErrNotInRoom)
		return
	}

	if err := player.Room.CancelSkill(player.ID, req.SkillID); err != nil {
		s.sendGameError(player, err)
	}
}

// handleListSkills 发送技能表
func (s *GameServer) handleListSkills(player *PlayerConnection) {
	catalog, err := protocol.ConvertCatalogToProto(s.deps.Registry.All())
	if err != nil {
		log.Printf("转换技能表失败: %v", err)
		s.sendError(player, "internal", "技能表不可用")
		return
	}
	sendProto(player, "skill_catalog", catalog)
}

// sendGameError 把游戏错误转换为错误码发送
func (s *GameServer) sendGameError(player *PlayerConnection, err error) {
	s.sendError(player, errorCode(err), err.Error())
}

// sendError 发送错误消息
func (s *GameServer) sendError(player *PlayerConnection, code, message string) {
	s.sendMessage(player, "error", ErrorPayload{Code: code, Message: message})
}

// sendMessage 向玩家发送消息
func (s *GameServer) sendMessage(player *PlayerConnection, msgType string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("序列化消息失败: %v", err)
		return
	}
	data, err := json.Marshal(Message{Type: msgType, Payload: raw})
	if err != nil {
		log.Printf("序列化消息失败: %v", err)
		return
	}

	if !player.Enqueue(data) {
		log.Printf("玩家 %s 发送队列已满，丢弃消息 %s", player.PlayerID, msgType)
	}
}

// errorCode 错误码
func errorCode(err error) string {
	var notFound *skill.NotFoundError
	switch {
	case errors.As(err, &notFound):
		return "skill_not_found"
	case errors.Is(err, ErrSkillOnCooldown):
		return "skill_on_cooldown"
	case errors.Is(err, ErrPassiveSkill):
		return "passive_skill"
	case errors.Is(err, ErrNotEnoughEnergy):
		return "not_enough_energy"
	case errors.Is(err, ErrNotInRoom):
		return "not_in_room"
	case errors.Is(err, ErrRoomFull):
		return "room_full"
	case errors.Is(err, ErrRoomClosed):
		return "room_closed"
	case errors.Is(err, ErrTooManyRooms):
		return "too_many_rooms"
	case errors.Is(err, ErrRoomNotFound):
		return "room_not_found"
	}
	return "internal"
}
