package game

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jacl-coder/TankStorm-Server/config"
	"github.com/jacl-coder/TankStorm-Server/internal/auth"
	"github.com/jacl-coder/TankStorm-Server/internal/models"
	"github.com/jacl-coder/TankStorm-Server/internal/skill"
	"github.com/jacl-coder/TankStorm-Server/internal/stats"
)

// Dependencies 游戏服务器依赖
type Dependencies struct {
	Registry *skill.Registry
	Cues     skill.CuePlayer
	Tokens   *auth.TokenManager
	Recorder stats.Recorder
}

// GameServer 游戏服务器
type GameServer struct {
	config      *config.Config
	deps        Dependencies
	rooms       map[string]*Room
	roomsMutex  sync.RWMutex
	httpServer  *http.Server
	connections map[string]*PlayerConnection
	connMutex   sync.RWMutex

	// 关闭信号
	shutdown  chan struct{}
	isRunning bool
}

// PlayerConnection 玩家连接
type PlayerConnection struct {
	ID         string
	PlayerID   string
	Room       *Room
	LastActive time.Time

	// 通信通道
	Send chan []byte

	mu     sync.Mutex
	closed bool
}

// NewPlayerConnection 创建玩家连接
func NewPlayerConnection(playerID string) *PlayerConnection {
	return &PlayerConnection{
		ID:         uuid.New().String(),
		PlayerID:   playerID,
		LastActive: time.Now(),
		Send:       make(chan []byte, 256),
	}
}

// Enqueue 投递消息，通道已满或已关闭时返回 false
func (c *PlayerConnection) Enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// Close 关闭发送通道
func (c *PlayerConnection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// NewGameServer 创建新的游戏服务器
func NewGameServer(cfg *config.Config, deps Dependencies) *GameServer {
	if deps.Registry == nil {
		deps.Registry = skill.NewDefaultRegistry()
	}
	if deps.Recorder == nil {
		deps.Recorder = stats.Nop{}
	}
	if deps.Tokens == nil {
		deps.Tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	}

	return &GameServer{
		config:      cfg,
		deps:        deps,
		rooms:       make(map[string]*Room),
		connections: make(map[string]*PlayerConnection),
		shutdown:    make(chan struct{}),
	}
}

// Start 启动游戏服务器
func (s *GameServer) Start() error {
	if s.isRunning {
		return fmt.Errorf("服务器已经在运行")
	}

	// 初始化HTTP服务器
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Server.GamePort),
		Handler: s.Handler(),
	}

	// 启动HTTP服务器
	go func() {
		log.Printf("游戏服务器启动，监听端口: %d", s.config.Server.GamePort)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP服务器错误: %v", err)
		}
	}()

	// 启动房间管理
	go s.roomManager()

	s.isRunning = true
	return nil
}

// Stop 停止游戏服务器
func (s *GameServer) Stop() error {
	if !s.isRunning {
		return nil
	}

	// 发送关闭信号
	close(s.shutdown)

	// 关闭所有房间
	s.roomsMutex.Lock()
	for _, room := range s.rooms {
		room.Stop()
	}
	s.roomsMutex.Unlock()

	// 关闭所有连接
	s.connMutex.Lock()
	for _, conn := range s.connections {
		conn.Close()
	}
	s.connMutex.Unlock()

	// 关闭HTTP服务器
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP服务器关闭错误: %w", err)
	}

	s.isRunning = false
	log.Println("游戏服务器已停止")
	return nil
}

// Handler 创建HTTP处理器
func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// WebSocket 连接端点
	mux.HandleFunc("/ws", s.handleWSConnection)

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}

// roomManager 房间管理器
func (s *GameServer) roomManager() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupRooms()
		case <-s.shutdown:
			return
		}
	}
}

// cleanupRooms 清理空闲房间
func (s *GameServer) cleanupRooms() {
	s.roomsMutex.Lock()
	defer s.roomsMutex.Unlock()

	for id, room := range s.rooms {
		if room.ShouldCleanup() {
			log.Printf("清理空闲房间: %s", id)
			room.Stop()
			delete(s.rooms, id)
		}
	}
}

// CreateRoom 创建游戏房间
func (s *GameServer) CreateRoom(name string, mode models.GameMode, maxPlayers int) (*Room, error) {
	if maxPlayers <= 0 || maxPlayers > s.config.Server.MaxPlayers {
		maxPlayers = s.config.Server.MaxPlayers
	}

	s.roomsMutex.Lock()
	defer s.roomsMutex.Unlock()

	if s.config.Server.MaxRoomCount > 0 && len(s.rooms) >= s.config.Server.MaxRoomCount {
		return nil, ErrTooManyRooms
	}

	room := NewRoom(name, mode, maxPlayers, RoomOptions{
		Registry:     s.deps.Registry,
		Cues:         s.deps.Cues,
		Recorder:     s.deps.Recorder,
		TickInterval: s.config.Server.TickInterval(),
	})
	s.rooms[room.ID] = room

	// 启动房间
	if err := room.Start(); err != nil {
		delete(s.rooms, room.ID)
		return nil, err
	}

	log.Printf("创建房间: %s, 模式: %s, 最大玩家数: %d", room.ID, mode, maxPlayers)
	return room, nil
}

// GetRoom 获取房间
func (s *GameServer) GetRoom(roomID string) (*Room, bool) {
	s.roomsMutex.RLock()
	defer s.roomsMutex.RUnlock()

	room, exists := s.rooms[roomID]
	return room, exists
}

// ListRooms 列出所有房间
func (s *GameServer) ListRooms() []models.RoomInfo {
	s.roomsMutex.RLock()
	defer s.roomsMutex.RUnlock()

	rooms := make([]models.RoomInfo, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room.Info())
	}

	return rooms
}

// Registry 技能注册表
func (s *GameServer) Registry() *skill.Registry {
	return s.deps.Registry
}

// registerConnection 记录连接
func (s *GameServer) registerConnection(conn *PlayerConnection) {
	s.connMutex.Lock()
	s.connections[conn.ID] = conn
	s.connMutex.Unlock()
}

// closeConnection 关闭玩家连接
func (s *GameServer) closeConnection(player *PlayerConnection) {
	s.connMutex.Lock()
	_, ok := s.connections[player.ID]
	delete(s.connections, player.ID)
	s.connMutex.Unlock()

	// 检查连接是否已关闭
	if !ok {
		return
	}

	// 如果玩家在房间中，从房间移除
	if player.Room != nil {
		player.Room.RemovePlayer(player.ID)
		player.Room = nil
	}

	player.Close()
	log.Printf("玩家 %s 已断开连接", player.PlayerID)
}
