package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jacl-coder/TankStorm-Server/config"
	"github.com/jacl-coder/TankStorm-Server/internal/auth"
	"github.com/jacl-coder/TankStorm-Server/internal/models"
	"github.com/jacl-coder/TankStorm-Server/internal/skill"
)

// ServiceType 服务类型
type ServiceType string

const (
	// ServiceGame 游戏服务
	ServiceGame ServiceType = "game"
)

// ServiceInstance 服务实例
type ServiceInstance struct {
	ID        string
	Type      ServiceType
	URL       *url.URL
	Health    bool
	LastCheck time.Time
}

// SkillStats 技能统计查询
type SkillStats interface {
	TopSkills(ctx context.Context, limit int) ([]models.SkillUsageEntry, error)
	PlayerSkills(ctx context.Context, playerID string) (map[string]int64, error)
}

// Dependencies 网关依赖
type Dependencies struct {
	Registry *skill.Registry
	Tokens   *auth.TokenManager
	// 未启用 Redis 时为 nil
	Stats SkillStats
}

// Gateway API网关
type Gateway struct {
	config     *config.Config
	deps       Dependencies
	services   map[ServiceType][]*ServiceInstance
	mutex      sync.RWMutex
	httpServer *http.Server
	isRunning  bool
	shutdown   chan struct{}
}

// APIResponse 统一响应格式
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewGateway 创建新的网关
func NewGateway(cfg *config.Config, deps Dependencies) *Gateway {
	if deps.Registry == nil {
		deps.Registry = skill.NewDefaultRegistry()
	}
	if deps.Tokens == nil {
		deps.Tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	}

	return &Gateway{
		config:   cfg,
		deps:     deps,
		services: make(map[ServiceType][]*ServiceInstance),
		shutdown: make(chan struct{}),
	}
}

// Start 启动网关
func (g *Gateway) Start() error {
	if g.isRunning {
		return fmt.Errorf("网关已经在运行")
	}

	// 初始化HTTP服务器
	g.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", g.config.Server.GatewayPort),
		Handler: g.Handler(),
	}

	// 注册内部服务
	g.registerInternalServices()

	// 启动健康检查
	go g.healthCheck()

	// 启动HTTP服务器
	go func() {
		log.Printf("API网关启动，监听端口: %d", g.config.Server.GatewayPort)
		if err := g.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP服务器错误: %v", err)
		}
	}()

	g.isRunning = true
	return nil
}

// Stop 停止网关
func (g *Gateway) Stop() error {
	if !g.isRunning {
		return nil
	}

	close(g.shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := g.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("网关关闭错误: %w", err)
	}

	g.isRunning = false
	log.Println("API网关已停止")
	return nil
}

// RegisterService 注册服务
func (g *Gateway) RegisterService(serviceType ServiceType, serviceURL string) error {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return fmt.Errorf("无效的服务URL: %w", err)
	}

	instance := &ServiceInstance{
		ID:        fmt.Sprintf("%s-%d", serviceType, time.Now().UnixNano()),
		Type:      serviceType,
		URL:       parsedURL,
		Health:    true,
		LastCheck: time.Now(),
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.services[serviceType] = append(g.services[serviceType], instance)
	log.Printf("注册服务: %s, URL: %s", serviceType, serviceURL)

	return nil
}

// Handler 创建HTTP处理器
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()

	NewSkillHandler(g.deps.Registry).RegisterHandlers(mux)
	NewAuthHandler(g.deps.Tokens).RegisterHandlers(mux)
	NewStatsHandler(g.deps.Stats).RegisterHandlers(mux)

	// 游戏服务请求转发
	mux.HandleFunc("/game/", g.handleGameRequest)

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return g.applyMiddleware(mux)
}

// applyMiddleware 应用中间件
func (g *Gateway) applyMiddleware(handler http.Handler) http.Handler {
	loggingMiddleware := NewLoggingMiddleware()
	securityMiddleware := NewSecurityMiddleware()
	corsMiddleware := NewCORSMiddleware()
	rateLimiter := NewRateLimiter(60, "/auth/") // 认证接口每分钟60次
	cacheMiddleware := NewCacheMiddleware()

	// 按顺序应用中间件（从外到内）
	handler = cacheMiddleware.Middleware(handler)
	handler = rateLimiter.Middleware(handler)
	handler = corsMiddleware.Middleware(handler)
	handler = securityMiddleware.Middleware(handler)
	handler = loggingMiddleware.Middleware(handler)

	return handler
}

// handleGameRequest 转发到游戏服务，去掉 /game 前缀
func (g *Gateway) handleGameRequest(w http.ResponseWriter, r *http.Request) {
	if _, err := g.validateAuth(r); err != nil {
		sendError(w, "未授权", http.StatusUnauthorized)
		return
	}

	instance := g.getServiceInstance(ServiceGame)
	if instance == nil {
		sendError(w, "服务不可用", http.StatusServiceUnavailable)
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(instance.URL)

	r.URL.Path = strings.TrimPrefix(r.URL.Path, "/game")
	r.Header.Set("X-Forwarded-Host", r.Host)
	r.Header.Set("X-Origin-Host", instance.URL.Host)
	r.Host = instance.URL.Host

	proxy.ServeHTTP(w, r)
}

// validateAuth 校验 Authorization 头或 token 参数
func (g *Gateway) validateAuth(r *http.Request) (*auth.Claims, error) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return nil, auth.ErrInvalidToken
	}
	return g.deps.Tokens.Verify(token)
}

// getServiceInstance 获取健康的服务实例
func (g *Gateway) getServiceInstance(serviceType ServiceType) *ServiceInstance {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	var healthyInstances []*ServiceInstance
	for _, instance := range g.services[serviceType] {
		if instance.Health {
			healthyInstances = append(healthyInstances, instance)
		}
	}

	if len(healthyInstances) == 0 {
		return nil
	}

	// 使用时间戳作为简单的轮询机制
	index := time.Now().UnixNano() % int64(len(healthyInstances))
	return healthyInstances[index]
}

// registerInternalServices 注册内部服务
func (g *Gateway) registerInternalServices() {
	gameURL := fmt.Sprintf("http://localhost:%d", g.config.Server.GamePort)
	if err := g.RegisterService(ServiceGame, gameURL); err != nil {
		log.Printf("注册服务失败: %v", err)
	}
}

// healthCheck 健康检查
func (g *Gateway) healthCheck() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.checkServicesHealth()
		case <-g.shutdown:
			return
		}
	}
}

// checkServicesHealth 检查服务健康状态
func (g *Gateway) checkServicesHealth() {
	g.mutex.RLock()
	var instances []*ServiceInstance
	for _, list := range g.services {
		instances = append(instances, list...)
	}
	g.mutex.RUnlock()

	client := http.Client{Timeout: 2 * time.Second}

	for _, instance := range instances {
		healthURL := *instance.URL
		healthURL.Path = "/health"

		healthy := false
		resp, err := client.Get(healthURL.String())
		if err == nil {
			healthy = resp.StatusCode == http.StatusOK
			resp.Body.Close()
		}

		g.mutex.Lock()
		instance.LastCheck = time.Now()
		if healthy != instance.Health {
			if healthy {
				log.Printf("服务恢复健康: %s, ID: %s", instance.Type, instance.ID)
			} else {
				log.Printf("服务不健康: %s, ID: %s", instance.Type, instance.ID)
			}
			instance.Health = healthy
		}
		g.mutex.Unlock()
	}
}

// sendJSON 写入JSON响应
func sendJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("写入响应失败: %v", err)
	}
}

// sendSuccess 成功响应
func sendSuccess(w http.ResponseWriter, message string, data interface{}) {
	sendJSON(w, http.StatusOK, APIResponse{Success: true, Message: message, Data: data})
}

// sendError 错误响应
func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, APIResponse{Success: false, Message: message})
}
