// main.go

package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacl-coder/TankStorm-Server/config"
	"github.com/jacl-coder/TankStorm-Server/internal/audio"
	"github.com/jacl-coder/TankStorm-Server/internal/auth"
	"github.com/jacl-coder/TankStorm-Server/internal/game"
	"github.com/jacl-coder/TankStorm-Server/internal/gateway"
	"github.com/jacl-coder/TankStorm-Server/internal/skill"
	"github.com/jacl-coder/TankStorm-Server/internal/stats"
	"github.com/jacl-coder/TankStorm-Server/pkg/db"
)

// stopper 需要在退出时关闭的服务
type stopper interface {
	Stop() error
}

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	serviceType := flag.String("service", "all", "服务类型 (game, gateway, all)")
	flag.Parse()

	// 加载配置
	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	cfg := &config.GlobalConfig

	// 数据库和Redis都是可选的，连接失败时只关闭对应功能
	if cfg.Database.Enabled {
		if err := db.InitPostgres(&cfg.Database); err != nil {
			log.Printf("初始化PostgreSQL失败，技能记录不会落库: %v", err)
		}
	}
	defer db.Close()

	if cfg.Redis.Enabled {
		if err := db.InitRedis(&cfg.Redis); err != nil {
			log.Printf("初始化Redis失败，技能统计不可用: %v", err)
		}
	}
	defer db.CloseRedis()

	registry := skill.NewDefaultRegistry()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	synth := newSynthesizer(&cfg.Audio)
	defer synth.Close()

	recorder, skillStats := newStats()
	defer recorder.Close()

	var services []stopper

	// 根据服务类型启动不同的服务
	switch *serviceType {
	case "game":
		services = append(services, startGameServer(cfg, registry, tokens, synth, recorder))
	case "gateway":
		services = append(services, startGatewayServer(cfg, registry, tokens, skillStats))
	case "all":
		services = append(services,
			startGameServer(cfg, registry, tokens, synth, recorder),
			startGatewayServer(cfg, registry, tokens, skillStats),
		)
		log.Println("所有服务已启动")
	default:
		log.Fatalf("未知的服务类型: %s", *serviceType)
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("接收到关闭信号，正在关闭服务器...")

	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Stop(); err != nil {
			log.Printf("关闭服务失败: %v", err)
		}
	}

	log.Println("服务器已安全关闭")
}

// newSynthesizer 创建音效合成器，音频设备不可用时返回静音合成器
func newSynthesizer(cfg *config.AudioConfig) *audio.Synthesizer {
	settings := audio.AudioSettings{Enabled: cfg.Enabled, Volume: cfg.Volume}

	open := func() (audio.Backend, error) {
		return audio.NewBeepBackend(cfg.SampleRate, cfg.BufferDuration())
	}
	return audio.OpenSynthesizer(open, audio.DefaultCueTable(), settings, cfg.QueueSize)
}

// newStats 根据可用的存储组装技能统计
func newStats() (*stats.Async, gateway.SkillStats) {
	var sinks stats.Multi
	var query gateway.SkillStats

	if db.RedisClient != nil {
		redisRecorder := stats.NewRedisRecorder(db.RedisClient)
		sinks = append(sinks, redisRecorder)
		query = redisRecorder
	}
	if db.DB != nil {
		sinks = append(sinks, stats.NewPostgresRecorder(db.DB))
	}

	var next stats.Recorder = stats.Nop{}
	if len(sinks) > 0 {
		next = sinks
	}
	return stats.NewAsync(next, 1024), query
}

// startGameServer 启动游戏服务器
func startGameServer(cfg *config.Config, registry *skill.Registry, tokens *auth.TokenManager, cues skill.CuePlayer, recorder stats.Recorder) *game.GameServer {
	server := game.NewGameServer(cfg, game.Dependencies{
		Registry: registry,
		Cues:     cues,
		Tokens:   tokens,
		Recorder: recorder,
	})

	if err := server.Start(); err != nil {
		log.Fatalf("启动游戏服务器失败: %v", err)
	}

	log.Println("游戏服务器已启动")
	return server
}

// startGatewayServer 启动网关服务器
func startGatewayServer(cfg *config.Config, registry *skill.Registry, tokens *auth.TokenManager, skillStats gateway.SkillStats) *gateway.Gateway {
	gatewayServer := gateway.NewGateway(cfg, gateway.Dependencies{
		Registry: registry,
		Tokens:   tokens,
		Stats:    skillStats,
	})

	if err := gatewayServer.Start(); err != nil {
		log.Fatalf("启动网关服务失败: %v", err)
	}

	log.Println("网关服务已启动")
	return gatewayServer
}
