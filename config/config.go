// config.go

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 服务器配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Audio    AudioConfig    `mapstructure:"audio"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

// ServerConfig 服务器基本配置
type ServerConfig struct {
	GamePort     int    `mapstructure:"game_port"`
	GatewayPort  int    `mapstructure:"gateway_port"`
	Debug        bool   `mapstructure:"debug"`
	LogLevel     string `mapstructure:"log_level"`
	MaxRoomCount int    `mapstructure:"max_room_count"`
	MaxPlayers   int    `mapstructure:"max_players"`
	TickMs       int    `mapstructure:"tick_ms"` // 游戏循环间隔
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AudioConfig 音效配置
type AudioConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Volume     float64 `mapstructure:"volume"`
	SampleRate int     `mapstructure:"sample_rate"`
	BufferMs   int     `mapstructure:"buffer_ms"`
	QueueSize  int     `mapstructure:"queue_size"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig Config
)

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.game_port", 8081)
	v.SetDefault("server.gateway_port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.max_room_count", 100)
	v.SetDefault("server.max_players", 8)
	v.SetDefault("server.tick_ms", 16)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.dbname", "tankstorm")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("audio.enabled", true)
	v.SetDefault("audio.volume", 0.5)
	v.SetDefault("audio.sample_rate", 48000)
	v.SetDefault("audio.buffer_ms", 100)
	v.SetDefault("audio.queue_size", 64)

	v.SetDefault("auth.token_ttl", "24h")
}

// Load 从文件和环境变量加载配置，configPath 为空时只使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TANKSTORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("无法读取配置文件: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig 加载配置到 GlobalConfig
func LoadConfig(configPath string) error {
	cfg, err := Load(configPath)
	if err != nil {
		return err
	}
	GlobalConfig = *cfg
	return nil
}

// Validate 校验配置，音量超出范围时直接截断
func (c *Config) Validate() error {
	if c.Server.GamePort <= 0 || c.Server.GatewayPort <= 0 {
		return fmt.Errorf("端口配置无效: game=%d gateway=%d", c.Server.GamePort, c.Server.GatewayPort)
	}
	if c.Server.TickMs <= 0 {
		return fmt.Errorf("tick_ms 必须大于0: %d", c.Server.TickMs)
	}
	if c.Server.MaxPlayers <= 0 {
		return fmt.Errorf("max_players 必须大于0: %d", c.Server.MaxPlayers)
	}

	if c.Audio.Volume < 0 {
		c.Audio.Volume = 0
	}
	if c.Audio.Volume > 1 {
		c.Audio.Volume = 1
	}
	return nil
}

// TickInterval 游戏循环间隔
func (c *ServerConfig) TickInterval() time.Duration {
	return time.Duration(c.TickMs) * time.Millisecond
}

// BufferDuration 扬声器缓冲时长
func (c *AudioConfig) BufferDuration() time.Duration {
	return time.Duration(c.BufferMs) * time.Millisecond
}

// GetDSN 获取PostgreSQL连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetRedisAddr 获取Redis连接地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
