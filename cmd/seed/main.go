// main.go

package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/jacl-coder/TankStorm-Server/config"
	"github.com/jacl-coder/TankStorm-Server/internal/skill"
	"github.com/jacl-coder/TankStorm-Server/pkg/db"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	flag.Parse()

	if err := config.LoadConfig(*configPath); err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	if err := db.InitPostgres(&config.GlobalConfig.Database); err != nil {
		log.Fatalf("初始化PostgreSQL失败: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.InitAllTables(ctx, db.DB); err != nil {
		log.Fatalf("创建数据表失败: %v", err)
	}

	registry := skill.NewDefaultRegistry()
	if err := db.SeedSkills(ctx, db.DB, registry.All()); err != nil {
		log.Fatalf("写入技能表失败: %v", err)
	}

	log.Printf("已写入 %d 个技能", registry.Len())
}
