// schema.go

package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jacl-coder/TankStorm-Server/internal/models"
)

// CreateAllTablesSQL 创建所有表的SQL语句
const CreateAllTablesSQL = `
-- 技能表
CREATE TABLE IF NOT EXISTS skills (
    id VARCHAR(50) PRIMARY KEY,
    position INT NOT NULL,
    name VARCHAR(50) NOT NULL,
    short_name VARCHAR(50) NOT NULL,
    description TEXT,
    kind VARCHAR(20) NOT NULL,
    effect_type VARCHAR(30) NOT NULL,
    effect_value DOUBLE PRECISION DEFAULT 0,
    cost INT DEFAULT 0,
    cooldown_ms BIGINT DEFAULT 0,
    duration_ms BIGINT DEFAULT 0,
    emoji VARCHAR(16)
);

-- 技能释放记录表
CREATE TABLE IF NOT EXISTS skill_casts (
    id BIGSERIAL PRIMARY KEY,
    player_id VARCHAR(64) NOT NULL,
    room_id VARCHAR(64) NOT NULL,
    skill_id VARCHAR(50) NOT NULL,
    cast_at TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_skill_casts_player_id ON skill_casts(player_id);
CREATE INDEX IF NOT EXISTS idx_skill_casts_skill_id ON skill_casts(skill_id);
`

const upsertSkillSQL = `
INSERT INTO skills (id, position, name, short_name, description, kind, effect_type, effect_value, cost, cooldown_ms, duration_ms, emoji)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
    position = EXCLUDED.position,
    name = EXCLUDED.name,
    short_name = EXCLUDED.short_name,
    description = EXCLUDED.description,
    kind = EXCLUDED.kind,
    effect_type = EXCLUDED.effect_type,
    effect_value = EXCLUDED.effect_value,
    cost = EXCLUDED.cost,
    cooldown_ms = EXCLUDED.cooldown_ms,
    duration_ms = EXCLUDED.duration_ms,
    emoji = EXCLUDED.emoji
`

// InitAllTables 初始化所有数据库表
func InitAllTables(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, CreateAllTablesSQL); err != nil {
		return fmt.Errorf("创建数据表失败: %w", err)
	}
	return nil
}

// SeedSkills 写入技能表，已存在的技能会被更新
func SeedSkills(ctx context.Context, conn *sql.DB, defs []models.SkillDefinition) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开启事务失败: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSkillSQL)
	if err != nil {
		return fmt.Errorf("预编译语句失败: %w", err)
	}
	defer stmt.Close()

	for i, def := range defs {
		_, err := stmt.ExecContext(ctx,
			def.ID, i, def.Name, def.ShortName, def.Description, string(def.Kind),
			string(def.Effect.Type), def.Effect.Value, def.Cost, def.CooldownMs, def.DurationMs, def.Emoji,
		)
		if err != nil {
			return fmt.Errorf("写入技能 %s 失败: %w", def.ID, err)
		}
	}

	return tx.Commit()
}
