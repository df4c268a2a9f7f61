package stats

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jacl-coder/TankStorm-Server/internal/models"
)

const insertCastSQL = `INSERT INTO skill_casts (player_id, room_id, skill_id, cast_at) VALUES ($1, $2, $3, $4)`

// PostgresRecorder 把每次释放写入 skill_casts 表
type PostgresRecorder struct {
	db *sql.DB
}

// NewPostgresRecorder 创建PostgreSQL统计
func NewPostgresRecorder(db *sql.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// RecordCast 实现 Recorder
func (r *PostgresRecorder) RecordCast(ctx context.Context, rec models.SkillCastRecord) error {
	if _, err := r.db.ExecContext(ctx, insertCastSQL, rec.PlayerID, rec.RoomID, rec.SkillID, rec.CastAt); err != nil {
		return fmt.Errorf("写入技能释放记录失败: %w", err)
	}
	return nil
}
