package stats

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/jacl-coder/TankStorm-Server/internal/models"
)

// 统计Redis键名
const (
	SkillCastsKey      = "stats:skill_casts"
	PlayerSkillsPrefix = "stats:player_skills:"
)

// RedisRecorder 在Redis有序集合中累计技能释放次数
type RedisRecorder struct {
	client *redis.Client
}

// NewRedisRecorder 创建Redis统计
func NewRedisRecorder(client *redis.Client) *RedisRecorder {
	return &RedisRecorder{client: client}
}

// RecordCast 实现 Recorder
func (r *RedisRecorder) RecordCast(ctx context.Context, rec models.SkillCastRecord) error {
	pipe := r.client.TxPipeline()
	pipe.ZIncrBy(ctx, SkillCastsKey, 1, rec.SkillID)
	pipe.HIncrBy(ctx, PlayerSkillsPrefix+rec.PlayerID, rec.SkillID, 1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入Redis统计失败: %w", err)
	}
	return nil
}

// TopSkills 按释放次数降序返回技能
func (r *RedisRecorder) TopSkills(ctx context.Context, limit int) ([]models.SkillUsageEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	members, err := r.client.ZRevRangeWithScores(ctx, SkillCastsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("读取技能排行失败: %w", err)
	}

	entries := make([]models.SkillUsageEntry, 0, len(members))
	for i, member := range members {
		id, ok := member.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, models.SkillUsageEntry{
			SkillID: id,
			Casts:   int64(member.Score),
			Rank:    i + 1,
		})
	}
	return entries, nil
}

// PlayerSkills 玩家各技能的释放次数
func (r *RedisRecorder) PlayerSkills(ctx context.Context, playerID string) (map[string]int64, error) {
	raw, err := r.client.HGetAll(ctx, PlayerSkillsPrefix+playerID).Result()
	if err != nil {
		return nil, fmt.Errorf("读取玩家技能统计失败: %w", err)
	}

	counts := make(map[string]int64, len(raw))
	for id, v := range raw {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			counts[id] = n
		}
	}
	return counts, nil
}
