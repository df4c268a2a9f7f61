// recorder.go

package stats

import (
	"context"
	"errors"

	"github.com/jacl-coder/TankStorm-Server/internal/models"
)

// Recorder 技能释放统计
type Recorder interface {
	RecordCast(ctx context.Context, rec models.SkillCastRecord) error
}

// Nop 不记录任何数据
type Nop struct{}

// RecordCast 实现 Recorder
func (Nop) RecordCast(context.Context, models.SkillCastRecord) error {
	return nil
}

// Multi 依次写入多个 Recorder
type Multi []Recorder

// RecordCast 实现 Recorder，返回所有错误的合并
func (m Multi) RecordCast(ctx context.Context, rec models.SkillCastRecord) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordCast(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
