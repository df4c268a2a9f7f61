package stats

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/jacl-coder/TankStorm-Server/internal/models"
)

// Async 在后台协程中写入统计，游戏循环不等待IO
type Async struct {
	next    Recorder
	timeout time.Duration

	records   chan models.SkillCastRecord
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewAsync 创建异步记录器
func NewAsync(next Recorder, bufferSize int) *Async {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	a := &Async{
		next:    next,
		timeout: 2 * time.Second,
		records: make(chan models.SkillCastRecord, bufferSize),
		done:    make(chan struct{}),
	}

	a.wg.Add(1)
	go a.run()
	return a
}

// RecordCast 投递记录，缓冲区满时丢弃
func (a *Async) RecordCast(_ context.Context, rec models.SkillCastRecord) error {
	select {
	case <-a.done:
		return nil
	default:
	}

	select {
	case a.records <- rec:
	default:
		log.Printf("统计缓冲区已满，丢弃技能记录: %s", rec.SkillID)
	}
	return nil
}

// Close 写完缓冲区中的记录后退出
func (a *Async) Close() {
	a.closeOnce.Do(func() {
		close(a.done)
		a.wg.Wait()
	})
}

func (a *Async) run() {
	defer a.wg.Done()

	for {
		select {
		case rec := <-a.records:
			a.write(rec)
		case <-a.done:
			// 清空剩余记录
			for {
				select {
				case rec := <-a.records:
					a.write(rec)
				default:
					return
				}
			}
		}
	}
}

func (a *Async) write(rec models.SkillCastRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
	defer cancel()

	if err := a.next.RecordCast(ctx, rec); err != nil {
		log.Printf("记录技能释放失败: %v", err)
	}
}
