package task

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ==================== WizardCleanupTask 过期向导清理 ====================

// WizardCleaner 删除指定时间之前不活跃的向导，返回删除数量
type WizardCleaner interface {
	CleanupAbandoned(ctx context.Context, before time.Time, limit int) (int, error)
}

// WizardCleanupTask 定时删除用户已离开的向导及其暂存图片
type WizardCleanupTask struct {
	cleaner WizardCleaner
	cron    *cron.Cron
	spec    string
	ttl     time.Duration

	batchSize int
	now       func() time.Time

	// 同一时刻只允许一轮清理
	running sync.Mutex
}

// NewWizardCleanupTask 创建清理任务，spec 为 6 段 cron 表达式
func NewWizardCleanupTask(cleaner WizardCleaner, spec string, ttl time.Duration) *WizardCleanupTask {
	return &WizardCleanupTask{
		cleaner:   cleaner,
		cron:      cron.New(cron.WithSeconds()),
		spec:      spec,
		ttl:       ttl,
		batchSize: 100,
		now:       time.Now,
	}
}

// Start 注册并启动定时任务
func (t *WizardCleanupTask) Start() error {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		t.RunOnce(ctx)
	})
	if err != nil {
		zap.L().Error("[WizardCleanupTask] 定时任务启动失败", zap.String("spec", t.spec), zap.Error(err))
		return err
	}

	t.cron.Start()
	zap.L().Info("[WizardCleanupTask] 已启动", zap.String("spec", t.spec), zap.Duration("ttl", t.ttl))
	return nil
}

// Stop 停止任务，等待正在执行的清理结束
func (t *WizardCleanupTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
	zap.L().Info("[WizardCleanupTask] 已停止")
}

// RunOnce 执行一轮清理，按批删除直到没有过期向导
func (t *WizardCleanupTask) RunOnce(ctx context.Context) int {
	if !t.running.TryLock() {
		zap.L().Debug("[WizardCleanupTask] 上一轮仍在执行，跳过")
		return 0
	}
	defer t.running.Unlock()

	before := t.now().Add(-t.ttl)
	total := 0
	for {
		if ctx.Err() != nil {
			zap.L().Warn("[WizardCleanupTask] 任务超时停止", zap.Int("deleted", total))
			return total
		}

		n, err := t.cleaner.CleanupAbandoned(ctx, before, t.batchSize)
		if err != nil {
			zap.L().Error("[WizardCleanupTask] 清理失败", zap.Error(err))
			return total
		}
		total += n
		if n < t.batchSize {
			break
		}
	}

	if total > 0 {
		zap.L().Info("[WizardCleanupTask] 清理完成", zap.Int("deleted", total), zap.Time("before", before))
	}
	return total
}
