package middleware

import (
	"sync"
)

// ==================== InFlightLimiter 在途请求限制 ====================

// InFlightLimiter 同一个键同一时间只允许一个请求
type InFlightLimiter struct {
	locks sync.Map // key -> *inflightEntry
}

type inflightEntry struct {
	mu sync.Mutex
}

// 全局实例
var globalInFlight = &InFlightLimiter{}

// GetInFlightLimiter 获取全局限制器
func GetInFlightLimiter() *InFlightLimiter {
	return globalInFlight
}

// TryAcquire 尝试占用 key，成功时返回释放函数
func (l *InFlightLimiter) TryAcquire(key string) (release func(), ok bool) {
	actual, _ := l.locks.LoadOrStore(key, &inflightEntry{})
	entry := actual.(*inflightEntry)

	if !entry.mu.TryLock() {
		return nil, false
	}
	return entry.mu.Unlock, true
}

// Busy 仅检查，不占用
func (l *InFlightLimiter) Busy(key string) bool {
	actual, ok := l.locks.Load(key)
	if !ok {
		return false
	}
	entry := actual.(*inflightEntry)
	if entry.mu.TryLock() {
		entry.mu.Unlock()
		return false
	}
	return true
}
