package clock

import (
	"sync"
	"time"
)

// Clock 提供当前时间，便于测试中注入固定时刻
type Clock interface {
	Now() time.Time
}

// Real 系统时钟
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Mock 可手动设置与推进的时钟（测试用）
type Mock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMock 创建停在 t 的时钟
func NewMock(t time.Time) *Mock {
	return &Mock{now: t}
}

func (m *Mock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set 设置当前时间
func (m *Mock) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance 时间前进 d
func (m *Mock) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
