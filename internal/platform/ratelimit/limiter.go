package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Result — исход проверки лимита. RetryAfter в целых секундах (округление вверх).
type Result struct {
	Allowed    bool
	RetryAfter int
}

// Limiter допускает не более одного действия на ключ за окно.
// Каждый вызов Check записывает время попытки — в том числе отклонённой,
// так что окно отсчитывается от последней попытки, а не от последней успешной.
type Limiter struct {
	mu      sync.Mutex
	window  time.Duration
	last    map[string]time.Time
	now     func() time.Time
}

func NewLimiter(window time.Duration) *Limiter {
	return &Limiter{
		window: window,
		last:   make(map[string]time.Time),
		now:    time.Now,
	}
}

// Check проверяет и записывает попытку по ключу.
func (l *Limiter) Check(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	prev, ok := l.last[key]
	l.last[key] = now
	if !ok || now.Sub(prev) >= l.window {
		return Result{Allowed: true}
	}

	remaining := l.window - now.Sub(prev)
	secs := int((remaining + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return Result{Allowed: false, RetryAfter: secs}
}

// Touch записывает попытку без проверки (например, после сравнения пароля).
func (l *Limiter) Touch(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last[key] = l.now()
}

// Sweep удаляет записи старше двух окон.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, ts := range l.last {
		if now.Sub(ts) > 2*l.window {
			delete(l.last, key)
			removed++
		}
	}
	return removed
}

// Run запускает периодическую очистку до отмены контекста.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}

// Len возвращает текущее число записей.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.last)
}
